package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ytakahashi/task-reminder-api/internal/auth"
)

type AuthHandler struct {
	manager *auth.Manager
}

func NewAuthHandler(manager *auth.Manager) *AuthHandler {
	return &AuthHandler{manager: manager}
}

type tokenRequest struct {
	UserID string `json:"userId"`
}

// POST /auth/token
//
// Issues a session token for the given user id (the owner's LINE user id,
// which is also where reminders are delivered).
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "userId is required")
	}

	token, err := h.manager.Generate(userID)
	if err != nil {
		log.Printf("Failed to issue token: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}
