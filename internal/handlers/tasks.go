package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ytakahashi/task-reminder-api/internal/auth"
	"github.com/ytakahashi/task-reminder-api/internal/models"
	"github.com/ytakahashi/task-reminder-api/internal/reminder"
	"github.com/ytakahashi/task-reminder-api/internal/services"
)

type TaskService interface {
	Create(ctx context.Context, ownerID string, edits reminder.Edits) (*models.Task, error)
	Get(ctx context.Context, ownerID, taskID string) (*models.Task, error)
	Update(ctx context.Context, ownerID, taskID string, edits reminder.Edits) (*models.Task, error)
	Delete(ctx context.Context, ownerID, taskID string) error
	ToggleStatus(ctx context.Context, ownerID, taskID string, current models.TaskStatus) (models.TaskStatus, error)
	List(ctx context.Context, ownerID string, sortBy services.SortField, desc bool) ([]*models.Task, error)
}

type TaskHandler struct {
	tasks TaskService
}

func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type taskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	ReminderAt  *time.Time `json:"reminderTime"`
}

func (r taskRequest) edits() (reminder.Edits, error) {
	status := models.TaskStatus(r.Status)
	if r.Status != "" && !status.Valid() {
		return reminder.Edits{}, errInvalidStatus
	}

	return reminder.Edits{
		Title:       r.Title,
		Description: r.Description,
		Status:      status,
		ReminderAt:  r.ReminderAt,
	}, nil
}

type taskResponse struct {
	Task    *models.Task `json:"task"`
	Warning string       `json:"warning,omitempty"`
}

type toggleRequest struct {
	Status string `json:"status"`
}

var errInvalidStatus = errors.New("status must be INCOMPLETE or COMPLETED")

// POST /tasks
func (h *TaskHandler) Create(c echo.Context) error {
	ownerID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	edits, err := req.edits()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.tasks.Create(c.Request().Context(), ownerID, edits)
	if errors.Is(err, services.ErrReminderNotScheduled) {
		return c.JSON(http.StatusCreated, taskResponse{Task: task, Warning: services.ErrReminderNotScheduled.Error()})
	}
	if err != nil {
		return taskError(err)
	}

	return c.JSON(http.StatusCreated, taskResponse{Task: task})
}

// GET /tasks/:id
func (h *TaskHandler) Get(c echo.Context) error {
	ownerID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	task, err := h.tasks.Get(c.Request().Context(), ownerID, c.Param("id"))
	if err != nil {
		return taskError(err)
	}

	return c.JSON(http.StatusOK, task)
}

// PATCH /tasks/:id
func (h *TaskHandler) Update(c echo.Context) error {
	ownerID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	edits, err := req.edits()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.tasks.Update(c.Request().Context(), ownerID, c.Param("id"), edits)
	if errors.Is(err, services.ErrReminderNotScheduled) {
		return c.JSON(http.StatusOK, taskResponse{Task: task, Warning: services.ErrReminderNotScheduled.Error()})
	}
	if err != nil {
		return taskError(err)
	}

	return c.JSON(http.StatusOK, taskResponse{Task: task})
}

// POST /tasks/:id/toggle
func (h *TaskHandler) Toggle(c echo.Context) error {
	ownerID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	current := models.TaskStatus(req.Status)
	if !current.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, errInvalidStatus.Error())
	}

	status, err := h.tasks.ToggleStatus(c.Request().Context(), ownerID, c.Param("id"), current)
	if err != nil {
		return taskError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": string(status)})
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c echo.Context) error {
	ownerID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	if err := h.tasks.Delete(c.Request().Context(), ownerID, c.Param("id")); err != nil {
		return taskError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// GET /tasks
func (h *TaskHandler) List(c echo.Context) error {
	ownerID, ok := auth.CurrentUserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	sortBy := services.SortCreatedAt
	switch c.QueryParam("sort") {
	case "", "createdAt":
	case "reminderTime":
		sortBy = services.SortReminderAt
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "sort must be createdAt or reminderTime")
	}

	desc := false
	switch c.QueryParam("direction") {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "direction must be asc or desc")
	}

	tasks, err := h.tasks.List(c.Request().Context(), ownerID, sortBy, desc)
	if err != nil {
		return taskError(err)
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}

	return c.JSON(http.StatusOK, tasks)
}

func taskError(err error) error {
	switch {
	case errors.Is(err, reminder.ErrTitleRequired),
		errors.Is(err, reminder.ErrReminderInPast):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, services.ErrNotFound.Error())
	default:
		log.Printf("Task operation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
