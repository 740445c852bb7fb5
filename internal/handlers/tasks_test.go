package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/task-reminder-api/internal/auth"
	"github.com/ytakahashi/task-reminder-api/internal/handlers"
	"github.com/ytakahashi/task-reminder-api/internal/models"
	"github.com/ytakahashi/task-reminder-api/internal/reminder"
	"github.com/ytakahashi/task-reminder-api/internal/services"
)

type fakeTaskService struct {
	createFn func(ownerID string, edits reminder.Edits) (*models.Task, error)
	getFn    func(ownerID, taskID string) (*models.Task, error)
	updateFn func(ownerID, taskID string, edits reminder.Edits) (*models.Task, error)
	deleteFn func(ownerID, taskID string) error
	toggleFn func(ownerID, taskID string, current models.TaskStatus) (models.TaskStatus, error)
	listFn   func(ownerID string, sortBy services.SortField, desc bool) ([]*models.Task, error)
}

func (f *fakeTaskService) Create(ctx context.Context, ownerID string, edits reminder.Edits) (*models.Task, error) {
	return f.createFn(ownerID, edits)
}

func (f *fakeTaskService) Get(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	return f.getFn(ownerID, taskID)
}

func (f *fakeTaskService) Update(ctx context.Context, ownerID, taskID string, edits reminder.Edits) (*models.Task, error) {
	return f.updateFn(ownerID, taskID, edits)
}

func (f *fakeTaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	return f.deleteFn(ownerID, taskID)
}

func (f *fakeTaskService) ToggleStatus(ctx context.Context, ownerID, taskID string, current models.TaskStatus) (models.TaskStatus, error) {
	return f.toggleFn(ownerID, taskID, current)
}

func (f *fakeTaskService) List(ctx context.Context, ownerID string, sortBy services.SortField, desc bool) ([]*models.Task, error) {
	return f.listFn(ownerID, sortBy, desc)
}

func newApp(t *testing.T, svc handlers.TaskService) (*echo.Echo, string) {
	t.Helper()

	manager := auth.NewManager(auth.Config{
		SecretKey:     "test-secret",
		TokenDuration: time.Hour,
		Issuer:        "test",
	})
	token, err := manager.Generate("U1")
	require.NoError(t, err)

	e := echo.New()
	h := handlers.NewTaskHandler(svc)
	g := e.Group("/tasks", auth.Middleware(manager))
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.POST("/:id/toggle", h.Toggle)
	g.DELETE("/:id", h.Delete)

	return e, token
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func TestCreate_RequiresSession(t *testing.T) {
	e, _ := newApp(t, &fakeTaskService{})

	rec := doJSON(t, e, http.MethodPost, "/tasks", "", map[string]string{"title": "Buy milk"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreate_OK(t *testing.T) {
	svc := &fakeTaskService{
		createFn: func(ownerID string, edits reminder.Edits) (*models.Task, error) {
			assert.Equal(t, "U1", ownerID)
			assert.Equal(t, "Buy milk", edits.Title)
			return &models.Task{ID: "T1", OwnerID: ownerID, Title: edits.Title, Status: models.StatusIncomplete}, nil
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodPost, "/tasks", token, map[string]string{"title": "Buy milk"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Task    *models.Task `json:"task"`
		Warning string       `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "T1", resp.Task.ID)
	assert.Empty(t, resp.Warning)
}

func TestCreate_ValidationError(t *testing.T) {
	svc := &fakeTaskService{
		createFn: func(ownerID string, edits reminder.Edits) (*models.Task, error) {
			return nil, reminder.ErrTitleRequired
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodPost, "/tasks", token, map[string]string{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate_SchedulerWarning(t *testing.T) {
	svc := &fakeTaskService{
		createFn: func(ownerID string, edits reminder.Edits) (*models.Task, error) {
			task := &models.Task{ID: "T1", OwnerID: ownerID, Title: edits.Title}
			return task, fmt.Errorf("%w: queue down", services.ErrReminderNotScheduled)
		},
	}
	e, token := newApp(t, svc)

	fireAt := time.Now().Add(time.Hour).Format(time.RFC3339)
	rec := doJSON(t, e, http.MethodPost, "/tasks", token, map[string]string{
		"title":        "Buy milk",
		"reminderTime": fireAt,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Warning string `json:"warning"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "task saved, reminder not set", resp.Warning)
}

func TestGet_OK(t *testing.T) {
	svc := &fakeTaskService{
		getFn: func(ownerID, taskID string) (*models.Task, error) {
			assert.Equal(t, "U1", ownerID)
			return &models.Task{ID: taskID, OwnerID: ownerID, Title: "Buy milk", Status: models.StatusIncomplete}, nil
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodGet, "/tasks/T1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "T1", task.ID)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := &fakeTaskService{
		updateFn: func(ownerID, taskID string, edits reminder.Edits) (*models.Task, error) {
			return nil, services.ErrNotFound
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodPatch, "/tasks/T9", token, map[string]string{"title": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestToggle_OK(t *testing.T) {
	svc := &fakeTaskService{
		toggleFn: func(ownerID, taskID string, current models.TaskStatus) (models.TaskStatus, error) {
			assert.Equal(t, "T1", taskID)
			assert.Equal(t, models.StatusIncomplete, current)
			return models.StatusCompleted, nil
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodPost, "/tasks/T1/toggle", token, map[string]string{"status": "INCOMPLETE"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMPLETED")
}

func TestToggle_InvalidStatus(t *testing.T) {
	e, token := newApp(t, &fakeTaskService{})

	rec := doJSON(t, e, http.MethodPost, "/tasks/T1/toggle", token, map[string]string{"status": "DONE"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDelete_OK(t *testing.T) {
	var deleted string
	svc := &fakeTaskService{
		deleteFn: func(ownerID, taskID string) error {
			deleted = taskID
			return nil
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodDelete, "/tasks/T1", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "T1", deleted)
}

func TestList_SortParams(t *testing.T) {
	var gotSort services.SortField
	var gotDesc bool
	svc := &fakeTaskService{
		listFn: func(ownerID string, sortBy services.SortField, desc bool) ([]*models.Task, error) {
			gotSort = sortBy
			gotDesc = desc
			return nil, nil
		},
	}
	e, token := newApp(t, svc)

	rec := doJSON(t, e, http.MethodGet, "/tasks?sort=reminderTime&direction=desc", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.SortReminderAt, gotSort)
	assert.True(t, gotDesc)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = doJSON(t, e, http.MethodGet, "/tasks?sort=priority", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
