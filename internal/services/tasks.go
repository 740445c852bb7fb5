package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ytakahashi/task-reminder-api/internal/models"
	"github.com/ytakahashi/task-reminder-api/internal/reminder"
)

// TaskStore is the persistence surface the task service needs.
type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id string) (*models.Task, error)
	Patch(ctx context.Context, id string, patch reminder.Patch, updatedAt time.Time) error
	PatchStatus(ctx context.Context, id string, status models.TaskStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, sortBy SortField, desc bool) ([]*models.Task, error)
}

// TaskService executes reminder plans: the store write runs first, then the
// scheduler ops in plan order, so an alert can never exist for a task that
// was not saved.
//
// Operations on one task id are expected to be serialized by the caller;
// concurrent calls for different ids share no mutable state.
type TaskService struct {
	store TaskStore
	queue AlertQueue
	cache ListCache
	now   func() time.Time
}

func NewTaskService(store TaskStore, queue AlertQueue, cache ListCache) (*TaskService, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if queue == nil {
		return nil, ErrQueueNil
	}
	if cache == nil {
		return nil, ErrCacheNil
	}

	return &TaskService{store: store, queue: queue, cache: cache, now: time.Now}, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID string, edits reminder.Edits) (*models.Task, error) {
	id := uuid.New().String()
	now := s.now()

	// the initial status is fixed; a client-supplied one is ignored
	edits.Status = ""

	plan, err := reminder.PlanTransition(nil, id, edits, now)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		ID:          id,
		OwnerID:     ownerID,
		Title:       plan.Patch.Title,
		Description: plan.Patch.Description,
		Status:      plan.Patch.Status,
		ReminderAt:  plan.Patch.ReminderAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	s.invalidate(ctx, ownerID)

	if err := s.applyOps(ctx, task, plan.Ops); err != nil {
		return task, err
	}

	return task, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, edits reminder.Edits) (*models.Task, error) {
	previous, err := s.owned(ctx, ownerID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	plan, err := reminder.PlanTransition(previous, taskID, edits, now)
	if err != nil {
		return nil, err
	}

	if err := s.store.Patch(ctx, taskID, plan.Patch, now); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	s.invalidate(ctx, ownerID)

	updated := *previous
	updated.Title = plan.Patch.Title
	updated.Description = plan.Patch.Description
	updated.Status = plan.Patch.Status
	updated.ReminderAt = plan.Patch.ReminderAt
	updated.UpdatedAt = now

	if err := s.applyOps(ctx, &updated, plan.Ops); err != nil {
		return &updated, err
	}

	return &updated, nil
}

// Delete removes the task and always cancels its alert, whether or not a
// reminder was active. A queue failure never fails the delete.
func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	if _, err := s.owned(ctx, ownerID, taskID); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	s.invalidate(ctx, ownerID)

	for _, op := range reminder.PlanDeletion(taskID) {
		if err := s.queue.Remove(ctx, op.TaskID); err != nil {
			log.Printf("Failed to cancel alert for deleted task %s: %v", taskID, err)
		}
	}

	return nil
}

// ToggleStatus flips the task's status optimistically: the cached visible
// copy changes first, the store write follows, and a store failure reverts
// the visible copy before the error is reported.
func (s *TaskService) ToggleStatus(ctx context.Context, ownerID, taskID string, current models.TaskStatus) (models.TaskStatus, error) {
	if _, err := s.owned(ctx, ownerID, taskID); err != nil {
		return current, err
	}

	next := current.Toggled()

	if err := s.cache.UpdateStatus(ctx, ownerID, taskID, next); err != nil {
		log.Printf("Failed to update cached status for task %s: %v", taskID, err)
	}

	if err := s.store.PatchStatus(ctx, taskID, next, s.now()); err != nil {
		if cErr := s.cache.UpdateStatus(ctx, ownerID, taskID, current); cErr != nil {
			log.Printf("Failed to revert cached status for task %s: %v", taskID, cErr)
		}
		if errors.Is(err, ErrNotFound) {
			return current, ErrNotFound
		}
		return current, fmt.Errorf("failed to toggle task status: %w", err)
	}

	return next, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, sortBy SortField, desc bool) ([]*models.Task, error) {
	// only the default listing is cached; other orderings go to the store
	cacheable := sortBy == SortCreatedAt && !desc
	if cacheable {
		tasks, ok, err := s.cache.Get(ctx, ownerID)
		if err != nil {
			log.Printf("Failed to read task list cache for user %s: %v", ownerID, err)
		} else if ok {
			return tasks, nil
		}
	}

	tasks, err := s.store.ListByOwner(ctx, ownerID, sortBy, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if cacheable {
		if err := s.cache.Set(ctx, ownerID, tasks); err != nil {
			log.Printf("Failed to fill task list cache for user %s: %v", ownerID, err)
		}
	}

	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	return s.owned(ctx, ownerID, taskID)
}

// owned fetches the task and hides tasks of other users behind ErrNotFound.
func (s *TaskService) owned(ctx context.Context, ownerID, taskID string) (*models.Task, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	return task, nil
}

// applyOps runs the scheduler side of a plan after a successful store write.
// Any failure is reported as the non-fatal ErrReminderNotScheduled.
func (s *TaskService) applyOps(ctx context.Context, task *models.Task, ops []reminder.ScheduleOp) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case reminder.OpCancel:
			err = s.queue.Remove(ctx, op.TaskID)
		case reminder.OpSchedule:
			err = s.queue.Add(ctx, Alert{
				TaskID:  op.TaskID,
				OwnerID: task.OwnerID,
				Title:   task.Title,
				Body:    task.Description,
				FireAt:  op.FireAt,
			})
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrReminderNotScheduled, err)
		}
	}

	return nil
}

func (s *TaskService) invalidate(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		log.Printf("Failed to invalidate task list cache for user %s: %v", ownerID, err)
	}
}
