package services

import "errors"

var (
	ErrNotFound = errors.New("task not found")
	ErrStoreNil = errors.New("task store is nil")
	ErrQueueNil = errors.New("alert queue is nil")
	ErrCacheNil = errors.New("task list cache is nil")

	// ErrReminderNotScheduled marks the degraded case where the task was
	// persisted but a scheduler operation failed afterwards. Callers surface
	// it as a warning, not as a failed mutation.
	ErrReminderNotScheduled = errors.New("task saved, reminder not set")
)
