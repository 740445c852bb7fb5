// Package reminder computes the store patch and the scheduler operations
// implied by a task mutation. Planning is pure: the caller executes the
// resulting plan, persistence first, then the ops in order.
package reminder

import (
	"errors"
	"strings"
	"time"

	"github.com/ytakahashi/task-reminder-api/internal/models"
)

var (
	ErrTitleRequired  = errors.New("task title is required")
	ErrReminderInPast = errors.New("reminder must be in the future")
)

// Edits carries the desired state of a task after a create or update.
// A nil ReminderAt means no reminder is wanted.
type Edits struct {
	Title       string
	Description string
	Status      models.TaskStatus
	ReminderAt  *time.Time
}

type OpKind string

const (
	OpSchedule OpKind = "schedule"
	OpCancel   OpKind = "cancel"
)

// ScheduleOp is a single scheduler side effect. FireAt is set only for
// schedule ops.
type ScheduleOp struct {
	Kind   OpKind
	TaskID string
	FireAt time.Time
}

// Patch holds the fields to persist for a task mutation.
type Patch struct {
	Title       string
	Description string
	Status      models.TaskStatus
	ReminderAt  *time.Time
}

// Plan is the deterministic outcome of a transition: what to write to the
// store and which scheduler operations to run afterwards, in order.
type Plan struct {
	Patch Patch
	Ops   []ScheduleOp
}

// PlanTransition validates desired and derives the plan for moving the task
// from previous (nil for a new task) to the desired state. taskID is the id
// the alert is keyed by; for a new task the caller assigns it before
// persisting. now is the validation instant.
//
// A previous reminder counts as active whenever it is set, even if its
// instant has passed: cancelling is idempotent, so a stale cancel is safe.
func PlanTransition(previous *models.Task, taskID string, desired Edits, now time.Time) (Plan, error) {
	title := strings.TrimSpace(desired.Title)
	if title == "" {
		return Plan{}, ErrTitleRequired
	}
	if desired.ReminderAt != nil && !desired.ReminderAt.After(now) {
		return Plan{}, ErrReminderInPast
	}

	patch := Patch{
		Title:       title,
		Description: strings.TrimSpace(desired.Description),
		Status:      desired.Status,
		ReminderAt:  desired.ReminderAt,
	}
	// an omitted status keeps the task's current one; new tasks start incomplete
	if patch.Status == "" {
		if previous != nil {
			patch.Status = previous.Status
		} else {
			patch.Status = models.StatusIncomplete
		}
	}

	var prevAt *time.Time
	if previous != nil {
		prevAt = previous.ReminderAt
	}

	var ops []ScheduleOp
	switch {
	case prevAt == nil && desired.ReminderAt == nil:
		// nothing scheduled, nothing wanted
	case prevAt == nil:
		ops = append(ops, ScheduleOp{Kind: OpSchedule, TaskID: taskID, FireAt: *desired.ReminderAt})
	case desired.ReminderAt == nil:
		ops = append(ops, ScheduleOp{Kind: OpCancel, TaskID: taskID})
	case desired.ReminderAt.Equal(*prevAt):
		// unchanged, leave the pending alert alone
	default:
		ops = append(ops,
			ScheduleOp{Kind: OpCancel, TaskID: taskID},
			ScheduleOp{Kind: OpSchedule, TaskID: taskID, FireAt: *desired.ReminderAt},
		)
	}

	return Plan{Patch: patch, Ops: ops}, nil
}

// PlanDeletion returns the scheduler ops for a task deletion. The cancel is
// unconditional so a dangling alert can never outlive its task.
func PlanDeletion(taskID string) []ScheduleOp {
	return []ScheduleOp{{Kind: OpCancel, TaskID: taskID}}
}
