package models

import (
	"time"
)

type TaskStatus string

const (
	StatusIncomplete TaskStatus = "INCOMPLETE"
	StatusCompleted  TaskStatus = "COMPLETED"
)

// Valid reports whether s is one of the known status values.
func (s TaskStatus) Valid() bool {
	return s == StatusIncomplete || s == StatusCompleted
}

// Toggled returns the opposite status.
func (s TaskStatus) Toggled() TaskStatus {
	if s == StatusCompleted {
		return StatusIncomplete
	}
	return StatusCompleted
}

// Task represents a user-owned to-do item with an optional reminder.
// ReminderAt is non-nil only while a reminder is active.
type Task struct {
	ID          string     `firestore:"id" json:"id"`
	OwnerID     string     `firestore:"userId" json:"userId"`
	Title       string     `firestore:"title" json:"title"`
	Description string     `firestore:"description" json:"description"`
	Status      TaskStatus `firestore:"status" json:"status"`
	ReminderAt  *time.Time `firestore:"reminderTime" json:"reminderTime,omitempty"`
	CreatedAt   time.Time  `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `firestore:"updatedAt" json:"updatedAt"`
}
