package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ytakahashi/task-reminder-api/internal/models"
	"github.com/ytakahashi/task-reminder-api/internal/reminder"
)

const tasksCollection = "tasks"

// SortField selects the ordering of a task listing.
type SortField string

const (
	SortCreatedAt  SortField = "createdAt"
	SortReminderAt SortField = "reminderTime"
)

// FirestoreStore persists tasks as documents in the tasks collection.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

func (fs *FirestoreStore) Close() error {
	return fs.client.Close()
}

func (fs *FirestoreStore) Insert(ctx context.Context, task *models.Task) error {
	_, err := fs.client.Collection(tasksCollection).Doc(task.ID).Set(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

func (fs *FirestoreStore) Get(ctx context.Context, id string) (*models.Task, error) {
	doc, err := fs.client.Collection(tasksCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	var task models.Task
	if err := doc.DataTo(&task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}

	return &task, nil
}

func (fs *FirestoreStore) Patch(ctx context.Context, id string, patch reminder.Patch, updatedAt time.Time) error {
	// reminderTime is written as an explicit null when no reminder is set.
	var reminderAt any
	if patch.ReminderAt != nil {
		reminderAt = *patch.ReminderAt
	}

	_, err := fs.client.Collection(tasksCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "title", Value: patch.Title},
		{Path: "description", Value: patch.Description},
		{Path: "status", Value: string(patch.Status)},
		{Path: "reminderTime", Value: reminderAt},
		{Path: "updatedAt", Value: updatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to patch task: %w", err)
	}

	return nil
}

func (fs *FirestoreStore) PatchStatus(ctx context.Context, id string, taskStatus models.TaskStatus, updatedAt time.Time) error {
	_, err := fs.client.Collection(tasksCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(taskStatus)},
		{Path: "updatedAt", Value: updatedAt},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to patch task status: %w", err)
	}

	return nil
}

func (fs *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := fs.client.Collection(tasksCollection).Doc(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

func (fs *FirestoreStore) ListByOwner(ctx context.Context, ownerID string, sortBy SortField, desc bool) ([]*models.Task, error) {
	direction := firestore.Asc
	if desc {
		direction = firestore.Desc
	}

	iter := fs.client.Collection(tasksCollection).
		Where("userId", "==", ownerID).
		OrderBy(string(sortBy), direction).
		Documents(ctx)

	var tasks []*models.Task
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tasks: %w", err)
		}

		var task models.Task
		if err := doc.DataTo(&task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}

		tasks = append(tasks, &task)
	}

	return tasks, nil
}
