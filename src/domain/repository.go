package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// TaskRepository defines the interface for task data operations. Every
// method is scoped by the owning user; a task that exists but belongs
// to someone else behaves exactly like a missing one.
type TaskRepository interface {
	// Create persists a new task at the tail of the owner's active
	// ordering (order_index = current max + 1).
	Create(ctx context.Context, task *Task) (*Task, error)
	GetByID(ctx context.Context, userID, id int) (*Task, error)
	List(ctx context.Context, userID int, filter TaskFilter) ([]Task, error)
	// Update persists the editable fields of a task. Completion state
	// and ordering are managed through Complete, Reopen and Reorder.
	Update(ctx context.Context, task *Task) (*Task, error)
	// Delete permanently removes a task and compacts the remaining
	// active order indexes.
	Delete(ctx context.Context, userID, id int) error
	// Complete persists the task's editable fields, marks it completed,
	// removes it from the active ordering and compacts the remainder,
	// all in one transaction. When successor is non-nil it is inserted
	// at the tail of the active ordering in that same transaction.
	Complete(ctx context.Context, task *Task, successor *Task) (*Task, error)
	// Reopen persists the task's editable fields, clears completed_at
	// and re-admits the task at the tail of the active ordering in one
	// transaction.
	Reopen(ctx context.Context, task *Task) (*Task, error)
	// Reorder applies the given order indexes as one atomic batch and
	// renumbers the full active set to a dense 0..n-1 sequence.
	Reorder(ctx context.Context, userID int, orders []TaskOrder) error
	// DueBetween returns tasks whose due date falls within the
	// inclusive range, regardless of completion state.
	DueBetween(ctx context.Context, userID int, start, end time.Time) ([]Task, error)
}

// CategoryRepository defines the interface for category data operations
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, userID, id int) (*Category, error)
	List(ctx context.Context, userID int) ([]Category, error)
	NameExists(ctx context.Context, userID int, name string) (bool, error)
}
