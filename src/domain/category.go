package domain

import (
	"time"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#3B82F6"

// Category represents a task category owned by a single user
type Category struct {
	ID        int       `json:"id"`
	UserID    int       `json:"-"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// TaskCount is the number of uncompleted tasks referencing this
	// category. Derived at read time, never stored.
	TaskCount int `json:"task_count"`
}
