package domain

import (
	"fmt"
	"time"
)

// Task represents a task domain entity
type Task struct {
	ID             int        `json:"id"`
	UserID         int        `json:"-"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Memo           string     `json:"memo"`
	Completed      bool       `json:"completed"`
	Priority       Priority   `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	OrderIndex     int        `json:"order_index"`
	IsRepeatable   bool       `json:"is_repeatable"`
	RepeatType     RepeatType `json:"repeat_type"`
	RepeatInterval int        `json:"repeat_interval"`
	RepeatEndDate  *time.Time `json:"repeat_end_date"`
	CategoryID     *int       `json:"category_id"`
	ParentTaskID   *int       `json:"parent_task_id"`

	// 導出フィールド（保存しない、読み取り時に毎回計算する）
	IsOverdue bool `json:"is_overdue"`
	IsDueSoon bool `json:"is_due_soon"`
}

// Priority represents task priority levels
type Priority string

const (
	PriorityHigh     Priority = "high"
	PriorityModerate Priority = "moderate"
	PriorityLow      Priority = "low"
)

// IsValid validates if the priority is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityModerate, PriorityLow:
		return true
	default:
		return false
	}
}

// String returns string representation of Priority
func (p Priority) String() string {
	return string(p)
}

// TaskFilter represents filter criteria for task list queries
type TaskFilter struct {
	Completed  *bool
	CategoryID *int
	Priority   Priority
}

// TaskOrder is one entry of a batch reorder request.
type TaskOrder struct {
	ID         int
	OrderIndex int
}

// ParseDate parses an ISO-8601 date or timestamp. A date with no
// time-of-day is normalized to the end of that day (23:59:59) when
// endOfDay is true, otherwise to midnight.
func ParseDate(value string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		if endOfDay {
			return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC), nil
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid date format: %s", value)
}

// ParseDueDate parses a due date. 期限の時刻指定がない場合はその日の 23:59:59 に正規化する。
func ParseDueDate(value string) (time.Time, error) {
	return ParseDate(value, true)
}
