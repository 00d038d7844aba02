package handler

import (
	"time"

	"todo-app/src/domain"
)

// CreateTaskRequestDTO represents HTTP request for creating a task
type CreateTaskRequestDTO struct {
	Title          string  `json:"title" binding:"required,max=200,safe_text"`
	Description    string  `json:"description" binding:"omitempty,safe_text"`
	Memo           string  `json:"memo" binding:"omitempty,safe_text"`
	Priority       string  `json:"priority" binding:"omitempty,oneof=high moderate low"`
	DueDate        *string `json:"due_date"`
	CategoryID     *int    `json:"category_id"`
	IsRepeatable   bool    `json:"is_repeatable"`
	RepeatType     string  `json:"repeat_type" binding:"omitempty,oneof=daily weekly monthly yearly"`
	RepeatInterval int     `json:"repeat_interval" binding:"omitempty,min=1"`
	RepeatEndDate  *string `json:"repeat_end_date"`
}

// UpdateTaskRequestDTO represents HTTP request for partially updating a task
type UpdateTaskRequestDTO struct {
	Title          *string `json:"title,omitempty" binding:"omitempty,max=200,safe_text"`
	Description    *string `json:"description,omitempty" binding:"omitempty,safe_text"`
	Memo           *string `json:"memo,omitempty" binding:"omitempty,safe_text"`
	Priority       *string `json:"priority,omitempty" binding:"omitempty,oneof=high moderate low"`
	DueDate        *string `json:"due_date,omitempty"`
	CategoryID     *int    `json:"category_id,omitempty"`
	Completed      *bool   `json:"completed,omitempty"`
	IsRepeatable   *bool   `json:"is_repeatable,omitempty"`
	RepeatType     *string `json:"repeat_type,omitempty" binding:"omitempty,oneof=daily weekly monthly yearly"`
	RepeatInterval *int    `json:"repeat_interval,omitempty" binding:"omitempty,min=1"`
	RepeatEndDate  *string `json:"repeat_end_date,omitempty"`
}

// TaskListFilterDTO represents HTTP query parameters for listing tasks
type TaskListFilterDTO struct {
	Completed  bool   `form:"completed,default=false"`
	CategoryID *int   `form:"category_id"`
	Priority   string `form:"priority" binding:"omitempty,oneof=high moderate low"`
}

// TaskOrderDTO is one entry of a batch reorder request
type TaskOrderDTO struct {
	ID         int  `json:"id" binding:"required"`
	OrderIndex *int `json:"order_index" binding:"required,gte=0"`
}

// ReorderRequestDTO represents HTTP request for a batch reorder
type ReorderRequestDTO struct {
	TaskOrders []TaskOrderDTO `json:"task_orders" binding:"required,min=1,dive"`
}

// CalendarRangeDTO represents HTTP query parameters for the calendar
// view. Both bounds are optional; a missing bound leaves the range
// open on that side.
type CalendarRangeDTO struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// TaskResponseDTO represents HTTP response for a task
type TaskResponseDTO struct {
	ID             int        `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Memo           string     `json:"memo"`
	Completed      bool       `json:"completed"`
	Priority       string     `json:"priority"`
	DueDate        *time.Time `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	OrderIndex     int        `json:"order_index"`
	IsRepeatable   bool       `json:"is_repeatable"`
	RepeatType     string     `json:"repeat_type,omitempty"`
	RepeatInterval int        `json:"repeat_interval"`
	RepeatEndDate  *time.Time `json:"repeat_end_date"`
	CategoryID     *int       `json:"category_id"`
	ParentTaskID   *int       `json:"parent_task_id"`
	IsOverdue      bool       `json:"is_overdue"`
	IsDueSoon      bool       `json:"is_due_soon"`
}

// CreateCategoryRequestDTO represents HTTP request for creating a category
type CreateCategoryRequestDTO struct {
	Name  string `json:"name" binding:"required,max=50,safe_text"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// CategoryResponseDTO represents HTTP response for a category
type CategoryResponseDTO struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	TaskCount int    `json:"task_count"`
}

// ErrorResponseDTO represents HTTP error response
type ErrorResponseDTO struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func toTaskResponseDTO(task *domain.Task) TaskResponseDTO {
	return TaskResponseDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Memo:           task.Memo,
		Completed:      task.Completed,
		Priority:       task.Priority.String(),
		DueDate:        task.DueDate,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CompletedAt:    task.CompletedAt,
		OrderIndex:     task.OrderIndex,
		IsRepeatable:   task.IsRepeatable,
		RepeatType:     task.RepeatType.String(),
		RepeatInterval: task.RepeatInterval,
		RepeatEndDate:  task.RepeatEndDate,
		CategoryID:     task.CategoryID,
		ParentTaskID:   task.ParentTaskID,
		IsOverdue:      task.IsOverdue,
		IsDueSoon:      task.IsDueSoon,
	}
}

func toTaskResponseDTOs(tasks []domain.Task) []TaskResponseDTO {
	result := make([]TaskResponseDTO, len(tasks))
	for i := range tasks {
		result[i] = toTaskResponseDTO(&tasks[i])
	}
	return result
}

func toCategoryResponseDTO(category *domain.Category) CategoryResponseDTO {
	return CategoryResponseDTO{
		ID:        category.ID,
		Name:      category.Name,
		Color:     category.Color,
		TaskCount: category.TaskCount,
	}
}

func toCategoryResponseDTOs(categories []domain.Category) []CategoryResponseDTO {
	result := make([]CategoryResponseDTO, len(categories))
	for i := range categories {
		result[i] = toCategoryResponseDTO(&categories[i])
	}
	return result
}
