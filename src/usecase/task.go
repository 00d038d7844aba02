package usecase

import (
	"context"
	"errors"
	"time"

	"todo-app/src/domain"
)

var (
	ErrTaskNotFound          = domain.ErrTaskNotFound
	ErrCategoryNotFound      = domain.ErrCategoryNotFound
	ErrInvalidTitle          = errors.New("title is required and must be less than 200 characters")
	ErrInvalidPriority       = errors.New("priority must be high, moderate, or low")
	ErrInvalidReorder        = errors.New("reorder requires active tasks owned by the user and non-negative order indexes")
	ErrInvalidDateRange      = errors.New("start_date must not be later than end_date")
	ErrInvalidCategoryName   = errors.New("category name is required and must be less than 50 characters")
	ErrInvalidColor          = errors.New("color must be a hex color value like #3B82F6")
	ErrDuplicateCategoryName = errors.New("category name already exists")
)

// IsValidation reports whether the error is a request validation
// failure that should surface as a 4xx rather than a server error.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidTitle,
		ErrInvalidPriority,
		ErrInvalidReorder,
		ErrInvalidDateRange,
		ErrInvalidCategoryName,
		ErrInvalidColor,
		ErrDuplicateCategoryName,
		domain.ErrRepeatTypeInvalid,
		domain.ErrRepeatIntervalInvalid,
		domain.ErrRepeatEndBeforeDue,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// CreateTaskRequest represents input for creating a task
type CreateTaskRequest struct {
	Title          string
	Description    string
	Memo           string
	Priority       string
	DueDate        *time.Time
	CategoryID     *int
	IsRepeatable   bool
	RepeatType     string
	RepeatInterval int
	RepeatEndDate  *time.Time
}

// UpdateTaskRequest represents input for partially updating a task
type UpdateTaskRequest struct {
	Title          *string
	Description    *string
	Memo           *string
	Priority       *string
	DueDate        *time.Time
	CategoryID     *int
	Completed      *bool
	IsRepeatable   *bool
	RepeatType     *string
	RepeatInterval *int
	RepeatEndDate  *time.Time
}

// TaskUsecase defines the interface for task business logic
type TaskUsecase interface {
	CreateTask(ctx context.Context, userID int, req CreateTaskRequest) (*domain.Task, error)
	GetTask(ctx context.Context, userID, id int) (*domain.Task, error)
	ListTasks(ctx context.Context, userID int, filter domain.TaskFilter) ([]domain.Task, error)
	UpdateTask(ctx context.Context, userID, id int, req UpdateTaskRequest) (*domain.Task, error)
	DeleteTask(ctx context.Context, userID, id int) error
	ReorderTasks(ctx context.Context, userID int, orders []domain.TaskOrder) error
	CalendarTasks(ctx context.Context, userID int, start, end time.Time) ([]domain.Task, error)
}

type taskUsecase struct {
	taskRepo      domain.TaskRepository
	categoryRepo  domain.CategoryRepository
	dueSoonWindow time.Duration
	now           func() time.Time
}

// NewTaskUsecase creates a new task usecase. dueSoonWindow controls how
// far ahead a due date still classifies as due-soon.
func NewTaskUsecase(taskRepo domain.TaskRepository, categoryRepo domain.CategoryRepository, dueSoonWindow time.Duration) TaskUsecase {
	if dueSoonWindow <= 0 {
		dueSoonWindow = domain.DefaultDueSoonWindow
	}
	return &taskUsecase{
		taskRepo:      taskRepo,
		categoryRepo:  categoryRepo,
		dueSoonWindow: dueSoonWindow,
		now:           time.Now,
	}
}

// CreateTask creates a new task at the tail of the active ordering
func (u *taskUsecase) CreateTask(ctx context.Context, userID int, req CreateTaskRequest) (*domain.Task, error) {
	if req.Title == "" || len(req.Title) > 200 {
		return nil, ErrInvalidTitle
	}

	priority := domain.Priority(req.Priority)
	if req.Priority == "" {
		priority = domain.PriorityModerate // デフォルト値
	}
	if !priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	if req.CategoryID != nil {
		if _, err := u.categoryRepo.GetByID(ctx, userID, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	repeatType := domain.RepeatType(req.RepeatType)
	repeatInterval := req.RepeatInterval
	if repeatInterval == 0 {
		repeatInterval = 1
	}
	repeatEnd := req.RepeatEndDate
	if err := domain.ValidateRecurrence(req.IsRepeatable, repeatType, repeatInterval, req.DueDate, repeatEnd, u.now()); err != nil {
		return nil, err
	}
	if !req.IsRepeatable {
		// 繰り返し設定は is_repeatable が真のときだけ意味を持つ
		repeatType = ""
		repeatInterval = 1
		repeatEnd = nil
	}

	now := u.now()
	task := &domain.Task{
		UserID:         userID,
		Title:          req.Title,
		Description:    req.Description,
		Memo:           req.Memo,
		Priority:       priority,
		DueDate:        req.DueDate,
		CategoryID:     req.CategoryID,
		IsRepeatable:   req.IsRepeatable,
		RepeatType:     repeatType,
		RepeatInterval: repeatInterval,
		RepeatEndDate:  repeatEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := u.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, err
	}

	created.Annotate(u.now(), u.dueSoonWindow)
	return created, nil
}

// GetTask retrieves a single task with derived urgency flags
func (u *taskUsecase) GetTask(ctx context.Context, userID, id int) (*domain.Task, error) {
	task, err := u.taskRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	task.Annotate(u.now(), u.dueSoonWindow)
	return task, nil
}

// ListTasks retrieves tasks with filtering. Active tasks come back in
// ascending order_index, completed tasks in descending completed_at.
func (u *taskUsecase) ListTasks(ctx context.Context, userID int, filter domain.TaskFilter) ([]domain.Task, error) {
	if filter.Priority != "" && !filter.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}

	tasks, err := u.taskRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	u.annotateAll(tasks)
	return tasks, nil
}

// UpdateTask applies a partial update. Toggling completed drives the
// completion lifecycle: false→true stamps completed_at, removes the
// task from the active ordering and spawns the next occurrence of a
// repeatable task; true→false clears completed_at and re-admits the
// task at the tail of the active ordering.
func (u *taskUsecase) UpdateTask(ctx context.Context, userID, id int, req UpdateTaskRequest) (*domain.Task, error) {
	existing, err := u.taskRepo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	patched := *existing
	if req.Title != nil {
		patched.Title = *req.Title
	}
	if req.Description != nil {
		patched.Description = *req.Description
	}
	if req.Memo != nil {
		patched.Memo = *req.Memo
	}
	if req.Priority != nil {
		patched.Priority = domain.Priority(*req.Priority)
	}
	if req.DueDate != nil {
		patched.DueDate = req.DueDate
	}
	if req.CategoryID != nil {
		patched.CategoryID = req.CategoryID
	}
	if req.IsRepeatable != nil {
		patched.IsRepeatable = *req.IsRepeatable
	}
	if req.RepeatType != nil {
		patched.RepeatType = domain.RepeatType(*req.RepeatType)
	}
	if req.RepeatInterval != nil {
		patched.RepeatInterval = *req.RepeatInterval
	}
	if req.RepeatEndDate != nil {
		patched.RepeatEndDate = req.RepeatEndDate
	}

	if patched.Title == "" || len(patched.Title) > 200 {
		return nil, ErrInvalidTitle
	}
	if !patched.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}
	if req.CategoryID != nil {
		if _, err := u.categoryRepo.GetByID(ctx, userID, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateRecurrence(patched.IsRepeatable, patched.RepeatType, patched.RepeatInterval, patched.DueDate, patched.RepeatEndDate, u.now()); err != nil {
		return nil, err
	}
	if !patched.IsRepeatable {
		patched.RepeatType = ""
		patched.RepeatInterval = 1
		patched.RepeatEndDate = nil
	}

	patched.UpdatedAt = u.now()

	// 完了状態の切り替えはフィールド更新ごと一つのトランザクションで
	// 永続化する。途中で失敗しても中途半端な状態は残らない。
	var updated *domain.Task
	switch {
	case req.Completed != nil && *req.Completed && !existing.Completed:
		updated, err = u.taskRepo.Complete(ctx, &patched, u.buildSuccessor(&patched))
	case req.Completed != nil && !*req.Completed && existing.Completed:
		updated, err = u.taskRepo.Reopen(ctx, &patched)
	default:
		updated, err = u.taskRepo.Update(ctx, &patched)
	}
	if err != nil {
		return nil, err
	}

	updated.Annotate(u.now(), u.dueSoonWindow)
	return updated, nil
}

// DeleteTask permanently removes a task
func (u *taskUsecase) DeleteTask(ctx context.Context, userID, id int) error {
	return u.taskRepo.Delete(ctx, userID, id)
}

// ReorderTasks applies a batch of order indexes atomically. Every
// entry must reference an active task owned by the user.
func (u *taskUsecase) ReorderTasks(ctx context.Context, userID int, orders []domain.TaskOrder) error {
	if len(orders) == 0 {
		return ErrInvalidReorder
	}

	seen := make(map[int]bool, len(orders))
	for _, o := range orders {
		if o.OrderIndex < 0 || seen[o.ID] {
			return ErrInvalidReorder
		}
		seen[o.ID] = true
	}

	if err := u.taskRepo.Reorder(ctx, userID, orders); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return ErrInvalidReorder
		}
		return err
	}
	return nil
}

// CalendarTasks returns tasks due within the inclusive date range
func (u *taskUsecase) CalendarTasks(ctx context.Context, userID int, start, end time.Time) ([]domain.Task, error) {
	if start.After(end) {
		return nil, ErrInvalidDateRange
	}

	tasks, err := u.taskRepo.DueBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	u.annotateAll(tasks)
	return tasks, nil
}

// buildSuccessor prepares the next occurrence of a repeatable task, or
// nil when the task does not repeat or the next due date would pass
// repeat_end_date.
func (u *taskUsecase) buildSuccessor(task *domain.Task) *domain.Task {
	if !task.IsRepeatable || task.DueDate == nil {
		return nil
	}

	next := domain.NextDueDate(*task.DueDate, task.RepeatType, task.RepeatInterval)
	if task.RepeatEndDate != nil && next.After(*task.RepeatEndDate) {
		return nil
	}

	now := u.now()
	parentID := task.ID
	return &domain.Task{
		UserID:         task.UserID,
		Title:          task.Title,
		Description:    task.Description,
		Memo:           task.Memo,
		Priority:       task.Priority,
		DueDate:        &next,
		CategoryID:     task.CategoryID,
		IsRepeatable:   task.IsRepeatable,
		RepeatType:     task.RepeatType,
		RepeatInterval: task.RepeatInterval,
		RepeatEndDate:  task.RepeatEndDate,
		ParentTaskID:   &parentID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (u *taskUsecase) annotateAll(tasks []domain.Task) {
	now := u.now()
	for i := range tasks {
		tasks[i].Annotate(now, u.dueSoonWindow)
	}
}
