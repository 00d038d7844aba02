package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"todo-app/src/domain"
	"todo-app/src/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler handles HTTP requests for task operations
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
	logger      *logrus.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskUsecase usecase.TaskUsecase, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
		logger:      logger,
	}
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("リクエストのバインドに失敗")
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	dueDate, err := parseOptionalDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid due_date",
			Message: err.Error(),
		})
		return
	}
	repeatEnd, err := parseOptionalDueDate(req.RepeatEndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid repeat_end_date",
			Message: err.Error(),
		})
		return
	}

	usecaseReq := usecase.CreateTaskRequest{
		Title:          req.Title,
		Description:    req.Description,
		Memo:           req.Memo,
		Priority:       req.Priority,
		DueDate:        dueDate,
		CategoryID:     req.CategoryID,
		IsRepeatable:   req.IsRepeatable,
		RepeatType:     req.RepeatType,
		RepeatInterval: req.RepeatInterval,
		RepeatEndDate:  repeatEnd,
	}

	task, err := h.taskUsecase.CreateTask(c.Request.Context(), getUserID(c), usecaseReq)
	if err != nil {
		h.logger.WithError(err).Error("タスクの作成に失敗")

		status := http.StatusInternalServerError
		if usecase.IsValidation(err) {
			status = http.StatusBadRequest
		} else if errors.Is(err, usecase.ErrCategoryNotFound) {
			status = http.StatusNotFound
		}

		c.JSON(status, ErrorResponseDTO{
			Error:   "Failed to create task",
			Message: err.Error(),
		})
		return
	}

	h.logger.WithField("task_id", task.ID).Info("タスクを作成しました")
	c.JSON(http.StatusCreated, toTaskResponseDTO(task))
}

// GetTask retrieves a task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.taskUsecase.GetTask(c.Request.Context(), getUserID(c), id)
	if err != nil {
		h.logger.WithError(err).WithField("task_id", id).Error("タスクの取得に失敗")

		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrTaskNotFound) {
			status = http.StatusNotFound
		}

		c.JSON(status, ErrorResponseDTO{
			Error: "Failed to get task",
		})
		return
	}

	c.JSON(http.StatusOK, toTaskResponseDTO(task))
}

// ListTasks retrieves tasks with filtering
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var filterDTO TaskListFilterDTO
	if err := c.ShouldBindQuery(&filterDTO); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid query parameters",
			Message: err.Error(),
		})
		return
	}

	filter := domain.TaskFilter{
		Completed:  &filterDTO.Completed,
		CategoryID: filterDTO.CategoryID,
		Priority:   domain.Priority(filterDTO.Priority),
	}

	tasks, err := h.taskUsecase.ListTasks(c.Request.Context(), getUserID(c), filter)
	if err != nil {
		h.logger.WithError(err).Error("タスクリストの取得に失敗")

		status := http.StatusInternalServerError
		if usecase.IsValidation(err) {
			status = http.StatusBadRequest
		}

		c.JSON(status, ErrorResponseDTO{
			Error:   "Failed to get tasks",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, toTaskResponseDTOs(tasks))
}

// UpdateTask partially updates an existing task
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	var req UpdateTaskRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("リクエストのバインドに失敗")
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	dueDate, err := parseOptionalDueDate(req.DueDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid due_date",
			Message: err.Error(),
		})
		return
	}
	repeatEnd, err := parseOptionalDueDate(req.RepeatEndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid repeat_end_date",
			Message: err.Error(),
		})
		return
	}

	usecaseReq := usecase.UpdateTaskRequest{
		Title:          req.Title,
		Description:    req.Description,
		Memo:           req.Memo,
		Priority:       req.Priority,
		DueDate:        dueDate,
		CategoryID:     req.CategoryID,
		Completed:      req.Completed,
		IsRepeatable:   req.IsRepeatable,
		RepeatType:     req.RepeatType,
		RepeatInterval: req.RepeatInterval,
		RepeatEndDate:  repeatEnd,
	}

	task, err := h.taskUsecase.UpdateTask(c.Request.Context(), getUserID(c), id, usecaseReq)
	if err != nil {
		h.logger.WithError(err).WithField("task_id", id).Error("タスクの更新に失敗")

		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrTaskNotFound) || errors.Is(err, usecase.ErrCategoryNotFound) {
			status = http.StatusNotFound
		} else if usecase.IsValidation(err) {
			status = http.StatusBadRequest
		}

		c.JSON(status, ErrorResponseDTO{
			Error:   "Failed to update task",
			Message: err.Error(),
		})
		return
	}

	h.logger.WithField("task_id", id).Info("タスクを更新しました")
	c.JSON(http.StatusOK, toTaskResponseDTO(task))
}

// DeleteTask permanently deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id, ok := taskIDParam(c)
	if !ok {
		return
	}

	err := h.taskUsecase.DeleteTask(c.Request.Context(), getUserID(c), id)
	if err != nil {
		h.logger.WithError(err).WithField("task_id", id).Error("タスクの削除に失敗")

		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrTaskNotFound) {
			status = http.StatusNotFound
		}

		c.JSON(status, ErrorResponseDTO{
			Error: "Failed to delete task",
		})
		return
	}

	h.logger.WithField("task_id", id).Info("タスクを削除しました")
	c.Status(http.StatusNoContent)
}

// ReorderTasks applies a batch of order index changes atomically
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	var req ReorderRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("リクエストのバインドに失敗")
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	orders := make([]domain.TaskOrder, len(req.TaskOrders))
	for i, o := range req.TaskOrders {
		orders[i] = domain.TaskOrder{ID: o.ID, OrderIndex: *o.OrderIndex}
	}

	err := h.taskUsecase.ReorderTasks(c.Request.Context(), getUserID(c), orders)
	if err != nil {
		h.logger.WithError(err).Error("タスクの並び替えに失敗")

		status := http.StatusInternalServerError
		if usecase.IsValidation(err) {
			status = http.StatusBadRequest
		}

		c.JSON(status, ErrorResponseDTO{
			Error:   "Failed to reorder tasks",
			Message: err.Error(),
		})
		return
	}

	h.logger.WithField("count", len(orders)).Info("タスクを並び替えました")
	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered successfully"})
}

// calendarHorizon caps an open-ended calendar range on the end side
var calendarHorizon = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// CalendarTasks retrieves tasks due within a date range. Both bounds
// are optional; a missing bound leaves the range open on that side.
func (h *TaskHandler) CalendarTasks(c *gin.Context) {
	var rangeDTO CalendarRangeDTO
	if err := c.ShouldBindQuery(&rangeDTO); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid query parameters",
			Message: err.Error(),
		})
		return
	}

	var start time.Time
	if rangeDTO.StartDate != "" {
		parsed, err := domain.ParseDate(rangeDTO.StartDate, false)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponseDTO{
				Error:   "Invalid start_date",
				Message: err.Error(),
			})
			return
		}
		start = parsed
	}

	end := calendarHorizon
	if rangeDTO.EndDate != "" {
		parsed, err := domain.ParseDate(rangeDTO.EndDate, true)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponseDTO{
				Error:   "Invalid end_date",
				Message: err.Error(),
			})
			return
		}
		end = parsed
	}

	tasks, err := h.taskUsecase.CalendarTasks(c.Request.Context(), getUserID(c), start, end)
	if err != nil {
		h.logger.WithError(err).Error("カレンダータスクの取得に失敗")

		status := http.StatusInternalServerError
		if usecase.IsValidation(err) {
			status = http.StatusBadRequest
		}

		c.JSON(status, ErrorResponseDTO{
			Error:   "Failed to get calendar tasks",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, toTaskResponseDTOs(tasks))
}

// getUserID returns the authenticated user ID set by the auth middleware
func getUserID(c *gin.Context) int {
	return c.GetInt("user_id")
}

func taskIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid task ID",
			Message: "Task ID must be a number",
		})
		return 0, false
	}
	return id, true
}

func parseOptionalDueDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := domain.ParseDueDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
