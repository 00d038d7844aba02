package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"todo-app/src/domain"
	"todo-app/src/interface/handler"
	"todo-app/src/usecase"
	"todo-app/src/validator"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMain(m *testing.M) {
	// 本番と同じカスタムバリデーションをbindingエンジンに登録する
	if err := validator.RegisterBindingValidations(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// MockTaskUsecase は usecase.TaskUsecase のモック実装
type MockTaskUsecase struct {
	mock.Mock
}

func (m *MockTaskUsecase) CreateTask(ctx context.Context, userID int, req usecase.CreateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskUsecase) GetTask(ctx context.Context, userID, id int) (*domain.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskUsecase) ListTasks(ctx context.Context, userID int, filter domain.TaskFilter) ([]domain.Task, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *MockTaskUsecase) UpdateTask(ctx context.Context, userID, id int, req usecase.UpdateTaskRequest) (*domain.Task, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskUsecase) DeleteTask(ctx context.Context, userID, id int) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTaskUsecase) ReorderTasks(ctx context.Context, userID int, orders []domain.TaskOrder) error {
	args := m.Called(ctx, userID, orders)
	return args.Error(0)
}

func (m *MockTaskUsecase) CalendarTasks(ctx context.Context, userID int, start, end time.Time) ([]domain.Task, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

// setUserID テスト用に認証済みユーザーIDを注入するmiddleware
func setUserID(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func setupTaskRouter(uc usecase.TaskUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	h := handler.NewTaskHandler(uc, logger)

	r := gin.New()
	r.Use(setUserID(1))
	r.GET("/api/tasks", h.ListTasks)
	r.POST("/api/tasks", h.CreateTask)
	r.GET("/api/tasks/:id", h.GetTask)
	r.PUT("/api/tasks/:id", h.UpdateTask)
	r.DELETE("/api/tasks/:id", h.DeleteTask)
	r.POST("/api/tasks/reorder", h.ReorderTasks)
	r.GET("/api/calendar/tasks", h.CalendarTasks)
	return r
}

func TestTaskHandler_CreateTask(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("CreateTask", mock.Anything, 1, mock.MatchedBy(func(req usecase.CreateTaskRequest) bool {
			return req.Title == "Buy groceries" &&
				req.DueDate != nil &&
				req.DueDate.Equal(time.Date(2030, 6, 1, 23, 59, 59, 0, time.UTC))
		})).Return(&domain.Task{ID: 1, Title: "Buy groceries", Priority: domain.PriorityModerate}, nil)

		r := setupTaskRouter(mockUC)

		body := `{"title":"Buy groceries","due_date":"2030-06-01"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Buy groceries", resp["title"])
		mockUC.AssertExpectations(t)
	})

	t.Run("missing title", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed due date", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		r := setupTaskRouter(mockUC)

		body := `{"title":"Task","due_date":"June 1st"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("sql injection pattern in title rejected", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		r := setupTaskRouter(mockUC)

		body := `{"title":"notes; DROP TABLE tasks --"}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockUC.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("validation error from usecase", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("CreateTask", mock.Anything, 1, mock.Anything).Return(nil, domain.ErrRepeatTypeInvalid)

		r := setupTaskRouter(mockUC)

		body := `{"title":"Task","is_repeatable":true}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_ListTasks(t *testing.T) {
	t.Run("defaults to active tasks", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("ListTasks", mock.Anything, 1, mock.MatchedBy(func(filter domain.TaskFilter) bool {
			return filter.Completed != nil && !*filter.Completed
		})).Return([]domain.Task{
			{ID: 1, Title: "First", OrderIndex: 0},
			{ID: 2, Title: "Second", OrderIndex: 1},
		}, nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp []map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp, 2)
		mockUC.AssertExpectations(t)
	})

	t.Run("completed filter", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("ListTasks", mock.Anything, 1, mock.MatchedBy(func(filter domain.TaskFilter) bool {
			return filter.Completed != nil && *filter.Completed
		})).Return([]domain.Task{}, nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/tasks?completed=true", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUC.AssertExpectations(t)
	})
}

func TestTaskHandler_UpdateTask(t *testing.T) {
	t.Run("successful completion toggle", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("UpdateTask", mock.Anything, 1, 5, mock.MatchedBy(func(req usecase.UpdateTaskRequest) bool {
			return req.Completed != nil && *req.Completed
		})).Return(&domain.Task{ID: 5, Title: "Task", Completed: true}, nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/tasks/5", bytes.NewBufferString(`{"completed":true}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUC.AssertExpectations(t)
	})

	t.Run("task not found", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("UpdateTask", mock.Anything, 1, 999, mock.Anything).Return(nil, usecase.ErrTaskNotFound)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/tasks/999", bytes.NewBufferString(`{"title":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/tasks/abc", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_DeleteTask(t *testing.T) {
	t.Run("successful delete returns 204", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("DeleteTask", mock.Anything, 1, 5).Return(nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/5", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		mockUC.AssertExpectations(t)
	})

	t.Run("task not found", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("DeleteTask", mock.Anything, 1, 999).Return(usecase.ErrTaskNotFound)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/api/tasks/999", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestTaskHandler_ReorderTasks(t *testing.T) {
	t.Run("successful reorder", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("ReorderTasks", mock.Anything, 1, []domain.TaskOrder{
			{ID: 1, OrderIndex: 1},
			{ID: 2, OrderIndex: 0},
		}).Return(nil)

		r := setupTaskRouter(mockUC)

		body := `{"task_orders":[{"id":1,"order_index":1},{"id":2,"order_index":0}]}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/reorder", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUC.AssertExpectations(t)
	})

	t.Run("empty batch rejected by binding", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/reorder", bytes.NewBufferString(`{"task_orders":[]}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative order index rejected by binding", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		r := setupTaskRouter(mockUC)

		body := `{"task_orders":[{"id":1,"order_index":-1}]}`
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/tasks/reorder", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTaskHandler_CalendarTasks(t *testing.T) {
	t.Run("successful range query", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)
		mockUC.On("CalendarTasks", mock.Anything, 1, start, end).Return([]domain.Task{
			{ID: 1, Title: "In range"},
		}, nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/tasks?start_date=2024-01-01&end_date=2024-01-31", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUC.AssertExpectations(t)
	})

	t.Run("open-ended range without parameters", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("CalendarTasks", mock.Anything, 1,
			mock.MatchedBy(func(start time.Time) bool { return start.IsZero() }),
			mock.MatchedBy(func(end time.Time) bool { return end.Year() == 9999 }),
		).Return([]domain.Task{}, nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/tasks", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUC.AssertExpectations(t)
	})

	t.Run("start only leaves end open", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		mockUC.On("CalendarTasks", mock.Anything, 1, start,
			mock.MatchedBy(func(end time.Time) bool { return end.Year() == 9999 }),
		).Return([]domain.Task{}, nil)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/tasks?start_date=2024-01-01", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockUC.AssertExpectations(t)
	})

	t.Run("inverted range", func(t *testing.T) {
		mockUC := new(MockTaskUsecase)
		mockUC.On("CalendarTasks", mock.Anything, 1, mock.Anything, mock.Anything).Return(nil, usecase.ErrInvalidDateRange)

		r := setupTaskRouter(mockUC)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/calendar/tasks?start_date=2024-02-01&end_date=2024-01-01", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
