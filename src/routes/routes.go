package routes

import (
	"todo-app/src/handlers"
	"todo-app/src/interface/handler"
	"todo-app/src/middleware"
	"todo-app/src/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes sets up all API routes
func SetupRoutes(
	r *gin.Engine,
	authService service.AuthService,
	authHandler *handlers.AuthHandler,
	taskHandler *handler.TaskHandler,
	categoryHandler *handler.CategoryHandler,
) {
	// パブリックルートのグループ化
	api := r.Group("/api")
	api.Use(middleware.LoggerMiddleware())
	api.Use(middleware.CORSMiddleware())
	api.Use(middleware.RateLimitMiddleware())

	// 認証不要のルート
	api.POST("/register", authHandler.Register) // POST /api/register
	api.POST("/login", authHandler.Login)       // POST /api/login
	api.POST("/refresh", authHandler.RefreshToken)

	// 認証が必要なルート
	authorized := api.Group("")
	authorized.Use(middleware.AuthMiddleware(authService))
	{
		authorized.GET("/me", authHandler.GetProfile) // GET /api/me

		// タスクの基本CRUD操作と並び替え
		tasks := authorized.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)             // GET /api/tasks
			tasks.POST("", taskHandler.CreateTask)           // POST /api/tasks
			tasks.GET("/:id", taskHandler.GetTask)           // GET /api/tasks/:id
			tasks.PUT("/:id", taskHandler.UpdateTask)        // PUT /api/tasks/:id
			tasks.DELETE("/:id", taskHandler.DeleteTask)     // DELETE /api/tasks/:id
			tasks.POST("/reorder", taskHandler.ReorderTasks) // POST /api/tasks/reorder
		}

		// カテゴリ操作
		categories := authorized.Group("/categories")
		{
			categories.GET("", categoryHandler.ListCategories) // GET /api/categories
			categories.POST("", categoryHandler.CreateCategory)
		}

		// カレンダー表示用
		authorized.GET("/calendar/tasks", taskHandler.CalendarTasks) // GET /api/calendar/tasks
	}
}
