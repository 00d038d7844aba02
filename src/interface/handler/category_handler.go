package handler

import (
	"errors"
	"net/http"

	"todo-app/src/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CategoryHandler handles HTTP requests for category operations
type CategoryHandler struct {
	categoryUsecase usecase.CategoryUsecase
	logger          *logrus.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryUsecase usecase.CategoryUsecase, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryUsecase: categoryUsecase,
		logger:          logger,
	}
}

// ListCategories retrieves all categories of the authenticated user
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryUsecase.ListCategories(c.Request.Context(), getUserID(c))
	if err != nil {
		h.logger.WithError(err).Error("カテゴリリストの取得に失敗")
		c.JSON(http.StatusInternalServerError, ErrorResponseDTO{
			Error: "Failed to get categories",
		})
		return
	}

	c.JSON(http.StatusOK, toCategoryResponseDTOs(categories))
}

// CreateCategory creates a new category
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("リクエストのバインドに失敗")
		c.JSON(http.StatusBadRequest, ErrorResponseDTO{
			Error:   "Invalid request format",
			Message: err.Error(),
		})
		return
	}

	category, err := h.categoryUsecase.CreateCategory(c.Request.Context(), getUserID(c), usecase.CreateCategoryRequest{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		h.logger.WithError(err).Error("カテゴリの作成に失敗")

		status := http.StatusInternalServerError
		if errors.Is(err, usecase.ErrDuplicateCategoryName) {
			status = http.StatusConflict
		} else if usecase.IsValidation(err) {
			status = http.StatusBadRequest
		}

		c.JSON(status, ErrorResponseDTO{
			Error:   "Failed to create category",
			Message: err.Error(),
		})
		return
	}

	h.logger.WithField("category_id", category.ID).Info("カテゴリを作成しました")
	c.JSON(http.StatusCreated, toCategoryResponseDTO(category))
}
