package usecase

import (
	"context"
	"regexp"
	"time"

	"todo-app/src/domain"
)

var hexColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// CreateCategoryRequest represents input for creating a category
type CreateCategoryRequest struct {
	Name  string
	Color string
}

// CategoryUsecase defines the interface for category business logic
type CategoryUsecase interface {
	CreateCategory(ctx context.Context, userID int, req CreateCategoryRequest) (*domain.Category, error)
	ListCategories(ctx context.Context, userID int) ([]domain.Category, error)
}

type categoryUsecase struct {
	categoryRepo domain.CategoryRepository
	now          func() time.Time
}

// NewCategoryUsecase creates a new category usecase
func NewCategoryUsecase(categoryRepo domain.CategoryRepository) CategoryUsecase {
	return &categoryUsecase{
		categoryRepo: categoryRepo,
		now:          time.Now,
	}
}

// CreateCategory creates a new category. Names are unique per user and
// the color falls back to the default when omitted.
func (u *categoryUsecase) CreateCategory(ctx context.Context, userID int, req CreateCategoryRequest) (*domain.Category, error) {
	if req.Name == "" || len(req.Name) > 50 {
		return nil, ErrInvalidCategoryName
	}

	color := req.Color
	if color == "" {
		color = domain.DefaultCategoryColor
	}
	if !hexColorPattern.MatchString(color) {
		return nil, ErrInvalidColor
	}

	exists, err := u.categoryRepo.NameExists(ctx, userID, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateCategoryName
	}

	now := u.now()
	category := &domain.Category{
		UserID:    userID,
		Name:      req.Name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	return u.categoryRepo.Create(ctx, category)
}

// ListCategories retrieves the user's categories with the derived
// count of uncompleted tasks per category.
func (u *categoryUsecase) ListCategories(ctx context.Context, userID int) ([]domain.Category, error) {
	return u.categoryRepo.List(ctx, userID)
}
