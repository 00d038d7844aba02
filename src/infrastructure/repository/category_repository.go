package repository

import (
	"context"
	"database/sql"
	"fmt"

	"todo-app/src/database"
	"todo-app/src/domain"

	"github.com/sirupsen/logrus"
)

// CategoryRepository implements domain.CategoryRepository on PostgreSQL
type CategoryRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *database.DB, logger *logrus.Logger) domain.CategoryRepository {
	return &CategoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
		INSERT INTO categories (user_id, name, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		category.UserID, category.Name, category.Color, category.CreatedAt, category.UpdatedAt,
	).Scan(&category.ID)
	if err != nil {
		r.logger.WithError(err).Error("カテゴリの作成に失敗")
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	r.logger.WithField("category_id", category.ID).WithField("user_id", category.UserID).Info("カテゴリを作成しました")
	return category, nil
}

// GetByID retrieves a category by ID for a specific user, including
// the derived count of uncompleted tasks.
func (r *CategoryRepository) GetByID(ctx context.Context, userID, id int) (*domain.Category, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.color, c.created_at, c.updated_at, COUNT(t.id)
		FROM categories c
		LEFT JOIN tasks t ON t.category_id = c.id AND t.completed = FALSE
		WHERE c.id = $1 AND c.user_id = $2
		GROUP BY c.id`

	var category domain.Category
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&category.ID, &category.UserID, &category.Name, &category.Color,
		&category.CreatedAt, &category.UpdatedAt, &category.TaskCount,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrCategoryNotFound
		}
		r.logger.WithError(err).WithField("category_id", id).Error("カテゴリの取得に失敗")
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &category, nil
}

// List retrieves the user's categories with derived task counts
func (r *CategoryRepository) List(ctx context.Context, userID int) ([]domain.Category, error) {
	query := `
		SELECT c.id, c.user_id, c.name, c.color, c.created_at, c.updated_at, COUNT(t.id)
		FROM categories c
		LEFT JOIN tasks t ON t.category_id = c.id AND t.completed = FALSE
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.WithError(err).Error("カテゴリリストの取得に失敗")
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		err := rows.Scan(
			&category.ID, &category.UserID, &category.Name, &category.Color,
			&category.CreatedAt, &category.UpdatedAt, &category.TaskCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

// NameExists checks whether the user already has a category with the
// given name.
func (r *CategoryRepository) NameExists(ctx context.Context, userID int, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE user_id = $1 AND name = $2`,
		userID, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check category name: %w", err)
	}
	return count > 0, nil
}
