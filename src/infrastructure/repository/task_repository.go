package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"todo-app/src/database"
	"todo-app/src/domain"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const taskColumns = `id, user_id, title, description, memo, completed, priority, due_date,
	created_at, updated_at, completed_at, order_index,
	is_repeatable, repeat_type, repeat_interval, repeat_end_date, category_id, parent_task_id`

// TaskRepository implements domain.TaskRepository on PostgreSQL
type TaskRepository struct {
	db     *database.DB
	logger *logrus.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB, logger *logrus.Logger) domain.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Create inserts a task at the tail of the owner's active ordering
func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := r.insertTask(ctx, tx, task)
	if err != nil {
		r.logger.WithError(err).Error("タスクの作成に失敗")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithField("task_id", created.ID).WithField("user_id", created.UserID).Info("タスクを作成しました")
	return created, nil
}

// insertTask assigns the next active order index and inserts the row.
// Runs inside the caller's transaction.
func (r *TaskRepository) insertTask(ctx context.Context, q querier, task *domain.Task) (*domain.Task, error) {
	var nextIndex int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index) + 1, 0) FROM tasks WHERE user_id = $1 AND completed = FALSE`,
		task.UserID,
	).Scan(&nextIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order index: %w", err)
	}

	query := `
		INSERT INTO tasks (user_id, title, description, memo, completed, priority, due_date,
			created_at, updated_at, order_index,
			is_repeatable, repeat_type, repeat_interval, repeat_end_date, category_id, parent_task_id)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + taskColumns

	row := q.QueryRowContext(ctx, query,
		task.UserID, task.Title, task.Description, task.Memo, task.Priority.String(),
		nullTime(task.DueDate), task.CreatedAt, task.UpdatedAt, nextIndex,
		task.IsRepeatable, nullString(task.RepeatType.String()), task.RepeatInterval,
		nullTime(task.RepeatEndDate), nullInt(task.CategoryID), nullInt(task.ParentTaskID),
	)

	created, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return created, nil
}

// GetByID retrieves a task by ID for a specific user
func (r *TaskRepository) GetByID(ctx context.Context, userID, id int) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		r.logger.WithError(err).WithField("task_id", id).Error("タスクの取得に失敗")
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// List retrieves tasks for a user with filtering. Active tasks are
// ordered by order_index, completed tasks by most recent completion.
func (r *TaskRepository) List(ctx context.Context, userID int, filter domain.TaskFilter) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []interface{}{userID}
	argCount := 1

	if filter.Completed != nil {
		argCount++
		query += fmt.Sprintf(" AND completed = $%d", argCount)
		args = append(args, *filter.Completed)
	}
	if filter.CategoryID != nil {
		argCount++
		query += fmt.Sprintf(" AND category_id = $%d", argCount)
		args = append(args, *filter.CategoryID)
	}
	if filter.Priority != "" {
		argCount++
		query += fmt.Sprintf(" AND priority = $%d", argCount)
		args = append(args, filter.Priority.String())
	}

	// 並び順: 完了済みは完了日時の降順、未完了は order_index の昇順
	if filter.Completed != nil && *filter.Completed {
		query += " ORDER BY completed_at DESC NULLS LAST"
	} else {
		query += " ORDER BY order_index ASC, created_at DESC"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.WithError(err).Error("タスクリストの取得に失敗")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// Update persists the editable fields of a task
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	updated, err := updateTaskFields(ctx, r.db, task)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		r.logger.WithError(err).WithField("task_id", task.ID).Error("タスクの更新に失敗")
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	r.logger.WithField("task_id", updated.ID).Info("タスクを更新しました")
	return updated, nil
}

// updateTaskFields persists the editable fields of a task. Runs against
// the caller's transaction or the bare connection.
func updateTaskFields(ctx context.Context, q querier, task *domain.Task) (*domain.Task, error) {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, memo = $3, priority = $4, due_date = $5,
			category_id = $6, is_repeatable = $7, repeat_type = $8, repeat_interval = $9,
			repeat_end_date = $10, updated_at = $11
		WHERE id = $12 AND user_id = $13
		RETURNING ` + taskColumns

	row := q.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Memo, task.Priority.String(), nullTime(task.DueDate),
		nullInt(task.CategoryID), task.IsRepeatable, nullString(task.RepeatType.String()),
		task.RepeatInterval, nullTime(task.RepeatEndDate), task.UpdatedAt,
		task.ID, task.UserID,
	)

	return scanTask(row)
}

// Delete permanently removes a task and closes the gap it leaves in
// the active ordering.
func (r *TaskRepository) Delete(ctx context.Context, userID, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completed bool
	var orderIndex int
	err = tx.QueryRowContext(ctx,
		`SELECT completed, order_index FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	).Scan(&completed, &orderIndex)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("failed to lock task: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		r.logger.WithError(err).WithField("task_id", id).Error("タスクの削除に失敗")
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if !completed {
		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET order_index = order_index - 1
			 WHERE user_id = $1 AND completed = FALSE AND order_index > $2`,
			userID, orderIndex,
		)
		if err != nil {
			return fmt.Errorf("failed to compact order indexes: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithField("task_id", id).Info("タスクを削除しました")
	return nil
}

// Complete persists the task's editable fields, marks it completed,
// compacts the active ordering and optionally inserts the successor
// occurrence. Everything commits in one transaction so a failure at
// any step leaves the task untouched.
func (r *TaskRepository) Complete(ctx context.Context, task *domain.Task, successor *domain.Task) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completed bool
	var orderIndex int
	err = tx.QueryRowContext(ctx,
		`SELECT completed, order_index FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		task.ID, task.UserID,
	).Scan(&completed, &orderIndex)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to lock task: %w", err)
	}

	updated, err := updateTaskFields(ctx, tx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if completed {
		// すでに完了済み、フィールドの更新のみ
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return updated, nil
	}

	now := time.Now()
	row := tx.QueryRowContext(ctx,
		`UPDATE tasks SET completed = TRUE, completed_at = $1, updated_at = $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+taskColumns,
		now, task.ID, task.UserID,
	)
	updated, err = scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET order_index = order_index - 1
		 WHERE user_id = $1 AND completed = FALSE AND order_index > $2`,
		task.UserID, orderIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compact order indexes: %w", err)
	}

	if successor != nil {
		if _, err := r.insertTask(ctx, tx, successor); err != nil {
			return nil, fmt.Errorf("failed to create next occurrence: %w", err)
		}
		r.logger.WithField("parent_task_id", task.ID).Info("繰り返しタスクの次回分を作成しました")
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithField("task_id", task.ID).Info("タスクを完了にしました")
	return updated, nil
}

// Reopen persists the task's editable fields, clears completion and
// re-admits the task at the tail of the active ordering, all in one
// transaction.
func (r *TaskRepository) Reopen(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var completed bool
	err = tx.QueryRowContext(ctx,
		`SELECT completed FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		task.ID, task.UserID,
	).Scan(&completed)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to lock task: %w", err)
	}

	updated, err := updateTaskFields(ctx, tx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if !completed {
		// もともと未完了、フィールドの更新のみ
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return updated, nil
	}

	var nextIndex int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_index) + 1, 0) FROM tasks WHERE user_id = $1 AND completed = FALSE`,
		task.UserID,
	).Scan(&nextIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to compute order index: %w", err)
	}

	now := time.Now()
	row := tx.QueryRowContext(ctx,
		`UPDATE tasks SET completed = FALSE, completed_at = NULL, order_index = $1, updated_at = $2
		 WHERE id = $3 AND user_id = $4
		 RETURNING `+taskColumns,
		nextIndex, now, task.ID, task.UserID,
	)
	updated, err = scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithField("task_id", task.ID).Info("タスクを未完了に戻しました")
	return updated, nil
}

// Reorder applies the batch as one transaction, then renumbers the
// whole active set to a dense 0..n-1 sequence so that a partial or
// filtered batch can never leave gaps or duplicates behind.
func (r *TaskRepository) Reorder(ctx context.Context, userID int, orders []domain.TaskOrder) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ids := make([]int64, len(orders))
	for i, o := range orders {
		ids[i] = int64(o.ID)
	}

	var matched int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND completed = FALSE AND id = ANY($2)`,
		userID, pq.Array(ids),
	).Scan(&matched)
	if err != nil {
		return fmt.Errorf("failed to validate reorder batch: %w", err)
	}
	if matched != len(orders) {
		return domain.ErrTaskNotFound
	}

	now := time.Now()
	for _, o := range orders {
		_, err := tx.ExecContext(ctx,
			`UPDATE tasks SET order_index = $1, updated_at = $2
			 WHERE id = $3 AND user_id = $4 AND completed = FALSE`,
			o.OrderIndex, now, o.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to apply order index: %w", err)
		}
	}

	// 全アクティブタスクを 0..n-1 に振り直して密な並びを保証する
	_, err = tx.ExecContext(ctx,
		`UPDATE tasks SET order_index = ranked.rn - 1
		 FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY order_index, id) AS rn
			FROM tasks WHERE user_id = $1 AND completed = FALSE
		 ) ranked
		 WHERE tasks.id = ranked.id`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to renumber active tasks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithField("user_id", userID).WithField("count", len(orders)).Info("タスクの並び替えを適用しました")
	return nil
}

// DueBetween returns tasks whose due date falls within the inclusive
// range, completed or not.
func (r *TaskRepository) DueBetween(ctx context.Context, userID int, start, end time.Time) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND due_date IS NOT NULL AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		r.logger.WithError(err).Error("カレンダータスクの取得に失敗")
		return nil, fmt.Errorf("failed to list calendar tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var dueDate, completedAt, repeatEndDate sql.NullTime
	var repeatType sql.NullString
	var categoryID, parentTaskID sql.NullInt64
	var priority string

	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &task.Description, &task.Memo,
		&task.Completed, &priority, &dueDate,
		&task.CreatedAt, &task.UpdatedAt, &completedAt, &task.OrderIndex,
		&task.IsRepeatable, &repeatType, &task.RepeatInterval, &repeatEndDate,
		&categoryID, &parentTaskID,
	)
	if err != nil {
		return nil, err
	}

	task.Priority = domain.Priority(priority)
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	if repeatType.Valid {
		task.RepeatType = domain.RepeatType(repeatType.String)
	}
	if repeatEndDate.Valid {
		task.RepeatEndDate = &repeatEndDate.Time
	}
	if categoryID.Valid {
		v := int(categoryID.Int64)
		task.CategoryID = &v
	}
	if parentTaskID.Valid {
		v := int(parentTaskID.Int64)
		task.ParentTaskID = &v
	}

	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]domain.Task, error) {
	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
