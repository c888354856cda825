package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tasktracker/backend/internal/model"
)

// Every statement below filters on owner_id. Rows of other owners behave
// exactly like missing rows (pgx.ErrNoRows).

const taskColumns = `id, owner_id, title, description, due_date, priority, status, created_at, updated_at`

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&t.Priority,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (db *Postgres) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	query := `
		INSERT INTO tasks (id, owner_id, title, description, due_date, priority, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING ` + taskColumns
	return scanTask(db.Pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Status,
	))
}

func (db *Postgres) ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		  AND ($2::text = '' OR status = $2)
		  AND ($3::text = '' OR priority = $3)
		ORDER BY created_at DESC`

	rows, err := db.Pool.Query(ctx, query, q.OwnerID, q.Status, q.Priority)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

func (db *Postgres) GetTask(ctx context.Context, id uuid.UUID, ownerID int64) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	return scanTask(db.Pool.QueryRow(ctx, query, id, ownerID))
}

func (db *Postgres) UpdateTask(ctx context.Context, id uuid.UUID, ownerID int64, patch model.UpdateTaskRequest) (*model.Task, error) {
	query := `
		UPDATE tasks
		SET title = COALESCE($3, title),
		    description = COALESCE($4, description),
		    due_date = CASE WHEN $8::boolean THEN $5::timestamptz ELSE due_date END,
		    priority = COALESCE($6, priority),
		    status = COALESCE($7, status),
		    updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + taskColumns
	return scanTask(db.Pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.Description,
		patch.DueDate.Value,
		patch.Priority,
		patch.Status,
		patch.DueDate.Set,
	))
}

func (db *Postgres) DeleteTask(ctx context.Context, id uuid.UUID, ownerID int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
