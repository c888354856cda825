package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/tasktracker/backend/internal/model"
)

const userColumns = `id, fullname, username, email, password_hash, refresh_token_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Fullname,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.RefreshTokenHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *Postgres) CreateUser(ctx context.Context, fullname, username, email, passwordHash string) (*model.User, error) {
	query := `
		INSERT INTO users (fullname, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + userColumns
	return scanUser(db.Pool.QueryRow(ctx, query, fullname, username, email, passwordHash))
}

func (db *Postgres) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, userID))
}

func (db *Postgres) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, username))
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(db.Pool.QueryRow(ctx, query, email))
}

func (db *Postgres) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)
	`, username, email).Scan(&exists)
	return exists, err
}

// SetRefreshTokenHash overwrites the single refresh token slot. A nil hash
// empties it. Returns pgx.ErrNoRows when the user does not exist.
func (db *Postgres) SetRefreshTokenHash(ctx context.Context, userID int64, tokenHash *string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// SwapRefreshTokenHash replaces the slot only while it still holds oldHash, so
// a refresh token can be exchanged once. Returns pgx.ErrNoRows when the user
// does not exist or the slot holds something else.
func (db *Postgres) SwapRefreshTokenHash(ctx context.Context, userID int64, oldHash, newHash string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET refresh_token_hash = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token_hash = $2
	`, userID, oldHash, newHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (db *Postgres) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
