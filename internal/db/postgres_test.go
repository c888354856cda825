package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktracker/backend/internal/config"
)

func TestBuildPostgresURL(t *testing.T) {
	got, err := buildPostgresURL(config.PostgresConfig{DatabaseURL: "postgres://x/y"})
	require.NoError(t, err)
	assert.Equal(t, "postgres://x/y", got)

	got, err = buildPostgresURL(config.PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "app",
		Password: "p@ss",
		Database: "tasks",
		SSLMode:  "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/tasks?sslmode=disable", got)

	_, err = buildPostgresURL(config.PostgresConfig{Host: "db", Port: "5432"})
	assert.Error(t, err)
}

func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNoRows(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)))
	assert.False(t, IsNoRows(fmt.Errorf("other")))

	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}
