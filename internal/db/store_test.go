package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktracker/backend/internal/config"
	"github.com/tasktracker/backend/internal/model"
)

// testDatabaseURLEnv points at a disposable database; its users and tasks
// tables are truncated before the run.
const testDatabaseURLEnv = "TEST_DATABASE_URL"

type store interface {
	CreateUser(ctx context.Context, fullname, username, email, passwordHash string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	SetRefreshTokenHash(ctx context.Context, userID int64, tokenHash *string) error
	SwapRefreshTokenHash(ctx context.Context, userID int64, oldHash, newHash string) error
	UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error
	CreateTask(ctx context.Context, task *model.Task) (*model.Task, error)
	ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	GetTask(ctx context.Context, id uuid.UUID, ownerID int64) (*model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, ownerID int64, patch model.UpdateTaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID, ownerID int64) error
}

var (
	_ store = (*Postgres)(nil)
	_ store = (*Memory)(nil)
)

func TestStores(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		testStoreContract(t, NewMemory())
	})

	t.Run("postgres", func(t *testing.T) {
		url := os.Getenv(testDatabaseURLEnv)
		if url == "" {
			t.Skipf("%s not set", testDatabaseURLEnv)
		}
		ctx := context.Background()

		pool, err := NewPostgresPool(ctx, config.PostgresConfig{DatabaseURL: url})
		require.NoError(t, err)
		t.Cleanup(pool.Close)

		pg := NewPostgres(pool)
		require.NoError(t, pg.Migrate(ctx))
		_, err = pool.Exec(ctx, `TRUNCATE tasks, users RESTART IDENTITY CASCADE`)
		require.NoError(t, err)

		testStoreContract(t, pg)
	})
}

func testStoreContract(t *testing.T, s store) {
	ctx := context.Background()

	ann, err := s.CreateUser(ctx, "Ann", "ann", "a@x.com", "hash-1")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "Bob", "bob", "b@x.com", "hash-2")
	require.NoError(t, err)
	assert.NotEqual(t, ann.ID, bob.ID)
	assert.Nil(t, ann.RefreshTokenHash)

	t.Run("users", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "Dup", "ann", "dup@x.com", "h")
		assert.True(t, IsUniqueViolation(err))
		_, err = s.CreateUser(ctx, "Dup", "dup", "a@x.com", "h")
		assert.True(t, IsUniqueViolation(err))

		exists, err := s.UserExists(ctx, "nobody", "b@x.com")
		require.NoError(t, err)
		assert.True(t, exists)
		exists, err = s.UserExists(ctx, "nobody", "nobody@x.com")
		require.NoError(t, err)
		assert.False(t, exists)

		got, err := s.GetUserByUsername(ctx, "ann")
		require.NoError(t, err)
		assert.Equal(t, ann.ID, got.ID)
		got, err = s.GetUserByEmail(ctx, "b@x.com")
		require.NoError(t, err)
		assert.Equal(t, bob.ID, got.ID)
		_, err = s.GetUserByID(ctx, 999999)
		assert.True(t, IsNoRows(err))

		require.NoError(t, s.UpdatePasswordHash(ctx, ann.ID, "hash-3"))
		got, err = s.GetUserByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.Equal(t, "hash-3", got.PasswordHash)
		assert.True(t, IsNoRows(s.UpdatePasswordHash(ctx, 999999, "h")))
	})

	t.Run("refresh slot", func(t *testing.T) {
		slot := "digest-1"
		require.NoError(t, s.SetRefreshTokenHash(ctx, ann.ID, &slot))

		assert.True(t, IsNoRows(s.SwapRefreshTokenHash(ctx, ann.ID, "stale", "digest-2")))
		require.NoError(t, s.SwapRefreshTokenHash(ctx, ann.ID, "digest-1", "digest-2"))
		assert.True(t, IsNoRows(s.SwapRefreshTokenHash(ctx, ann.ID, "digest-1", "digest-3")))
		assert.True(t, IsNoRows(s.SwapRefreshTokenHash(ctx, bob.ID, "digest-2", "digest-3")))

		got, err := s.GetUserByID(ctx, ann.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RefreshTokenHash)
		assert.Equal(t, "digest-2", *got.RefreshTokenHash)

		require.NoError(t, s.SetRefreshTokenHash(ctx, ann.ID, nil))
		require.NoError(t, s.SetRefreshTokenHash(ctx, ann.ID, nil))
		assert.True(t, IsNoRows(s.SwapRefreshTokenHash(ctx, ann.ID, "digest-2", "digest-3")))
		got, err = s.GetUserByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.Nil(t, got.RefreshTokenHash)

		assert.True(t, IsNoRows(s.SetRefreshTokenHash(ctx, 999999, nil)))
	})

	t.Run("tasks", func(t *testing.T) {
		due := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		newTask := func(owner int64, title, priority, status string, dueDate *time.Time) *model.Task {
			t.Helper()
			created, err := s.CreateTask(ctx, &model.Task{
				ID:          uuid.New(),
				OwnerID:     owner,
				Title:       title,
				Description: "about " + title,
				DueDate:     dueDate,
				Priority:    priority,
				Status:      status,
			})
			require.NoError(t, err)
			// created_at orders the list; keep the rows apart.
			time.Sleep(10 * time.Millisecond)
			return created
		}

		first := newTask(ann.ID, "first", model.PriorityHigh, model.StatusTodo, &due)
		second := newTask(ann.ID, "second", model.PriorityLow, model.StatusDone, nil)
		newTask(bob.ID, "bobs", model.PriorityHigh, model.StatusTodo, nil)

		_, err := s.CreateTask(ctx, &model.Task{ID: uuid.New(), OwnerID: 999999, Title: "orphan", Priority: model.PriorityLow, Status: model.StatusTodo})
		assert.Error(t, err)

		list, err := s.ListTasks(ctx, model.TaskQuery{OwnerID: ann.ID})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID)
		assert.Equal(t, first.ID, list[1].ID)

		list, err = s.ListTasks(ctx, model.TaskQuery{OwnerID: ann.ID, Priority: model.PriorityHigh})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, first.ID, list[0].ID)

		list, err = s.ListTasks(ctx, model.TaskQuery{OwnerID: ann.ID, Status: model.StatusDone, Priority: model.PriorityHigh})
		require.NoError(t, err)
		assert.Empty(t, list)

		list, err = s.ListTasks(ctx, model.TaskQuery{OwnerID: 999999})
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		got, err := s.GetTask(ctx, first.ID, ann.ID)
		require.NoError(t, err)
		require.NotNil(t, got.DueDate)
		assert.True(t, got.DueDate.Equal(due))

		_, err = s.GetTask(ctx, first.ID, bob.ID)
		assert.True(t, IsNoRows(err))
		title := "stolen"
		_, err = s.UpdateTask(ctx, first.ID, bob.ID, model.UpdateTaskRequest{Title: &title})
		assert.True(t, IsNoRows(err))
		assert.True(t, IsNoRows(s.DeleteTask(ctx, first.ID, bob.ID)))

		title = "renamed"
		updated, err := s.UpdateTask(ctx, first.ID, ann.ID, model.UpdateTaskRequest{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, "about first", updated.Description)
		assert.Equal(t, model.PriorityHigh, updated.Priority)
		require.NotNil(t, updated.DueDate)
		assert.True(t, updated.DueDate.Equal(due))

		later := due.Add(48 * time.Hour)
		updated, err = s.UpdateTask(ctx, first.ID, ann.ID, model.UpdateTaskRequest{DueDate: model.SetTime(later)})
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.True(t, updated.DueDate.Equal(later))

		updated, err = s.UpdateTask(ctx, first.ID, ann.ID, model.UpdateTaskRequest{DueDate: model.ClearTime()})
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
		assert.Equal(t, "renamed", updated.Title)

		require.NoError(t, s.DeleteTask(ctx, first.ID, ann.ID))
		assert.True(t, IsNoRows(s.DeleteTask(ctx, first.ID, ann.ID)))
		_, err = s.GetTask(ctx, first.ID, ann.ID)
		assert.True(t, IsNoRows(err))
	})
}
