package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tasktracker/backend/internal/model"
)

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ann, err := m.CreateUser(ctx, "Ann", "ann", "a@x.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(1), ann.ID)

	_, err = m.CreateUser(ctx, "Other", "ann", "other@x.com", "hash")
	assert.True(t, IsUniqueViolation(err))
	_, err = m.CreateUser(ctx, "Other", "other", "a@x.com", "hash")
	assert.True(t, IsUniqueViolation(err))

	exists, err := m.UserExists(ctx, "nobody", "a@x.com")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = m.UserExists(ctx, "nobody", "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	slot := "digest"
	require.NoError(t, m.SetRefreshTokenHash(ctx, ann.ID, &slot))
	got, err := m.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
	assert.Equal(t, "digest", *got.RefreshTokenHash)

	assert.True(t, IsNoRows(m.SwapRefreshTokenHash(ctx, ann.ID, "stale", "next")))
	require.NoError(t, m.SwapRefreshTokenHash(ctx, ann.ID, "digest", "next"))
	assert.True(t, IsNoRows(m.SwapRefreshTokenHash(ctx, ann.ID, "digest", "again")))
	got, err = m.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "next", *got.RefreshTokenHash)

	require.NoError(t, m.SetRefreshTokenHash(ctx, ann.ID, nil))
	assert.True(t, IsNoRows(m.SwapRefreshTokenHash(ctx, ann.ID, "next", "again")))
	got, err = m.GetUserByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Nil(t, got.RefreshTokenHash)

	assert.True(t, IsNoRows(m.SetRefreshTokenHash(ctx, 99, nil)))
	_, err = m.GetUserByID(ctx, 99)
	assert.True(t, IsNoRows(err))
}

func TestMemoryTasksAreOwnerScoped(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	ann, err := m.CreateUser(ctx, "Ann", "ann", "a@x.com", "h")
	require.NoError(t, err)
	bob, err := m.CreateUser(ctx, "Bob", "bob", "b@x.com", "h")
	require.NoError(t, err)

	first, err := m.CreateTask(ctx, &model.Task{ID: uuid.New(), OwnerID: ann.ID, Title: "first", Priority: model.PriorityLow, Status: model.StatusTodo})
	require.NoError(t, err)
	second, err := m.CreateTask(ctx, &model.Task{ID: uuid.New(), OwnerID: ann.ID, Title: "second", Priority: model.PriorityHigh, Status: model.StatusDone})
	require.NoError(t, err)

	list, err := m.ListTasks(ctx, model.TaskQuery{OwnerID: ann.ID})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	list, err = m.ListTasks(ctx, model.TaskQuery{OwnerID: ann.ID, Priority: model.PriorityLow})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	list, err = m.ListTasks(ctx, model.TaskQuery{OwnerID: bob.ID})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = m.GetTask(ctx, first.ID, bob.ID)
	assert.True(t, IsNoRows(err))
	title := "hijack"
	_, err = m.UpdateTask(ctx, first.ID, bob.ID, model.UpdateTaskRequest{Title: &title})
	assert.True(t, IsNoRows(err))
	assert.True(t, IsNoRows(m.DeleteTask(ctx, first.ID, bob.ID)))

	updated, err := m.UpdateTask(ctx, first.ID, ann.ID, model.UpdateTaskRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "hijack", updated.Title)
	assert.Equal(t, model.PriorityLow, updated.Priority)

	require.NoError(t, m.DeleteUser(ctx, ann.ID))
	_, err = m.GetTask(ctx, second.ID, ann.ID)
	assert.True(t, IsNoRows(err))
}
