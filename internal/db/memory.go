package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tasktracker/backend/internal/model"
)

// Memory is a process-local store with the same contract as Postgres:
// missing rows are pgx.ErrNoRows and duplicate keys are unique violations.
// It backs `serve --store memory` and the tests.
type Memory struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
	tasks  map[uuid.UUID]*model.Task
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[int64]*model.User),
		tasks: make(map[uuid.UUID]*model.Task),
		now:   time.Now,
	}
}

func (m *Memory) CreateUser(ctx context.Context, fullname, username, email, passwordHash string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return nil, &pgconn.PgError{Code: uniqueViolationCode, Message: "duplicate key value violates unique constraint"}
		}
	}

	m.nextID++
	now := m.now()
	user := &model.User{
		ID:           m.nextID,
		Fullname:     fullname,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[user.ID] = user
	return copyUser(user), nil
}

func (m *Memory) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.users[userID]; ok {
		return copyUser(u), nil
	}
	return nil, pgx.ErrNoRows
}

func (m *Memory) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.Username == username })
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findUser(func(u *model.User) bool { return u.Email == email })
}

func (m *Memory) UserExists(ctx context.Context, username, email string) (bool, error) {
	_, err := m.findUser(func(u *model.User) bool { return u.Username == username || u.Email == email })
	if IsNoRows(err) {
		return false, nil
	}
	return err == nil, err
}

func (m *Memory) SetRefreshTokenHash(ctx context.Context, userID int64, tokenHash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	if tokenHash == nil {
		u.RefreshTokenHash = nil
	} else {
		h := *tokenHash
		u.RefreshTokenHash = &h
	}
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) SwapRefreshTokenHash(ctx context.Context, userID int64, oldHash, newHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok || u.RefreshTokenHash == nil || *u.RefreshTokenHash != oldHash {
		return pgx.ErrNoRows
	}
	u.RefreshTokenHash = &newHash
	u.UpdatedAt = m.now()
	return nil
}

func (m *Memory) UpdatePasswordHash(ctx context.Context, userID int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = m.now()
	return nil
}

// DeleteUser removes a user and cascades to its tasks.
func (m *Memory) DeleteUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.users, userID)
	for id, t := range m.tasks {
		if t.OwnerID == userID {
			delete(m.tasks, id)
		}
	}
	return nil
}

func (m *Memory) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[task.OwnerID]; !ok {
		return nil, &pgconn.PgError{Code: "23503", Message: "owner does not exist"}
	}
	if _, ok := m.tasks[task.ID]; ok {
		return nil, &pgconn.PgError{Code: uniqueViolationCode, Message: "duplicate task id"}
	}

	stored := *task
	now := m.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.tasks[stored.ID] = &stored
	return copyTask(&stored), nil
}

func (m *Memory) ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := []model.Task{}
	for _, t := range m.tasks {
		if t.OwnerID != q.OwnerID {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Priority != "" && t.Priority != q.Priority {
			continue
		}
		list = append(list, *copyTask(t))
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (m *Memory) GetTask(ctx context.Context, id uuid.UUID, ownerID int64) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	return copyTask(t), nil
}

func (m *Memory) UpdateTask(ctx context.Context, id uuid.UUID, ownerID int64, patch model.UpdateTaskRequest) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, pgx.ErrNoRows
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.DueDate.Set {
		t.DueDate = nil
		if patch.DueDate.Value != nil {
			d := *patch.DueDate.Value
			t.DueDate = &d
		}
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	t.UpdatedAt = m.now()
	return copyTask(t), nil
}

func (m *Memory) DeleteTask(ctx context.Context, id uuid.UUID, ownerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return pgx.ErrNoRows
	}
	delete(m.tasks, id)
	return nil
}

func (m *Memory) findUser(match func(*model.User) bool) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func copyUser(u *model.User) *model.User {
	c := *u
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	return &c
}

func copyTask(t *model.Task) *model.Task {
	c := *t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}
