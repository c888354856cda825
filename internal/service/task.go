package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tasktracker/backend/internal/db"
	"github.com/tasktracker/backend/internal/model"
)

type TaskRepo interface {
	CreateTask(ctx context.Context, task *model.Task) (*model.Task, error)
	ListTasks(ctx context.Context, q model.TaskQuery) ([]model.Task, error)
	GetTask(ctx context.Context, id uuid.UUID, ownerID int64) (*model.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, ownerID int64, patch model.UpdateTaskRequest) (*model.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID, ownerID int64) error
}

// errTaskNotFound is returned both for missing tasks and for tasks owned by
// someone else.
var errTaskNotFound = fmt.Errorf("task %w", ErrNotFound)

type TaskService struct {
	repo TaskRepo
}

func NewTaskService(repo TaskRepo) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) Create(ctx context.Context, user *model.AuthUser, req model.CreateTaskRequest) (*model.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, invalidInput("title is required")
	}

	priority := req.Priority
	if priority == "" {
		priority = model.PriorityLow
	}
	if !validPriority(priority) {
		return nil, invalidInput("priority must be one of low, medium, high")
	}

	status := req.Status
	if status == "" {
		status = model.StatusTodo
	}
	if !validStatus(status) {
		return nil, invalidInput("status must be one of To Do, In Progress, Done")
	}

	return s.repo.CreateTask(ctx, &model.Task{
		ID:          uuid.New(),
		OwnerID:     user.ID,
		Title:       title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    priority,
		Status:      status,
	})
}

func (s *TaskService) List(ctx context.Context, user *model.AuthUser, q model.TaskQuery) ([]model.Task, error) {
	if q.Status != "" && !validStatus(q.Status) {
		return nil, invalidInput("unknown status filter")
	}
	if q.Priority != "" && !validPriority(q.Priority) {
		return nil, invalidInput("unknown priority filter")
	}

	tasks, err := s.repo.ListTasks(ctx, ScopeTasks(user, q))
	if err != nil {
		return nil, err
	}

	owned := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if CanAccessTask(user, &t) {
			owned = append(owned, t)
		}
	}
	return owned, nil
}

func (s *TaskService) Get(ctx context.Context, user *model.AuthUser, rawID string) (*model.Task, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errTaskNotFound
	}

	task, err := s.repo.GetTask(ctx, id, user.ID)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, errTaskNotFound
		}
		return nil, err
	}
	if !CanAccessTask(user, task) {
		return nil, errTaskNotFound
	}
	return task, nil
}

func (s *TaskService) Update(ctx context.Context, user *model.AuthUser, rawID string, patch model.UpdateTaskRequest) (*model.Task, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, errTaskNotFound
	}

	if patch.Title == nil && patch.Description == nil && !patch.DueDate.Set && patch.Priority == nil && patch.Status == nil {
		return nil, invalidInput("no fields to update")
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, invalidInput("title must not be empty")
		}
		patch.Title = &title
	}
	if patch.Priority != nil && !validPriority(*patch.Priority) {
		return nil, invalidInput("priority must be one of low, medium, high")
	}
	if patch.Status != nil && !validStatus(*patch.Status) {
		return nil, invalidInput("status must be one of To Do, In Progress, Done")
	}

	task, err := s.repo.UpdateTask(ctx, id, user.ID, patch)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, errTaskNotFound
		}
		return nil, err
	}
	if !CanAccessTask(user, task) {
		return nil, errTaskNotFound
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, user *model.AuthUser, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return errTaskNotFound
	}

	if err := s.repo.DeleteTask(ctx, id, user.ID); err != nil {
		if db.IsNoRows(err) {
			return errTaskNotFound
		}
		return err
	}
	return nil
}

func validPriority(p string) bool {
	switch p {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case model.StatusTodo, model.StatusInProgress, model.StatusDone:
		return true
	}
	return false
}
