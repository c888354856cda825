package service

import "github.com/tasktracker/backend/internal/model"

// ScopeTasks narrows a task query to the tasks owned by user. Whatever owner
// the caller put in q is discarded.
func ScopeTasks(user *model.AuthUser, q model.TaskQuery) model.TaskQuery {
	q.OwnerID = user.ID
	return q
}

// CanAccessTask reports whether user may read or mutate task.
func CanAccessTask(user *model.AuthUser, task *model.Task) bool {
	return user != nil && task != nil && task.OwnerID == user.ID
}
