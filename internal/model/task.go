package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	StatusTodo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
)

type Task struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     int64      `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"duedate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"duedate"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
}

// UpdateTaskRequest is a partial update; nil fields are left unchanged.
// DueDate also tells an explicit null (clear the date) from an absent key.
type UpdateTaskRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	DueDate     OptionalTime `json:"duedate" swaggertype:"string"`
	Priority    *string      `json:"priority"`
	Status      *string      `json:"status"`
}

// OptionalTime is a JSON field with three states: absent (Set false),
// null (Set true, Value nil) and a timestamp.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func SetTime(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: &t}
}

func ClearTime() OptionalTime {
	return OptionalTime{Set: true}
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

func (o OptionalTime) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// TaskQuery selects tasks for a list operation. OwnerID is always set by the
// ownership policy, never by the caller.
type TaskQuery struct {
	OwnerID  int64  `form:"-"`
	Status   string `form:"status"`
	Priority string `form:"priority"`
}

type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}
