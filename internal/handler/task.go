package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tasktracker/backend/internal/model"
	"github.com/tasktracker/backend/internal/service"
)

// TaskHandler only ever runs behind AuthMiddleware; every call passes the
// resolved identity down to the service.
type TaskHandler struct {
	svc *service.TaskService
}

func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{svc: svc}
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateTaskRequest true "Task"
// @Success 201 {object} model.Task
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req model.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	task, err := h.svc.Create(c.Request.Context(), GetAuthUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks godoc
// @Summary List own tasks, newest first
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Success 200 {object} model.TaskListResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tasks [get]
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var q model.TaskQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, bindError(err))
		return
	}

	tasks, err := h.svc.List(c.Request.Context(), GetAuthUser(c), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.TaskListResponse{Tasks: tasks})
}

// GetTask godoc
// @Summary Get one task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.Task
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.svc.Get(c.Request.Context(), GetAuthUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateTask godoc
// @Summary Update a task
// @Description Partial update; omitted fields are left unchanged. "duedate": null clears the due date.
// @Tags tasks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Param request body model.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} model.Task
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var req model.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	task, err := h.svc.Update(c.Request.Context(), GetAuthUser(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 200 {object} model.StatusResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), GetAuthUser(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model.StatusResponse{Status: "deleted"})
}
