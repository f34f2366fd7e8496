package handlers

import (
	"errors"
	"log"
	"net/http"

	"todosync/internal/domain"
	"todosync/internal/dto"
	"todosync/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List returns all todos for the user, newest-created-first.
func (h *TodoHandler) List(c *gin.Context) {
	uid := c.Param("uid")
	list, err := h.svc.List(c.Request.Context(), uid)
	if err != nil {
		internalError(c, "list todos", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.FromDomainList(list)))
}

// Create makes a new todo for the user. Priority defaults to medium.
func (h *TodoHandler) Create(c *gin.Context) {
	uid := c.Param("uid")
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
		return
	}
	var priority domain.Priority // empty defaults to medium in the constructor
	if req.Priority != nil {
		priority = *req.Priority
	}
	t, err := h.svc.Create(c.Request.Context(), uid, req.Title, req.Description,
		priority, req.DueDate.Ptr())
	if err != nil {
		if errors.Is(err, service.ErrEmptyTitle) {
			c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
			return
		}
		internalError(c, "create todo", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.FromDomain(t)))
}

// Update applies a sparse patch to the todo. 404 if the id is not under uid.
func (h *TodoHandler) Update(c *gin.Context) {
	uid, tid := c.Param("uid"), c.Param("tid")
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
		return
	}
	patch := service.TodoPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Priority:    req.Priority,
	}
	if req.DueDate != nil {
		patch.DueDate = req.DueDate.Ptr()
	}
	t, err := h.svc.Update(c.Request.Context(), uid, tid, patch)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.Failure("not found"))
			return
		}
		if errors.Is(err, service.ErrEmptyTitle) {
			c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
			return
		}
		internalError(c, "update todo", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(dto.FromDomain(t)))
}

// Delete removes the todo. 404 when no row belongs to uid.
func (h *TodoHandler) Delete(c *gin.Context) {
	uid, tid := c.Param("uid"), c.Param("tid")
	if err := h.svc.Delete(c.Request.Context(), uid, tid); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.Failure("not found"))
			return
		}
		internalError(c, "delete todo", err)
		return
	}
	c.JSON(http.StatusOK, dto.Success(nil))
}

// Sync runs the last-writer-wins merge and returns the records changed since
// last_sync. Unlike the CRUD routes, the body is the bare SyncResponse.
func (h *TodoHandler) Sync(c *gin.Context) {
	uid := c.Param("uid")
	var req dto.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.Failure(err.Error()))
		return
	}
	list, syncTime, err := h.svc.Sync(c.Request.Context(), uid, req.LastSync, dto.ToDomainList(req.Todos))
	if err != nil {
		internalError(c, "sync todos", err)
		return
	}
	c.JSON(http.StatusOK, dto.SyncResponse{
		Todos:    dto.FromDomainList(list),
		SyncTime: syncTime,
	})
}

// internalError logs the cause and answers with a generic message so storage
// details never reach the caller.
func internalError(c *gin.Context, op string, err error) {
	log.Printf("%s: %v", op, err)
	c.JSON(http.StatusInternalServerError, dto.Failure("internal error"))
}
