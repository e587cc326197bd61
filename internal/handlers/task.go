package handlers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/internal/services"
	"github.com/taskflow/backend/pkg/response"
	"gorm.io/gorm"
)

const maxAttachmentSize = 20 << 20 // 20 MB

type TaskHandler struct {
	tasks      *services.TaskService
	workspaces *services.WorkspaceService
	uploadDir  string
}

func NewTaskHandler(tasks *services.TaskService, workspaces *services.WorkspaceService, uploadDir string) *TaskHandler {
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	return &TaskHandler{tasks: tasks, workspaces: workspaces, uploadDir: uploadDir}
}

// Create creates a task in a workspace
// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req services.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.workspaces.GetByID(req.WorkspaceID); err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	userID := middleware.GetUserID(c)
	if !h.workspaces.HasPermission(req.WorkspaceID, userID, models.RoleMember) {
		response.Forbidden(c, "access denied, member role required")
		return
	}

	task, err := h.tasks.Create(&req, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// List returns a filtered page of workspace tasks
// GET /api/tasks?workspaceId=N
func (h *TaskHandler) List(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Query("workspaceId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "workspaceId is required")
		return
	}

	if _, err := h.workspaces.GetByID(uint(workspaceID)); err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	if !h.workspaces.HasPermission(uint(workspaceID), middleware.GetUserID(c), models.RoleViewer) {
		response.Forbidden(c, "access denied, viewer role required")
		return
	}

	req := services.TaskListRequest{
		WorkspaceID: uint(workspaceID),
		Status:      c.Query("status"),
		Priority:    c.Query("priority"),
		Tag:         c.Query("tag"),
		Search:      c.Query("search"),
		Archived:    c.Query("archived") == "true",
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
	}
	if v := c.Query("assigneeId"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			assignee := uint(id)
			req.AssigneeID = &assignee
		}
	}
	if v := c.Query("due_before"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DueBefore = &t
		}
	}
	if v := c.Query("due_after"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			req.DueAfter = &t
		}
	}
	req.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	req.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "50"))

	page, err := h.tasks.List(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, page)
}

// Get returns a task with all associations
// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task := middleware.GetTask(c)
	detail, err := h.tasks.GetDetail(task.ID)
	if err != nil {
		response.NotFound(c, "task not found")
		return
	}
	response.Success(c, detail)
}

// Update applies a partial update
// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req services.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task := middleware.GetTask(c)
	updated, err := h.tasks.Update(task.ID, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, updated)
}

// Delete archives a task
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	task := middleware.GetTask(c)
	if err := h.tasks.Archive(task.ID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "task archived", nil)
}

type reorderRequest struct {
	WorkspaceID uint                   `json:"workspace_id" binding:"required"`
	Items       []services.ReorderItem `json:"items" binding:"required,min=1,dive"`
}

// Reorder applies a batch of board moves in one transaction
// POST /api/tasks/reorder
func (h *TaskHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.workspaces.GetByID(req.WorkspaceID); err != nil {
		response.NotFound(c, "workspace not found")
		return
	}
	userID := middleware.GetUserID(c)
	if !h.workspaces.HasPermission(req.WorkspaceID, userID, models.RoleMember) {
		response.Forbidden(c, "access denied, member role required")
		return
	}

	if err := h.tasks.Reorder(req.WorkspaceID, req.Items, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "task not found in workspace")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "tasks reordered", nil)
}

// AddComment appends a comment
// POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task := middleware.GetTask(c)
	comment, err := h.tasks.AddComment(task.ID, &req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

// UpdateComment edits the caller's own comment
// PUT /api/tasks/:id/comments/:commentId
func (h *TaskHandler) UpdateComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("commentId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task := middleware.GetTask(c)
	comment, err := h.tasks.UpdateComment(task.ID, uint(commentID), req.Content, middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, services.ErrCommentNotOwned) {
			response.Forbidden(c, err.Error())
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "comment not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, comment)
}

// DeleteComment removes a comment. Authors delete their own; workspace
// admins may delete any.
// DELETE /api/tasks/:id/comments/:commentId
func (h *TaskHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseUint(c.Param("commentId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}

	task := middleware.GetTask(c)
	userID := middleware.GetUserID(c)
	isModerator := h.workspaces.HasPermission(task.WorkspaceID, userID, models.RoleAdmin)

	err = h.tasks.DeleteComment(task.ID, uint(commentID), userID, isModerator)
	if err != nil {
		if errors.Is(err, services.ErrCommentNotOwned) {
			response.Forbidden(c, err.Error())
			return
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "comment not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "comment deleted", nil)
}

type addSubtaskRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

// AddSubtask appends a checklist entry
// POST /api/tasks/:id/subtasks
func (h *TaskHandler) AddSubtask(c *gin.Context) {
	var req addSubtaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task := middleware.GetTask(c)
	subtask, err := h.tasks.AddSubtask(task.ID, req.Title)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subtask)
}

// ToggleSubtask flips a subtask's completion
// PUT /api/tasks/:id/subtasks/:subtaskId
func (h *TaskHandler) ToggleSubtask(c *gin.Context) {
	subtaskID, err := strconv.ParseUint(c.Param("subtaskId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid subtask id")
		return
	}

	task := middleware.GetTask(c)
	subtask, err := h.tasks.ToggleSubtask(task.ID, uint(subtaskID), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "subtask not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, subtask)
}

// DeleteSubtask removes a checklist entry
// DELETE /api/tasks/:id/subtasks/:subtaskId
func (h *TaskHandler) DeleteSubtask(c *gin.Context) {
	subtaskID, err := strconv.ParseUint(c.Param("subtaskId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid subtask id")
		return
	}

	task := middleware.GetTask(c)
	if err := h.tasks.DeleteSubtask(task.ID, uint(subtaskID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "subtask not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "subtask deleted", nil)
}

// Watch subscribes the caller to the task
// POST /api/tasks/:id/watch
func (h *TaskHandler) Watch(c *gin.Context) {
	task := middleware.GetTask(c)
	if err := h.tasks.AddWatcher(task.ID, middleware.GetUserID(c)); err != nil {
		if errors.Is(err, services.ErrDuplicateWatcher) {
			response.Conflict(c, err.Error())
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "watching task", nil)
}

// Unwatch unsubscribes the caller
// DELETE /api/tasks/:id/watch
func (h *TaskHandler) Unwatch(c *gin.Context) {
	task := middleware.GetTask(c)
	if err := h.tasks.RemoveWatcher(task.ID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "stopped watching task", nil)
}

type addDependencyRequest struct {
	DependsOnTaskID uint   `json:"depends_on_task_id" binding:"required"`
	Type            string `json:"type" binding:"omitempty,oneof=blocks blocked_by relates_to"`
}

// AddDependency links this task to another in the same workspace
// POST /api/tasks/:id/dependencies
func (h *TaskHandler) AddDependency(c *gin.Context) {
	var req addDependencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	task := middleware.GetTask(c)
	dep, err := h.tasks.AddDependency(task.ID, req.DependsOnTaskID, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfDependency):
			response.DomainInvariant(c, err.Error())
		case errors.Is(err, services.ErrDuplicateDependency):
			response.Conflict(c, err.Error())
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "dependency target not found in workspace")
		default:
			response.Error(c, err)
		}
		return
	}
	response.Created(c, dep)
}

// RemoveDependency unlinks two tasks
// DELETE /api/tasks/:id/dependencies/:targetId
func (h *TaskHandler) RemoveDependency(c *gin.Context) {
	targetID, err := strconv.ParseUint(c.Param("targetId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid task id")
		return
	}

	task := middleware.GetTask(c)
	if err := h.tasks.RemoveDependency(task.ID, uint(targetID)); err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "dependency removed", nil)
}

// UploadAttachment stores an uploaded file under a generated name
// POST /api/tasks/:id/attachments
func (h *TaskHandler) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if file.Size > maxAttachmentSize {
		response.BadRequest(c, "file exceeds the 20MB limit")
		return
	}

	storedName := uuid.New().String() + filepath.Ext(file.Filename)
	dst := filepath.Join(h.uploadDir, storedName)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		response.ServerError(c, "failed to store file")
		return
	}

	task := middleware.GetTask(c)
	att := &models.TaskAttachment{
		Filename:     storedName,
		OriginalName: file.Filename,
		Path:         dst,
		Size:         file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		UploadedByID: middleware.GetUserID(c),
	}
	if err := h.tasks.AddAttachment(task.ID, att); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, att)
}

// DownloadAttachment serves a stored file with its original name
// GET /api/tasks/:id/attachments/:attachmentId
func (h *TaskHandler) DownloadAttachment(c *gin.Context) {
	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}

	task := middleware.GetTask(c)
	att, err := h.tasks.GetAttachment(task.ID, uint(attachmentID))
	if err != nil {
		response.NotFound(c, "attachment not found")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.OriginalName))
	c.File(att.Path)
}

// DeleteAttachment removes an attachment record
// DELETE /api/tasks/:id/attachments/:attachmentId
func (h *TaskHandler) DeleteAttachment(c *gin.Context) {
	attachmentID, err := strconv.ParseUint(c.Param("attachmentId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid attachment id")
		return
	}

	task := middleware.GetTask(c)
	if err := h.tasks.DeleteAttachment(task.ID, uint(attachmentID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "attachment not found")
			return
		}
		response.Error(c, err)
		return
	}
	response.SuccessMessage(c, "attachment deleted", nil)
}

// MyAssigned lists tasks assigned to the caller
// GET /api/tasks/my/assigned
func (h *TaskHandler) MyAssigned(c *gin.Context) {
	tasks, err := h.tasks.AssignedTo(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}

// MyReported lists tasks the caller created
// GET /api/tasks/my/reported
func (h *TaskHandler) MyReported(c *gin.Context) {
	tasks, err := h.tasks.ReportedBy(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}

// MyOverdue lists the caller's overdue tasks
// GET /api/tasks/my/overdue
func (h *TaskHandler) MyOverdue(c *gin.Context) {
	tasks, err := h.tasks.OverdueFor(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}
