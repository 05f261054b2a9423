package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tasknexus/server/internal/constants"
	"github.com/tasknexus/server/internal/dto"
	apierrors "github.com/tasknexus/server/internal/errors"
	"github.com/tasknexus/server/internal/metrics"
	"github.com/tasknexus/server/internal/middleware"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/services"
	"github.com/tasknexus/server/internal/utils"
	"go.uber.org/zap"
)

var errInvalidDueDate = errors.New("invalid due_date")

type TaskHandler struct {
	taskService *services.TaskService
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, m *metrics.Metrics, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		metrics:     m,
		log:         log,
	}
}

// ListTasks returns all tasks accessible by the current user.
// Can filter by projectId, status and priority. Results are paged only when
// page or limit is given.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{UserID: userID}

	if raw := c.Query("projectId"); raw != "" {
		projectID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || projectID == 0 {
			apierrors.BadRequest(c, "Invalid projectId")
			return
		}
		input.ProjectID = &projectID
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		input.Status = &status
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		input.Priority = &priority
	}

	params, paginate := utils.GetPaginationParams(c)
	if paginate {
		input.Page = params.Page
		input.PageSize = params.Limit
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	pagination := utils.SinglePage(total)
	if paginate {
		pagination = params.Response(total)
	}
	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks:      dto.ToTaskDTOs(tasks),
		Pagination: pagination,
	})
}

// GetTask returns the task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		Priority    string  `json:"priority"`
		DueDate     *string `json:"due_date"`
		ProjectID   uint64  `json:"project_id" binding:"required"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Title and project_id are required", err)
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := parseDueDate(*req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date")
			return
		}
		dueDate = &parsed
	}

	task, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     dueDate,
		ProjectID:   req.ProjectID,
		ActorID:     userID,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	if h.metrics != nil {
		h.metrics.TasksCreated.Inc()
	}
	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask applies a partial update. Only the fields present in the body change;
// "due_date": null clears the due date.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		Priority    *models.TaskPriority `json:"priority"`
		Status      *models.TaskStatus   `json:"status"`
		Completed   *bool                `json:"completed"`
	}

	body, err := c.GetRawData()
	if err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var req UpdateTaskRequest
	var rawReq map[string]json.RawMessage
	if err := json.Unmarshal(body, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if err := json.Unmarshal(body, &rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Completed:   req.Completed,
	}
	if raw, ok := rawReq["due_date"]; ok {
		dueDate, clear, err := decodeDueDate(raw)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date")
			return
		}
		input.DueDate = dueDate
		input.ClearDueDate = clear
	}

	updated, err := h.taskService.UpdateTask(c.Request.Context(), task.ID, input)
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.NotFound(c, "Task not found")
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), task.ID); err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GenerateTasks generates task suggestions from text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text      string `json:"text" binding:"required"`
		ProjectID uint64 `json:"project_id" binding:"required"`
	}

	var req GenerateTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, "Text and project_id are required", err)
		return
	}

	generated, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text:      req.Text,
		ProjectID: req.ProjectID,
		ActorID:   userID,
	})
	if err != nil {
		h.respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": dto.ToGeneratedTaskDTOs(generated)})
}

func (h *TaskHandler) respondTaskError(c *gin.Context, err error) {
	if respondMembershipError(c, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidTaskPriority),
		errors.Is(err, services.ErrConflictingCompletion),
		errors.Is(err, services.ErrAITextRequired),
		errors.Is(err, services.ErrAITextTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured")
	case errors.Is(err, services.ErrAINoTasksGenerated), errors.Is(err, services.ErrAINoValidTasks):
		apierrors.UnprocessableEntity(c, err.Error())
	default:
		internalError(c, h.log, "task request failed", err)
	}
}

// decodeDueDate reads a due_date field that was present in the body.
// A JSON null or empty string clears the date.
func decodeDueDate(raw json.RawMessage) (*time.Time, bool, error) {
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, errInvalidDueDate
	}
	if value == nil || *value == "" {
		return nil, true, nil
	}
	parsed, err := parseDueDate(*value)
	if err != nil {
		return nil, false, err
	}
	return &parsed, false, nil
}

// parseDueDate accepts RFC 3339 timestamps and plain dates.
func parseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(constants.DateLayout, value, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, errInvalidDueDate
}
