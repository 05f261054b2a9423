package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tasknexus/server/internal/constants"
	"github.com/tasknexus/server/internal/models"
	"github.com/tasknexus/server/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound           = errors.New("task not found")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrInvalidTaskStatus      = errors.New("invalid task status")
	ErrInvalidTaskPriority    = errors.New("invalid task priority")
	ErrConflictingCompletion  = errors.New("status and completed disagree")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAITextRequired         = errors.New("text is required")
	ErrAITextTooLong          = errors.New("text is too long")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	wsRepo      repository.WorkspaceRepository
	suggester   TaskSuggester
	now         func() time.Time
}

// NewTaskService creates a new TaskService. suggester may be nil, in which
// case GenerateTasks reports ErrAIServiceNotConfigured.
func NewTaskService(taskRepo repository.TaskRepository, projectRepo repository.ProjectRepository, wsRepo repository.WorkspaceRepository, suggester TaskSuggester) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		wsRepo:      wsRepo,
		suggester:   suggester,
		now:         time.Now,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID    uint64
	ProjectID *uint64
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	Page      int
	PageSize  int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	DueDate     *time.Time
	ProjectID   uint64
	ActorID     uint64
}

// UpdateTaskInput represents input for updating a task. Nil fields are left untouched.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *models.TaskPriority
	Status       *models.TaskStatus
	Completed    *bool
	DueDate      *time.Time
	ClearDueDate bool
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text      string
	ProjectID uint64
	ActorID   uint64
}

// ListTasks returns tasks the user can reach through membership, newest first.
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	if input.ProjectID != nil {
		if err := s.ensureProjectMember(ctx, *input.ProjectID, input.UserID); err != nil {
			return nil, 0, err
		}
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, 0, ErrInvalidTaskStatus
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, 0, ErrInvalidTaskPriority
	}

	tasks, total, err := s.taskRepo.List(ctx, repository.TaskFilter{
		UserID:    input.UserID,
		ProjectID: input.ProjectID,
		Status:    input.Status,
		Priority:  input.Priority,
		Page:      input.Page,
		PageSize:  input.PageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task by ID
func (s *TaskService) GetTask(ctx context.Context, taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task in a project the actor can access. New tasks
// always start as "todo" and not completed.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	if err := s.ensureProjectMember(ctx, input.ProjectID, input.ActorID); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Priority:    priority,
		Status:      models.TaskStatusTodo,
		Completed:   false,
		DueDate:     input.DueDate,
		ProjectID:   input.ProjectID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// UpdateTask applies a partial update in a single statement and returns the stored task.
func (s *TaskService) UpdateTask(ctx context.Context, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		fields["priority"] = *input.Priority
	}
	if input.ClearDueDate {
		fields["due_date"] = nil
	} else if input.DueDate != nil {
		fields["due_date"] = *input.DueDate
	}

	status, completed, changed, err := resolveCompletion(task.Status, input.Status, input.Completed)
	if err != nil {
		return nil, err
	}
	if changed {
		fields["status"] = status
		fields["completed"] = completed
	}

	if len(fields) == 0 {
		return task, nil
	}
	fields["updated_at"] = s.now()

	if err := s.taskRepo.UpdateFields(ctx, taskID, fields); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(ctx, taskID)
}

// resolveCompletion keeps completed equal to (status == done). An explicit
// status wins; completed alone moves the task to done, or off done back to todo.
func resolveCompletion(current models.TaskStatus, status *models.TaskStatus, completed *bool) (models.TaskStatus, bool, bool, error) {
	switch {
	case status != nil:
		if !status.Valid() {
			return "", false, false, ErrInvalidTaskStatus
		}
		done := *status == models.TaskStatusDone
		if completed != nil && *completed != done {
			return "", false, false, ErrConflictingCompletion
		}
		return *status, done, true, nil
	case completed != nil:
		if *completed {
			return models.TaskStatusDone, true, true, nil
		}
		if current == models.TaskStatusDone {
			return models.TaskStatusTodo, false, true, nil
		}
		return current, false, true, nil
	default:
		return current, current == models.TaskStatusDone, false, nil
	}
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, taskID uint64) error {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// GenerateTasks asks the suggester for tasks found in free text. Nothing is persisted.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.suggester == nil {
		return nil, ErrAIServiceNotConfigured
	}

	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrAITextRequired
	}
	if len(text) > constants.MaxAIInputLength {
		return nil, ErrAITextTooLong
	}

	if err := s.ensureProjectMember(ctx, input.ProjectID, input.ActorID); err != nil {
		return nil, err
	}

	aiTasks, err := s.suggester.GenerateTasksFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := s.now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		aiTask.Title = strings.TrimSpace(aiTask.Title)
		if aiTask.Title == "" {
			continue
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.PriorityMedium
		}
		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}

		validTasks = append(validTasks, aiTask)
		if len(validTasks) == constants.MaxAIGeneratedTasks {
			break
		}
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

// ensureProjectMember verifies that the project exists and the user belongs to its workspace
func (s *TaskService) ensureProjectMember(ctx context.Context, projectID, userID uint64) error {
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	return ensureWorkspaceMember(ctx, s.wsRepo, project.WorkspaceID, userID)
}
