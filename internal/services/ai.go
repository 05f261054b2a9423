package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/tasknexus/server/internal/models"
)

var ErrAIEmptyResponse = errors.New("no response from OpenAI")

// TaskSuggester extracts task suggestions from free text.
type TaskSuggester interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

// AIService is the OpenAI backed TaskSuggester.
type AIService struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

// NewAIService builds a client for model. A zero timeout leaves requests
// bounded only by the caller's context.
func NewAIService(apiKey, model string, timeout time.Duration) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &AIService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		now:    time.Now,
	}
}

const taskExtractionPrompt = `You are a task extraction assistant. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Respond with a JSON array of the extracted tasks in this shape:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "one of low, medium, high, urgent",
    "due_date": "deadline in ISO8601 (e.g. 2025-10-28T23:59:59Z), or null when none is stated"
  }
]

Rules:
- Return [] when the text contains no tasks
- Convert relative deadlines such as "tomorrow" or "next week" into concrete timestamps
- due_date must be an ISO8601 string or null
- Return only the JSON, with no commentary`

// GenerateTasksFromText analyzes text and extracts tasks using an OpenAI chat model
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, ErrAIServiceNotConfigured
	}

	prompt := fmt.Sprintf(taskExtractionPrompt, s.now().Format(time.RFC3339), text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: s.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrAIEmptyResponse
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks tolerates a fenced ```json block around the array.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}

	return tasks, nil
}
