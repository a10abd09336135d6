package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// TaskDrafter extracts draft tasks from free text.
type TaskDrafter interface {
	GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error)
}

// GeneratedTask is one draft as returned by the model. Priority and due date
// are normalized by TaskService before they reach the caller.
type GeneratedTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PriorityID  uint       `json:"priority_id"`
	DueDate     *time.Time `json:"due_date"`
}

var errEmptyCompletion = errors.New("openai returned no choices")

// OpenAIDrafter asks a chat completion model for task drafts.
type OpenAIDrafter struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func NewOpenAIDrafter(apiKey, model string) *OpenAIDrafter {
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIDrafter{
		client: openai.NewClient(apiKey),
		model:  model,
		now:    time.Now,
	}
}

func (d *OpenAIDrafter) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: draftSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: draftUserPrompt(d.now(), text)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errEmptyCompletion
	}
	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

const draftSystemPrompt = `You turn meeting notes and requests into tasks for a team task board.
Reply with a JSON array only, no prose. Each element has:
  "title": short title, at most 200 characters
  "description": details, may be empty
  "priority_id": 1 Low, 2 Medium, 3 High, 4 Urgent (use 2 unless the text implies otherwise)
  "due_date": RFC3339 timestamp or null
Return [] when the text contains no tasks.`

func draftUserPrompt(now time.Time, text string) string {
	return fmt.Sprintf("Current time: %s\nResolve relative deadlines such as \"tomorrow\" against it.\n\n%s",
		now.UTC().Format(time.RFC3339), text)
}

// parseGeneratedTasks tolerates a markdown code fence around the JSON.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	body := strings.TrimSpace(content)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimSuffix(body, "```")
		body = strings.TrimSpace(body)
	}

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(body), &tasks); err != nil {
		return nil, fmt.Errorf("decode task drafts: %w", err)
	}
	return tasks, nil
}
