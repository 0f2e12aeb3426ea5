package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

type AIService struct {
	client *openai.Client
	model  string
}

// GeneratedSchedule is one shift proposed by the assistant.
type GeneratedSchedule struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Note      string `json:"note"`
}

func NewAIService(apiKey, model string) *AIService {
	return NewAIServiceWithConfig(openai.DefaultConfig(apiKey), model)
}

// NewAIServiceWithConfig allows pointing the client at a compatible endpoint.
func NewAIServiceWithConfig(cfg openai.ClientConfig, model string) *AIService {
	if model == "" {
		model = openai.GPT4o
	}
	return &AIService{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// GenerateSchedulesFromText turns a free-text description of upcoming shifts
// ("Mon and Wed next week 9 to 5") into concrete dated shifts.
func (s *AIService) GenerateSchedulesFromText(ctx context.Context, text string, now time.Time, loc *time.Location) ([]GeneratedSchedule, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	local := now.In(loc)
	prompt := fmt.Sprintf(`You are a shift planning assistant. Extract every work shift described in the text below.

Current date and time: %s (%s, time zone %s)

Text:
%s

Reply with a JSON array in this format:
[
  {
    "date": "shift date as YYYY-MM-DD",
    "start_time": "start as HH:mm (24 hour)",
    "end_time": "end as HH:mm (24 hour), later than start_time",
    "note": "short note, or an empty string"
  }
]

Rules:
- Return [] if the text describes no shifts
- Resolve relative expressions such as "tomorrow" or "next Monday" to concrete dates
- Shifts ending after midnight must be split at 23:59
- Return JSON only, without any explanation`,
		local.Format("2006-01-02 15:04"), local.Weekday(), loc.String(), text)

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
			Temperature: 0.2,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedSchedules(resp.Choices[0].Message.Content)
}

func parseGeneratedSchedules(content string) ([]GeneratedSchedule, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var schedules []GeneratedSchedule
	if err := json.Unmarshal([]byte(trimmed), &schedules); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	return schedules, nil
}
