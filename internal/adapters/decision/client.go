// Package decision implements the escalation decider on top of an
// OpenAI-compatible chat completion endpoint (ollama serves one locally).
//
// Deciding is a two-stage call: a vision model first describes the capture in
// neutral terms, then a text model maps that description to an escalation
// level as structured JSON. Keeping the stages separate lets a small vision
// model do the looking and a stronger instruct model do the judging.
package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/victorbjor/security-bot/internal/domain/model"
	"github.com/victorbjor/security-bot/pkg/logger"
)

// Default client configuration constants.
const (
	defaultBaseURL       = "http://localhost:11434/v1"
	defaultAPIKey        = "ollama" // required by the wire format, unused by ollama
	defaultVisionModel   = "llama3.2-vision:11b"
	defaultDecisionModel = "gemma2:9b"
	defaultTimeout       = 30 * time.Second

	maxResponseBytes = 1 << 20
)

const describerPrompt = `You are an observational analyst assisting an image
detection pipeline. Describe the person or people in the image in careful,
neutral terms: facial expression, posture, visible objects, and context.
The upstream detector sometimes flags harmless frames; your role is not to
judge intent but to give a thorough description for further evaluation.
Stick strictly to visible details and avoid speculation.`

const deciderPrompt = `You are a safety and security assistant. Given a
description of a flagged image, choose the appropriate response level:

1. "false_positive": nothing in the description suggests a concern.
2. "log": unusual or suspicious behavior with no immediate threat; document
   the concern without taking action.
3. "call_security": a potential threat that may need immediate attention.
   Escalate here when uncertain but a threat is plausible.
4. "alarm": the description clearly indicates an immediate and significant
   threat.

Base the decision only on details explicitly present in the description. If
the description lacks sufficient detail, choose "false_positive" with reason
"INSUFFICIENT DETAIL".

Respond with a JSON object with exactly these keys:
{"higher_level_reasoning": "<one sentence summary>",
 "escalation_level": "<false_positive|log|call_security|alarm>",
 "escalation_reason": "<one sentence, never empty>"}`

// Client calls the completion endpoint to decide escalations.
type Client struct {
	baseURL       string
	apiKey        string
	visionModel   string
	decisionModel string
	httpClient    *http.Client
	logger        logger.Logger
}

// NewClient creates a decision client with configuration options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:       defaultBaseURL,
		apiKey:        defaultAPIKey,
		visionModel:   defaultVisionModel,
		decisionModel: defaultDecisionModel,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		logger:        logger.Get().Named("decision"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Decide runs both stages and returns the structured decision.
func (c *Client) Decide(ctx context.Context, image []byte) (model.Decision, error) {
	if len(image) == 0 {
		return model.Decision{}, ErrEmptyImage
	}

	description, err := c.describe(ctx, image)
	if err != nil {
		return model.Decision{}, fmt.Errorf("describe stage: %w", err)
	}
	c.logger.Debug(ctx, "image described", logger.Int("description_len", len(description)))

	decision, err := c.judge(ctx, description)
	if err != nil {
		return model.Decision{}, fmt.Errorf("judge stage: %w", err)
	}
	return decision, nil
}

// chat wire types, OpenAI chat-completions shape.

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *formatSpec   `json:"response_format,omitempty"`
}

type formatSpec struct {
	Type string `json:"type"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageRef `json:"image_url,omitempty"`
}

type imageRef struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// decisionAnswer is the judge stage's structured output.
type decisionAnswer struct {
	Summary string `json:"higher_level_reasoning"`
	Level   string `json:"escalation_level"`
	Reason  string `json:"escalation_reason"`
}

// describe sends the capture to the vision model.
func (c *Client) describe(ctx context.Context, image []byte) (string, error) {
	req := chatRequest{
		Model: c.visionModel,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: describerPrompt},
					{Type: "image_url", ImageURL: &imageRef{URL: model.DataURI(image)}},
				},
			},
		},
	}
	return c.complete(ctx, req)
}

// judge maps the description to a structured decision.
func (c *Client) judge(ctx context.Context, description string) (model.Decision, error) {
	req := chatRequest{
		Model:          c.decisionModel,
		ResponseFormat: &formatSpec{Type: "json_object"},
		Messages: []chatMessage{
			{Role: "system", Content: deciderPrompt},
			{Role: "user", Content: description},
		},
	}

	raw, err := c.complete(ctx, req)
	if err != nil {
		return model.Decision{}, err
	}

	var answer decisionAnswer
	if err := json.Unmarshal([]byte(extractJSON(raw)), &answer); err != nil {
		return model.Decision{}, fmt.Errorf("%w: %v", ErrMalformedAnswer, err)
	}

	decision := model.Decision{
		Summary: answer.Summary,
		Level:   parseLevel(answer.Level),
		Reason:  answer.Reason,
	}
	if decision.Reason == "" {
		decision.Reason = "no reason given"
	}
	return decision, nil
}

// complete posts a chat request and returns the first choice's content.
func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrCompletion, resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrCompletion, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrCompletion)
	}
	return parsed.Choices[0].Message.Content, nil
}

// parseLevel maps the model's level string onto the closed enum, tolerating
// the phrasing drift small models produce.
func parseLevel(raw string) model.EscalationLevel {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(normalized, "alarm"):
		return model.LevelAlarm
	case strings.Contains(normalized, "security"), strings.Contains(normalized, "call"):
		return model.LevelCallSecurity
	case strings.Contains(normalized, "log"):
		return model.LevelLog
	case strings.Contains(normalized, "false"), strings.Contains(normalized, "not a threat"):
		return model.LevelFalsePositive
	default:
		return model.LevelUnreadable
	}
}

// extractJSON strips markdown fences and surrounding prose, leaving the
// outermost JSON object.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return raw
	}
	return raw[start : end+1]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
