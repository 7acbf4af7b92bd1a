package codegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var ErrNoChoices = errors.New("completion response contained no choices")

type Generator interface {
	Generate(ctx context.Context, brief string, checks []string) (string, error)
}

type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator talks to any OpenAI compatible chat completion endpoint.
// A zero timeout leaves the call bounded only by ctx.
func NewOpenAIGenerator(baseURL, token, model string, timeout time.Duration) *OpenAIGenerator {
	return &OpenAIGenerator{
		client: openai.NewClient(
			option.WithBaseURL(baseURL),
			option.WithAPIKey(token),
			option.WithMaxRetries(0),
		),
		model:   model,
		timeout: timeout,
	}
}

func (o *OpenAIGenerator) Generate(ctx context.Context, brief string, checks []string) (string, error) {
	prompt, err := BuildPrompt(brief, checks)
	if err != nil {
		return "", fmt.Errorf("error building prompt: %w", err)
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	chatOpts := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:    o.model,
	}

	start := time.Now()
	res, err := o.client.Chat.Completions.New(ctx, chatOpts)
	if err != nil {
		slog.Error("openai error: chat completions failed", "model", o.model, "error", err)
		return "", fmt.Errorf("code generation failed: %w", err)
	}

	if len(res.Choices) == 0 {
		slog.Error("openai error: empty completion", "model", o.model, "id", res.ID)
		return "", fmt.Errorf("code generation failed: %w", ErrNoChoices)
	}

	content := res.Choices[0].Message.Content
	slog.Info("generated page", "model", o.model, "bytes", len(content), "duration", time.Since(start))

	return content, nil
}
