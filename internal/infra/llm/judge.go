package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"factseeker/internal/resilience/circuitbreaker"
	"factseeker/internal/resilience/retry"
)

// maxPromptChars bounds the text sent per call, matching the reference
// truncation guard that keeps prompts well under the model's context limit.
const maxPromptChars = 10000

// Judge implements ports.Judge over Claude, prompting the model to answer
// in the line-label grammar the usecase/judge package parses.
type Judge struct {
	client         anthropic.Client
	model          anthropic.Model
	maxTokens      int64
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	timeout        time.Duration
}

// NewJudge constructs a Judge with the given Anthropic API key.
func NewJudge(apiKey string, timeout time.Duration) *Judge {
	return &Judge{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          anthropic.ModelClaudeSonnet4_5_20250929,
		maxTokens:      1024,
		circuitBreaker: circuitbreaker.New(circuitbreaker.JudgeConfig()),
		retryConfig:    retry.JudgeConfig(),
		timeout:        timeout,
	}
}

// Evaluate asks Claude whether body supports claim, returning the raw
// line-label text for usecase/judge.ParseVerdict to consume.
func (j *Judge) Evaluate(ctx context.Context, claim, body string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, j.retryConfig, func() error {
		cbResult, err := j.circuitBreaker.Execute(func() (interface{}, error) {
			return j.doEvaluate(ctx, claim, body)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("judge llm unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("judge evaluate failed after retries: %w", retryErr)
	}
	return result, nil
}

func (j *Judge) doEvaluate(ctx context.Context, claim, body string) (string, error) {
	truncated := body
	if len(truncated) > maxPromptChars {
		truncated = truncated[:maxPromptChars]
	}

	prompt := fmt.Sprintf(
		"Claim: %s\n\nArticle body:\n%s\n\n"+
			"Does the article body support or refute the claim? Respond with exactly these four lines, each \"label: value\":\n"+
			"relevance: yes or no\n"+
			"fact description: one sentence describing what the article establishes about the claim\n"+
			"justification: why the article body is or isn't relevant\n"+
			"snippet: the single sentence from the article body that most directly supports your answer, or empty if relevance is no",
		claim, truncated)

	message, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     j.model,
		MaxTokens: j.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}
	return textBlock.Text, nil
}
