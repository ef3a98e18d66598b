package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"

	"factseeker/internal/resilience/circuitbreaker"
	"factseeker/internal/resilience/retry"
)

// textCompleter is the shared Claude call path underlying every
// prompt-in-text-out adapter in this package (claim extraction, reduction,
// query summarization, keyword extraction, three-line summarization,
// channel-type classification).
type textCompleter struct {
	client         anthropic.Client
	model          anthropic.Model
	maxTokens      int64
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
	timeout        time.Duration
}

func newTextCompleter(apiKey string, timeout time.Duration) textCompleter {
	return textCompleter{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          anthropic.ModelClaudeSonnet4_5_20250929,
		maxTokens:      1024,
		circuitBreaker: circuitbreaker.New(circuitbreaker.JudgeConfig()),
		retryConfig:    retry.JudgeConfig(),
		timeout:        timeout,
	}
}

func (c *textCompleter) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doComplete(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude completion failed after retries: %w", retryErr)
	}
	return result, nil
}

func (c *textCompleter) doComplete(ctx context.Context, prompt string) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
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

// ClaimExtractor implements ports.ClaimExtractor: prompts Claude for a
// line-delimited list of check-worthy claims in source text.
type ClaimExtractor struct{ completer textCompleter }

// NewClaimExtractor constructs a ClaimExtractor.
func NewClaimExtractor(apiKey string, timeout time.Duration) *ClaimExtractor {
	return &ClaimExtractor{completer: newTextCompleter(apiKey, timeout)}
}

func (c *ClaimExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	prompt := "Extract every independently verifiable factual claim from the following text. " +
		"Output one claim per line, no numbering, no commentary.\n\n" + text
	raw, err := c.completer.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return strings.Split(raw, "\n"), nil
}

// ClaimReducer implements ports.ClaimReducer: prompts Claude to collapse
// near-duplicate claims into a JSON array.
type ClaimReducer struct{ completer textCompleter }

// NewClaimReducer constructs a ClaimReducer.
func NewClaimReducer(apiKey string, timeout time.Duration) *ClaimReducer {
	return &ClaimReducer{completer: newTextCompleter(apiKey, timeout)}
}

func (c *ClaimReducer) Reduce(ctx context.Context, claims []string) (string, error) {
	prompt := "Merge the near-duplicate claims below into a deduplicated list. " +
		"Respond with a JSON array of strings and nothing else.\n\n" + strings.Join(claims, "\n")
	return c.completer.complete(ctx, prompt)
}

// QuerySummarizer implements ports.QuerySummarizer: condenses a claim into a
// short search-engine query for EvidenceRetriever's Stage A.
type QuerySummarizer struct{ completer textCompleter }

// NewQuerySummarizer constructs a QuerySummarizer.
func NewQuerySummarizer(apiKey string, timeout time.Duration) *QuerySummarizer {
	return &QuerySummarizer{completer: newTextCompleter(apiKey, timeout)}
}

func (q *QuerySummarizer) Summarize(ctx context.Context, claim string) (string, error) {
	prompt := "Condense the following claim into a short web search query (under 12 words), " +
		"output only the query text:\n\n" + claim
	return q.completer.complete(ctx, prompt)
}

// KeywordExtractor implements ports.KeywordExtractor: the auxiliary
// keyword-extraction metadata output.
type KeywordExtractor struct{ completer textCompleter }

// NewKeywordExtractor constructs a KeywordExtractor.
func NewKeywordExtractor(apiKey string, timeout time.Duration) *KeywordExtractor {
	return &KeywordExtractor{completer: newTextCompleter(apiKey, timeout)}
}

func (k *KeywordExtractor) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	prompt := "List the 5-10 most important keywords or named entities in the following text, " +
		"one per line, no numbering:\n\n" + text
	raw, err := k.completer.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(raw), nil
}

// splitNonEmptyLines splits raw on newlines, trims each line, and drops
// blanks, the common shape of Claude's one-item-per-line responses.
func splitNonEmptyLines(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// ThreeLineSummarizer implements ports.ThreeLineSummarizer: the auxiliary
// three-line-summary metadata output.
type ThreeLineSummarizer struct{ completer textCompleter }

// NewThreeLineSummarizer constructs a ThreeLineSummarizer.
func NewThreeLineSummarizer(apiKey string, timeout time.Duration) *ThreeLineSummarizer {
	return &ThreeLineSummarizer{completer: newTextCompleter(apiKey, timeout)}
}

func (t *ThreeLineSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	prompt := "Summarize the following text in exactly three lines:\n\n" + text
	return t.completer.complete(ctx, prompt)
}

// ChannelTypeClassifier implements ports.ChannelTypeClassifier: classifies a
// video transcript's channel type, supplementing the video pipeline variant.
type ChannelTypeClassifier struct{ completer textCompleter }

// NewChannelTypeClassifier constructs a ChannelTypeClassifier.
func NewChannelTypeClassifier(apiKey string, timeout time.Duration) *ChannelTypeClassifier {
	return &ChannelTypeClassifier{completer: newTextCompleter(apiKey, timeout)}
}

func (c *ChannelTypeClassifier) Classify(ctx context.Context, transcript string) (string, string, error) {
	prompt := "Classify the channel that produced this transcript as one of: news, commentary, entertainment, " +
		"education, other. Respond with exactly two lines:\nchannel_type: <value>\nreason: <one sentence>\n\n" + transcript
	raw, err := c.completer.complete(ctx, prompt)
	if err != nil {
		return "", "", err
	}
	channelType, reason := parseChannelClassification(raw)
	return channelType, reason, nil
}

// parseChannelClassification reads the "channel_type: ..." / "reason: ..."
// two-line grammar requested in Classify's prompt. Unrecognized labels and
// malformed lines are ignored rather than treated as errors.
func parseChannelClassification(raw string) (channelType, reason string) {
	for _, line := range strings.Split(raw, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		label := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		switch label {
		case "channel_type":
			channelType = value
		case "reason":
			reason = value
		}
	}
	return channelType, reason
}
