// Package judge parses a language-model's raw verdict text into a
// structured entity.Verdict and wraps a ports.Judge with that parsing step.
//
// The prompt itself is out of scope here; this package only fixes the
// output grammar its parser consumes: each field on its own line as
// "<label>: <value>", labels matched case-insensitively, unknown labels
// ignored, and a missing relevance or justification line downgrading the
// verdict to relevance=no.
package judge

import (
	"context"
	"log/slog"
	"strings"

	"factseeker/internal/domain/entity"
	"factseeker/internal/usecase/ports"
)

const (
	labelRelevance       = "relevance"
	labelFactDescription = "fact description"
	labelJustification   = "justification"
	labelSnippet         = "snippet"
)

// Evaluator wraps a ports.Judge, turning its raw text response into a
// structured entity.Verdict. Errors from the underlying Judge, and
// responses missing a required field, both downgrade to relevance=no
// rather than propagating as a Go error: errors are treated as "not relevant."
type Evaluator struct {
	judge ports.Judge
}

// New constructs an Evaluator over the given Judge adapter.
func New(j ports.Judge) *Evaluator {
	return &Evaluator{judge: j}
}

// Evaluate calls the underlying Judge and parses its response. It never
// returns a Go error: any failure is reflected in the returned Verdict as
// relevance=no.
func (e *Evaluator) Evaluate(ctx context.Context, claim, body string) entity.Verdict {
	raw, err := e.judge.Evaluate(ctx, claim, body)
	if err != nil {
		slog.Warn("judge: evaluation call failed, treating as not relevant",
			slog.String("error", err.Error()))
		return entity.Verdict{Relevance: "no"}
	}
	return ParseVerdict(raw)
}

// ParseVerdict parses raw Judge output into a Verdict using the line-label
// grammar. Missing relevance or justification downgrades the verdict to
// relevance=no; unknown labels are ignored.
func ParseVerdict(raw string) entity.Verdict {
	fields := map[string]string{}

	for _, line := range strings.Split(raw, "\n") {
		label, value, ok := splitLabel(line)
		if !ok {
			continue
		}
		switch strings.ToLower(label) {
		case labelRelevance:
			fields[labelRelevance] = value
		case labelFactDescription, "fact_check_result", "fact check result":
			fields[labelFactDescription] = value
		case labelJustification:
			fields[labelJustification] = value
		case labelSnippet:
			fields[labelSnippet] = value
		}
	}

	relevance, hasRelevance := fields[labelRelevance]
	justification, hasJustification := fields[labelJustification]
	if !hasRelevance || !hasJustification {
		return entity.Verdict{Relevance: "no"}
	}

	normalized := "no"
	if strings.EqualFold(strings.TrimSpace(relevance), "yes") {
		normalized = "yes"
	}

	return entity.Verdict{
		Relevance:       normalized,
		FactDescription: fields[labelFactDescription],
		Justification:   justification,
		Snippet:         fields[labelSnippet],
	}
}

// splitLabel splits a line on the first colon into a trimmed label/value
// pair. Lines without a colon, or with an empty label, are not a grammar
// token and are ignored.
func splitLabel(line string) (label, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	label = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if label == "" {
		return "", "", false
	}
	return label, value, true
}
