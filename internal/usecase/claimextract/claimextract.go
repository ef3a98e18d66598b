// Package claimextract extracts and reduces candidate claim strings from
// source text, wrapping the ClaimExtractor/ClaimReducer LLM collaborators
// with the parsing the core is responsible for.
package claimextract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"factseeker/internal/domain/entity"
	"factseeker/internal/usecase/ports"
)

// jsonArrayFence matches a fenced ```json [...] ``` block, the expected
// happy-path shape of a ClaimReducer response.
var jsonArrayFence = regexp.MustCompile("(?s)```json\\s*(\\[.*?\\])\\s*```")

// Pipeline extracts raw candidate claims then reduces near-duplicates into
// a bounded, ordered ClaimSet.
type Pipeline struct {
	extractor ports.ClaimExtractor
	reducer   ports.ClaimReducer
	maxClaims int
}

// New constructs a Pipeline. maxClaims bounds the final reduced set.
func New(extractor ports.ClaimExtractor, reducer ports.ClaimReducer, maxClaims int) *Pipeline {
	return &Pipeline{extractor: extractor, reducer: reducer, maxClaims: maxClaims}
}

// Run extracts candidate claims from text, reduces near-duplicates, and
// returns a ClaimSet truncated to maxClaims with stable Position ordering.
func (p *Pipeline) Run(ctx context.Context, text string) (entity.ClaimSet, error) {
	rawLines, err := p.extractor.Extract(ctx, text)
	if err != nil {
		return entity.ClaimSet{}, err
	}
	candidates := nonEmptyLines(rawLines)
	if len(candidates) == 0 {
		return entity.ClaimSet{}, nil
	}

	reducedRaw, err := p.reducer.Reduce(ctx, candidates)
	if err != nil {
		return entity.ClaimSet{}, err
	}

	reduced := ParseReducedClaims(reducedRaw)
	if len(reduced) > p.maxClaims {
		reduced = reduced[:p.maxClaims]
	}

	claims := make([]entity.Claim, len(reduced))
	for i, text := range reduced {
		claims[i] = entity.Claim{Text: text, Position: i}
	}
	return entity.ClaimSet{Claims: claims}, nil
}

// ParseReducedClaims parses a ClaimReducer's raw response: a JSON array
// first (optionally fenced in ```json ... ```), falling back to line
// splitting that rejects code-fence artifacts when no JSON array is found
// or it fails to parse.
func ParseReducedClaims(raw string) []string {
	if m := jsonArrayFence.FindStringSubmatch(raw); m != nil {
		var claims []string
		if err := json.Unmarshal([]byte(m[1]), &claims); err == nil {
			return claims
		}
	}

	// Try the whole response as a bare JSON array before falling back to
	// line splitting.
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var claims []string
		if err := json.Unmarshal([]byte(trimmed), &claims); err == nil {
			return claims
		}
	}

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "```") || line == "[" || line == "]" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

func nonEmptyLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
