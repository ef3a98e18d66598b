package claimextract

import (
	"context"
	"testing"
)

func TestParseReducedClaims_FencedJSON(t *testing.T) {
	raw := "Here are the claims:\n```json\n[\"claim one\", \"claim two\"]\n```\n"
	claims := ParseReducedClaims(raw)
	if len(claims) != 2 || claims[0] != "claim one" || claims[1] != "claim two" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseReducedClaims_BareJSONArray(t *testing.T) {
	raw := `["claim a", "claim b", "claim c"]`
	claims := ParseReducedClaims(raw)
	if len(claims) != 3 {
		t.Fatalf("expected 3 claims, got %d", len(claims))
	}
}

func TestParseReducedClaims_FallsBackToLineSplitRejectingFences(t *testing.T) {
	raw := "```json\nclaim one\nclaim two\n```"
	claims := ParseReducedClaims(raw)
	if len(claims) != 2 || claims[0] != "claim one" || claims[1] != "claim two" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseReducedClaims_MalformedJSONFallsBackToLines(t *testing.T) {
	raw := "[\"unterminated\nclaim one\nclaim two"
	claims := ParseReducedClaims(raw)
	if len(claims) == 0 {
		t.Fatal("expected fallback line parsing to produce claims")
	}
}

type stubExtractor struct {
	lines []string
	err   error
}

func (s stubExtractor) Extract(ctx context.Context, text string) ([]string, error) {
	return s.lines, s.err
}

type stubReducer struct {
	raw string
	err error
}

func (s stubReducer) Reduce(ctx context.Context, claims []string) (string, error) {
	return s.raw, s.err
}

func TestPipeline_Run_TruncatesToMaxClaims(t *testing.T) {
	extractor := stubExtractor{lines: []string{"a", "b", "c", "d"}}
	reducer := stubReducer{raw: `["a", "b", "c", "d"]`}
	p := New(extractor, reducer, 2)

	set, err := p.Run(context.Background(), "source text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 2 {
		t.Fatalf("expected 2 claims after truncation, got %d", set.Len())
	}
	if set.Claims[0].Position != 0 || set.Claims[1].Position != 1 {
		t.Errorf("expected positions 0,1, got %d,%d", set.Claims[0].Position, set.Claims[1].Position)
	}
}

func TestPipeline_Run_EmptyExtractionReturnsEmptySet(t *testing.T) {
	extractor := stubExtractor{lines: []string{"   ", ""}}
	reducer := stubReducer{raw: `[]`}
	p := New(extractor, reducer, 10)

	set, err := p.Run(context.Background(), "source text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if set.Len() != 0 {
		t.Fatalf("expected empty claim set, got %d", set.Len())
	}
}
