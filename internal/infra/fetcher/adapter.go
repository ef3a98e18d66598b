package fetcher

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// TextFetcher implements ports.TextFetcher, combining the readability-based
// article fetcher with a YouTube caption-track fetcher for video transcripts.
type TextFetcher struct {
	articles  *ReadabilityFetcher
	client    *http.Client
	enabled   bool
	threshold int
}

// NewTextFetcher constructs a TextFetcher over the given article-fetch
// configuration.
func NewTextFetcher(cfg ContentFetchConfig) *TextFetcher {
	return &TextFetcher{
		articles:  NewReadabilityFetcher(cfg),
		client:    &http.Client{Timeout: cfg.Timeout},
		enabled:   cfg.Enabled,
		threshold: cfg.Threshold,
	}
}

// FetchArticleBody returns the cleaned plain text for an article URL, or
// empty string if extraction fails, fetching is disabled, or the extracted
// text falls short of the configured Threshold (too little to carry a
// checkable claim through Stage B extraction).
func (f *TextFetcher) FetchArticleBody(ctx context.Context, articleURL string) (string, error) {
	if !f.enabled {
		return "", nil
	}
	text, err := f.articles.FetchContent(ctx, articleURL)
	if err != nil {
		return "", nil
	}
	if len(text) < f.threshold {
		return "", nil
	}
	return text, nil
}

var youTubeVideoIDPattern = regexp.MustCompile(
	`(?:youtube\.com/watch\?(?:.*&)?v=|youtu\.be/|youtube\.com/embed/)([a-zA-Z0-9_-]{11})`)

// FetchTranscript returns the English caption track text for a YouTube
// video URL via YouTube's public timedtext endpoint, or empty string if no
// captions are available.
func (f *TextFetcher) FetchTranscript(ctx context.Context, videoURL string) (string, error) {
	videoID, err := extractYouTubeVideoID(videoURL)
	if err != nil {
		return "", nil
	}

	timedTextURL := fmt.Sprintf("https://www.youtube.com/api/timedtext?lang=en&v=%s", url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, timedTextURL, nil)
	if err != nil {
		return "", fmt.Errorf("build timedtext request: %w", err)
	}
	req.Header.Set("User-Agent", "FactSeekerBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return "", nil
	}
	if len(body) == 0 {
		return "", nil
	}

	text, err := parseTimedText(body)
	if err != nil {
		return "", nil
	}
	return text, nil
}

func extractYouTubeVideoID(videoURL string) (string, error) {
	matches := youTubeVideoIDPattern.FindStringSubmatch(videoURL)
	if len(matches) < 2 {
		return "", fmt.Errorf("could not extract youtube video id from %q", videoURL)
	}
	return matches[1], nil
}

type timedTextDoc struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start float64 `xml:"start,attr"`
	Text  string  `xml:",chardata"`
}

func parseTimedText(body []byte) (string, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("parse timedtext xml: %w", err)
	}

	lines := make([]string, 0, len(doc.Texts))
	for _, cue := range doc.Texts {
		line := strings.TrimSpace(html.UnescapeString(cue.Text))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, " "), nil
}
