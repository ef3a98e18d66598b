// Package websearch implements ports.SearchProvider over a generic JSON web
// search HTTP API, following the same config+httpClient+rateLimiter shape
// as the codebase's webhook notifiers, wrapped in the same circuit breaker
// + retry stack as the LLM adapters.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"factseeker/internal/resilience/circuitbreaker"
	"factseeker/internal/resilience/retry"
	"factseeker/internal/usecase/ports"
)

// Config configures one SearchProvider instance. Two independently
// configured instances are wired into the pipeline: primary and secondary.
type Config struct {
	// Name identifies the instance for circuit breaker naming and logs,
	// e.g. "primary" or "secondary".
	Name string

	// BaseURL is the search API endpoint, e.g.
	// "https://api.example-search.com/v1/search".
	BaseURL string

	// APIKey authenticates requests via the "X-Api-Key" header.
	APIKey string

	// Timeout bounds a single search call; default 15s.
	Timeout time.Duration

	// RequestsPerSecond bounds outbound call rate.
	RequestsPerSecond float64

	// Burst is the token bucket burst size.
	Burst int
}

// Provider implements ports.SearchProvider against a JSON search HTTP API.
type Provider struct {
	cfg            Config
	httpClient     *http.Client
	limiter        *rate.Limiter
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// New constructs a Provider. cbConfig lets callers give the primary and
// secondary instances distinct circuit breaker names while sharing the
// same tuning (circuitbreaker.SearchProviderConfig's thresholds).
func New(cfg Config) *Provider {
	cbCfg := circuitbreaker.SearchProviderConfig()
	cbCfg.Name = "search-provider-" + cfg.Name
	return &Provider{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		circuitBreaker: circuitbreaker.New(cbCfg),
		retryConfig:    retry.SearchProviderConfig(),
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"results"`
}

// Search issues query against the configured search API, returning up to
// the provider's page of raw hits. Errors propagate to EvidenceRetriever,
// which treats a failed Search as "no results" rather than aborting the
// claim.
func (p *Provider) Search(ctx context.Context, query string) ([]ports.SearchResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("search provider %s: rate limiter: %w", p.cfg.Name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	var results []ports.SearchResult
	retryErr := retry.WithBackoff(ctx, p.retryConfig, func() error {
		cbResult, err := p.circuitBreaker.Execute(func() (interface{}, error) {
			return p.doSearch(ctx, query)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				return fmt.Errorf("search provider %s unavailable: circuit breaker open", p.cfg.Name)
			}
			return err
		}
		results = cbResult.([]ports.SearchResult)
		return nil
	})
	if retryErr != nil {
		return nil, fmt.Errorf("search provider %s: %w", p.cfg.Name, retryErr)
	}
	return results, nil
}

func (p *Provider) doSearch(ctx context.Context, query string) ([]ports.SearchResult, error) {
	reqURL := p.cfg.BaseURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Api-Key", p.cfg.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: "search provider server error"}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search provider %s: client error %d", p.cfg.Name, resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]ports.SearchResult, len(parsed.Results))
	for i, r := range parsed.Results {
		out[i] = ports.SearchResult{Title: r.Title, Link: r.Link, Snippet: r.Snippet}
	}
	return out, nil
}
