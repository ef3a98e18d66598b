package pipeline

import "errors"

// ErrSourceUnavailable is returned when TextFetcher cannot produce any
// source text; per the propagation policy this is one of only two errors
// that abort a request outright.
var ErrSourceUnavailable = errors.New("pipeline: source text unavailable")

// ErrExtractionFailed is returned when claim extraction or reduction fails
// outright (not merely "zero claims found," which is a success case with an
// empty claim list).
var ErrExtractionFailed = errors.New("pipeline: claim extraction failed")

// ErrInvalidSourceURL is returned when the submitted article_url or
// video_url fails entity.ValidateSourceURL, including the SSRF check that
// blocks URLs resolving to a private, loopback, or link-local address.
// Callers can match it with errors.Is to distinguish a rejected submission
// from a source that was reachable but empty (ErrSourceUnavailable).
var ErrInvalidSourceURL = errors.New("pipeline: invalid source URL")
