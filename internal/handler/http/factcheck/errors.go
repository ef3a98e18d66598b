package factcheck

import (
	"errors"
	"net/http"

	"factseeker/internal/usecase/pipeline"
)

// sourceErrorStatus maps a Driver error to the HTTP status a caller should
// see: a rejected URL (malformed or SSRF-blocked) is a plain bad request,
// source text unavailable or claim extraction failure are the requester's
// problem too (unreachable or empty source), anything else is ours.
func sourceErrorStatus(err error) int {
	if errors.Is(err, pipeline.ErrInvalidSourceURL) {
		return http.StatusBadRequest
	}
	if errors.Is(err, pipeline.ErrSourceUnavailable) || errors.Is(err, pipeline.ErrExtractionFailed) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
