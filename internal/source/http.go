package source

import (
	"net/http"
	"strconv"
	"time"

	"github.com/oppscan/oppscan/internal/model"
)

// httpError builds a model.HTTPError from a non-200 response so the
// orchestrator's retry layer can classify it.
func httpError(resp *http.Response) *model.HTTPError {
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
