package upstream

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"
)

// retryInfo is the structured error body CloudCode returns on 429s.
type retryInfo struct {
	Error struct {
		Details []struct {
			Reason     string            `json:"reason"`
			Metadata   map[string]string `json:"metadata"`
			RetryDelay string            `json:"retryDelay"` // e.g. "3.5s"
		} `json:"details"`
	} `json:"error"`
}

// ParseRetryDelay extracts a retry hint from a throttled response: the
// Retry-After header first, then the JSON error details. Returns 0 when no
// hint is present. The body is restored after reading so the response stays
// usable.
func ParseRetryDelay(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}

	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			return time.Duration(seconds) * time.Second
		}
		if t, err := http.ParseTime(retryAfter); err == nil {
			return time.Until(t)
		}
	}

	if resp.Body == nil {
		return 0
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0
	}
	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var info retryInfo
	if err := json.Unmarshal(bodyBytes, &info); err != nil {
		return 0
	}

	for _, detail := range info.Error.Details {
		if detail.RetryDelay != "" {
			if d, err := time.ParseDuration(detail.RetryDelay); err == nil {
				return d
			}
		}
		if delay, ok := detail.Metadata["retryDelay"]; ok {
			if d, err := time.ParseDuration(delay); err == nil {
				return d
			}
		}
	}
	return 0
}
