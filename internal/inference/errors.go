package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamFailure indicates the upstream call itself failed: transport
	// error, unreadable body or a non-2xx status.
	ErrUpstreamFailure = errors.New("upstream request failed")

	// ErrUpstreamContract indicates the upstream answered with a payload that
	// does not hold an image URL at the configured path.
	ErrUpstreamContract = errors.New("upstream response does not match expected shape")
)

const maxLoggedBody = 200

// UpstreamError describes a failed upstream call.
type UpstreamError struct {
	StatusCode int    // 0 when no response was received
	Body       string // truncated response body
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode > 0 && e.Err != nil:
		return fmt.Sprintf("%s (HTTP %d): %v", ErrUpstreamFailure, e.StatusCode, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s (HTTP %d): %s", ErrUpstreamFailure, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: %v", ErrUpstreamFailure, e.Err)
	}
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamFailure}
	}
	return []error{ErrUpstreamFailure, e.Err}
}

// ContractError describes a 2xx response whose payload failed validation.
type ContractError struct {
	Path   string
	Reason string
	Body   string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s at %q", ErrUpstreamContract, e.Reason, e.Path)
}

func (e *ContractError) Unwrap() error {
	return ErrUpstreamContract
}

func truncate(body []byte) string {
	if len(body) > maxLoggedBody {
		return string(body[:maxLoggedBody]) + "..."
	}
	return string(body)
}
