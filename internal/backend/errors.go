package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"studypilot/internal/model"
)

// TransientMarker is the phrase the backend puts in its error detail while
// a document is still being processed.
const TransientMarker = "still generating"

var transientCodes = map[string]bool{
	"still_generating": true,
	"pending":          true,
}

// APIError is a non-2xx response. Detail is the JSON "detail" string when
// the body carries one, otherwise the raw body text.
type APIError struct {
	Status int
	Detail string
	Code   string
	Raw    string
}

func (e *APIError) Error() string {
	if msg := strings.TrimSpace(e.Detail); msg != "" {
		return msg
	}
	return fmt.Sprintf("backend returned HTTP %d", e.Status)
}

// NetworkError means no HTTP response was received.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

type ErrorKind string

const (
	ErrorNone      ErrorKind = "none"
	ErrorTransient ErrorKind = "transient"
	ErrorFatal     ErrorKind = "fatal"
	ErrorNetwork   ErrorKind = "network"
	ErrorCanceled  ErrorKind = "canceled"
)

func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorNone
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return ErrorNetwork
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorCanceled
	}
	if IsTransient(err) {
		return ErrorTransient
	}
	return ErrorFatal
}

// Outcome turns the result of one generation attempt into the form the
// retry controller acts on.
func Outcome(payload json.RawMessage, err error) model.GenerationOutcome {
	switch Classify(err) {
	case ErrorNone:
		return model.Success(payload)
	case ErrorTransient:
		return model.TransientFailure(Message(err))
	default:
		return model.FatalFailure(Message(err))
	}
}

// IsTransient reports whether err says the artifact is not ready yet.
// A structured code or status wins; the detail substring is the fallback
// for backends that only send text.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if transientCodes[strings.ToLower(apiErr.Code)] {
			return true
		}
		if apiErr.Status == http.StatusAccepted || apiErr.Status == http.StatusTooEarly {
			return true
		}
	}
	if err == nil {
		return false
	}
	return strings.Contains(Message(err), TransientMarker)
}

// Message is the user-facing text of err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// parseAPIError builds an APIError from a failed response body.
func parseAPIError(status int, body []byte) *APIError {
	raw := strings.TrimSpace(string(body))
	out := &APIError{Status: status, Detail: raw, Raw: raw}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return out
	}
	if detail, ok := payload["detail"].(string); ok && detail != "" {
		out.Detail = detail
	}
	for _, key := range []string{"code", "status"} {
		if code, ok := payload[key].(string); ok && code != "" {
			out.Code = code
			break
		}
	}
	return out
}
