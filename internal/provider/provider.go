package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"document-analyzer/internal/domain"
)

// Generation is one provider completion plus its reported token usage.
type Generation struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Provider is one AI backend. Implementations return CallError so the
// gateway can classify failures without knowing transport details.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (*Generation, error)
}

// CallError is a classified provider failure.
type CallError struct {
	Class   domain.FailureClass
	Message string
	Cause   error
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Class, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// classify maps an arbitrary provider error to a failure class. Unknown
// errors default to retryable-transient so a flaky network never
// permanently fails a chunk on the first hiccup.
func classify(err error) domain.FailureClass {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.FailureRetryableTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource exhausted") ||
		strings.Contains(msg, "rate limit") || strings.Contains(msg, "quota"):
		return domain.FailureRetryableRateLimit
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthenticated") || strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "api key"):
		return domain.FailureFatalAuth
	case strings.Contains(msg, "400") || strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "invalid request"):
		return domain.FailureFatalInvalidRequest
	case strings.Contains(msg, "404") || strings.Contains(msg, "not found"):
		return domain.FailureFatalUnavailable
	default:
		return domain.FailureRetryableTransient
	}
}

// classifyHTTPStatus maps an HTTP status code from a REST provider to a
// failure class.
func classifyHTTPStatus(status int) domain.FailureClass {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.FailureRetryableRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.FailureFatalAuth
	case status == http.StatusNotFound:
		return domain.FailureFatalUnavailable
	case status >= 400 && status < 500:
		return domain.FailureFatalInvalidRequest
	default:
		return domain.FailureRetryableTransient
	}
}
