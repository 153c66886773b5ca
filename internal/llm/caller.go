// Package llm talks to hosted chat-completion and embedding models.
package llm

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ChatRequest is one single-turn completion.
type ChatRequest struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int

	// JSON asks the provider for a JSON object body.
	JSON bool
}

// Caller performs chat completions. Implementations make exactly one
// outbound request per call.
type Caller interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FailureClass buckets transport errors for logs and metrics.
type FailureClass int

const (
	FailureUnknown FailureClass = iota
	FailureTimeout
	FailureRateLimit
	FailureServer
	FailureClient
	FailureCanceled
)

func (c FailureClass) String() string {
	switch c {
	case FailureTimeout:
		return "timeout"
	case FailureRateLimit:
		return "rate_limit"
	case FailureServer:
		return "server"
	case FailureClient:
		return "client"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Classify inspects a provider error.
func Classify(err error) FailureClass {
	if err == nil {
		return FailureUnknown
	}
	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "rate limit"):
		return FailureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, " 5") || strings.Contains(msg, "server error") || strings.Contains(msg, "unavailable"):
		return FailureServer
	case strings.Contains(msg, "status code: 4") || strings.Contains(msg, " 4") || strings.Contains(msg, "invalid_argument") || strings.Contains(msg, "permission_denied"):
		return FailureClient
	default:
		return FailureServer
	}
}

// StripCodeFences removes a surrounding markdown code fence, if any.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		} else {
			s = strings.TrimPrefix(s, "```")
			s = strings.TrimPrefix(s, "json")
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
	}
	return s
}
