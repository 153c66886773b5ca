package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joelkehle/patentmate/internal/llm"
	"github.com/joelkehle/patentmate/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// FailureKind tags why a backend call produced no usable body.
type FailureKind string

const (
	FailureBackend   FailureKind = "backend"
	FailureEmpty     FailureKind = "empty_response"
	FailureMalformed FailureKind = "malformed_response"
	FailureSchema    FailureKind = "schema_violation"
	FailureInput     FailureKind = "missing_input"
)

// Failure is a recoverable error surfaced to the user inline.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	// Class is the transport classification for backend failures.
	Class string `json:"class,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Outcome is the result of one Generate call. Body is set only on success.
type Outcome struct {
	Success bool
	Body    string
	Failure *Failure
}

func failed(kind FailureKind, msg string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Message: msg}}
}

// Generate makes exactly one completion call and never panics. When
// req.JSON is set the body has code fences stripped and must be valid JSON.
func (s *Service) Generate(ctx context.Context, operation string, req llm.ChatRequest) (out Outcome) {
	ctx, span := telemetry.Tracer().Start(ctx, "report."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", req.Model),
		attribute.Bool("llm.json", req.JSON),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			out = failed(FailureBackend, fmt.Sprintf("backend panicked: %v", r))
		}
		outcome := "success"
		if out.Failure != nil {
			outcome = string(out.Failure.Kind)
			span.SetStatus(codes.Error, out.Failure.Message)
			zap.L().Warn("generation failed",
				zap.String("operation", operation),
				zap.String("kind", string(out.Failure.Kind)),
				zap.String("class", out.Failure.Class),
				zap.String("message", out.Failure.Message),
				zap.Duration("elapsed", time.Since(start)))
		}
		s.metrics.ObserveBackend(operation, outcome, time.Since(start))
	}()

	raw, err := s.caller.Complete(ctx, req)
	if err != nil {
		span.RecordError(err)
		o := failed(FailureBackend, err.Error())
		o.Failure.Class = llm.Classify(err).String()
		return o
	}
	body := strings.TrimSpace(raw)
	if req.JSON {
		body = llm.StripCodeFences(body)
	}
	if body == "" {
		return failed(FailureEmpty, "the model returned an empty response")
	}
	if req.JSON && !json.Valid([]byte(body)) {
		return failed(FailureMalformed, "the model response is not valid JSON")
	}
	return Outcome{Success: true, Body: body}
}
