// Package report orchestrates the AI calls behind each report and turns
// their bodies into typed, validated results.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/llm"
	"github.com/joelkehle/patentmate/internal/prompts"
	"github.com/joelkehle/patentmate/internal/schema"
	"github.com/joelkehle/patentmate/internal/telemetry"
	"github.com/joelkehle/patentmate/internal/vectorindex"
	"github.com/joelkehle/patentmate/internal/wizard"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultTemperature   = 0.5
	DefaultMaxTokens     = 2048
	DefaultSummaryTokens = 200
	DefaultPatentsTopK   = 5
	DefaultAttorneysTopK = 3
)

// User-facing messages.
const (
	MsgSubmitted      = "Patent application submitted successfully!"
	MsgSubmitFailed   = "An error occurred while processing your application."
	MsgAnalyzed       = "Invention disclosure analyzed successfully!"
	MsgAnalyzeFailed  = "An error occurred while analyzing the invention disclosure."
	MsgFinalReport    = "Final report generated successfully!"
	MsgFinalFailed    = "An error occurred while generating the final report."
	MsgPatentsFailed  = "Unable to find similar patents."
	MsgAttorneyFailed = "Unable to find suggested attorneys."
	MsgNoDescription  = "No patent description available."
)

// Options tunes the model calls. Zero values take the defaults above.
type Options struct {
	Model         string
	Temperature   float64
	MaxTokens     int
	SummaryTokens int
	PatentsTopK   int
	AttorneysTopK int
}

func (o Options) withDefaults() Options {
	if o.Temperature <= 0 {
		o.Temperature = DefaultTemperature
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	if o.SummaryTokens <= 0 {
		o.SummaryTokens = DefaultSummaryTokens
	}
	if o.PatentsTopK <= 0 {
		o.PatentsTopK = DefaultPatentsTopK
	}
	if o.AttorneysTopK <= 0 {
		o.AttorneysTopK = DefaultAttorneysTopK
	}
	return o
}

// Deps are the backends a Service talks to. Metrics may be nil.
type Deps struct {
	Caller    llm.Caller
	Embedder  llm.Embedder
	Patents   vectorindex.Index
	Attorneys vectorindex.Index
	Metrics   *telemetry.Metrics
}

type Service struct {
	caller    llm.Caller
	embedder  llm.Embedder
	patents   vectorindex.Index
	attorneys vectorindex.Index
	metrics   *telemetry.Metrics
	opts      Options
}

func NewService(deps Deps, opts Options) *Service {
	return &Service{
		caller:    deps.Caller,
		embedder:  deps.Embedder,
		patents:   deps.Patents,
		attorneys: deps.Attorneys,
		metrics:   deps.Metrics,
		opts:      opts.withDefaults(),
	}
}

func (s *Service) request(system, prompt string, maxTokens int, asJSON bool) llm.ChatRequest {
	return llm.ChatRequest{
		System:      system,
		Prompt:      prompt,
		Model:       s.opts.Model,
		Temperature: s.opts.Temperature,
		MaxTokens:   maxTokens,
		JSON:        asJSON,
	}
}

type SubmitResult struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Report  *string  `json:"report"`
	Failure *Failure `json:"failure,omitempty"`
}

// SubmitPatentApplication requests the patentability narrative. The answers
// are always persisted; the report only when generation succeeds.
func (s *Service) SubmitPatentApplication(ctx context.Context, kv clientstore.KV, answers wizard.FormAnswers) SubmitResult {
	if err := clientstore.SetJSON(ctx, kv, clientstore.KeyFormAnswers, answers); err != nil {
		zap.L().Error("persist form answers", zap.Error(err))
	}

	out := s.Generate(ctx, "patentability", s.request(
		prompts.PatentabilitySystem, prompts.Patentability(answers), s.opts.MaxTokens, false))
	if !out.Success {
		return SubmitResult{Message: MsgSubmitFailed, Failure: out.Failure}
	}

	if err := clientstore.SetJSON(ctx, kv, clientstore.KeyPatentReport, out.Body); err != nil {
		zap.L().Error("persist patent report", zap.Error(err))
		return SubmitResult{Message: MsgSubmitFailed, Failure: &Failure{Kind: FailureBackend, Message: err.Error()}}
	}
	report := out.Body
	return SubmitResult{Success: true, Message: MsgSubmitted, Report: &report}
}

type AnalysisResult struct {
	Success  bool                  `json:"success"`
	Message  string                `json:"message"`
	Analysis *ContributionAnalysis `json:"analysis"`
	Failure  *Failure              `json:"failure,omitempty"`
}

// AnalyzeDisclosure extracts contributions and contributors and stores the
// analysis for editing.
func (s *Service) AnalyzeDisclosure(ctx context.Context, kv clientstore.KV, description string) AnalysisResult {
	if strings.TrimSpace(description) == "" {
		return AnalysisResult{Message: MsgNoDescription, Failure: &Failure{Kind: FailureInput, Message: MsgNoDescription}}
	}

	out := s.Generate(ctx, "contribution_analysis", s.request(
		prompts.ContributionSystem, prompts.ContributionExtraction(description), s.opts.MaxTokens, true))
	if !out.Success {
		return AnalysisResult{Message: MsgAnalyzeFailed, Failure: out.Failure}
	}

	var analysis ContributionAnalysis
	if f := decodeValidated(schema.ContributionAnalysis, out.Body, &analysis); f != nil {
		return AnalysisResult{Message: MsgAnalyzeFailed, Failure: f}
	}
	if err := SaveAnalysis(ctx, kv, analysis); err != nil {
		zap.L().Error("persist contributor analysis", zap.Error(err))
		return AnalysisResult{Message: MsgAnalyzeFailed, Failure: &Failure{Kind: FailureBackend, Message: err.Error()}}
	}
	return AnalysisResult{Success: true, Message: MsgAnalyzed, Analysis: &analysis}
}

type FinalReportResult struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Report   *FinalReport `json:"report"`
	Warnings []string     `json:"warnings,omitempty"`
	Failure  *Failure     `json:"failure,omitempty"`
}

// GenerateFinalReport combines the narrative and the analysis into the
// structured report. Out-of-range scores are clamped and reported.
func (s *Service) GenerateFinalReport(ctx context.Context, patentReport, contributorAnalysis string) FinalReportResult {
	if strings.TrimSpace(patentReport) == "" {
		return FinalReportResult{Message: MsgFinalFailed, Failure: &Failure{Kind: FailureInput, Message: "no patent report available"}}
	}

	out := s.Generate(ctx, "final_report", s.request(
		prompts.FinalReportSystem, prompts.FinalReport(patentReport, contributorAnalysis), s.opts.MaxTokens, true))
	if !out.Success {
		return FinalReportResult{Message: MsgFinalFailed, Failure: out.Failure}
	}

	var fr FinalReport
	if f := decodeValidated(schema.FinalReport, out.Body, &fr); f != nil {
		return FinalReportResult{Message: MsgFinalFailed, Failure: f}
	}
	warnings := fr.Normalize()
	for _, w := range warnings {
		zap.L().Warn("final report adjusted", zap.String("warning", w))
	}
	return FinalReportResult{Success: true, Message: MsgFinalReport, Report: &fr, Warnings: warnings}
}

func decodeValidated(name schema.Name, body string, out any) *Failure {
	if err := schema.Validate(name, body); err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			return &Failure{Kind: FailureSchema, Message: ve.Error()}
		}
		return &Failure{Kind: FailureMalformed, Message: err.Error()}
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &Failure{Kind: FailureMalformed, Message: err.Error()}
	}
	return nil
}

type PatentsResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Patents []SimilarPatent `json:"patents"`
	Failure *Failure        `json:"failure,omitempty"`
}

// FindSimilarPatents summarizes the description, embeds the summary and
// returns the closest patents.
func (s *Service) FindSimilarPatents(ctx context.Context, description string) PatentsResult {
	matches, f := s.match(ctx, "similar_patents", s.patents, s.opts.PatentsTopK,
		prompts.AbstractSystem, prompts.PatentAbstract, description)
	if f != nil {
		return PatentsResult{Message: MsgPatentsFailed, Patents: []SimilarPatent{}, Failure: f}
	}

	patents := make([]SimilarPatent, 0, len(matches))
	for _, m := range matches {
		var rec patentRecord
		if err := json.Unmarshal(m.Metadata, &rec); err != nil {
			zap.L().Warn("skipping patent with unreadable metadata", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		p := rec.normalize()
		p.Similarity = m.Score
		patents = append(patents, p)
	}
	return PatentsResult{Success: true, Patents: patents}
}

type AttorneysResult struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Attorneys []Attorney `json:"attorneys"`
	Failure   *Failure   `json:"failure,omitempty"`
}

// FindSuggestedAttorneys matches an ideal-attorney profile against the
// attorney directory.
func (s *Service) FindSuggestedAttorneys(ctx context.Context, description string) AttorneysResult {
	matches, f := s.match(ctx, "suggested_attorneys", s.attorneys, s.opts.AttorneysTopK,
		prompts.AttorneySystem, prompts.AttorneyRequirements, description)
	if f != nil {
		return AttorneysResult{Message: MsgAttorneyFailed, Attorneys: []Attorney{}, Failure: f}
	}

	attorneys := make([]Attorney, 0, len(matches))
	for _, m := range matches {
		var rec attorneyRecord
		if err := json.Unmarshal(m.Metadata, &rec); err != nil {
			zap.L().Warn("skipping attorney with unreadable metadata", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		a, err := rec.normalize()
		if err != nil {
			zap.L().Warn("attorney budget range unreadable", zap.String("id", m.ID), zap.Error(err))
		}
		a.Similarity = m.Score
		attorneys = append(attorneys, a)
	}
	return AttorneysResult{Success: true, Attorneys: attorneys}
}

// match runs summarize, embed, query for one similarity section.
func (s *Service) match(ctx context.Context, operation string, index vectorindex.Index, topK int,
	system string, build func(string) string, description string) ([]vectorindex.Match, *Failure) {
	if strings.TrimSpace(description) == "" {
		return nil, &Failure{Kind: FailureInput, Message: MsgNoDescription}
	}
	if index == nil || s.embedder == nil {
		return nil, &Failure{Kind: FailureBackend, Message: "vector search is not configured"}
	}

	out := s.Generate(ctx, operation+"_summary", s.request(system, build(description), s.opts.SummaryTokens, false))
	if !out.Success {
		return nil, out.Failure
	}

	ctx, span := telemetry.Tracer().Start(ctx, "report."+operation)
	defer span.End()
	span.SetAttributes(attribute.Int("vector.top_k", topK))

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, out.Body)
	if err != nil {
		s.metrics.ObserveBackend(operation+"_embed", "backend", time.Since(start))
		span.SetStatus(codes.Error, err.Error())
		zap.L().Warn("embedding failed", zap.String("operation", operation), zap.Error(err))
		return nil, &Failure{Kind: FailureBackend, Message: fmt.Sprintf("embedding failed: %v", err), Class: llm.Classify(err).String()}
	}
	s.metrics.ObserveBackend(operation+"_embed", "success", time.Since(start))

	start = time.Now()
	matches, err := index.Query(ctx, vector, topK)
	if err != nil {
		s.metrics.ObserveBackend(operation+"_query", "backend", time.Since(start))
		span.SetStatus(codes.Error, err.Error())
		zap.L().Warn("vector query failed", zap.String("operation", operation), zap.Error(err))
		return nil, &Failure{Kind: FailureBackend, Message: fmt.Sprintf("vector query failed: %v", err)}
	}
	s.metrics.ObserveBackend(operation+"_query", "success", time.Since(start))
	span.SetAttributes(attribute.Int("vector.matches", len(matches)))
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}
