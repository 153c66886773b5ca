package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/joelkehle/patentmate/internal/report"
	"github.com/joelkehle/patentmate/internal/wizard"
	"go.uber.org/zap"
)

const (
	maxJSONBody     = 1 << 20
	maxMarkdownBody = 5 << 20
)

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// statusFor maps a failed result to a response status.
func statusFor(f *report.Failure) int {
	if f != nil && f.Kind == report.FailureInput {
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func (s *Server) apiPatentApplication(w http.ResponseWriter, r *http.Request) {
	var answers wizard.FormAnswers
	if !decodeBody(w, r, &answers) {
		return
	}
	if err := answers.Validate(); err != nil {
		zap.L().Info("rejecting incomplete application", zap.Error(err))
		writeError(w, http.StatusBadRequest, "The application is incomplete.")
		return
	}
	res := s.reports.SubmitPatentApplication(r.Context(), kvFrom(r), answers)
	if !res.Success {
		writeJSON(w, statusFor(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type descriptionRequest struct {
	PatentDescription string `json:"patentDescription"`
}

func (s *Server) apiInventionDisclosure(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := s.reports.AnalyzeDisclosure(r.Context(), kvFrom(r), req.PatentDescription)
	if !res.Success {
		writeJSON(w, statusFor(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// finalReportRequest accepts contributorAnalysis either as an object or as
// a JSON-encoded string.
type finalReportRequest struct {
	PatentReport        string          `json:"patentReport"`
	ContributorAnalysis json.RawMessage `json:"contributorAnalysis"`
}

func (s *Server) apiFinalReport(w http.ResponseWriter, r *http.Request) {
	var req finalReportRequest
	if !decodeBody(w, r, &req) {
		return
	}
	analysis := string(req.ContributorAnalysis)
	var encoded string
	if json.Unmarshal(req.ContributorAnalysis, &encoded) == nil {
		analysis = encoded
	}
	res := s.reports.GenerateFinalReport(r.Context(), req.PatentReport, analysis)
	if !res.Success {
		writeJSON(w, statusFor(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiSimilarPatents(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := s.reports.FindSimilarPatents(r.Context(), req.PatentDescription)
	if !res.Success {
		writeJSON(w, statusFor(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) apiSuggestedAttorneys(w http.ResponseWriter, r *http.Request) {
	var req descriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := s.reports.FindSuggestedAttorneys(r.Context(), req.PatentDescription)
	if !res.Success {
		writeJSON(w, statusFor(res.Failure), res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// apiReportPDF renders a markdown request body. The title comes from the
// title query parameter.
func (s *Server) apiReportPDF(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMarkdownBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "report body is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	md := strings.TrimSpace(string(body))
	if md == "" {
		writeError(w, http.StatusBadRequest, "report body is required")
		return
	}
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		title = "Report"
	}
	s.writePDF(w, r, title, md, sanitizeFilename(title)+".pdf")
}

func sanitizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "report"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
}
