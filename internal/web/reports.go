package web

import (
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/joelkehle/patentmate/internal/render"
	"github.com/joelkehle/patentmate/internal/report"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	msgNoReport       = "No report available."
	msgNoAnalysis     = "No contributor analysis available."
	msgNoFinalReport  = "No final report available."
	patentReportTitle = "Patent Application Report"
	finalReportTitle  = "Final Patent Report"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	_, hasReport, err := report.LoadPatentReport(r.Context(), kvFrom(r))
	if err != nil {
		zap.L().Warn("load patent report", zap.Error(err))
	}
	s.pages.render(w, r, http.StatusOK, "home.html", map[string]any{
		"Title":     "PatentMate",
		"Active":    "home",
		"HasReport": hasReport,
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": patentReportTitle, "Active": "report"}
	md, ok, err := report.LoadPatentReport(r.Context(), kvFrom(r))
	if err != nil {
		zap.L().Warn("load patent report", zap.Error(err))
	}
	if !ok {
		data["Empty"] = msgNoReport
		s.pages.render(w, r, http.StatusOK, "report.html", data)
		return
	}
	body, err := render.MarkdownHTML(md)
	if err != nil {
		zap.L().Error("render patent report", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data["Body"] = body
	s.pages.render(w, r, http.StatusOK, "report.html", data)
}

func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	md, ok, err := report.LoadPatentReport(r.Context(), kvFrom(r))
	if err != nil || !ok {
		http.Error(w, msgNoReport, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="patent-report.md"`)
	_, _ = w.Write([]byte(md))
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	md, ok, err := report.LoadPatentReport(r.Context(), kvFrom(r))
	if err != nil || !ok {
		http.Error(w, msgNoReport, http.StatusNotFound)
		return
	}
	s.writePDF(w, r, patentReportTitle, md, "patent-report.pdf")
}

func (s *Server) writePDF(w http.ResponseWriter, r *http.Request, title, md, filename string) {
	if s.pdf == nil {
		writeError(w, http.StatusServiceUnavailable, "pdf renderer unavailable")
		return
	}
	pdf, err := s.pdf.Render(r.Context(), title, md)
	if err != nil {
		zap.L().Error("render pdf", zap.String("title", title), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render pdf")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(pdf)
}

func (s *Server) handleDisclosure(w http.ResponseWriter, r *http.Request) {
	answers, _, err := report.LoadFormAnswers(r.Context(), kvFrom(r))
	if err != nil {
		zap.L().Warn("load form answers", zap.Error(err))
	}
	s.renderDisclosure(w, r, http.StatusOK, answers.PatentDescription, "")
}

func (s *Server) renderDisclosure(w http.ResponseWriter, r *http.Request, status int, description, errMsg string) {
	s.pages.render(w, r, status, "disclosure.html", map[string]any{
		"Title":       "Invention Disclosure",
		"Active":      "invention-disclosure",
		"Description": description,
		"Error":       errMsg,
	})
}

func (s *Server) handleDisclosurePost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	description := r.PostForm.Get("patentDescription")
	res := s.reports.AnalyzeDisclosure(r.Context(), kvFrom(r), description)
	if !res.Success {
		status := http.StatusBadGateway
		if res.Failure != nil && res.Failure.Kind == report.FailureInput {
			status = http.StatusBadRequest
		}
		s.renderDisclosure(w, r, status, description, res.Message)
		return
	}
	http.Redirect(w, r, "/contributor-analysis", http.StatusSeeOther)
}

func (s *Server) handleContributors(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Title": "Contributor Analysis", "Active": "contributor-analysis"}
	a, ok, err := report.LoadAnalysis(r.Context(), kvFrom(r))
	if err != nil {
		zap.L().Warn("load contributor analysis", zap.Error(err))
	}
	if !ok {
		data["Empty"] = msgNoAnalysis
	} else {
		data["Analysis"] = a
		data["Saved"] = r.URL.Query().Get("saved") == "1"
	}
	s.pages.render(w, r, http.StatusOK, "contributors.html", data)
}

// handleContributorsPost saves the edited lists after applying the action.
// Actions are save, add-contribution, add-contributor,
// remove-contribution:<i> and remove-contributor:<i>.
func (s *Server) handleContributorsPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	a := analysisFromForm(r)
	if err := applyAnalysisAction(&a, r.PostForm.Get("action")); err != nil {
		http.Error(w, "invalid action", http.StatusBadRequest)
		return
	}
	if err := report.SaveAnalysis(r.Context(), kvFrom(r), a); err != nil {
		zap.L().Error("save contributor analysis", zap.Error(err))
		http.Error(w, "could not save analysis", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/contributor-analysis?saved=1", http.StatusSeeOther)
}

func analysisFromForm(r *http.Request) report.ContributionAnalysis {
	f := r.PostForm
	var a report.ContributionAnalysis
	for _, d := range f["contribution"] {
		a.AddContribution(report.Contribution{Description: d})
	}
	names := f["contributorName"]
	expertise := f["contributorExpertise"]
	contributions := f["contributorContribution"]
	for i, name := range names {
		a.AddContributor(report.Contributor{
			Name:         name,
			Expertise:    at(expertise, i),
			Contribution: at(contributions, i),
		})
	}
	return a
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func applyAnalysisAction(a *report.ContributionAnalysis, action string) error {
	verb, arg, _ := strings.Cut(action, ":")
	switch verb {
	case "", "save":
		return nil
	case "add-contribution":
		a.AddContribution(report.Contribution{})
		return nil
	case "add-contributor":
		a.AddContributor(report.Contributor{})
		return nil
	case "remove-contribution", "remove-contributor":
		i, err := strconv.Atoi(arg)
		if err != nil {
			return err
		}
		if verb == "remove-contribution" {
			return a.RemoveContribution(i)
		}
		return a.RemoveContributor(i)
	default:
		return eris.Errorf("web: unknown action %q", action)
	}
}

// handleFinalReport serves the loading shell; the page fetches the content
// fragment, which runs the slow backend calls.
func (s *Server) handleFinalReport(w http.ResponseWriter, r *http.Request) {
	_, hasReport, err := report.LoadPatentReport(r.Context(), kvFrom(r))
	if err != nil {
		zap.L().Warn("load patent report", zap.Error(err))
	}
	data := map[string]any{"Title": finalReportTitle, "Active": "final-report"}
	if !hasReport {
		data["Empty"] = msgNoReport
	}
	s.pages.render(w, r, http.StatusOK, "final_report.html", data)
}

func (s *Server) handleFinalReportContent(w http.ResponseWriter, r *http.Request) {
	view, err := s.aggregator.Run(r.Context(), kvFrom(r))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		zap.L().Error("assemble final report", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data := map[string]any{"View": view, "Empty": msgNoReport, "Summary": template.HTML(""), "Budget": 0.0}
	if view.Report != nil {
		data["Budget"] = view.Report.BudgetEstimate.Total()
		summary, err := render.MarkdownHTML(view.Report.ExecutiveSummary)
		if err != nil {
			zap.L().Warn("render executive summary", zap.Error(err))
		}
		data["Summary"] = summary
	}
	s.pages.render(w, r, http.StatusOK, "final_report_content.html", data)
}

func (s *Server) handleFinalReportPDF(w http.ResponseWriter, r *http.Request) {
	fr, ok, err := report.LoadFinalReport(r.Context(), kvFrom(r))
	if err != nil || !ok {
		http.Error(w, msgNoFinalReport, http.StatusNotFound)
		return
	}
	matches, err := report.LoadMatches(r.Context(), kvFrom(r))
	if err != nil {
		zap.L().Warn("load report matches", zap.Error(err))
	}
	md := report.FinalReportMarkdown(fr, matches.Attorneys, matches.Patents)
	s.writePDF(w, r, finalReportTitle, md, "final-report.pdf")
}
