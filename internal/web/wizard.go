package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/joelkehle/patentmate/internal/clientstore"
	"github.com/joelkehle/patentmate/internal/wizard"
	"go.uber.org/zap"
)

const maxUploadForm = 2 << 20

var uploadExtensions = map[string]bool{".txt": true, ".md": true}

// stepView is what wizard.html needs to draw one step.
type stepView struct {
	Number   int
	Total    int
	Progress int
	Step     wizard.Step
	Value    string
	Selected map[string]bool
	Other    string
	Agreed   bool
	Valid    bool
	First    bool
	Last     bool
	Error    string
	MaxChars int
}

func (s *Server) loadMachine(r *http.Request) *wizard.Machine {
	var draft wizard.Draft
	ok, err := clientstore.GetJSON(r.Context(), kvFrom(r), clientstore.KeyWizardDraft, &draft)
	if err != nil {
		zap.L().Warn("discarding unreadable wizard draft", zap.Error(err))
	}
	if !ok || err != nil {
		return wizard.NewMachine(s.steps)
	}
	return wizard.Restore(s.steps, draft)
}

func (s *Server) saveMachine(r *http.Request, m *wizard.Machine) error {
	return clientstore.SetJSON(r.Context(), kvFrom(r), clientstore.KeyWizardDraft, m.Draft())
}

func newStepView(m *wizard.Machine, errMsg string) stepView {
	step := m.Current()
	answers := m.Answers()
	v := stepView{
		Number:   m.Index() + 1,
		Total:    m.Len(),
		Progress: (m.Index() + 1) * 100 / m.Len(),
		Step:     step,
		Selected: map[string]bool{},
		Agreed:   answers.NDAAgreed,
		Valid:    m.Valid(),
		First:    m.IsFirst(),
		Last:     m.IsLast(),
		Error:    errMsg,
		MaxChars: wizard.MaxDescriptionChars,
	}
	for _, g := range answers.PatentGoals {
		v.Selected[g] = true
	}
	v.Other = answers.OtherGoal
	v.Value = fieldValue(answers, step.Input.Name)
	return v
}

// fieldValue reads a field by its JSON key in the form encoding used by
// the inputs: strings as-is, tri-states as "true", "false" or "".
func fieldValue(a wizard.FormAnswers, name string) string {
	blob, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	var fields map[string]any
	if err := json.Unmarshal(blob, &fields); err != nil {
		return ""
	}
	switch v := fields[name].(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func (s *Server) renderWizard(w http.ResponseWriter, r *http.Request, status int, m *wizard.Machine, errMsg string) {
	s.pages.render(w, r, status, "wizard.html", map[string]any{
		"Title":  "Ability Search",
		"Active": "ability-search",
		"View":   newStepView(m, errMsg),
	})
}

func (s *Server) handleWizard(w http.ResponseWriter, r *http.Request) {
	s.renderWizard(w, r, http.StatusOK, s.loadMachine(r), "")
}

// handleWizardPost applies the posted answers then moves by action. Next and
// submit are ignored while the current step is invalid.
func (s *Server) handleWizardPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	m := s.loadMachine(r)
	if err := m.Apply(r.PostForm); err != nil {
		s.renderWizard(w, r, http.StatusBadRequest, m, "Please choose one of the listed options.")
		return
	}

	switch r.PostForm.Get("action") {
	case "previous":
		m.Previous()
	case "next":
		m.Next()
	case "submit":
		s.submitWizard(w, r, m)
		return
	}
	if err := s.saveMachine(r, m); err != nil {
		zap.L().Error("save wizard draft", zap.Error(err))
		s.renderWizard(w, r, http.StatusInternalServerError, m, "Your answers could not be saved. Please try again.")
		return
	}
	http.Redirect(w, r, "/ability-search", http.StatusSeeOther)
}

func (s *Server) submitWizard(w http.ResponseWriter, r *http.Request, m *wizard.Machine) {
	if err := s.saveMachine(r, m); err != nil {
		zap.L().Error("save wizard draft", zap.Error(err))
	}
	answers, err := m.Submission()
	if err != nil {
		http.Redirect(w, r, "/ability-search", http.StatusSeeOther)
		return
	}

	res := s.reports.SubmitPatentApplication(r.Context(), kvFrom(r), answers)
	if !res.Success {
		s.renderWizard(w, r, http.StatusBadGateway, m, res.Message)
		return
	}
	if err := kvFrom(r).Delete(r.Context(), clientstore.KeyWizardDraft); err != nil {
		zap.L().Warn("clear wizard draft", zap.Error(err))
	}
	http.Redirect(w, r, "/report", http.StatusSeeOther)
}

// handleWizardUpload replaces the description with an uploaded .txt or .md
// file.
func (s *Server) handleWizardUpload(w http.ResponseWriter, r *http.Request) {
	m := s.loadMachine(r)
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadForm)
	if err := r.ParseMultipartForm(maxUploadForm); err != nil {
		s.renderWizard(w, r, http.StatusBadRequest, m, "The upload could not be read.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.renderWizard(w, r, http.StatusBadRequest, m, "Choose a file to upload.")
		return
	}
	defer file.Close()

	if !uploadExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		s.renderWizard(w, r, http.StatusBadRequest, m, "Only .txt and .md files are supported.")
		return
	}
	if err := m.LoadDescription(file); err != nil {
		msg := "The upload could not be read."
		switch {
		case errors.Is(err, wizard.ErrUploadTooLarge):
			msg = "The file is too large."
		case errors.Is(err, wizard.ErrUploadNotText):
			msg = "The file is not a UTF-8 text file."
		}
		s.renderWizard(w, r, http.StatusBadRequest, m, msg)
		return
	}
	if err := s.saveMachine(r, m); err != nil {
		zap.L().Error("save wizard draft", zap.Error(err))
		s.renderWizard(w, r, http.StatusInternalServerError, m, "Your answers could not be saved. Please try again.")
		return
	}
	http.Redirect(w, r, "/ability-search", http.StatusSeeOther)
}
