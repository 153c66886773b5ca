package wizard

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
)

const (
	// MaxDescriptionChars caps the description text, typed or uploaded.
	MaxDescriptionChars = 100000
	maxUploadBytes      = 1 << 20
)

var (
	ErrNotSubmittable = errors.New("wizard: final step is not complete")
	ErrUploadTooLarge = errors.New("wizard: uploaded file is too large")
	ErrUploadNotText  = errors.New("wizard: uploaded file is not UTF-8 text")
)

// Draft is the resumable state of a wizard run.
type Draft struct {
	Step    int         `json:"step"`
	Answers FormAnswers `json:"answers"`
}

// Machine walks a user through the steps, holding the answers collected so
// far. It is not safe for concurrent use.
type Machine struct {
	steps   []Step
	index   int
	answers FormAnswers
}

// NewMachine starts a run at the first step with empty answers.
func NewMachine(steps []Step) *Machine {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	return &Machine{steps: steps}
}

// Restore resumes a run from a saved draft.
func Restore(steps []Step, d Draft) *Machine {
	m := NewMachine(steps)
	m.answers = d.Answers
	m.index = min(max(d.Step, 0), len(m.steps)-1)
	return m
}

func (m *Machine) Draft() Draft {
	return Draft{Step: m.index, Answers: m.answers}
}

func (m *Machine) Current() Step        { return m.steps[m.index] }
func (m *Machine) Index() int           { return m.index }
func (m *Machine) Len() int             { return len(m.steps) }
func (m *Machine) IsFirst() bool        { return m.index == 0 }
func (m *Machine) IsLast() bool         { return m.index == len(m.steps)-1 }
func (m *Machine) Answers() FormAnswers { return m.answers }

// Valid reports whether the current step is satisfied.
func (m *Machine) Valid() bool {
	return m.Current().Valid(m.answers)
}

// Next advances when the current step is valid and is not the last one.
func (m *Machine) Next() bool {
	if m.IsLast() || !m.Valid() {
		return false
	}
	m.index++
	return true
}

// Previous steps back without validation.
func (m *Machine) Previous() bool {
	if m.index == 0 {
		return false
	}
	m.index--
	return true
}

// CanSubmit reports whether the run may be submitted.
func (m *Machine) CanSubmit() bool {
	return m.IsLast() && m.Valid()
}

// Submission returns the answers for submission, or ErrNotSubmittable.
func (m *Machine) Submission() (FormAnswers, error) {
	if !m.CanSubmit() {
		return FormAnswers{}, ErrNotSubmittable
	}
	return m.answers, nil
}

// Apply updates the fields owned by the current step from posted form
// values. Unchecked checkboxes are absent from a form post, so checkbox and
// agreement inputs are always overwritten; other inputs only change when
// their field was posted.
func (m *Machine) Apply(values url.Values) error {
	in := m.Current().Input
	a := &m.answers

	switch in.Kind {
	case InputRadio:
		if !values.Has(in.Name) {
			return nil
		}
		v := values.Get(in.Name)
		if !hasOption(in.Options, v) {
			return eris.Errorf("wizard: %q is not an option for %s", v, in.Name)
		}
		setString(a, in.Name, v)

	case InputYesNo:
		if !values.Has(in.Name) {
			return nil
		}
		setTriState(a, in.Name, ParseTriState(values.Get(in.Name)))

	case InputText, InputTextarea:
		if values.Has(in.Name) {
			setString(a, in.Name, values.Get(in.Name))
		}

	case InputCheckboxes:
		selected := values[in.Name]
		goals := make([]string, 0, len(selected))
		for _, opt := range in.Options {
			for _, s := range selected {
				if s == opt.Value {
					goals = append(goals, opt.Value)
					break
				}
			}
		}
		a.PatentGoals = goals
		if in.OtherName != "" && values.Has(in.OtherName) {
			a.OtherGoal = values.Get(in.OtherName)
		}

	case InputAgreement:
		v := strings.ToLower(values.Get(in.Name))
		a.NDAAgreed = v == "on" || v == "true" || v == "yes"

	case InputDescription:
		if values.Has(in.Name) {
			a.PatentDescription = truncateRunes(values.Get(in.Name), MaxDescriptionChars)
		}
	}
	return nil
}

// LoadDescription replaces the description with the contents of an
// uploaded text file.
func (m *Machine) LoadDescription(r io.Reader) error {
	blob, err := io.ReadAll(io.LimitReader(r, maxUploadBytes+1))
	if err != nil {
		return eris.Wrap(err, "wizard: read upload")
	}
	if len(blob) > maxUploadBytes {
		return ErrUploadTooLarge
	}
	blob = bytes.TrimPrefix(blob, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(blob) {
		return ErrUploadNotText
	}
	m.answers.PatentDescription = truncateRunes(string(blob), MaxDescriptionChars)
	return nil
}

func hasOption(opts []Option, v string) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func setString(a *FormAnswers, name, v string) {
	switch name {
	case "inventionStage":
		a.InventionStage = v
	case "priorArtSearch":
		a.PriorArtSearch = v
	case "novelty":
		a.Novelty = v
	case "protectionRegions":
		a.ProtectionRegions = v
	case "timeline":
		a.Timeline = v
	case "budget":
		a.Budget = v
	case "disclosureProcessFamiliarity":
		a.DisclosureProcessFamiliarity = v
	case "otherGoal":
		a.OtherGoal = v
	case "patentDescription":
		a.PatentDescription = v
	}
}

func setTriState(a *FormAnswers, name string, v TriState) {
	switch name {
	case "publicDisclosure":
		a.PublicDisclosure = v
	case "needDisclosureExplanation":
		a.NeedDisclosureExplanation = v
	case "needDisclosureAssistance":
		a.NeedDisclosureAssistance = v
	case "needConfidentialityAgreement":
		a.NeedConfidentialityAgreement = v
	}
}
