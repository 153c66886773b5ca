package wizard

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/rotisserie/eris"
)

// TriState is a yes/no answer that may not have been given yet.
type TriState uint8

const (
	Unanswered TriState = iota
	Yes
	No
)

func (t TriState) String() string {
	switch t {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Not answered"
	}
}

// FromBool converts an explicit boolean answer.
func FromBool(b bool) TriState {
	if b {
		return Yes
	}
	return No
}

// ParseTriState accepts the values posted by the wizard's radio buttons.
// Anything unrecognized is Unanswered.
func ParseTriState(s string) TriState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes":
		return Yes
	case "false", "no":
		return No
	default:
		return Unanswered
	}
}

// MarshalJSON encodes Unanswered as null so stored answers keep the
// null/true/false shape.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Yes:
		return []byte("true"), nil
	case No:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*t = Unanswered
		return nil
	case "true":
		*t = Yes
		return nil
	case "false":
		*t = No
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return eris.Wrapf(err, "wizard: invalid tri-state %s", data)
	}
	*t = ParseTriState(s)
	return nil
}

// Goal options offered on the patent goals step.
const (
	GoalProtectIP = "Protecting intellectual property"
	GoalInvestors = "Attracting investors or funding"
	GoalLicensing = "Licensing opportunities"
	GoalOther     = "Other"
)

// FormAnswers is everything the ability-search wizard collects.
type FormAnswers struct {
	InventionStage               string   `json:"inventionStage" validate:"required,oneof=idea prototype market"`
	PriorArtSearch               string   `json:"priorArtSearch" validate:"required,oneof=self professional no"`
	Novelty                      string   `json:"novelty" validate:"required"`
	PublicDisclosure             TriState `json:"publicDisclosure" validate:"required"`
	PatentGoals                  []string `json:"patentGoals" validate:"min=1,dive,oneof='Protecting intellectual property' 'Attracting investors or funding' 'Licensing opportunities' Other"`
	OtherGoal                    string   `json:"otherGoal"`
	ProtectionRegions            string   `json:"protectionRegions" validate:"required,oneof=domestic international"`
	Timeline                     string   `json:"timeline" validate:"required,oneof=immediate short-term no-timeline"`
	Budget                       string   `json:"budget" validate:"required"`
	DisclosureProcessFamiliarity string   `json:"disclosureProcessFamiliarity" validate:"required,oneof=familiar somewhat not-familiar"`
	NeedDisclosureExplanation    TriState `json:"needDisclosureExplanation" validate:"required"`
	NeedDisclosureAssistance     TriState `json:"needDisclosureAssistance" validate:"required"`
	NeedConfidentialityAgreement TriState `json:"needConfidentialityAgreement" validate:"required"`
	NDAAgreed                    bool     `json:"ndaAgreed" validate:"required"`
	PatentDescription            string   `json:"patentDescription" validate:"notblank"`
}

// HasGoal reports whether goal was selected.
func (a FormAnswers) HasGoal(goal string) bool {
	for _, g := range a.PatentGoals {
		if g == goal {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate checks the answers for every step at once.
func (a FormAnswers) Validate() error {
	if err := validate.Struct(a); err != nil {
		return eris.Wrap(err, "wizard: incomplete answers")
	}
	return nil
}

// validFields checks only the named struct fields.
func (a FormAnswers) validFields(fields ...string) bool {
	return validate.StructPartial(a, fields...) == nil
}
