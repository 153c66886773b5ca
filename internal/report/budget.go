package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// BudgetRange is an attorney's typical fee range in US dollars.
type BudgetRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// BudgetRangeValue is budget_range as it arrives from the attorney index:
// an object, a string holding the JSON encoding of one, or something else
// entirely. At most one of Structured, Encoded and Unrecognized is set after
// decoding a non-null value.
type BudgetRangeValue struct {
	Structured   *BudgetRange
	Encoded      *string
	Unrecognized json.RawMessage
}

// UnmarshalJSON accepts any JSON value. Forms other than an object or a
// string are kept in Unrecognized for Normalize to report.
func (v *BudgetRangeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = BudgetRangeValue{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "report: budget_range string")
		}
		v.Encoded = &s
		return nil
	case '{':
		var br BudgetRange
		if err := json.Unmarshal(data, &br); err == nil {
			v.Structured = &br
			return nil
		}
	}
	v.Unrecognized = append(json.RawMessage(nil), data...)
	return nil
}

// Normalize resolves the value to a BudgetRange. It returns nil, nil when
// no range was given.
func (v BudgetRangeValue) Normalize() (*BudgetRange, error) {
	switch {
	case v.Structured != nil:
		br := *v.Structured
		return &br, nil
	case v.Unrecognized != nil:
		return nil, eris.Errorf("report: unsupported budget_range %s", v.Unrecognized)
	case v.Encoded == nil:
		return nil, nil
	}
	var br BudgetRange
	if err := json.Unmarshal([]byte(*v.Encoded), &br); err != nil {
		return nil, eris.Wrapf(err, "report: decode encoded budget_range %q", *v.Encoded)
	}
	return &br, nil
}

// looseString decodes strings as-is and numbers or booleans as their JSON
// text. Anything else decodes to "".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*s = ""
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return eris.Wrap(err, "report: metadata string")
		}
		*s = looseString(v)
	case '{', '[', 'n':
	default:
		*s = looseString(data)
	}
	return nil
}

// looseNumber decodes numbers and numeric strings. Anything else decodes
// to 0.
type looseNumber float64

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = 0
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "report: metadata number")
		}
		data = []byte(strings.TrimSpace(s))
	}
	if f, err := strconv.ParseFloat(string(data), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*n = looseNumber(f)
	}
	return nil
}

// attorneyRecord is the attorney index metadata document.
// Fields are decoded leniently so one mistyped value never drops the
// attorney.
type attorneyRecord struct {
	Name              looseString      `json:"name"`
	Specialty         looseString      `json:"specialty"`
	Summary           looseString      `json:"summary"`
	BudgetRange       BudgetRangeValue `json:"budget_range"`
	Location          looseString      `json:"location"`
	YearsOfExperience looseNumber      `json:"years_of_experience"`
	Contact           looseString      `json:"contact"`
}

// normalize converts the wire record, resolving budget_range once.
func (r attorneyRecord) normalize() (Attorney, error) {
	br, err := r.BudgetRange.Normalize()
	a := Attorney{
		Name:              string(r.Name),
		Specialty:         string(r.Specialty),
		Summary:           string(r.Summary),
		BudgetRange:       br,
		Location:          string(r.Location),
		YearsOfExperience: float64(r.YearsOfExperience),
		Contact:           string(r.Contact),
	}
	return a, err
}

// patentRecord is the patent index metadata document.
type patentRecord struct {
	Title        looseString `json:"title"`
	PatentNumber looseString `json:"patent_number"`
	Date         looseString `json:"date"`
	Assignee     looseString `json:"assignee"`
	Abstract     looseString `json:"abstract"`
}

func (r patentRecord) normalize() SimilarPatent {
	return SimilarPatent{
		Title:        string(r.Title),
		PatentNumber: string(r.PatentNumber),
		Date:         string(r.Date),
		Assignee:     string(r.Assignee),
		Abstract:     string(r.Abstract),
	}
}
