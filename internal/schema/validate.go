// Package schema validates model responses against JSON Schemas.
package schema

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Name identifies an embedded schema.
type Name string

const (
	ContributionAnalysis Name = "contribution_analysis"
	FinalReport          Name = "final_report"
)

// ValidationError lists every violation found in a document.
type ValidationError struct {
	Schema Name
	Errors []FieldError
}

type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, " %d. %s: %s;", i+1, err.Field, err.Message)
	}
	return strings.TrimSuffix(sb.String(), ";")
}

var (
	compileOnce sync.Once
	compiled    map[Name]*gojsonschema.Schema
	compileErr  error
)

func load() (map[Name]*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = map[Name]*gojsonschema.Schema{}
		for _, n := range []Name{ContributionAnalysis, FinalReport} {
			blob, err := schemaFS.ReadFile("schemas/" + string(n) + ".json")
			if err != nil {
				compileErr = eris.Wrapf(err, "schema: read %s", n)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(blob))
			if err != nil {
				compileErr = eris.Wrapf(err, "schema: compile %s", n)
				return
			}
			compiled[n] = s
		}
	})
	return compiled, compileErr
}

// Validate checks a JSON document against the named schema. Documents that
// are not JSON at all fail with a plain error; schema violations fail with a
// *ValidationError.
func Validate(name Name, document string) error {
	schemas, err := load()
	if err != nil {
		return err
	}
	s, ok := schemas[name]
	if !ok {
		return eris.Errorf("schema: unknown schema %q", name)
	}

	result, err := s.Validate(gojsonschema.NewStringLoader(document))
	if err != nil {
		return eris.Wrap(err, "schema: load document")
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: name}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return ve
}
