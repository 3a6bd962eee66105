// Package schema validates inbound entity payloads against embedded JSON schemas.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.schema.json
var files embed.FS

// Error lists every schema violation found in a payload.
type Error struct {
	Issues []string
}

func (e *Error) Error() string {
	return "schema validation failed: " + strings.Join(e.Issues, "; ")
}

// Validator checks create payloads against the full schema and patch payloads against the
// same schema with required fields relaxed.
type Validator struct {
	name   string
	create *gojsonschema.Schema
	patch  *gojsonschema.Schema
}

// Load compiles the embedded schema schemas/<name>.schema.json.
func Load(name string) (*Validator, error) {
	raw, err := files.ReadFile("schemas/" + name + ".schema.json")
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	create, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode schema %s: %w", name, err)
	}
	delete(doc, "required")
	patchRaw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode patch schema %s: %w", name, err)
	}
	patch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(patchRaw))
	if err != nil {
		return nil, fmt.Errorf("compile patch schema %s: %w", name, err)
	}
	return &Validator{name: name, create: create, patch: patch}, nil
}

// MustLoad is Load for package initialisation.
func MustLoad(name string) *Validator {
	v, err := Load(name)
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateCreate checks a full entity document.
func (v *Validator) ValidateCreate(body []byte) error {
	return validate(v.create, body)
}

// ValidatePatch checks a partial entity document.
func (v *Validator) ValidatePatch(body []byte) error {
	return validate(v.patch, body)
}

func validate(s *gojsonschema.Schema, body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return &Error{Issues: []string{"request body is required"}}
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &Error{Issues: []string{"invalid JSON: " + err.Error()}}
	}
	if res.Valid() {
		return nil
	}
	issues := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		issues = append(issues, e.String())
	}
	return &Error{Issues: issues}
}
