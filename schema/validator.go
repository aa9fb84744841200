// Package schema generates JSON Schemas from Go types and validates
// JSON-compatible data against them.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	jsv "github.com/santhosh-tekuri/jsonschema/v5"
)

// Options controls schema reflection.
type Options struct {
	Title       string
	Description string
	// AllowAdditionalProperties permits keys the Go type does not declare.
	AllowAdditionalProperties bool
}

// Generate reflects a JSON Schema (draft-07) for the type of v.
// Property names come from `json` tags; only fields tagged
// `jsonschema:"required"` are required.
func Generate(v interface{}, opts Options) ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  opts.AllowAdditionalProperties,
		ExpandedStruct:             true,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}

	s := r.Reflect(v)
	s.Version = "http://json-schema.org/draft-07/schema#"
	if opts.Title != "" {
		s.Title = opts.Title
	}
	if opts.Description != "" {
		s.Description = opts.Description
	}

	return json.MarshalIndent(s, "", "  ")
}

// Validator validates data against a compiled JSON Schema.
type Validator struct {
	schema *jsv.Schema
}

// NewValidator compiles schemaData under the given resource name.
func NewValidator(name string, schemaData []byte) (*Validator, error) {
	compiler := jsv.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(string(schemaData))); err != nil {
		return nil, fmt.Errorf("failed to add schema resource %s: %w", name, err)
	}

	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	return &Validator{schema: compiled}, nil
}

// NewValidatorFor generates the schema of v and compiles it.
func NewValidatorFor(name string, v interface{}, opts Options) (*Validator, error) {
	data, err := Generate(v, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema %s: %w", name, err)
	}
	return NewValidator(name, data)
}

// Validate validates data against the schema.
// Any value that can be marshaled to JSON is accepted.
func (v *Validator) Validate(data interface{}) error {
	// The validator works on plain decoded JSON values, not Go structs.
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data to JSON for validation: %w", err)
	}

	var dataToValidate interface{}
	if err := json.Unmarshal(jsonData, &dataToValidate); err != nil {
		return fmt.Errorf("failed to unmarshal JSON for validation: %w", err)
	}

	if err := v.schema.Validate(dataToValidate); err != nil {
		if validationErr, ok := err.(*jsv.ValidationError); ok {
			var errorMessages []string
			collectErrors(validationErr, &errorMessages)
			return fmt.Errorf("schema validation failed:\n%s", strings.Join(errorMessages, "\n"))
		}
		return fmt.Errorf("schema validation failed: %w", err)
	}

	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *jsv.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
