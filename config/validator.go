package config

import (
	"github.com/grovetools/scribe/schema"
)

// SchemaValidator validates scribe.yml content against the schema reflected
// from Config.
type SchemaValidator struct {
	validator *schema.Validator
}

// NewSchemaValidator creates a new schema validator for Config.
func NewSchemaValidator() (*SchemaValidator, error) {
	validator, err := schema.NewValidatorFor("scribe.json", &Config{}, schema.Options{
		Title:       "Scribe Configuration",
		Description: "Schema for scribe.yml properties.",
		// Extensions such as `logging` live beside the core keys.
		AllowAdditionalProperties: true,
	})
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{validator: validator}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}
