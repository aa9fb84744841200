package config

import (
	"github.com/grovetools/scribe/schema"
)

// GenerateSchema generates the JSON Schema for scribe.yml.
func GenerateSchema() ([]byte, error) {
	return schema.Generate(&Config{}, schema.Options{
		Title:                     "Scribe Configuration",
		Description:               "Schema for scribe.yml properties.",
		AllowAdditionalProperties: true,
	})
}
