// Package settings reads and merges the user's editor settings.
//
// The settings store is a free-form mapping from key to JSON value; writes
// merge key by key with last-write-wins. A typed view over the defaults is
// available through Typed.
package settings

import (
	"encoding/json"
	"sync"

	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/logging"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/grovetools/scribe/schema"
	"github.com/grovetools/scribe/state"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
)

// Store provides access to the settings document.
type Store struct {
	mgr    *state.Manager
	logger *logrus.Entry
}

// New creates a settings Store backed by mgr.
func New(mgr *state.Manager) *Store {
	return &Store{
		mgr:    mgr,
		logger: logging.NewLogger("settings"),
	}
}

// All returns every stored setting. An empty store yields an empty map.
func (s *Store) All() (map[string]json.RawMessage, error) {
	var out map[string]json.RawMessage
	err := s.mgr.View(state.SettingsStore, func(doc *state.Document) error {
		out = doc.Map()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Merge upserts every key of settings and saves. Keys not present in
// settings are left untouched.
func (s *Store) Merge(settings map[string]json.RawMessage) error {
	err := s.mgr.Update(state.SettingsStore, func(doc *state.Document) error {
		for k, v := range settings {
			doc.Set(k, v)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.WithField("keys", len(settings)).Debug("Settings merged")
	return nil
}

// Reset removes every stored setting.
func (s *Store) Reset() error {
	return s.mgr.Update(state.SettingsStore, func(doc *state.Document) error {
		doc.Clear()
		return nil
	})
}

// Typed projects the stored settings over DefaultSettings. Keys unknown to
// SettingsData are ignored; values of the wrong type fail with a
// serialization error.
func (s *Store) Typed() (*models.SettingsData, error) {
	all, err := s.All()
	if err != nil {
		return nil, err
	}
	return Project(all)
}

// Project decodes a raw settings mapping over DefaultSettings.
func Project(raw map[string]json.RawMessage) (*models.SettingsData, error) {
	values := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var decoded interface{}
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil, errors.Serialization("settings."+k, err)
		}
		if decoded == nil {
			continue
		}
		values[k] = decoded
	}

	result := models.DefaultSettings()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create settings decoder")
	}
	if err := decoder.Decode(values); err != nil {
		return nil, errors.Serialization(state.SettingsStore, err)
	}
	return &result, nil
}

var (
	validatorOnce sync.Once
	validator     *schema.Validator
	validatorErr  error
)

// Validate checks settings against the schema of SettingsData. Unknown keys
// are allowed.
func Validate(settings map[string]json.RawMessage) error {
	validatorOnce.Do(func() {
		validator, validatorErr = schema.NewValidatorFor("settings.json", &models.SettingsData{}, schema.Options{
			Title:                     "Scribe Settings",
			Description:               "Editor settings persisted in settings.json",
			AllowAdditionalProperties: true,
		})
	})
	if validatorErr != nil {
		return errors.Wrap(validatorErr, errors.ErrCodeInternal, "failed to build settings schema")
	}
	if err := validator.Validate(settings); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid settings")
	}
	return nil
}

// Schema returns the generated JSON Schema for SettingsData.
func Schema() ([]byte, error) {
	return schema.Generate(&models.SettingsData{}, schema.Options{
		Title:                     "Scribe Settings",
		Description:               "Editor settings persisted in settings.json",
		AllowAdditionalProperties: true,
	})
}
