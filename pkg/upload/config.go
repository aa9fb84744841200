// Package upload persists S3-compatible bucket settings and uploads images
// to the configured bucket.
package upload

import (
	"github.com/grovetools/scribe/errors"
	"github.com/grovetools/scribe/pkg/models"
	"github.com/grovetools/scribe/state"
)

// s3 document keys
const (
	keyBucketName      = "bucket_name"
	keyRegion          = "region"
	keyAccessKeyID     = "access_key_id"
	keySecretAccessKey = "secret_access_key"
	keyEndpointURL     = "endpoint_url"
	keyPathPrefix      = "path_prefix"
	keyUsePathStyle    = "use_path_style"
	keyPublicURL       = "public_url"
)

// ConfigStore persists the S3 configuration in the s3_config document.
type ConfigStore struct {
	mgr *state.Manager
}

// NewConfigStore creates a ConfigStore backed by mgr.
func NewConfigStore(mgr *state.Manager) *ConfigStore {
	return &ConfigStore{mgr: mgr}
}

// Load returns the stored configuration, or nil when none is stored.
// A document without a bucket name counts as absent.
func (s *ConfigStore) Load() (*models.S3Config, error) {
	var cfg *models.S3Config
	err := s.mgr.View(state.S3ConfigStore, func(doc *state.Document) error {
		if _, ok := doc.Get(keyBucketName); !ok {
			return nil
		}

		c := &models.S3Config{}
		fields := []struct {
			key    string
			target interface{}
		}{
			{keyBucketName, &c.BucketName},
			{keyRegion, &c.Region},
			{keyAccessKeyID, &c.AccessKeyID},
			{keySecretAccessKey, &c.SecretAccessKey},
			{keyEndpointURL, &c.EndpointURL},
			{keyPathPrefix, &c.PathPrefix},
			{keyUsePathStyle, &c.UsePathStyle},
			{keyPublicURL, &c.PublicURL},
		}
		for _, f := range fields {
			if _, err := doc.Decode(f.key, f.target); err != nil {
				return err
			}
		}
		if c.BucketName == "" {
			return nil
		}
		cfg = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save validates cfg and replaces the stored configuration. Optional fields
// left nil are removed.
func (s *ConfigStore) Save(cfg models.S3Config) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid S3 configuration")
	}

	return s.mgr.Update(state.S3ConfigStore, func(doc *state.Document) error {
		doc.Clear()
		values := map[string]interface{}{
			keyBucketName:      cfg.BucketName,
			keyRegion:          cfg.Region,
			keyAccessKeyID:     cfg.AccessKeyID,
			keySecretAccessKey: cfg.SecretAccessKey,
		}
		if cfg.EndpointURL != nil {
			values[keyEndpointURL] = *cfg.EndpointURL
		}
		if cfg.PathPrefix != nil {
			values[keyPathPrefix] = *cfg.PathPrefix
		}
		if cfg.UsePathStyle != nil {
			values[keyUsePathStyle] = *cfg.UsePathStyle
		}
		if cfg.PublicURL != nil {
			values[keyPublicURL] = *cfg.PublicURL
		}
		for k, v := range values {
			if err := doc.SetValue(k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the stored configuration.
func (s *ConfigStore) Delete() error {
	return s.mgr.Remove(state.S3ConfigStore)
}
