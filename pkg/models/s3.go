package models

import (
	"errors"
	"fmt"
	"strings"
)

// S3Config describes an S3-compatible bucket. Field names match the
// front-end settings dialog.
type S3Config struct {
	BucketName      string  `json:"bucket_name"`
	Region          string  `json:"region"`
	AccessKeyID     string  `json:"access_key_id"`
	SecretAccessKey string  `json:"secret_access_key"`
	EndpointURL     *string `json:"endpoint_url,omitempty"`
	PathPrefix      *string `json:"path_prefix,omitempty"`
	UsePathStyle    *bool   `json:"use_path_style,omitempty"`
	PublicURL       *string `json:"public_url,omitempty"`
}

// Validate checks that the required fields are present.
func (c *S3Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.BucketName) == "" {
		missing = append(missing, "bucket_name")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "region")
	}
	if strings.TrimSpace(c.AccessKeyID) == "" {
		missing = append(missing, "access_key_id")
	}
	if strings.TrimSpace(c.SecretAccessKey) == "" {
		missing = append(missing, "secret_access_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if c.EndpointURL != nil && *c.EndpointURL != "" &&
		!strings.HasPrefix(*c.EndpointURL, "http://") && !strings.HasPrefix(*c.EndpointURL, "https://") {
		return errors.New("endpoint_url must start with http:// or https://")
	}
	return nil
}

// Endpoint returns the custom endpoint, or "" for AWS.
func (c *S3Config) Endpoint() string {
	if c.EndpointURL == nil {
		return ""
	}
	return strings.TrimSpace(*c.EndpointURL)
}

// ObjectKey joins the configured prefix and fileName.
func (c *S3Config) ObjectKey(fileName string) string {
	if c.PathPrefix == nil {
		return fileName
	}
	prefix := strings.Trim(*c.PathPrefix, "/")
	if prefix == "" {
		return fileName
	}
	return prefix + "/" + fileName
}

// ObjectURL returns the public URL for key.
func (c *S3Config) ObjectURL(key string) string {
	if c.PublicURL != nil && strings.TrimSpace(*c.PublicURL) != "" {
		return strings.TrimRight(strings.TrimSpace(*c.PublicURL), "/") + "/" + key
	}
	if endpoint := c.Endpoint(); endpoint != "" {
		return strings.TrimRight(endpoint, "/") + "/" + c.BucketName + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, key)
}

// Redacted returns a copy safe to log.
func (c S3Config) Redacted() S3Config {
	if c.SecretAccessKey != "" {
		c.SecretAccessKey = "********"
	}
	return c
}
