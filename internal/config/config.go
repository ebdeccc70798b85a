// Package config loads and validates the landing-zone deployment
// configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRetentionDays is the log retention applied when the
// configuration does not set one (ten years).
const DefaultRetentionDays = 3653

// Config is the deployment configuration consumed by the provisioners.
// It is read once per synthesis pass and never mutated afterwards.
type Config struct {
	// Partition is the AWS partition (aws, aws-cn, aws-us-gov).
	Partition string `yaml:"partition"`
	// Region is the region being synthesized.
	Region string `yaml:"region"`
	// HomeRegion is the accelerator's home region; some resources are
	// only declared there.
	HomeRegion string `yaml:"homeRegion"`
	// AccountIDs lists the member accounts of the deployment.
	AccountIDs []string `yaml:"accountIds"`

	Organization Organization `yaml:"organization"`
	Macie        Feature      `yaml:"macie"`
	GuardDuty    Feature      `yaml:"guardDuty"`

	SessionManager SessionManager `yaml:"sessionManager"`
}

// Organization holds organization-mode settings.
type Organization struct {
	Enable bool `yaml:"enable"`
	// ID is the organization identifier (o-xxxx), required when Enable
	// is true outside the explicit-account-list partitions.
	ID string `yaml:"id"`
}

// Feature is a per-service enable flag.
type Feature struct {
	Enable bool `yaml:"enable"`
}

// SessionManager configures session-logging destinations.
type SessionManager struct {
	SendToCloudWatchLogs bool   `yaml:"sendToCloudWatchLogs"`
	SendToS3             bool   `yaml:"sendToS3"`
	S3BucketName         string `yaml:"s3BucketName"`
	S3KeyPrefix          string `yaml:"s3KeyPrefix"`
	S3BucketKeyArn       string `yaml:"s3BucketKeyArn"`
	RetentionInDays      int    `yaml:"retentionInDays"`
}

// Retention returns the configured log retention in days, falling back
// to DefaultRetentionDays when unset. Provisioners use this so that a
// Config built in code behaves like one that went through Parse.
func (s SessionManager) Retention() int {
	if s.RetentionInDays == 0 {
		return DefaultRetentionDays
	}
	return s.RetentionInDays
}

// ValidationError reports a configuration problem detected before any
// resource is declared.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse unmarshals a configuration document, applies defaults, and
// validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Partition == "" {
		c.Partition = "aws"
	}
	if c.HomeRegion == "" {
		c.HomeRegion = c.Region
	}
	if c.SessionManager.RetentionInDays == 0 {
		c.SessionManager.RetentionInDays = DefaultRetentionDays
	}
}

// Validate checks structural requirements. Destination-specific checks
// (e.g. S3 logging without a bucket) happen during assembly so a
// provisioner that does not use the destination is unaffected.
func (c *Config) Validate() error {
	if c.Region == "" {
		return &ValidationError{Field: "region", Reason: "must be set"}
	}
	if c.Organization.Enable && c.Organization.ID == "" && !c.HasExplicitAccountTrust() {
		return &ValidationError{Field: "organization.id", Reason: "required when organization mode is enabled"}
	}
	for _, id := range c.AccountIDs {
		if len(id) != 12 || strings.Trim(id, "0123456789") != "" {
			return &ValidationError{Field: "accountIds", Reason: fmt.Sprintf("%q is not a 12-digit account id", id)}
		}
	}
	return nil
}

// InHomeRegion reports whether this synthesis targets the home region.
func (c *Config) InHomeRegion() bool {
	return c.Region == c.HomeRegion
}

// HasExplicitAccountTrust reports whether cross-account trust must be
// expressed as an explicit account list instead of an organization
// principal. The aws-cn partition has no organization-principal
// support, so an account list is used when one is configured.
func (c *Config) HasExplicitAccountTrust() bool {
	return c.Partition == "aws-cn" && len(c.AccountIDs) > 0
}

// RoleArnPattern builds a partition-aware, account-wildcard role ARN
// pattern for use in ArnLike conditions.
func (c *Config) RoleArnPattern(roleName string) string {
	return fmt.Sprintf("arn:%s:iam::*:role/%s", c.Partition, roleName)
}

// AccountRootArn builds the root-principal ARN for a member account.
func (c *Config) AccountRootArn(accountID string) string {
	return fmt.Sprintf("arn:%s:iam::%s:root", c.Partition, accountID)
}

// BucketArn builds the ARN of an S3 bucket in this partition.
func (c *Config) BucketArn(bucket string) string {
	return fmt.Sprintf("arn:%s:s3:::%s", c.Partition, bucket)
}
