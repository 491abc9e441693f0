package config

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	apperrors "docstore/pkg/errors"
)

// DynamicConfig holds runtime-changeable limits, reloaded from a YAML
// file while the process runs.
type DynamicConfig struct {
	Limits   Limits   `yaml:"limits" validate:"required"`
	Metadata Metadata `yaml:"metadata"`
}

// Limits bounds query behavior.
type Limits struct {
	// MaxPageSize caps any caller-supplied page limit.
	MaxPageSize int32 `yaml:"maxPageSize" validate:"min=1,max=1000"`
	// DefaultPageSize applies when a caller passes no limit.
	DefaultPageSize int32 `yaml:"defaultPageSize" validate:"min=1,max=1000"`
	// BucketPrefetch bounds how many date buckets a walk loads per
	// refill.
	BucketPrefetch int32 `yaml:"bucketPrefetch" validate:"min=1,max=100"`
}

// Metadata records where a loaded configuration came from.
type Metadata struct {
	Version   string    `yaml:"version"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

// DefaultDynamicConfig returns the limits used when no file is given.
func DefaultDynamicConfig() *DynamicConfig {
	return &DynamicConfig{
		Limits: Limits{
			MaxPageSize:     100,
			DefaultPageSize: 10,
			BucketPrefetch:  25,
		},
	}
}

// ClampLimit applies the default and maximum page size to a requested
// limit.
func (c *DynamicConfig) ClampLimit(limit int32) int32 {
	if limit < 1 {
		return c.Limits.DefaultPageSize
	}
	if limit > c.Limits.MaxPageSize {
		return c.Limits.MaxPageSize
	}
	return limit
}

// Limiter supplies the dynamic limits currently in effect. The Watcher
// satisfies it with live reloads; StaticLimits satisfies it when no
// dynamic config file is configured.
type Limiter interface {
	Current() *DynamicConfig
}

// StaticLimits is a Limiter that never changes.
type StaticLimits struct {
	cfg *DynamicConfig
}

// NewStaticLimits fixes the given limits for the process lifetime. A nil
// config means the defaults.
func NewStaticLimits(cfg *DynamicConfig) *StaticLimits {
	if cfg == nil {
		cfg = DefaultDynamicConfig()
	}
	return &StaticLimits{cfg: cfg}
}

// Current returns the fixed limits.
func (s *StaticLimits) Current() *DynamicConfig {
	return s.cfg
}

func loadDynamicFromFile(path string) (*DynamicConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewInternal("failed to read dynamic config file", err)
	}

	cfg := DefaultDynamicConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, apperrors.NewValidation("dynamic config is not valid YAML: " + err.Error())
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, apperrors.NewValidation("invalid dynamic config: " + err.Error())
	}
	return cfg, nil
}
