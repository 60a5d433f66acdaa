package rest

import (
	"fmt"
	"time"

	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultRequestTimeout bounds ordinary envelope calls.
	DefaultRequestTimeout = 30 * time.Second
	// DefaultUploadTimeout bounds chunk transfer PUTs, which move far more
	// bytes per call.
	DefaultUploadTimeout = 5 * time.Minute
)

// Config holds the immutable per-client settings. It is a value object:
// validated once at client construction, never mutated afterwards.
type Config struct {
	// BaseURL is the API root every relative endpoint resolves against.
	BaseURL string `validate:"required,url"`
	// TokenURL is the non-enveloped token refresh endpoint. It may
	// be relative to BaseURL. Empty disables credential refresh.
	TokenURL string
	// ClientID is sent as the X-Client-Id header when set.
	ClientID string
	// Context holds session-wide fixed query parameters appended to every
	// request before anything else.
	Context map[string]string
	// RequestTimeout is the fixed transport deadline for envelope calls.
	RequestTimeout time.Duration `validate:"min=0"`
	// UploadTimeout is the fixed transport deadline for chunk transfers.
	UploadTimeout time.Duration `validate:"min=0"`
}

var validate = validator.New()

func (c *Config) withDefaults() Config {
	out := *c
	if out.RequestTimeout == 0 {
		out.RequestTimeout = DefaultRequestTimeout
	}
	if out.UploadTimeout == 0 {
		out.UploadTimeout = DefaultUploadTimeout
	}
	return out
}

func (c *Config) validateConfig() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid client config: %w", err)
	}
	return nil
}

// ConfigFromEnv reads client settings from SWIFTREST_* environment
// variables through the provided repository. Unset variables keep their
// zero value so the usual defaults apply at construction.
func ConfigFromEnv(envRepo env.Repository) (Config, error) {
	cfg := Config{
		BaseURL:  envRepo.Get("SWIFTREST_BASE_URL"),
		TokenURL: envRepo.Get("SWIFTREST_TOKEN_URL"),
		ClientID: envRepo.Get("SWIFTREST_CLIENT_ID"),
	}
	if raw := envRepo.Get("SWIFTREST_REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SWIFTREST_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = d
	}
	if raw := envRepo.Get("SWIFTREST_UPLOAD_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse SWIFTREST_UPLOAD_TIMEOUT: %w", err)
		}
		cfg.UploadTimeout = d
	}
	return cfg, nil
}
