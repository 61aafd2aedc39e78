package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Sentinel-Gate/irisgate/internal/domain/auth"
)

// RegisterCustomValidators registers the iris-gate validation rules.
// Must be called before validating Config.
func RegisterCustomValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("duration", validateDuration); err != nil {
		return fmt.Errorf("failed to register duration validator: %w", err)
	}
	if err := v.RegisterValidation("api_key_hash", validateAPIKeyHash); err != nil {
		return fmt.Errorf("failed to register api_key_hash validator: %w", err)
	}
	return nil
}

// validateDuration accepts positive time.ParseDuration strings.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d > 0
}

// validateAPIKeyHash accepts argon2id PHC strings and sha256 digests.
func validateAPIKeyHash(fl validator.FieldLevel) bool {
	return auth.DetectHashType(fl.Field().String()) != "unknown"
}

// Validate validates the Config using struct tags and cross-field rules.
// Returns an error if validation fails, with actionable error messages.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())

	if err := RegisterCustomValidators(v); err != nil {
		return err
	}

	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if err := c.validateTransport(); err != nil {
		return err
	}
	return c.validateTLS()
}

// validateTransport checks the settings the chosen transport depends on.
func (c *Config) validateTransport() error {
	if c.Server.Transport != TransportHTTP {
		return nil
	}
	if c.Server.HTTPAddr == "" {
		return errors.New("server.http_addr is required when server.transport is http")
	}
	if c.Server.MetricsAddr != "" && c.Server.MetricsAddr == c.Server.HTTPAddr {
		return errors.New("server.metrics_addr must differ from server.http_addr")
	}
	return nil
}

// validateTLS requires the certificate and key together.
func (c *Config) validateTLS() error {
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return errors.New("server: tls_cert_file and tls_key_file must be set together")
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to user-friendly messages.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatSingleValidationError(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// formatSingleValidationError creates a user-friendly message for a single validation error.
func formatSingleValidationError(e validator.FieldError) string {
	field := e.Namespace()
	tag := e.Tag()

	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "startswith":
		return fmt.Sprintf("%s must start with %q", field, e.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be a valid host:port", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "duration":
		return fmt.Sprintf("%s must be a positive duration such as \"30s\"", field)
	case "api_key_hash":
		return fmt.Sprintf("%s must be an argon2id or sha256 hash (see iris-gate hash-key)", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, tag)
	}
}
