package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

var customRules = map[string]validator.Func{
	"environment": validateEnvironment,
	"loglevel":    validateLogLevel,
}

// NewValidator creates a new validator with custom validation functions.
// It panics if a rule fails to register.
func NewValidator() *CustomValidator {
	v := validator.New()
	if err := registerRules(v, customRules); err != nil {
		panic(err)
	}
	return &CustomValidator{validator: v}
}

func registerRules(v *validator.Validate, rules map[string]validator.Func) error {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %q validation: %w", tag, err)
		}
	}
	return nil
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Model.Backend == BackendRemote && cfg.MLService.URL == "" {
		return fmt.Errorf("ml_service.url is required when model.backend is %q", BackendRemote)
	}
	if cfg.Model.Backend == BackendGRPC && cfg.MLService.GRPCAddress == "" {
		return fmt.Errorf("ml_service.grpc_address is required when model.backend is %q", BackendGRPC)
	}

	if !strings.Contains(cfg.Feeds.TeamNewsURL, "%s") || !strings.Contains(cfg.Feeds.RedditURL, "%s") {
		return fmt.Errorf("feeds.team_news_url and feeds.reddit_url must contain a %%s placeholder")
	}

	if _, err := time.LoadLocation(cfg.StatsAPI.Timezone); err != nil {
		return fmt.Errorf("invalid stats_api.timezone: %w", err)
	}

	if cfg.Schedule.Enabled {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(cfg.Schedule.SlateRefreshCron); err != nil {
			return fmt.Errorf("invalid schedule.slate_refresh_cron: %w", err)
		}
	}

	if cfg.Database.Enabled && cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.Model.Backend != BackendNative && isTestCredential(cfg.MLService.APIKey) {
			return fmt.Errorf("production environment should not use a test ml_service API key")
		}
	}

	if cfg.IsDevelopment() && cfg.Secrets.AWSEnabled {
		return fmt.Errorf("AWS secrets overlay should be disabled in development mode")
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
