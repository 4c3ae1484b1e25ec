package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// KnownSports lists the sports with a built-in team vocabulary
var KnownSports = map[string]bool{
	"mlb": true,
}

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("sport", validateSport)
	_ = v.RegisterValidation("cron", validateCron)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateSport(fl validator.FieldLevel) bool {
	return KnownSports[strings.ToLower(fl.Field().String())]
}

func validateCron(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.Simulation.Stake > cfg.Simulation.InitialBalance {
		return fmt.Errorf("simulation stake cannot exceed initial_balance")
	}

	for i, b := range cfg.Analysis.Buckets {
		for _, other := range cfg.Analysis.Buckets[:i] {
			if b.Min <= other.Max && other.Min <= b.Max {
				return fmt.Errorf("analysis bucket %d-%d overlaps %d-%d", b.Min, b.Max, other.Min, other.Max)
			}
		}
	}

	if cfg.Scheduler.Purge != "" && cfg.Scheduler.RetentionDays == 0 {
		return fmt.Errorf("scheduler purge requires retention_days")
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
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte", "gtefield":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "sport":
			errMsg += fmt.Sprintf("- Field '%s' has unknown sport '%v'\n", field, value)
		case "cron":
			errMsg += fmt.Sprintf("- Field '%s' is not a valid cron expression: '%v'\n", field, value)
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
	if !cfg.IsProduction() {
		return nil
	}
	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
	}
	if isTestCredential(cfg.Database.Password) {
		return fmt.Errorf("production environment should not use test database credentials")
	}
	return nil
}

func isTestCredential(credential string) bool {
	for _, pattern := range []string{"test", "demo", "example", "placeholder", "YOUR_"} {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}
	return false
}
