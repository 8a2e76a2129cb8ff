package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is a single invalid config value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if len(c.Features) == 0 {
		errs = append(errs, ValidationError{
			Field:   "features",
			Value:   c.Features,
			Message: "at least one feature band is required",
		})
	}
	if len(c.Labels) == 0 {
		errs = append(errs, ValidationError{
			Field:   "labels",
			Value:   c.Labels,
			Message: "at least one label band is required",
		})
	}
	if c.NClasses <= 0 {
		errs = append(errs, ValidationError{
			Field:   "n_classes",
			Value:   c.NClasses,
			Message: "must be positive",
		})
	}
	if !c.DNN && c.PatchSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "patch_size",
			Value:   c.PatchSize,
			Message: "must be positive for patch datasets",
		})
	}

	if c.BatchSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "batch_size",
			Value:   c.BatchSize,
			Message: "must be positive",
		})
	}
	if c.BufferSize <= 0 {
		errs = append(errs, ValidationError{
			Field:   "buffer_size",
			Value:   c.BufferSize,
			Message: "must be positive",
		})
	}
	if c.Workers <= 0 {
		errs = append(errs, ValidationError{
			Field:   "workers",
			Value:   c.Workers,
			Message: "must be positive",
		})
	}

	if c.DerivedFeatures {
		if c.AIPlatform {
			errs = append(errs, ValidationError{
				Field:   "derived_features",
				Value:   c.DerivedFeatures,
				Message: "cannot be combined with ai_platform; serving keeps raw named bands",
			})
		}
		if len(c.Features) != 8 {
			errs = append(errs, ValidationError{
				Field:   "features",
				Value:   c.Features,
				Message: "derived_features needs the eight-band before/during layout",
			})
		}
	}

	if c.LogLevel != "" && !slices.Contains(ValidLogLevels(), c.LogLevel) {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Value:   c.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errs
}
