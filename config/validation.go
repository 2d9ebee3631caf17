package config

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"hdfsbridge/protocols"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate checks struct tags first, then the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

func validateCustomRules(cfg *Config) error {
	names := make(map[string]bool)
	for i, task := range cfg.Tasks {
		if names[task.Name] {
			return fmt.Errorf("tasks[%d]: duplicate task name %q", i, task.Name)
		}
		names[task.Name] = true

		if _, err := cron.ParseStandard(task.Cron); err != nil {
			return fmt.Errorf("tasks[%d]: invalid cron %q: %w", i, task.Cron, err)
		}
		if _, err := regexp.Compile(task.SourceRegex); err != nil {
			return fmt.Errorf("tasks[%d]: invalid source_regex: %w", i, err)
		}
		if err := validateURL(task.Source); err != nil {
			return fmt.Errorf("tasks[%d]: source: %w", i, err)
		}
		if err := validateURL(task.Target); err != nil {
			return fmt.Errorf("tasks[%d]: target: %w", i, err)
		}
	}
	if err := validateURL(cfg.History); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return nil
}

func validateURL(rawURL string) error {
	opts, err := protocols.InferStorageOptions(rawURL)
	if err != nil {
		return err
	}
	if !slices.Contains(protocols.Protocols(), opts.Protocol) {
		return fmt.Errorf("unknown fs type: %s", opts.Protocol)
	}
	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
