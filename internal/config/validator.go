package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Path    string
	Message string
}

// Error returns the error message
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var validMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// ValidateConfig validates the configuration. Errors are sorted by path.
func ValidateConfig(config *Config) []ValidationError {
	var errs []ValidationError

	if len(config.Environments) == 0 {
		errs = append(errs, ValidationError{
			Path:    "environments",
			Message: "at least one environment is required",
		})
	}

	if config.DefaultEnvironment != "" {
		if _, ok := config.Environments[config.DefaultEnvironment]; !ok {
			errs = append(errs, ValidationError{
				Path:    "defaultEnvironment",
				Message: fmt.Sprintf("environment not found: %s", config.DefaultEnvironment),
			})
		}
	}

	for name, env := range config.Environments {
		if env.BaseURL == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("environments.%s.baseUrl", name),
				Message: "baseUrl is required",
			})
		}

		if env.Timeout != "" {
			if _, err := parseDurationString(env.Timeout); err != nil {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("environments.%s.timeout", name),
					Message: fmt.Sprintf("invalid duration '%s'", env.Timeout),
				})
			}
		}
	}

	for name, req := range config.Requests {
		if req.Method == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("requests.%s.method", name),
				Message: "method is required",
			})
		} else if !stringInSlice(strings.ToUpper(req.Method), validMethods) {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("requests.%s.method", name),
				Message: fmt.Sprintf("invalid method: %s", req.Method),
			})
		}

		if req.ID != "" {
			method := strings.ToUpper(req.Method)
			if method != "DELETE" && method != "PATCH" {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("requests.%s.id", name),
					Message: "id is only used by DELETE and PATCH",
				})
			}
		}

		if req.Extract != "" && strings.ToUpper(req.Method) != "GET" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("requests.%s.extract", name),
				Message: "extract is only used by GET",
			})
		}

		if req.Schema != "" {
			if _, ok := config.Schemas[req.Schema]; !ok {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("requests.%s.schema", name),
					Message: fmt.Sprintf("schema not found: %s", req.Schema),
				})
			}
		}
	}

	sort.Slice(errs, func(i, j int) bool { return errs[i].Path < errs[j].Path })
	return errs
}

// ValidateEnvironment validates that an environment exists
func ValidateEnvironment(config *Config, envName string) error {
	if _, ok := config.Environments[envName]; !ok {
		return fmt.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists
func ValidateRequest(config *Config, reqName string) error {
	if _, ok := config.Requests[reqName]; !ok {
		return fmt.Errorf("request not found: %s", reqName)
	}
	return nil
}

func joinValidationErrors(errs []ValidationError) error {
	joined := make([]error, len(errs))
	for i, err := range errs {
		joined[i] = err
	}
	return fmt.Errorf("invalid config: %w", errors.Join(joined...))
}

// stringInSlice checks if a string is in a slice
func stringInSlice(str string, slice []string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
