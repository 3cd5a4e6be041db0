// Package jsonschema validates decoded response values against JSON Schemas.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const resourceName = "schema.json"

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Schema is a compiled JSON Schema.
type Schema struct {
	schema *jsonschema.Schema
}

// Compile compiles a JSON Schema document. Formats such as "email" and
// "date" are asserted, not just annotated.
func Compile(schema []byte) (*Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if err := compiler.AddResource(resourceName, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	return &Schema{schema: compiled}, nil
}

// CompileFile compiles the schema stored at path.
func CompileFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading schema file: %w", err)
	}
	return Compile(data)
}

// Validate checks value against the schema. value may be anything that
// encodes to JSON; the returned error is ValidationErrors when the value
// does not conform.
func (s *Schema) Validate(value interface{}) error {
	doc, err := normalize(value)
	if err != nil {
		return err
	}

	err = s.schema.Validate(doc)
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractValidationErrors(validationErr)
	}
	return ValidationErrors{err}
}

// ValidateBytes checks a raw JSON document against the schema.
func (s *Schema) ValidateBytes(data []byte) error {
	var doc interface{}
	if err := decode(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return s.Validate(doc)
}

// normalize converts value to the generic form the validator expects,
// keeping numbers exact.
func normalize(value interface{}) (interface{}, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("value is not JSON: %w", err)
	}

	var doc interface{}
	if err := decode(data, &doc); err != nil {
		return nil, fmt.Errorf("value is not JSON: %w", err)
	}
	return doc, nil
}

func decode(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// extractValidationErrors flattens a jsonschema.ValidationError tree,
// keeping only messages that carry information.
func extractValidationErrors(err *jsonschema.ValidationError) ValidationErrors {
	var errs ValidationErrors

	if len(err.Causes) == 0 && err.Message != "" {
		errs = append(errs, fmt.Errorf("validation error at %s: %s", location(err.InstanceLocation), err.Message))
	}

	for _, childErr := range err.Causes {
		errs = append(errs, extractValidationErrors(childErr)...)
	}

	return errs
}

func location(instance string) string {
	if instance == "" {
		return "/"
	}
	return instance
}
