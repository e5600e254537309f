package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxLaunchConfigSize bounds every stored launch configuration.
const MaxLaunchConfigSize = 1024 * 16

var ErrInvalidLaunchConfig = errors.New("invalid launch config")

// ValidationError collects field errors in the {"field": ["message"]} shape
// returned to API clients.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Add records a message for field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Err returns e when it holds at least one message and nil otherwise.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateLaunchConfig checks that a launch configuration is either empty or
// a JSON document within MaxLaunchConfigSize.
func ValidateLaunchConfig(value string) error {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if len(value) > MaxLaunchConfigSize {
		return fmt.Errorf("%w: Launch config must not exceed %d bytes", ErrInvalidLaunchConfig, MaxLaunchConfigSize)
	}
	var v interface{}
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		return fmt.Errorf("%w: Invalid JSON syntax. Launch config must be in JSON format. Cause: %v", ErrInvalidLaunchConfig, err)
	}
	return nil
}

// ParseLaunchConfig decodes a stored launch configuration into a map. An
// empty value yields an empty map.
func ParseLaunchConfig(value string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	if strings.TrimSpace(value) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(value), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLaunchConfig, err)
	}
	return out, nil
}

func checkLaunchConfig(v *ValidationError, field, value string) {
	if err := ValidateLaunchConfig(value); err != nil {
		v.Add(field, strings.TrimPrefix(err.Error(), ErrInvalidLaunchConfig.Error()+": "))
	}
}

func checkRequired(v *ValidationError, field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, "This field is required.")
	}
}

func checkMaxLength(v *ValidationError, field, value string, max int) {
	if len([]rune(value)) > max {
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", max))
	}
}
