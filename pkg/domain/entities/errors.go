package entities

import (
	"errors"
	"fmt"
)

// ErrResourceNotFound is returned when a named resource type is not registered
var ErrResourceNotFound = errors.New("resource not found")

// ConfigurationError is a fatal setup mistake that aborts the run
type ConfigurationError struct {
	Activity string
	Key      string
	Message  string
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration error in [%s]: %s", e.Activity, e.Message)
	}
	return fmt.Sprintf("configuration error in [%s] for [%s]: %s", e.Activity, e.Key, e.Message)
}

// NewConfigurationError creates a ConfigurationError
func NewConfigurationError(activity, key, message string) *ConfigurationError {
	return &ConfigurationError{Activity: activity, Key: key, Message: message}
}

// IsConfigurationError reports whether err wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// ShortfallError is raised when an activity is configured to stop on
// insufficient resources
type ShortfallError struct {
	Activity string
	Resource string
	Required float64
	Provided float64
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient [%s] for [%s]: required %g, provided %g",
		e.Resource, e.Activity, e.Required, e.Provided)
}

// IsShortfallError reports whether err wraps a ShortfallError
func IsShortfallError(err error) bool {
	var sfErr *ShortfallError
	return errors.As(err, &sfErr)
}
