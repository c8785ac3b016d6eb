package config

import (
	"errors"
	"fmt"
	"io/fs"
)

// NotFoundError reports a configuration file that is missing or unreadable.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	if errors.Is(e.Err, fs.ErrNotExist) {
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	}
	return fmt.Sprintf("unable to open configuration file %s: %v", e.Path, e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ParseError reports a document that is not valid YAML or does not fit the schema.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse configuration %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingCredentialError reports an absent, empty or placeholder model token.
type MissingCredentialError struct {
	Key string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s is required: set it in the configuration file or via an environment reference such as ${OPENAI_API_KEY}", e.Key)
}

// InvalidValueError reports a value outside its enumeration or range.
type InvalidValueError struct {
	Key    string
	Value  any
	Reason string
}

func (e *InvalidValueError) Error() string {
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("invalid value %q for %s: %s", s, e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid value %v for %s: %s", e.Value, e.Key, e.Reason)
}
