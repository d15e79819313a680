package frid

import (
	"fmt"
	"os"
)

// FridError is the shape shared by every error kind in this package: a
// message, an optional wrapped cause, free-form notes, and a venue tag.
// Grounded on original_source/frid/errors.py's FridError, adapted to the
// house style of internal/core/validation.go's struct-based errors (one
// concrete type per kind instead of one exception class with a subtype
// tag, since Go has no isinstance-style exception hierarchy to lean on).
type FridError struct {
	Kind  string
	Msg   string
	Cause error
	Notes []string
	Venue string
}

// venue returns the FRID_VENUE environment value, or "" if unset.
// original_source/frid/errors.py reads FRID_ERROR_VENUE the same way.
func venue() string {
	return os.Getenv("FRID_VENUE")
}

func (e *FridError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *FridError) Unwrap() error { return e.Cause }

// reprMapping builds the keyword mapping shared by every kind's FridRepr:
// error/cause/notes/venue, present only when non-empty. Subtypes that carry
// extra fields (ParseError's offset/path/input) call this first and add
// their own keywords on top.
func (e *FridError) reprMapping() *Mapping {
	kw := NewMapping()
	kw.Set("error", Text(e.Msg))
	if e.Cause != nil {
		kw.Set("cause", Text(e.Cause.Error()))
	}
	if len(e.Notes) > 0 {
		notes := make([]Value, len(e.Notes))
		for i, n := range e.Notes {
			notes[i] = Text(n)
		}
		kw.Set("notes", Array(notes))
	}
	v := e.Venue
	if v == "" {
		v = venue()
	}
	if v != "" {
		kw.Set("venue", Text(v))
	}
	return kw
}

// FridRepr renders the error as a self-describing FRID Named value named
// after the error's Kind, with an "error" keyword holding the message and
// cause/notes/venue keywords present only when non-empty. The result can be
// passed straight to dumper.Dump.
func (e *FridError) FridRepr() Value {
	return NewNamed(e.Kind, nil, e.reprMapping())
}

func newErr(kind, msg string, cause error) *FridError {
	return &FridError{Kind: kind, Msg: msg, Cause: cause, Venue: venue()}
}

// ParseError reports malformed FRID text during loading: a syntax error,
// unexpected end of input, an unterminated quote, or an unrecognized
// constructor name. Input/Offset/Path let a caller programmatically recover
// where parsing failed instead of only getting free text baked into Msg,
// mirroring original_source/frid/loader.py's
// ParseError(input_string, error_offset, path=...).
type ParseError struct {
	*FridError
	Input  string // the full text (or retained buffer) being parsed
	Offset int    // rune offset into Input where parsing failed
	Path   string // breadcrumb of the value being parsed, e.g. "/key/3"
}

func NewParseError(msg string, cause error) *ParseError {
	return &ParseError{FridError: newErr("ParseError", msg, cause)}
}

// NewParseErrorAt builds a ParseError carrying the offending input, the
// rune offset into it, and the path breadcrumb of the value being parsed
// when the failure occurred.
func NewParseErrorAt(msg string, input string, offset int, path string) *ParseError {
	return &ParseError{
		FridError: newErr("ParseError", msg, nil),
		Input:     input,
		Offset:    offset,
		Path:      path,
	}
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("ParseError: %s at offset %d, path %q", e.Msg, e.Offset, e.Path)
	}
	return fmt.Sprintf("ParseError: %s at offset %d", e.Msg, e.Offset)
}

// FridRepr adds offset/path/input to the fields every FridError carries.
func (e *ParseError) FridRepr() Value {
	kw := e.FridError.reprMapping()
	kw.Set("offset", Int(int64(e.Offset)))
	if e.Path != "" {
		kw.Set("path", Text(e.Path))
	}
	if e.Input != "" {
		kw.Set("input", Text(e.Input))
	}
	return NewNamed(e.Kind, nil, kw)
}

// EncodeError reports a value that cannot be rendered in the requested
// output mode (e.g. a non-finite Real under strict JSON).
type EncodeError struct{ *FridError }

func NewEncodeError(msg string, cause error) *EncodeError {
	return &EncodeError{newErr("EncodeError", msg, cause)}
}

// TypeMismatchError reports that a stored or parsed value's Kind does not
// match what the caller required (e.g. get_text against a Mapping).
type TypeMismatchError struct{ *FridError }

func NewTypeMismatchError(msg string, cause error) *TypeMismatchError {
	return &TypeMismatchError{newErr("TypeMismatchError", msg, cause)}
}

// NotFoundError reports that a store operation's key (or a NO_CREATE /
// NO_CHANGE precondition) could not be satisfied because nothing is there.
type NotFoundError struct{ *FridError }

func NewNotFoundError(msg string, cause error) *NotFoundError {
	return &NotFoundError{newErr("NotFoundError", msg, cause)}
}

// ConflictError reports that a put's atomicity precondition (NO_CREATE,
// NO_CHANGE, or a compare-and-swap style check) failed because the key's
// existing state disagreed with what the flags required.
type ConflictError struct{ *FridError }

func NewConflictError(msg string, cause error) *ConflictError {
	return &ConflictError{newErr("ConflictError", msg, cause)}
}

// BackendError wraps a failure surfaced by the underlying storage medium
// (file I/O, SQL driver, Redis connection) that isn't better described by
// one of the more specific kinds above.
type BackendError struct{ *FridError }

func NewBackendError(msg string, cause error) *BackendError {
	return &BackendError{newErr("BackendError", msg, cause)}
}

// ConfigError reports an invalid store or CLI configuration (e.g. a kvs
// TOML file missing a required DSN, or an unknown backend name).
// Mirrors internal/core/validation.go's ValidationError in shape, adapted
// to carry an Entity/Name/Field triple alongside the FridError base.
type ConfigError struct {
	*FridError
	Entity string
	Name   string
	Field  string
}

func NewConfigError(entity, name, field, msg string) *ConfigError {
	e := &ConfigError{FridError: newErr("ConfigError", msg, nil), Entity: entity, Name: name, Field: field}
	return e
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Msg)
	}
	return fmt.Sprintf("config error in %s %q: %s", e.Entity, e.Name, e.Msg)
}
