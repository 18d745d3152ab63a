// Package ssml validates the element tags used in SSML documents.
//
// A Validator checks that a document is well-formed markup, classifies the
// element names it uses against an allow-list and decides validity with a
// pluggable rule table. Validation is pure: a Validator holds only its
// immutable Rules and is safe for concurrent use.
package ssml

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why a document failed validation.
type ErrorKind string

// Error kinds reported in a Result.
const (
	KindStructural      ErrorKind = "structural"
	KindMalformedMarkup ErrorKind = "malformed_markup"
	KindUnsupportedTags ErrorKind = "unsupported_tags"
	KindDeprecatedTags  ErrorKind = "deprecated_tags"
)

// Fallback messages used when no better diagnostic is available.
const (
	msgInvalidMarkup    = "Invalid XML format"
	msgValidationFailed = "SSML validation failed"
)

var (
	// ErrStructural indicates a missing root wrapper.
	ErrStructural = errors.New("ssml structure error")
	// ErrMalformedMarkup indicates input that is not well-formed markup.
	ErrMalformedMarkup = errors.New("malformed markup")
	// ErrUnsupportedTags indicates unsupported tags outside a root wrapper.
	ErrUnsupportedTags = errors.New("unsupported tags")
	// ErrDeprecatedTags indicates deprecated tags rejected by the rules.
	ErrDeprecatedTags = errors.New("deprecated tags")
)

// Result is the outcome of validating one document.
//
// SupportedTags and UnsupportedTags are disjoint and together hold every
// distinct element name of the document. Both are empty when the document
// could not be parsed. ErrorMessage is set iff Valid is false.
type Result struct {
	Valid           bool      `json:"valid"`
	SupportedTags   TagSet    `json:"supported_tags"`
	UnsupportedTags TagSet    `json:"unsupported_tags"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	ErrorKind       ErrorKind `json:"error_kind,omitempty"`
}

// Err returns nil for a valid result, otherwise an error wrapping the
// sentinel that matches ErrorKind.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}

	sentinel := ErrMalformedMarkup

	switch r.ErrorKind {
	case KindStructural:
		sentinel = ErrStructural
	case KindUnsupportedTags:
		sentinel = ErrUnsupportedTags
	case KindDeprecatedTags:
		sentinel = ErrDeprecatedTags
	case KindMalformedMarkup:
	}

	return fmt.Errorf("%w: %s", sentinel, r.ErrorMessage)
}

// Validator validates documents against a fixed rule table.
type Validator struct {
	rules Rules
}

// NewValidator creates a Validator. The tag sets in rules are copied.
func NewValidator(rules Rules) (*Validator, error) {
	err := rules.check()
	if err != nil {
		return nil, fmt.Errorf("invalid rules for variant '%s': %w", rules.Variant, err)
	}

	return &Validator{rules: rules.clone()}, nil
}

// NewVariantValidator creates a Validator with the default rules of variant.
func NewVariantValidator(variant Variant) (*Validator, error) {
	rules, err := RulesFor(variant)
	if err != nil {
		return nil, err
	}

	return NewValidator(rules)
}

// Default returns a Validator running the canonical rules.
func Default() *Validator {
	rules, _ := RulesFor(VariantCanonical)

	return &Validator{rules: rules}
}

// Rules returns a copy of the validator's rules.
func (v *Validator) Rules() Rules {
	return v.rules.clone()
}

// Variant returns the name of the rule table in use.
func (v *Validator) Variant() Variant {
	return v.rules.Variant
}

// Validate checks input and returns the result. It never panics and never
// returns partial tag sets for malformed input.
func (v *Validator) Validate(input string) Result {
	trimmed := strings.TrimSpace(input)

	if v.rules.RootPrecheck {
		if !opensWithRoot(trimmed, v.rules.Root) {
			return failure(KindStructural, fmt.Sprintf(msgRootRequiredAtStart, v.rules.Root))
		}

		if !closesWithRoot(trimmed, v.rules.Root) {
			return failure(KindStructural, fmt.Sprintf(msgRootRequiredAtEnd, v.rules.Root))
		}
	}

	found, err := CollectTags(Events(input))
	if err != nil {
		message := err.Error()
		if message == "" {
			message = msgInvalidMarkup
		}

		return failure(KindMalformedMarkup, message)
	}

	facts := Facts{
		Root:           v.rules.Root,
		HasRootWrapper: hasRootWrapper(trimmed, v.rules.Root),
		Found:          found,
		Supported:      found.Intersect(v.rules.Supported),
		Unsupported:    found.Difference(v.rules.Supported),
		Deprecated:     found.Intersect(v.rules.Deprecated),
	}

	verdict := v.rules.Decide(facts)

	result := Result{
		Valid:           verdict.Valid,
		SupportedTags:   facts.Supported,
		UnsupportedTags: facts.Unsupported,
		ErrorMessage:    "",
		ErrorKind:       "",
	}

	if !verdict.Valid {
		result.ErrorKind = verdict.Kind
		result.ErrorMessage = verdict.Message

		if result.ErrorMessage == "" {
			result.ErrorMessage = msgValidationFailed
		}
	}

	return result
}

func failure(kind ErrorKind, message string) Result {
	return Result{
		Valid:           false,
		SupportedTags:   NewTagSet(),
		UnsupportedTags: NewTagSet(),
		ErrorMessage:    message,
		ErrorKind:       kind,
	}
}
