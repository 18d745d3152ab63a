// Package ruleset loads validator rule tables from TOML files and keeps the
// active validator swappable at runtime.
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/book-expert/ssml-service/internal/ssml"
	"github.com/pelletier/go-toml/v2"
)

// ErrNoValidator indicates a Store created without a validator.
var ErrNoValidator = errors.New("validator cannot be nil")

// Definition is the serialized form of a rule table. Empty fields keep the
// defaults of the chosen variant.
type Definition struct {
	Variant    string   `toml:"variant"`
	Root       string   `toml:"root"`
	Supported  []string `toml:"supported"`
	Deprecated []string `toml:"deprecated"`
}

// Rules resolves the definition into validator rules.
func (d Definition) Rules() (ssml.Rules, error) {
	variant := ssml.Variant(d.Variant)
	if variant == "" {
		variant = ssml.VariantCanonical
	}

	rules, err := ssml.RulesFor(variant)
	if err != nil {
		return ssml.Rules{}, fmt.Errorf("failed to resolve rules: %w", err)
	}

	if d.Root != "" {
		rules.Root = d.Root
	}

	if d.Supported != nil {
		rules.Supported = ssml.NewTagSet(d.Supported...)
	}

	if d.Deprecated != nil {
		rules.Deprecated = ssml.NewTagSet(d.Deprecated...)
	}

	return rules, nil
}

// Validator builds a validator from the definition.
func (d Definition) Validator() (*ssml.Validator, error) {
	rules, err := d.Rules()
	if err != nil {
		return nil, err
	}

	validator, err := ssml.NewValidator(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build validator: %w", err)
	}

	return validator, nil
}

// Parse decodes a TOML rule file. Unknown keys are rejected.
func Parse(data []byte) (Definition, error) {
	var def Definition

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	err := decoder.Decode(&def)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to decode rule file: %w", err)
	}

	return def, nil
}

// LoadFile reads a rule file and builds its validator.
func LoadFile(path string) (*ssml.Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file '%s': %w", path, err)
	}

	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rule file '%s': %w", path, err)
	}

	validator, err := def.Validator()
	if err != nil {
		return nil, fmt.Errorf("rule file '%s': %w", path, err)
	}

	return validator, nil
}

// Store holds the active validator. It is safe for concurrent use; Swap
// replaces the validator seen by subsequent Validate calls.
type Store struct {
	current atomic.Pointer[ssml.Validator]
}

// NewStore creates a Store serving validator.
func NewStore(validator *ssml.Validator) (*Store, error) {
	if validator == nil {
		return nil, ErrNoValidator
	}

	store := &Store{current: atomic.Pointer[ssml.Validator]{}}
	store.current.Store(validator)

	return store, nil
}

// Swap installs validator and returns the previous one.
func (s *Store) Swap(validator *ssml.Validator) *ssml.Validator {
	return s.current.Swap(validator)
}

// Validator returns the active validator.
func (s *Store) Validator() *ssml.Validator {
	return s.current.Load()
}

// Validate validates input with the active validator.
func (s *Store) Validate(input string) ssml.Result {
	return s.current.Load().Validate(input)
}

// Variant returns the variant of the active validator.
func (s *Store) Variant() ssml.Variant {
	return s.current.Load().Variant()
}
