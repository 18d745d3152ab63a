package ssml

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultRoot is the element expected to wrap an SSML document.
const DefaultRoot = "speak"

// Variant names a rule table.
type Variant string

// Known rule variants. VariantCanonical is the default.
const (
	// VariantCanonical accepts a document with the root wrapper, or one
	// without it whose tags are all supported.
	VariantCanonical Variant = "canonical"
	// VariantNoDeprecated is VariantCanonical, except that any deprecated
	// tag makes the document invalid even inside the wrapper.
	VariantNoDeprecated Variant = "no-deprecated"
	// VariantStrictWrapper requires the root wrapper textually before
	// parsing and rejects deprecated tags.
	VariantStrictWrapper Variant = "strict-wrapper"
)

// Decision messages.
const (
	msgRootRequiredAtStart = "<%s> tag required at start"
	msgRootRequiredAtEnd   = "<%s> tag required at end"
	msgUnsupportedTags     = "Contains unsupported tags without <%s> wrapper: %s"
	msgDeprecatedTags      = "Contains deprecated tags: %s"
)

var (
	// ErrUnknownVariant indicates a variant name with no rule table.
	ErrUnknownVariant = errors.New("unknown rule variant")
	// ErrRootEmpty indicates rules without a root element name.
	ErrRootEmpty = errors.New("root element name cannot be empty")
	// ErrDecisionMissing indicates rules without a decision function.
	ErrDecisionMissing = errors.New("decision function cannot be nil")
)

// DefaultSupported returns the allow-list of tags the native speech engine
// understands.
func DefaultSupported() TagSet {
	return NewTagSet("speak", "break", "emphasis", "prosody", "say-as")
}

// DefaultDeprecated returns the tags rejected by the deprecated-tag variants.
func DefaultDeprecated() TagSet {
	return NewTagSet("emphasis")
}

// Facts is everything a Decision may look at for one well-formed document.
type Facts struct {
	Root           string
	HasRootWrapper bool
	Found          TagSet
	Supported      TagSet
	Unsupported    TagSet
	// Deprecated holds the found tags that are in the rules' deprecated set.
	Deprecated TagSet
}

// Verdict is the outcome of a Decision. Message and Kind are empty when Valid.
type Verdict struct {
	Valid   bool
	Kind    ErrorKind
	Message string
}

// Decision maps the facts about a parsed document onto a verdict.
type Decision func(facts Facts) Verdict

// Rules is the configuration a Validator runs with.
type Rules struct {
	Variant    Variant
	Root       string
	Supported  TagSet
	Deprecated TagSet
	// RootPrecheck fails documents lacking the textual root wrapper before
	// they are parsed.
	RootPrecheck bool
	Decide       Decision
}

// RulesFor returns the default rule table of a variant.
func RulesFor(variant Variant) (Rules, error) {
	rules := Rules{
		Variant:      variant,
		Root:         DefaultRoot,
		Supported:    DefaultSupported(),
		Deprecated:   DefaultDeprecated(),
		RootPrecheck: false,
		Decide:       WrapperOrSupported,
	}

	switch variant {
	case VariantCanonical:
	case VariantNoDeprecated:
		rules.Decide = RejectDeprecated(WrapperOrSupported)
	case VariantStrictWrapper:
		rules.RootPrecheck = true
		rules.Decide = RejectDeprecated(WrapperOrSupported)
	default:
		return Rules{}, fmt.Errorf("%w: '%s'", ErrUnknownVariant, variant)
	}

	return rules, nil
}

// Variants lists the known variant names.
func Variants() []Variant {
	return []Variant{VariantCanonical, VariantNoDeprecated, VariantStrictWrapper}
}

// WrapperOrSupported accepts documents that carry the root wrapper, or whose
// tags are all supported.
func WrapperOrSupported(facts Facts) Verdict {
	if facts.HasRootWrapper || facts.Unsupported.Len() == 0 {
		return Verdict{Valid: true, Kind: "", Message: ""}
	}

	return Verdict{
		Valid:   false,
		Kind:    KindUnsupportedTags,
		Message: fmt.Sprintf(msgUnsupportedTags, facts.Root, facts.Unsupported),
	}
}

// RejectDeprecated wraps next so that any deprecated tag fails the document
// regardless of what next decides.
func RejectDeprecated(next Decision) Decision {
	return func(facts Facts) Verdict {
		if facts.Deprecated.Len() > 0 {
			return Verdict{
				Valid:   false,
				Kind:    KindDeprecatedTags,
				Message: fmt.Sprintf(msgDeprecatedTags, facts.Deprecated),
			}
		}

		return next(facts)
	}
}

func (r Rules) check() error {
	if r.Root == "" {
		return ErrRootEmpty
	}

	if r.Decide == nil {
		return ErrDecisionMissing
	}

	return nil
}

func (r Rules) clone() Rules {
	r.Supported = r.Supported.Clone()
	r.Deprecated = r.Deprecated.Clone()

	return r
}

// opensWithRoot reports whether trimmed starts with an opening tag of root.
func opensWithRoot(trimmed, root string) bool {
	rest, ok := strings.CutPrefix(trimmed, "<"+root)
	if !ok || rest == "" {
		return false
	}

	switch rest[0] {
	case '>', '/', ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

// closesWithRoot reports whether trimmed ends with the closing tag of root.
func closesWithRoot(trimmed, root string) bool {
	body, ok := strings.CutSuffix(trimmed, ">")
	if !ok {
		return false
	}

	body = strings.TrimRightFunc(body, unicode.IsSpace)

	return strings.HasSuffix(body, "</"+root)
}

func hasRootWrapper(trimmed, root string) bool {
	return opensWithRoot(trimmed, root) && closesWithRoot(trimmed, root)
}
