package ssml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
)

// EventKind identifies a parse event.
type EventKind int

// Parse event kinds.
const (
	ElementStart EventKind = iota + 1
	ElementEnd
	ParseFailure
)

// Parser diagnostics raised on top of the ones encoding/xml reports.
const (
	msgDocumentEmpty      = "document is empty"
	msgExtraContent       = "extra content at the end of the document"
	msgContentOutsideRoot = "content outside of the root element"
	msgDuplicateAttribute = "duplicate attribute %s on element <%s>"
)

// Event is a single step of a markup parse. Name carries the local element
// name for ElementStart and ElementEnd; Err is set only for ParseFailure.
type Event struct {
	Kind EventKind
	Name string
	Err  error
}

// Events returns the parse events of input as a lazy sequence. The sequence
// is finite and ends after the first ParseFailure. Each call to the returned
// function parses the input from scratch.
//
// A document must contain exactly one root element and no element may
// repeat an attribute name. Text, elements, attributes or end of input that
// break this produce a ParseFailure carrying an *xml.SyntaxError. Namespaces are ignored and only local names are emitted.
func Events(input string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		decoder := xml.NewDecoder(strings.NewReader(input))
		depth := 0
		seenRoot := false

		fail := func(err error) {
			yield(Event{Kind: ParseFailure, Name: "", Err: err})
		}

		for {
			token, err := decoder.Token()
			if errors.Is(err, io.EOF) {
				if !seenRoot {
					fail(syntaxError(decoder, msgDocumentEmpty))
				}

				return
			}

			if err != nil {
				fail(err)

				return
			}

			switch tok := token.(type) {
			case xml.StartElement:
				if depth == 0 && seenRoot {
					fail(syntaxError(decoder, msgExtraContent))

					return
				}

				if name, dup := duplicateAttr(tok.Attr); dup {
					fail(syntaxError(decoder, fmt.Sprintf(msgDuplicateAttribute, name, tok.Name.Local)))

					return
				}

				seenRoot = true
				depth++

				if !yield(Event{Kind: ElementStart, Name: tok.Name.Local, Err: nil}) {
					return
				}
			case xml.EndElement:
				depth--

				if !yield(Event{Kind: ElementEnd, Name: tok.Name.Local, Err: nil}) {
					return
				}
			case xml.CharData:
				if depth == 0 && len(bytes.TrimSpace(tok)) > 0 {
					fail(syntaxError(decoder, msgContentOutsideRoot))

					return
				}
			}
		}
	}
}

// CollectTags folds a parse into the set of distinct element names that were
// started. On a ParseFailure it returns an empty set and the failure's error;
// names seen before the failure are discarded.
func CollectTags(events iter.Seq[Event]) (TagSet, error) {
	found := NewTagSet()

	for event := range events {
		switch event.Kind {
		case ParseFailure:
			return NewTagSet(), event.Err
		case ElementStart:
			found[event.Name] = struct{}{}
		case ElementEnd:
		}
	}

	return found, nil
}

func syntaxError(decoder *xml.Decoder, msg string) *xml.SyntaxError {
	line, _ := decoder.InputPos()

	return &xml.SyntaxError{Msg: msg, Line: line}
}

// duplicateAttr returns the first attribute name that appears twice in attrs.
func duplicateAttr(attrs []xml.Attr) (string, bool) {
	seen := make(map[xml.Name]struct{}, len(attrs))

	for _, attr := range attrs {
		if _, ok := seen[attr.Name]; ok {
			if attr.Name.Space != "" {
				return attr.Name.Space + ":" + attr.Name.Local, true
			}

			return attr.Name.Local, true
		}

		seen[attr.Name] = struct{}{}
	}

	return "", false
}
