package ssml

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const tagSeparator = ", "

// TagSet is a set of element tag names. Names are compared exactly and
// case-sensitively. Operations return new sets and never modify the receiver.
type TagSet map[string]struct{}

// NewTagSet builds a set from the given names. Duplicates collapse.
func NewTagSet(names ...string) TagSet {
	set := make(TagSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}

	return set
}

// Contains reports whether name is in the set.
func (s TagSet) Contains(name string) bool {
	_, ok := s[name]

	return ok
}

// Len returns the number of distinct names.
func (s TagSet) Len() int {
	return len(s)
}

// Intersect returns the names present in both sets.
func (s TagSet) Intersect(other TagSet) TagSet {
	result := make(TagSet)

	for name := range s {
		if other.Contains(name) {
			result[name] = struct{}{}
		}
	}

	return result
}

// Difference returns the names of s that are not in other.
func (s TagSet) Difference(other TagSet) TagSet {
	result := make(TagSet)

	for name := range s {
		if !other.Contains(name) {
			result[name] = struct{}{}
		}
	}

	return result
}

// Clone returns an independent copy. A nil set clones to an empty one.
func (s TagSet) Clone() TagSet {
	result := make(TagSet, len(s))
	for name := range s {
		result[name] = struct{}{}
	}

	return result
}

// Sorted returns the names in lexicographic order.
func (s TagSet) Sorted() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// String renders the sorted names joined by ", ".
func (s TagSet) String() string {
	return strings.Join(s.Sorted(), tagSeparator)
}

// MarshalJSON encodes the set as a sorted array.
func (s TagSet) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(s.Sorted())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tag set: %w", err)
	}

	return data, nil
}

// UnmarshalJSON decodes an array of names. null decodes to an empty set.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	var names []string

	err := json.Unmarshal(data, &names)
	if err != nil {
		return fmt.Errorf("failed to unmarshal tag set: %w", err)
	}

	*s = NewTagSet(names...)

	return nil
}
