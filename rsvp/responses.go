package rsvp

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultResponses is the response set used when none is configured.
var DefaultResponses = []string{"Yes", "No"}

// ResponseSet is an ordered set of allowed RSVP responses. It is immutable
// and safe for concurrent use.
type ResponseSet struct {
	values []string
	index  map[string]string
}

// NewResponseSet creates a ResponseSet from the given values, in order.
// Values are trimmed; they must be non-empty, must not contain '#' and must
// be unique ignoring case.
func NewResponseSet(values ...string) (*ResponseSet, error) {
	if len(values) == 0 {
		return nil, errors.New("response set cannot be empty")
	}

	s := &ResponseSet{
		values: make([]string, 0, len(values)),
		index:  make(map[string]string, len(values)),
	}

	for _, v := range values {
		v = strings.TrimSpace(v)

		if v == "" {
			return nil, errors.New("response cannot be empty")
		}

		if strings.Contains(v, "#") {
			return nil, fmt.Errorf("response %q cannot contain '#'", v)
		}

		key := strings.ToLower(v)
		if _, exists := s.index[key]; exists {
			return nil, fmt.Errorf("duplicate response %q", v)
		}

		s.index[key] = v
		s.values = append(s.values, v)
	}

	return s, nil
}

// MustResponseSet is like [NewResponseSet] but panics on invalid input.
func MustResponseSet(values ...string) *ResponseSet {
	s, err := NewResponseSet(values...)
	if err != nil {
		panic(err)
	}

	return s
}

// Canonical returns the configured spelling of v and true, or "" and false
// if v is not in the set.
func (s *ResponseSet) Canonical(v string) (string, bool) {
	canonical, ok := s.index[strings.ToLower(strings.TrimSpace(v))]
	return canonical, ok
}

// Values returns a copy of the responses in configured order.
func (s *ResponseSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)

	return out
}

func (s *ResponseSet) String() string {
	return strings.Join(s.values, ", ")
}
