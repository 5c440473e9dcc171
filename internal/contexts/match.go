package contexts

import (
	"fmt"
	"regexp"
)

// Match returns the names that pattern matches, in their original order.
//
// Matching is a regular expression search: a pattern matching any part of a
// name selects it. Anchor the pattern with ^ and $ to require the whole name.
// A pattern that matches nothing yields an empty, non-nil slice.
func Match(pattern string, names []string) ([]string, error) {
	re, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	return matchCompiled(re, names), nil
}

func compile(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

func matchCompiled(re *regexp.Regexp, names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if re.MatchString(n) {
			out = append(out, n)
		}
	}
	return out
}

// InvalidPatternError reports a context pattern that is not a valid regular expression
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid context pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error {
	return e.Err
}
