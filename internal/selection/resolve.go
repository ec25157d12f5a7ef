// SPDX-License-Identifier: MPL-2.0

package selection

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/pizug/cpi-sync/internal/catalog"

	"bitbucket.org/creachadair/stringset"
)

var (
	// ErrInvalidPattern is returned when a regex rule does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrUnknownPackageID is returned when a single rule names an identifier
	// that is not in the catalog.
	ErrUnknownPackageID = errors.New("package ID not found")
)

type (
	// InvalidPatternError reports a regex rule that failed to compile.
	InvalidPatternError struct {
		Index   int
		Pattern string
		Err     error
	}

	// UnknownPackageError reports a single rule whose identifier is not in
	// the catalog. Suggestion holds the identifiers of packages whose display
	// name equals ID, if any.
	UnknownPackageError struct {
		Index      int
		ID         string
		Suggestion string
	}
)

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("rule %d: %s %q: %v", e.Index, ErrInvalidPattern, e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() []error { return []error{ErrInvalidPattern, e.Err} }

func (e *UnknownPackageError) Error() string {
	msg := fmt.Sprintf("rule %d: %s: %s", e.Index, ErrUnknownPackageID, e.ID)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you enter the package name instead of this package ID?: '%s')", e.Suggestion)
	}
	return msg
}

func (e *UnknownPackageError) Unwrap() error { return ErrUnknownPackageID }

// Resolve folds rules over an initially empty working set and returns the
// result. Regex rules match against the whole catalog; every rule then
// applies its operation to the working set as it stands. The result is
// always a subset of cat.IDs. Resolve does not modify cat.
func Resolve(cat *catalog.Catalog, rules []Rule) (stringset.Set, error) {
	working := stringset.New()

	for i, rule := range rules {
		var matched stringset.Set

		switch r := rule.(type) {
		case RegexRule:
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return nil, &InvalidPatternError{Index: i, Pattern: r.Pattern, Err: err}
			}
			matched = cat.IDs.Select(re.MatchString)
		case SingleRule:
			if !cat.Contains(r.ID) {
				suggestion, _ := cat.SuggestID(r.ID)
				return nil, &UnknownPackageError{Index: i, ID: r.ID, Suggestion: suggestion}
			}
			matched = stringset.New(r.ID)
		default:
			return nil, fmt.Errorf("rule %d: unsupported rule type %T", i, rule)
		}

		switch rule.Op() {
		case Include:
			working.Update(matched)
		case Exclude:
			working.Remove(matched)
		default:
			return nil, fmt.Errorf("rule %d: unsupported operation %s", i, rule.Op())
		}
	}

	return working, nil
}
