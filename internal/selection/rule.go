// SPDX-License-Identifier: MPL-2.0

package selection

import (
	"fmt"

	"github.com/pizug/cpi-sync/internal/config"
)

const (
	// Include adds matched identifiers to the working set.
	Include Operation = iota
	// Exclude removes matched identifiers from the working set.
	Exclude
)

type (
	// Operation is the effect a rule has on the working set.
	Operation int

	// Rule is one filter rule. The set of implementations is closed:
	// RegexRule and SingleRule.
	Rule interface {
		Op() Operation
		String() string

		isRule()
	}

	// RegexRule matches every catalog identifier the pattern matches
	// anywhere (unanchored, RE2 syntax).
	RegexRule struct {
		Pattern   string
		Operation Operation
	}

	// SingleRule matches exactly one catalog identifier.
	SingleRule struct {
		ID        string
		Operation Operation
	}
)

func (o Operation) String() string {
	switch o {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

func (RegexRule) isRule() {}

// Op returns the rule's operation.
func (r RegexRule) Op() Operation { return r.Operation }

func (r RegexRule) String() string {
	return fmt.Sprintf("%s regex %q", r.Operation, r.Pattern)
}

func (SingleRule) isRule() {}

// Op returns the rule's operation.
func (r SingleRule) Op() Operation { return r.Operation }

func (r SingleRule) String() string {
	return fmt.Sprintf("%s single %q", r.Operation, r.ID)
}

// FromConfig converts configured filter rules into Rules, preserving order.
func FromConfig(rules []config.FilterRule) ([]Rule, error) {
	out := make([]Rule, 0, len(rules))
	for i, fr := range rules {
		if ok, errs := fr.IsValid(i); !ok {
			return nil, errs[0]
		}

		op := Include
		if fr.Operation.OrDefault() == config.OperationExclude {
			op = Exclude
		}

		switch fr.Type {
		case config.RuleTypeRegex:
			out = append(out, RegexRule{Pattern: fr.Pattern, Operation: op})
		case config.RuleTypeSingle:
			out = append(out, SingleRule{ID: fr.ID, Operation: op})
		}
	}
	return out, nil
}
