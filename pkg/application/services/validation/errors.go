package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBusinessRuleViolation is the sentinel for plans that break a business rule
var ErrBusinessRuleViolation = errors.New("plan violates business rules")

// Rule names a post-solve check
type Rule string

const (
	RuleLaborWithoutProduction Rule = "labor_without_production"
	RuleTruckNotOperating      Rule = "truck_not_operating"
	RuleMandatoryNodeBypassed  Rule = "mandatory_node_bypassed"
	RuleLaborBelowMinimum      Rule = "labor_below_minimum"
	RuleDemandUnbalanced       Rule = "demand_unbalanced"
	RuleCostMismatch           Rule = "cost_mismatch"
)

// Violation is one broken rule
type Violation struct {
	Rule    Rule
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// ValidationError carries every violation found in a plan
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return fmt.Sprintf("%s: %s", ErrBusinessRuleViolation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrBusinessRuleViolation
}

// Messages returns the violations as strings
func (e *ValidationError) Messages() []string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.String()
	}
	return msgs
}
