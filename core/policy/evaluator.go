// Package policy provides storefront rules for wholesale customers.
// Rules inspect a priced cart and report violations; they never change prices.
package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"wholesale-pricing/core/types"
)

// Settings are the storefront switches rules read
type Settings struct {
	PrivateStore   bool
	MinCartValue   decimal.Decimal
	DisableCoupons bool
	Currency       string
	Decimals       int32
}

// FormatMoney renders an amount in the store currency
func (s Settings) FormatMoney(d decimal.Decimal) string {
	amount := d.StringFixed(s.Decimals)
	if s.Currency == "" {
		return amount
	}
	return amount + " " + s.Currency
}

// Cart is what rules evaluate
type Cart struct {
	Customer types.Customer
	Subtotal decimal.Decimal
	Coupons  []string
}

// Rule defines a single storefront rule
type Rule interface {
	// Name returns the rule identifier
	Name() string

	// Description returns a human-readable description
	Description() string

	// Evaluate checks the rule against a cart
	Evaluate(ctx context.Context, cart *Cart) *RuleResult
}

// RuleResult contains the evaluation output for a single rule
type RuleResult struct {
	// RuleName is the rule that was evaluated
	RuleName string `json:"rule_name"`

	// Passed indicates if the rule passed
	Passed bool `json:"passed"`

	// Severity is the rule severity
	Severity Severity `json:"severity"`

	// Message is a customer-facing message
	Message string `json:"message,omitempty"`

	// Details contains additional context
	Details map[string]interface{} `json:"details,omitempty"`
}

// Severity levels for rule results
type Severity string

const (
	// SeverityInfo is informational only
	SeverityInfo Severity = "info"

	// SeverityBlock blocks checkout
	SeverityBlock Severity = "block"
)

// EvaluationResult contains all rule results
type EvaluationResult struct {
	// Results contains individual rule results
	Results []*RuleResult `json:"results"`

	// PassedCount is the number of passed rules
	PassedCount int `json:"passed_count"`

	// FailedCount is the number of failed rules
	FailedCount int `json:"failed_count"`

	// Blocked indicates if any rule blocks checkout
	Blocked bool `json:"blocked"`

	// BlockReason explains why checkout is blocked
	BlockReason string `json:"block_reason,omitempty"`
}

// Evaluator runs registered rules in registration order
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator with the standard rules
func NewEvaluator(settings Settings) *Evaluator {
	e := &Evaluator{}
	_ = e.RegisterRule(&MinimumOrderRule{Settings: settings})
	_ = e.RegisterRule(&CouponRule{Settings: settings})
	return e
}

// RegisterRule adds a rule to the evaluator
func (e *Evaluator) RegisterRule(rule Rule) error {
	for _, r := range e.rules {
		if r.Name() == rule.Name() {
			return fmt.Errorf("rule %q already registered", rule.Name())
		}
	}
	e.rules = append(e.rules, rule)
	return nil
}

// Evaluate runs all rules
func (e *Evaluator) Evaluate(ctx context.Context, cart *Cart) *EvaluationResult {
	out := &EvaluationResult{Results: make([]*RuleResult, 0, len(e.rules))}
	var reasons []string

	for _, rule := range e.rules {
		res := rule.Evaluate(ctx, cart)
		out.Results = append(out.Results, res)
		if res.Passed {
			out.PassedCount++
			continue
		}
		out.FailedCount++
		if res.Severity == SeverityBlock {
			out.Blocked = true
			reasons = append(reasons, res.Message)
		}
	}

	out.BlockReason = strings.Join(reasons, " ")
	return out
}

func pass(name string) *RuleResult {
	return &RuleResult{RuleName: name, Passed: true, Severity: SeverityInfo}
}
