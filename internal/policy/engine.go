// Package policy evaluates offer price policy with OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the offer policy.
const (
	DecisionAllow               = "allow"
	DecisionRequireConfirmation = "require_confirmation"
	DecisionBlock               = "block"
)

// Input is the offer under evaluation.
type Input struct {
	Price         float64 `json:"price"`
	StartingPrice float64 `json:"starting_price"`
	Ceiling       float64 `json:"ceiling"`
	Floor         float64 `json:"floor"`
	Force         bool    `json:"force"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given rego module.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.offer_policy.decision"),
		rego.Module("offer_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate returns allow, require_confirmation, or block for the offer.
func (e *Engine) Evaluate(ctx context.Context, input Input) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionAllow, nil
}

// DefaultPolicy rejects counters above the ceiling multiple of the starting
// price outright, and demands an explicit force re-submission for offers
// below the floor multiple.
const DefaultPolicy = `
package offer_policy

import rego.v1

default decision := "allow"

decision := "block" if {
	input.price > input.starting_price * input.ceiling
}

decision := "require_confirmation" if {
	not input.force
	input.price <= input.starting_price * input.ceiling
	input.price < input.starting_price * input.floor
}
`
