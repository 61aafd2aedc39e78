// Package cel evaluates CEL tool-exposure expressions.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/Sentinel-Gate/irisgate/internal/domain/exposure"
)

// maxExpressionLength is the maximum allowed length for CEL expressions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum allowed parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout is the maximum time allowed for a single CEL evaluation.
const evalTimeout = 5 * time.Second

// Evaluator compiles and evaluates exposure expressions.
type Evaluator struct {
	env *cel.Env
}

// NewEvaluator creates a new CEL evaluator with the exposure environment.
func NewEvaluator() (*Evaluator, error) {
	env, err := NewExposureEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create exposure environment: %w", err)
	}
	return &Evaluator{env: env}, nil
}

// Compile parses and type-checks a CEL expression, returning a compiled program.
func (e *Evaluator) Compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must return a boolean, got %s", ast.OutputType())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}
	return prg, nil
}

// validateNesting checks that the expression does not exceed the maximum
// nesting depth for parentheses, brackets, and braces.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// ValidateExpression checks that an expression is within the safety limits
// and compiles.
func (e *Evaluator) ValidateExpression(expr string) error {
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}
	if expr == "" {
		return errors.New("expression is empty")
	}
	if err := validateNesting(expr); err != nil {
		return err
	}
	if _, err := e.Compile(expr); err != nil {
		return fmt.Errorf("invalid CEL expression: %w", err)
	}
	return nil
}

// Evaluate runs a compiled program against one tool.
func (e *Evaluator) Evaluate(prg cel.Program, t exposure.Tool) (bool, error) {
	activation := map[string]any{
		"tool": map[string]any{
			"name":      t.Name,
			"category":  t.Category,
			"read_only": t.ReadOnly,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	result, _, err := prg.ContextEval(ctx, activation)
	if err != nil {
		return false, fmt.Errorf("evaluation failed: %w", err)
	}
	b, ok := result.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean, got %T", result.Value())
	}
	return b, nil
}

// Policy is an exposure.Policy backed by one compiled expression.
type Policy struct {
	eval *Evaluator
	prg  cel.Program
	expr string
}

var _ exposure.Policy = (*Policy)(nil)

// NewPolicy validates and compiles expr.
func NewPolicy(expr string) (*Policy, error) {
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	if err := eval.ValidateExpression(expr); err != nil {
		return nil, err
	}
	prg, err := eval.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Policy{eval: eval, prg: prg, expr: expr}, nil
}

// Allows evaluates the expression for t.
func (p *Policy) Allows(t exposure.Tool) (bool, error) {
	ok, err := p.eval.Evaluate(p.prg, t)
	if err != nil {
		return false, fmt.Errorf("tool %s: %w", t.Name, err)
	}
	return ok, nil
}

// String returns the source expression.
func (p *Policy) String() string { return p.expr }
