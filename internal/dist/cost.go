package dist

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CostModel prices calls through a compiled CEL expression, so operators
// can swap tariff schemes without rebuilding the generator.
type CostModel struct {
	program cel.Program
}

// NewCostModel compiles the configured cost expression. The expression sees
// one call at a time through the variables below and must evaluate to a
// number.
func NewCostModel(expression string) (*CostModel, error) {
	env, err := cel.NewEnv(
		cel.Variable("call_type", cel.StringType),
		cel.Variable("duration_minutes", cel.DoubleType),
		cel.Variable("off_peak", cel.BoolType),
		cel.Variable("weekend", cel.BoolType),
		cel.Variable("line", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile cost expression: %w", issues.Err())
	}

	outputType := ast.OutputType()
	if outputType != cel.DoubleType && outputType != cel.IntType {
		return nil, fmt.Errorf("cost expression must return int or double, got %s", outputType)
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost program: %w", err)
	}

	return &CostModel{program: program}, nil
}

// Amount evaluates the cost expression against one call's activation
// variables. Negative results are clamped to zero.
func (m *CostModel) Amount(activation map[string]any) (float64, error) {
	out, _, err := m.program.Eval(activation)
	if err != nil {
		return 0, fmt.Errorf("cost evaluation failed: %w", err)
	}

	amount := toAmount(out)
	if amount < 0 {
		amount = 0
	}
	return amount, nil
}

// toAmount converts a CEL value to a monetary amount.
func toAmount(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0
	}
}
