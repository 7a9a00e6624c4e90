package tools

import (
	"context"

	"github.com/minhyannv/agent-stream-go/pkg/calc"
)

type calculatorTool struct {
	ctx Context
}

func (t *calculatorTool) name() string {
	return "calculator"
}

func (t *calculatorTool) definition() Definition {
	return Definition{
		Name:        "calculator",
		Description: "Evaluate a simple arithmetic expression using + - * / and parentheses.",
		Parameters: Object(map[string]*Schema{
			"expression": {
				Type:        "string",
				Description: "Expression to evaluate, for example '2 + 3' or '10 * 5'.",
			},
		}, "expression"),
	}
}

func (t *calculatorTool) execute(_ context.Context, args map[string]any) (string, error) {
	expr, _ := args["expression"].(string)
	t.ctx.debugf("calculator: expression_bytes=%d", len(expr))

	result, err := calc.Evaluate(expr)
	if err != nil {
		t.ctx.debugf("calculator: %v", err)
		return "", &ToolError{Tool: t.name(), Kind: EvaluationError, Err: err}
	}
	return result, nil
}
