package tools

import (
	"fmt"
	"math"
	"strconv"
)

func (r *Registry) registerMath() {
	abSchema := objectSchema(map[string]any{
		"a": numSchema("First number"),
		"b": numSchema("Second number"),
	}, []string{"a", "b"})
	abParams := []Param{{Name: "a", Required: true}, {Name: "b", Required: true}}

	r.register(&Tool{
		Name:        "add",
		Description: "Add two numbers.",
		Schema:      abSchema,
		Params:      abParams,
		Handler: func(args map[string]any) string {
			return formatResult(numArg(args, "a") + numArg(args, "b"))
		},
	})

	r.register(&Tool{
		Name:        "subtract",
		Description: "Subtract second number from first number.",
		Schema:      abSchema,
		Params:      abParams,
		Handler: func(args map[string]any) string {
			return formatResult(numArg(args, "a") - numArg(args, "b"))
		},
	})

	r.register(&Tool{
		Name:        "multiply",
		Description: "Multiply two numbers.",
		Schema:      abSchema,
		Params:      abParams,
		Handler: func(args map[string]any) string {
			return formatResult(numArg(args, "a") * numArg(args, "b"))
		},
	})

	r.register(&Tool{
		Name:        "divide",
		Description: "Divide first number by second number.",
		Schema: objectSchema(map[string]any{
			"a": numSchema("Numerator"),
			"b": numSchema("Denominator"),
		}, []string{"a", "b"}),
		Params: abParams,
		Handler: func(args map[string]any) string {
			a, b := numArg(args, "a"), numArg(args, "b")
			if b == 0 {
				return "Error: Division by zero"
			}
			return formatResult(a / b)
		},
	})

	r.register(&Tool{
		Name:        "sqrt",
		Description: "Calculate the square root of a number.",
		Schema: objectSchema(map[string]any{
			"x": numSchema("Number to take square root of"),
		}, []string{"x"}),
		Params: []Param{{Name: "x", Required: true}},
		Handler: func(args map[string]any) string {
			x := numArg(args, "x")
			if x < 0 {
				return "Error: Cannot take square root of negative number"
			}
			return formatResult(math.Sqrt(x))
		},
	})

	r.register(&Tool{
		Name:        "power",
		Description: "Raise a number to a power.",
		Schema: objectSchema(map[string]any{
			"base":     numSchema("Base number"),
			"exponent": numSchema("Exponent"),
		}, []string{"base", "exponent"}),
		Params: []Param{{Name: "base", Required: true}, {Name: "exponent", Required: true}},
		Handler: func(args map[string]any) string {
			return formatResult(math.Pow(numArg(args, "base"), numArg(args, "exponent")))
		},
	})
}

// formatResult renders a numeric tool result. Whole values keep one
// decimal place ("Result: 72.0") so results read as floating point.
func formatResult(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("Result: %.1f", v)
	}
	return "Result: " + strconv.FormatFloat(v, 'g', -1, 64)
}

// numArg coerces an argument to float64. JSON numbers arrive as float64,
// but sloppy models send numeric strings; accept those too. Anything
// else aborts the handler and surfaces as an execution error.
func numArg(args map[string]any, name string) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	panic(fmt.Sprintf("argument '%s' is not a number", name))
}
