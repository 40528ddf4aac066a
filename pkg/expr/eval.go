package expr

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// evaluator walks an expression tree bottom-up against one Environment.
// It holds no state between evaluations beyond the configured epsilon.
type evaluator struct {
	env     Environment
	epsilon float64
}

func (ev *evaluator) eval(n node) (any, error) {
	switch nd := n.(type) {
	case *numberNode:
		if nd.isFloat {
			return nd.fltVal, nil
		}
		return nd.intVal, nil

	case *stringNode:
		return nd.value, nil

	case *boolNode:
		return nd.value, nil

	case *identNode:
		val, ok := ev.env[nd.name]
		if !ok {
			return nil, &UnboundFieldError{Field: nd.name}
		}
		return normalizeValue(val), nil

	case *unaryNode:
		return ev.evalUnary(nd)

	case *binaryNode:
		return ev.evalBinary(nd)

	case *callNode:
		return ev.evalCall(nd)
	}

	return nil, &TypeError{Op: "eval", Message: fmt.Sprintf("unsupported node %T", n)}
}

func (ev *evaluator) evalUnary(n *unaryNode) (any, error) {
	val, err := ev.eval(n.operand)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokenNot:
		return !truthy(val), nil
	case tokenMinus:
		switch v := val.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, &TypeError{Op: "-", Message: fmt.Sprintf("cannot negate %s", typeName(val))}
	case tokenPlus:
		if !isNumeric(val) {
			return nil, &TypeError{Op: "+", Message: fmt.Sprintf("cannot apply unary plus to %s", typeName(val))}
		}
		return val, nil
	}
	return nil, &TypeError{Op: n.op.String(), Message: "unsupported unary operator"}
}

func (ev *evaluator) evalBinary(n *binaryNode) (any, error) {
	// AND/OR short-circuit before evaluating the right operand.
	switch n.op {
	case tokenAnd, tokenOr:
		left, err := ev.eval(n.left)
		if err != nil {
			return nil, err
		}
		if n.op == tokenAnd && !truthy(left) {
			return false, nil
		}
		if n.op == tokenOr && truthy(left) {
			return true, nil
		}
		right, err := ev.eval(n.right)
		if err != nil {
			return nil, err
		}
		return truthy(right), nil
	}

	left, err := ev.eval(n.left)
	if err != nil {
		return nil, err
	}
	right, err := ev.eval(n.right)
	if err != nil {
		return nil, err
	}

	switch n.op {
	case tokenPlus, tokenMinus, tokenStar, tokenSlash, tokenPercent:
		return ev.arithmetic(n.op, left, right)
	case tokenEq:
		return ev.equal(left, right)
	case tokenNe:
		eq, err := ev.equal(left, right)
		if err != nil {
			return nil, err
		}
		return !eq, nil
	case tokenLt, tokenGt, tokenLe, tokenGe:
		return ev.ordered(n.op, left, right)
	}
	return nil, &TypeError{Op: n.op.String(), Message: "unsupported operator"}
}

// arithmetic applies +, -, *, /, % with integer preservation: integer
// operands stay integral except for /, which always produces a float so
// financial ratios are never truncated.
func (ev *evaluator) arithmetic(op tokenKind, left, right any) (any, error) {
	if !isNumeric(left) || !isNumeric(right) {
		return nil, &TypeError{
			Op:      op.String(),
			Message: fmt.Sprintf("operands must be numeric, got %s and %s", typeName(left), typeName(right)),
		}
	}

	if bothInt(left, right) && op != tokenSlash {
		li, ri := left.(int64), right.(int64)
		switch op {
		case tokenPlus:
			return li + ri, nil
		case tokenMinus:
			return li - ri, nil
		case tokenStar:
			return li * ri, nil
		case tokenPercent:
			if ri == 0 {
				return nil, &ArithmeticError{Op: "%", Message: "modulo by zero"}
			}
			return li % ri, nil
		}
	}

	lf, rf := asFloat(left), asFloat(right)
	switch op {
	case tokenPlus:
		return lf + rf, nil
	case tokenMinus:
		return lf - rf, nil
	case tokenStar:
		return lf * rf, nil
	case tokenSlash:
		if rf == 0 {
			return nil, &ArithmeticError{Op: "/", Message: "division by zero"}
		}
		return lf / rf, nil
	case tokenPercent:
		if rf == 0 {
			return nil, &ArithmeticError{Op: "%", Message: "modulo by zero"}
		}
		return math.Mod(lf, rf), nil
	}
	return nil, &TypeError{Op: op.String(), Message: "unsupported arithmetic operator"}
}

// equal compares two values. Integer pairs compare exactly; any float
// comparison uses the epsilon tolerance because source figures are rounded.
func (ev *evaluator) equal(left, right any) (bool, error) {
	if isNumeric(left) && isNumeric(right) {
		if bothInt(left, right) {
			return left.(int64) == right.(int64), nil
		}
		return math.Abs(asFloat(left)-asFloat(right)) <= ev.epsilon, nil
	}

	switch lv := left.(type) {
	case string:
		if rv, ok := right.(string); ok {
			return lv == rv, nil
		}
	case bool:
		if rv, ok := right.(bool); ok {
			return lv == rv, nil
		}
	}
	return false, &TypeError{
		Op:      "==",
		Message: fmt.Sprintf("cannot compare %s with %s", typeName(left), typeName(right)),
	}
}

func (ev *evaluator) ordered(op tokenKind, left, right any) (bool, error) {
	if isNumeric(left) && isNumeric(right) {
		lf, rf := asFloat(left), asFloat(right)
		switch op {
		case tokenLt:
			return lf < rf, nil
		case tokenGt:
			return lf > rf, nil
		case tokenLe:
			return lf <= rf, nil
		case tokenGe:
			return lf >= rf, nil
		}
	}

	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case tokenLt:
			return ls < rs, nil
		case tokenGt:
			return ls > rs, nil
		case tokenLe:
			return ls <= rs, nil
		case tokenGe:
			return ls >= rs, nil
		}
	}

	return false, &TypeError{
		Op:      op.String(),
		Message: fmt.Sprintf("cannot order %s against %s", typeName(left), typeName(right)),
	}
}

func (ev *evaluator) evalCall(n *callNode) (any, error) {
	args := make([]any, len(n.args))
	for i, arg := range n.args {
		val, err := ev.eval(arg)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	switch n.fn {
	case "abs":
		switch v := args[0].(type) {
		case int64:
			if v < 0 {
				return -v, nil
			}
			return v, nil
		case float64:
			return math.Abs(v), nil
		}
		return nil, &TypeError{Op: "abs", Message: fmt.Sprintf("argument must be numeric, got %s", typeName(args[0]))}

	case "min", "max":
		return ev.extremum(n.fn, args)

	case "sum":
		return ev.sum(args)

	case "count":
		// count of a list is its number of truthy elements; a scalar
		// counts as one when truthy, zero otherwise.
		if list, ok := args[0].([]any); ok {
			var c int64
			for _, item := range list {
				if truthy(item) {
					c++
				}
			}
			return c, nil
		}
		if truthy(args[0]) {
			return int64(1), nil
		}
		return int64(0), nil

	case "len":
		switch v := args[0].(type) {
		case string:
			return int64(utf8.RuneCountInString(v)), nil
		case []any:
			return int64(len(v)), nil
		}
		return nil, &TypeError{Op: "len", Message: fmt.Sprintf("argument must be a string or list, got %s", typeName(args[0]))}
	}

	return nil, &SyntaxError{Offset: n.offset, Token: n.fn, Message: "unknown function"}
}

// extremum implements min and max over variadic numeric arguments or a
// single list argument.
func (ev *evaluator) extremum(fn string, args []any) (any, error) {
	nums, err := numericArgs(fn, args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, &TypeError{Op: fn, Message: "empty list"}
	}

	best := nums[0]
	for _, v := range nums[1:] {
		lf, bf := asFloat(v), asFloat(best)
		if (fn == "min" && lf < bf) || (fn == "max" && lf > bf) {
			best = v
		}
	}
	return best, nil
}

func (ev *evaluator) sum(args []any) (any, error) {
	nums, err := numericArgs("sum", args)
	if err != nil {
		return nil, err
	}

	allInt := true
	var fsum float64
	var isum int64
	for _, v := range nums {
		if iv, ok := v.(int64); ok {
			isum += iv
		} else {
			allInt = false
		}
		fsum += asFloat(v)
	}
	if allInt {
		return isum, nil
	}
	return fsum, nil
}

// numericArgs flattens variadic arguments or a single list argument into a
// slice of numeric values.
func numericArgs(fn string, args []any) ([]any, error) {
	values := args
	if len(args) == 1 {
		if list, ok := args[0].([]any); ok {
			values = list
		}
	}
	for _, v := range values {
		if !isNumeric(v) {
			return nil, &TypeError{
				Op:      fn,
				Message: fmt.Sprintf("arguments must be numeric, got %s", typeName(v)),
			}
		}
	}
	return values, nil
}
