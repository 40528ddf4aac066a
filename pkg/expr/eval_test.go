package expr

import (
	"errors"
	"testing"
)

func mustCompile(t *testing.T, source string) *Program {
	t.Helper()
	prog, err := Compile(source, nil)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", source, err)
	}
	return prog
}

// TestEvalBool_Conditions tests end-to-end condition evaluation.
func TestEvalBool_Conditions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		env    Environment
		want   bool
	}{
		{
			name:   "current ratio below floor",
			source: "流动比率 > 1.2",
			env:    Environment{"流动比率": 0.9},
			want:   false,
		},
		{
			name:   "current ratio above floor",
			source: "流动比率 > 1.2",
			env:    Environment{"流动比率": 1.5},
			want:   true,
		},
		{
			name:   "cash flow divergence",
			source: "abs(经营现金流 - 净利润) / 净利润 > 0.5",
			env:    Environment{"经营现金流": 100.0, "净利润": 400.0},
			want:   true,
		},
		{
			name:   "boolean combination short-circuits",
			source: "资产负债率 > 0.9 AND 未知字段 > 0",
			env:    Environment{"资产负债率": 0.5},
			want:   false,
		},
		{
			name:   "or with true left",
			source: "a > 1 OR b > 1",
			env:    Environment{"a": 2},
			want:   true,
		},
		{
			name:   "not",
			source: "NOT a > 1",
			env:    Environment{"a": 0.5},
			want:   true,
		},
		{
			name:   "string equality",
			source: "审计意见 == \"标准无保留\"",
			env:    Environment{"审计意见": "标准无保留"},
			want:   true,
		},
		{
			name:   "integer modulo",
			source: "a % 2 == 0",
			env:    Environment{"a": 4},
			want:   true,
		},
		{
			name:   "sum over list field",
			source: "sum(月度营收) > 100",
			env:    Environment{"月度营收": []any{40, 50, 60}},
			want:   true,
		},
		{
			name:   "count truthy elements",
			source: "count(异常科目) == 2",
			env:    Environment{"异常科目": []any{"应收账款", "", "存货"}},
			want:   true,
		},
		{
			name:   "len of string",
			source: "len(备注) == 0",
			env:    Environment{"备注": ""},
			want:   true,
		},
		{
			name:   "min max",
			source: "min(a, b) < max(a, b)",
			env:    Environment{"a": 1, "b": 2},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustCompile(t, tt.source).EvalBool(tt.env)
			if err != nil {
				t.Fatalf("EvalBool failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("EvalBool(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

// TestEval_NumericPromotion tests integer preservation and widening.
func TestEval_NumericPromotion(t *testing.T) {
	tests := []struct {
		name   string
		source string
		env    Environment
		want   any
	}{
		{name: "int plus int", source: "a + b", env: Environment{"a": 1, "b": 2}, want: int64(3)},
		{name: "int times float", source: "a * b", env: Environment{"a": 2, "b": 1.5}, want: float64(3)},
		{name: "division is float", source: "a / b", env: Environment{"a": 4, "b": 2}, want: float64(2)},
		{name: "sum of ints is int", source: "sum(1, 2, 3)", env: Environment{}, want: int64(6)},
		{name: "sum widens on float", source: "sum(1, 2.5)", env: Environment{}, want: float64(3.5)},
		{name: "abs of negative int", source: "abs(0 - 5)", env: Environment{}, want: int64(5)},
		{name: "unary minus", source: "-a", env: Environment{"a": 7}, want: int64(-7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustCompile(t, tt.source).Eval(tt.env)
			if err != nil {
				t.Fatalf("Eval failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Eval(%q) = %v (%T), want %v (%T)", tt.source, got, got, tt.want, tt.want)
			}
		})
	}
}

// TestEval_EpsilonEquality tests the floating-point equality tolerance.
func TestEval_EpsilonEquality(t *testing.T) {
	tests := []struct {
		name   string
		source string
		env    Environment
		want   bool
	}{
		{name: "within epsilon", source: "a == 0.3", env: Environment{"a": 0.1 + 0.2}, want: true},
		{name: "outside epsilon", source: "a == 0.3", env: Environment{"a": 0.301}, want: false},
		{name: "int equality exact", source: "a == 3", env: Environment{"a": 3}, want: true},
		{name: "mixed int float within", source: "a == 3", env: Environment{"a": 3.0000001}, want: true},
		{name: "not equal respects epsilon", source: "a != 0.3", env: Environment{"a": 0.1 + 0.2}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustCompile(t, tt.source).EvalBool(tt.env)
			if err != nil {
				t.Fatalf("EvalBool failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("EvalBool(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

// TestEval_TypedFailures tests the evaluation-time error taxonomy.
func TestEval_TypedFailures(t *testing.T) {
	t.Run("unbound field", func(t *testing.T) {
		_, err := mustCompile(t, "营业收入 > 0").EvalBool(Environment{"净利润": 1})
		var unbound *UnboundFieldError
		if !errors.As(err, &unbound) {
			t.Fatalf("error = %v, want *UnboundFieldError", err)
		}
		if unbound.Field != "营业收入" {
			t.Errorf("Field = %q, want %q", unbound.Field, "营业收入")
		}
	})

	t.Run("division by zero", func(t *testing.T) {
		env := Environment{"经营现金流": 100, "净利润": 0}
		_, err := mustCompile(t, "abs(经营现金流 - 净利润) / 净利润 > 0.5").EvalBool(env)
		var arith *ArithmeticError
		if !errors.As(err, &arith) {
			t.Fatalf("error = %v, want *ArithmeticError", err)
		}
	})

	t.Run("modulo by zero", func(t *testing.T) {
		_, err := mustCompile(t, "a % b == 0").EvalBool(Environment{"a": 1, "b": 0})
		var arith *ArithmeticError
		if !errors.As(err, &arith) {
			t.Fatalf("error = %v, want *ArithmeticError", err)
		}
	})

	t.Run("type mismatch in arithmetic", func(t *testing.T) {
		_, err := mustCompile(t, "a * 2 > 0").EvalBool(Environment{"a": "text"})
		var typeErr *TypeError
		if !errors.As(err, &typeErr) {
			t.Fatalf("error = %v, want *TypeError", err)
		}
	})

	t.Run("type mismatch in comparison", func(t *testing.T) {
		_, err := mustCompile(t, "a == 1").EvalBool(Environment{"a": "text"})
		var typeErr *TypeError
		if !errors.As(err, &typeErr) {
			t.Fatalf("error = %v, want *TypeError", err)
		}
	})
}

// TestEval_Pure tests that repeated evaluation of the same (condition,
// Environment) pair always yields the same verdict.
func TestEval_Pure(t *testing.T) {
	prog := mustCompile(t, "abs(经营现金流 - 净利润) / 净利润 > 0.5")
	env := Environment{"经营现金流": 100.0, "净利润": 400.0}

	first, err := prog.EvalBool(env)
	if err != nil {
		t.Fatalf("EvalBool failed: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := prog.EvalBool(env)
		if err != nil {
			t.Fatalf("EvalBool failed on iteration %d: %v", i, err)
		}
		if got != first {
			t.Fatalf("iteration %d: EvalBool = %v, want %v", i, got, first)
		}
	}
}

// TestCache_CompilesOnce tests the compilation cache.
func TestCache_CompilesOnce(t *testing.T) {
	cache := NewCache(nil)

	progA, err := cache.Get("流动比率 > 1.2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	progB, err := cache.Get("流动比率 > 1.2")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if progA != progB {
		t.Error("cache returned distinct programs for identical source")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}

	// Errors are memoized too.
	if _, err := cache.Get("eval(x)"); err == nil {
		t.Fatal("Get of malformed condition succeeded")
	}
	if _, err := cache.Get("eval(x)"); err == nil {
		t.Fatal("cached Get of malformed condition succeeded")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}
