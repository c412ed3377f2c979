package symbolic

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSymbolIdentity(t *testing.T) {
	a := NewSymbol("a")
	if a != NewSymbol("a") {
		t.Error("symbols with the same name should be identical")
	}
	if a == NewDynamicSymbol("a") {
		t.Error("static and dynamic symbols must differ")
	}
	if Key(NewSymbol("a|d")) == Key(NewDynamicSymbol("a")) {
		t.Error("a name containing a separator must not collide with a dynamic symbol")
	}
	if Key(NewSymbol("a|real")) == Key(NewSymbol("a", "real")) {
		t.Error("a name containing a separator must not collide with an assumption")
	}
	if NewSymbol("a", "real", "positive") != NewSymbol("a", "positive", "real") {
		t.Error("assumption order should not matter")
	}
	if a == NewSymbol("a", "real") {
		t.Error("assumptions take part in identity")
	}
	if got := NewDynamicSymbol("p_11").String(); got != "p_11(t)" {
		t.Errorf("expected p_11(t), got %s", got)
	}
}

func TestCanonicalForm(t *testing.T) {
	a, b, c := NewSymbol("a"), NewSymbol("b"), NewSymbol("c")

	tests := []struct {
		name string
		x, y Expr
	}{
		{"commutative add", Add(a, b), Add(b, a)},
		{"commutative mul", Mul(a, b), Mul(b, a)},
		{"distribution", Mul(a, Add(b, c)), Add(Mul(a, b), Mul(c, a))},
		{"like terms", Add(a, a), Scale(2, a)},
		{"constant folding", Add(Const(1), Const(2)), Const(3)},
		{"cancellation", Sub(Mul(a, b), Mul(b, a)), Zero()},
		{"identity", Mul(One(), a), a},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.x.Equal(tt.y) {
				t.Errorf("expected %s to equal %s", tt.x, tt.y)
			}
		})
	}
}

func TestZeroAbsorbs(t *testing.T) {
	a := NewSymbol("a")
	if !Mul(a, Zero()).IsZero() {
		t.Error("a*0 should be zero")
	}
	if !Add().IsZero() {
		t.Error("empty sum should be zero")
	}
}

func TestEval(t *testing.T) {
	a, b := NewSymbol("a"), NewSymbol("b")
	e := Add(Mul(Const(3), a, b), Neg(b), Const(1))

	v, err := e.Eval(Env{a: 2, b: 5})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	if v != 26 {
		t.Errorf("expected 26, got %f", v)
	}

	_, err = e.Eval(Env{a: 2})
	if !errors.Is(err, ErrUnbound) {
		t.Errorf("expected ErrUnbound, got %v", err)
	}
}

func TestSubsAndCompile(t *testing.T) {
	x, k := NewDynamicSymbol("x"), NewSymbol("k")
	e := Neg(Mul(k, x))

	bound := e.Subs(Values(Env{k: 4}))
	if got := Symbols(bound); len(got) != 1 || got[0] != x {
		t.Fatalf("expected only x after substitution, got %v", got)
	}

	fn, err := Compile(bound, []Symbol{x})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if got := fn([]float64{0.5}); math.Abs(got+2) > 1e-12 {
		t.Errorf("expected -2, got %f", got)
	}

	if _, err := Compile(e, []Symbol{x}); !errors.Is(err, ErrUnbound) {
		t.Errorf("expected ErrUnbound for k, got %v", err)
	}
}

func TestSubstitutionMap(t *testing.T) {
	a, b := NewSymbol("a"), NewSymbol("b")
	s := Substitution{{From: a, To: Const(1)}, {From: b, To: Const(2)}, {From: a, To: Const(9)}}

	m := s.Map()
	if len(m) != 2 || m[a] != Const(1) {
		t.Errorf("unexpected map %v", m)
	}

	back := FromMap(m)
	if len(back) != 2 || back[0].From != a {
		t.Errorf("expected sorted rules, got %v", back)
	}
}

func TestMatrixJoin(t *testing.T) {
	a, b := NewSymbol("a"), NewSymbol("b")
	left := Diag(a, b)
	right := Zeros(2, 1)

	joined, err := RowJoin(left, right)
	if err != nil {
		t.Fatalf("row join failed: %v", err)
	}
	if r, c := joined.Dims(); r != 2 || c != 3 {
		t.Fatalf("expected 2x3, got %dx%d", r, c)
	}
	if joined.At(1, 1) != b || !joined.At(1, 2).IsZero() {
		t.Errorf("unexpected layout %s", joined)
	}

	if _, err := RowJoin(left, Zeros(3, 1)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := ColJoin(left, Zeros(1, 3)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestMatrixArithmetic(t *testing.T) {
	a := NewSymbol("a")
	m, err := FromRows([][]Expr{{a, One()}, {Zero(), a}})
	if err != nil {
		t.Fatal(err)
	}

	sq, err := m.Mul(m)
	if err != nil {
		t.Fatalf("mul failed: %v", err)
	}

	got, err := sq.Eval(Env{a: 3})
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	want := mat.NewDense(2, 2, []float64{9, 6, 0, 9})
	if !mat.Equal(got, want) {
		t.Errorf("expected %v, got %v", mat.Formatted(want), mat.Formatted(got))
	}

	if !m.T().T().Equal(m) {
		t.Error("double transpose should be identity")
	}
	if _, err := m.Mul(Zeros(3, 1)); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
