package formula

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/parallelphysics/internal/dynamo"
)

const tol = 1e-9

func TestBalanceReferenceValues(t *testing.T) {
	tests := []struct {
		mass, c  float64
		expected float64
	}{
		{10, 1, math.Log(11)},
		{20, 2, 2 * math.Log(11)},
		{50, 5, 5 * math.Log(11)},
		{0, 3, 0},
	}

	for _, tt := range tests {
		got, err := Balance(tt.mass, tt.c)
		if err != nil {
			t.Fatalf("balance(%v, %v): %v", tt.mass, tt.c, err)
		}
		if math.Abs(got-tt.expected) > tol {
			t.Errorf("balance(%v, %v) = %.10f, expected %.10f", tt.mass, tt.c, got, tt.expected)
		}
	}
}

func TestBalanceFiniteAndDeterministic(t *testing.T) {
	for m := 1.0; m <= 100; m += 3.3 {
		for _, c := range []float64{1, 2, 5} {
			a, err := Balance(m, c)
			if err != nil {
				t.Fatalf("balance(%v, %v): %v", m, c, err)
			}
			b, _ := Balance(m, c)
			if !dynamo.IsFinite(a) || a != b {
				t.Errorf("balance(%v, %v) not finite/deterministic: %v vs %v", m, c, a, b)
			}
		}
	}
}

func TestBalanceMonotonic(t *testing.T) {
	prev := -1.0
	for m := 0.0; m <= 100; m++ {
		v, err := Balance(m, 2)
		if err != nil {
			t.Fatal(err)
		}
		if v <= prev {
			t.Fatalf("balance not increasing at mass %v: %v <= %v", m, v, prev)
		}
		prev = v
	}
}

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"balance negative mass", func() error { _, err := Balance(-1, 1); return err }},
		{"balance zero const", func() error { _, err := Balance(1, 0); return err }},
		{"balance negative const", func() error { _, err := Balance(1, -2); return err }},
		{"correlation zero mass", func() error { _, err := Correlation(10, 0); return err }},
		{"evolve negative time", func() error { _, err := Evolve(10, -1); return err }},
		{"evolve nan energy", func() error { _, err := Evolve(math.NaN(), 1); return err }},
		{"transform empty", func() error { _, err := Transform(nil, 0.1); return err }},
		{"transform inf state", func() error { _, err := Transform(dynamo.State{math.Inf(1), 0}, 0.1); return err }},
		{"survival adaptability", func() error { _, err := Survival(10, 1.5); return err }},
		{"disperse negative", func() error { _, err := Disperse([]float64{1, -1}); return err }},
		{"mass negative energy", func() error { _, err := IncreaseMass(-5, 10); return err }},
		{"emc2 zero mass", func() error { _, err := EMC2(10, 0); return err }},
		{"field overflow", func() error { _, err := FieldMapping(1, math.Inf(1)); return err }},
		{"force overflow", func() error { _, err := InputForce([]float64{math.MaxFloat64, math.MaxFloat64}); return err }},
	}

	for _, tt := range tests {
		err := tt.fn()
		if !errors.Is(err, dynamo.ErrNumericDomain) {
			t.Errorf("%s: expected ErrNumericDomain, got %v", tt.name, err)
		}
	}
}

func TestEvolveZeroTimestepIdentity(t *testing.T) {
	for _, e := range []float64{0, 1, 50, 100, 1e6} {
		got, err := Evolve(e, 0)
		if err != nil {
			t.Fatal(err)
		}
		if got != e {
			t.Errorf("evolve(%v, 0) = %v", e, got)
		}
	}
}

func TestEvolveDecays(t *testing.T) {
	got, err := Evolve(100, 10)
	if err != nil {
		t.Fatal(err)
	}
	expected := 100 * math.Exp(-0.5)
	if math.Abs(got-expected) > tol {
		t.Errorf("expected %f, got %f", expected, got)
	}
	if got < 0 {
		t.Error("evolved energy must be non-negative")
	}
}

func TestIncreaseMassNeverDecreases(t *testing.T) {
	for e := 0.0; e <= 500; e += 25 {
		for _, m := range []float64{0.5, 5, 10, 20, 50} {
			got, err := IncreaseMass(e, m)
			if err != nil {
				t.Fatal(err)
			}
			if got < m {
				t.Errorf("increase mass(%v, %v) = %v < mass", e, m, got)
			}
		}
	}

	got, _ := IncreaseMass(50, 10)
	if math.Abs(got-10.05) > tol {
		t.Errorf("expected 10.05, got %v", got)
	}
}

func TestTransformPreservesLength(t *testing.T) {
	states := []dynamo.State{{1}, {1, 1, 1}, {3, 4, 0}, {-1, 2, -3, 4, -5}}
	for _, s := range states {
		for _, f := range []float64{0, 0.1, 0.5, 1} {
			out, err := Transform(s, f)
			if err != nil {
				t.Fatal(err)
			}
			if len(out) != len(s) {
				t.Errorf("transform changed length %d -> %d", len(s), len(out))
			}
		}
	}
}

func TestTransformZeroForce(t *testing.T) {
	s := dynamo.State{1.5, -2, 0.25}
	out, err := Transform(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range s {
		if math.Abs(out[i]-s[i]) > tol {
			t.Errorf("component %d moved under zero force: %v -> %v", i, s[i], out[i])
		}
	}

	again, _ := Transform(s, 0)
	for i := range out {
		if out[i] != again[i] {
			t.Error("transform is not reproducible")
		}
	}
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	s := dynamo.State{1, 2, 3}
	if _, err := Transform(s, 0.7); err != nil {
		t.Fatal(err)
	}
	if s[0] != 1 || s[1] != 2 || s[2] != 3 {
		t.Errorf("input mutated: %v", s)
	}
}

func TestTransformPreservesNorm(t *testing.T) {
	states := []dynamo.State{{3, 4, 0}, {1, 1, 1}, {-1, 2, -3, 4, -5}}
	for _, s := range states {
		for _, f := range []float64{0.1, 0.5, 1, -2} {
			out, err := Transform(s, f)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(out.Norm()-s.Norm()) > tol {
				t.Errorf("Transform(%v, %v) norm %f, want %f", s, f, out.Norm(), s.Norm())
			}
		}
	}
}

func TestTransformMovesUniformState(t *testing.T) {
	seed := dynamo.State{1, 1, 1}
	var prev dynamo.State
	for _, f := range []float64{0.1, 0.5, 1} {
		out, err := Transform(seed, f)
		if err != nil {
			t.Fatal(err)
		}

		sin, cos := math.Sincos(f)
		expected := dynamo.State{
			cos + sin,
			(cos-sin)*cos + sin,
			cos - (cos-sin)*sin,
		}
		moved := false
		for i := range out {
			if math.Abs(out[i]-expected[i]) > tol {
				t.Errorf("force %v component %d: expected %f, got %f", f, i, expected[i], out[i])
			}
			if math.Abs(out[i]-1) > 1e-3 {
				moved = true
			}
		}
		if !moved {
			t.Errorf("force %v left the uniform state in place: %v", f, out)
		}
		if prev != nil && math.Abs(prev[0]-out[0]) < 1e-3 {
			t.Errorf("forces gave the same state: %v and %v", prev, out)
		}
		prev = out
	}
}

func TestDisperse(t *testing.T) {
	tests := []struct {
		in       []float64
		expected []float64
	}{
		{[]float64{10, 20, 30}, []float64{1.0 / 6, 1.0 / 3, 0.5}},
		{[]float64{50, 50, 50}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
		{[]float64{100, 50, 25}, []float64{100.0 / 175, 50.0 / 175, 25.0 / 175}},
		{[]float64{0, 0}, []float64{0.5, 0.5}},
		{[]float64{}, []float64{}},
	}

	for _, tt := range tests {
		got, err := Disperse(tt.in)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != len(tt.in) {
			t.Fatalf("disperse(%v) length %d", tt.in, len(got))
		}
		sum := 0.0
		for i := range got {
			if got[i] < 0 || got[i] > 1 {
				t.Errorf("disperse(%v)[%d] = %v outside [0, 1]", tt.in, i, got[i])
			}
			if math.Abs(got[i]-tt.expected[i]) > tol {
				t.Errorf("disperse(%v)[%d] = %v, expected %v", tt.in, i, got[i], tt.expected[i])
			}
			sum += got[i]
		}
		if len(got) > 0 && math.Abs(sum-1) > 1e-12 {
			t.Errorf("disperse(%v) sums to %v", tt.in, sum)
		}
	}
}

func TestDisperseSymmetry(t *testing.T) {
	for _, x := range []float64{0, 1e-9, 7, 1e9} {
		got, err := Disperse([]float64{x, x, x})
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != got[1] || got[1] != got[2] {
			t.Errorf("asymmetric dispersion for %v: %v", x, got)
		}
	}
}

func TestScalarFormulas(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() (float64, error)
		expected float64
	}{
		{"correlation", func() (float64, error) { return Correlation(100, 5) }, math.Tanh(2)},
		{"action", func() (float64, error) { return ActionPotential(10, 5, 2) }, 10 + 5*(1-math.Exp(-2))},
		{"survival", func() (float64, error) { return Survival(10, 0.5) }, 5 + 0.5*math.Sqrt(10)},
		{"survival full", func() (float64, error) { return Survival(50, 1) }, 50},
		{"emc2", func() (float64, error) { return EMC2(100, 5) }, 100 / (5 * SpeedOfLight * SpeedOfLight)},
		{"field", func() (float64, error) { return FieldMapping(1, 10) }, 10 * math.Tanh(1)},
		{"force", func() (float64, error) { return InputForce([]float64{1, 2, 3}) }, math.Sqrt(14)},
		{"force negative", func() (float64, error) { return InputForce([]float64{-1, 1, -1}) }, math.Sqrt(3)},
		{"force zero", func() (float64, error) { return InputForce([]float64{0, 0, 0}) }, 0},
		{"force empty", func() (float64, error) { return InputForce(nil) }, 0},
	}

	for _, tt := range tests {
		got, err := tt.fn()
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if math.Abs(got-tt.expected) > tol*math.Max(1, math.Abs(tt.expected)) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.expected, got)
		}
	}
}

func TestCorrelationRange(t *testing.T) {
	for e := 10.0; e <= 500; e += 10 {
		for _, m := range []float64{5, 10, 20} {
			v, err := Correlation(e, m)
			if err != nil {
				t.Fatal(err)
			}
			if v < 0 || v >= 1 {
				t.Errorf("correlation(%v, %v) = %v outside [0, 1)", e, m, v)
			}
		}
	}
}

func TestEngineValidate(t *testing.T) {
	if err := DefaultEngine.Validate(); err != nil {
		t.Fatalf("default engine invalid: %v", err)
	}
	bad := DefaultEngine
	bad.CorrelationScale = 0
	if err := bad.Validate(); !errors.Is(err, dynamo.ErrNumericDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}

func TestCatalog(t *testing.T) {
	cat := DefaultEngine.Catalog()
	names := DefaultEngine.Names()
	if len(names) != len(cat) {
		t.Fatalf("names %d, catalog %d", len(names), len(cat))
	}

	got, err := cat["balance"].Call(10, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-math.Log(11)) > tol {
		t.Errorf("catalog balance = %v", got)
	}

	if _, err := cat["balance"].Call(10); err == nil {
		t.Error("expected arity error")
	}
}
