package dynamo

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDomainfWraps(t *testing.T) {
	err := Domainf("balance: mass %v", -1.0)
	if !errors.Is(err, ErrNumericDomain) {
		t.Fatalf("expected ErrNumericDomain, got %v", err)
	}
	if !strings.Contains(err.Error(), "mass -1") {
		t.Errorf("message lost detail: %v", err)
	}
}

func TestStepErrorUnwrap(t *testing.T) {
	err := error(&StepError{Step: "evolve", Frame: 4, Wrapped: Domainf("bad dt")})
	if !errors.Is(err, ErrNumericDomain) {
		t.Error("StepError should unwrap to ErrNumericDomain")
	}
	var se *StepError
	if !errors.As(err, &se) || se.Frame != 4 {
		t.Errorf("errors.As failed: %v", err)
	}
}

func TestFrameError(t *testing.T) {
	fe := &FrameError{
		Frame: 2,
		Objects: []ObjectError{
			{Index: 1, Err: Domainf("x")},
			{Index: 3, Err: ErrCapability},
		},
	}

	if !errors.Is(fe, ErrNumericDomain) || !errors.Is(fe, ErrCapability) {
		t.Error("FrameError should expose every object error")
	}
	if errors.Is(fe, ErrClosed) {
		t.Error("unexpected ErrClosed")
	}

	got := fe.Failed()
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("Failed() = %v, want [1 3]", got)
	}
	if !strings.HasPrefix(fe.Error(), "frame 2: 2 object(s) failed") {
		t.Errorf("unexpected message %q", fe.Error())
	}
}

func TestStateHelpers(t *testing.T) {
	s := State{3, 4}
	c := s.Clone()
	c[0] = 10
	if s[0] != 3 {
		t.Error("Clone shares storage")
	}
	if s.Norm() != 5 {
		t.Errorf("Norm = %v, want 5", s.Norm())
	}
	if !s.IsValid() || (State{1, math.NaN()}).IsValid() {
		t.Error("IsValid wrong")
	}
}

func TestCheckFinite(t *testing.T) {
	if err := CheckFinite("ok", 1, 2, 3); err != nil {
		t.Errorf("unexpected error %v", err)
	}
	err := CheckFinite("mass", 1, math.Inf(1))
	if !errors.Is(err, ErrNumericDomain) {
		t.Errorf("expected domain error, got %v", err)
	}
}
