package oddsmath_test

import (
	"math"
	"testing"

	"github.com/xavierbriggs/decision-core/internal/oddsmath"
)

func TestComputeEVTwoWay(t *testing.T) {
	// MLB moneyline: home -150, model p=0.66.
	ev, err := oddsmath.ComputeEVTwoWay(0.66, 0.0, -150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 10.0
	if math.Abs(ev-want) > 0.5 {
		t.Errorf("EV = %f, want ~%f", ev, want)
	}
}

func TestSymmetryTolerance(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{10000, 0.02},
		{4000000, 0.0015},
	}
	for _, tt := range tests {
		got := oddsmath.SymmetryTolerance(tt.n)
		if got < tt.want*0.5 || got > tt.want*1.5 {
			t.Errorf("SymmetryTolerance(%d) = %f, want ~%f", tt.n, got, tt.want)
		}
	}
}

func TestValidateSymmetry(t *testing.T) {
	_, _, ok := oddsmath.ValidateSymmetry(0.52, 0.48, 0.0, 10000)
	if !ok {
		t.Error("expected symmetric result to pass")
	}
	_, _, ok = oddsmath.ValidateSymmetry(0.70, 0.48, 0.0, 10000)
	if ok {
		t.Error("expected grossly asymmetric result to fail")
	}
}
