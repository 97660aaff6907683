package mathutil

import (
	"math"
	"testing"
)

func TestLogAdd(t *testing.T) {
	// log(exp(log(2)) + exp(log(3))) = log(5)
	a := math.Log(2)
	b := math.Log(3)
	got := LogAdd(a, b)
	want := math.Log(5)
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("LogAdd(log(2), log(3)) = %f, want %f", got, want)
	}
}

func TestLogAddCommutative(t *testing.T) {
	a := math.Log(0.8)
	b := math.Log(0.05)
	if LogAdd(a, b) != LogAdd(b, a) {
		t.Errorf("LogAdd not commutative: %v vs %v", LogAdd(a, b), LogAdd(b, a))
	}
}

func TestLogAddWithLogZero(t *testing.T) {
	a := math.Log(5)
	if got := LogAdd(LogZero, a); got != a {
		t.Errorf("LogAdd(LogZero, %f) = %f, want %f", a, got, a)
	}
	if got := LogAdd(a, LogZero); got != a {
		t.Errorf("LogAdd(%f, LogZero) = %f, want %f", a, got, a)
	}
	if got := LogAdd(LogZero, LogZero); !math.IsInf(got, -1) {
		t.Errorf("LogAdd(LogZero, LogZero) = %f, want -Inf", got)
	}
}

func TestLogAddLargeGap(t *testing.T) {
	// When the operands differ by more than the precision threshold the
	// larger one must come back unchanged, with no overflow.
	a := -3.0
	b := -200.0
	if got := LogAdd(a, b); got != a {
		t.Errorf("LogAdd(%f, %f) = %f, want %f", a, b, got, a)
	}
}

func TestLogSub(t *testing.T) {
	// log(exp(log(5)) - exp(log(3))) = log(2)
	a := math.Log(5)
	b := math.Log(3)
	got := LogSub(a, b)
	want := math.Log(2)
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("LogSub(log(5), log(3)) = %f, want %f", got, want)
	}
}

func TestLogSubWithLogZero(t *testing.T) {
	a := math.Log(5)
	if got := LogSub(a, LogZero); got != a {
		t.Errorf("LogSub(%f, LogZero) = %f, want %f", a, got, a)
	}
	if got := LogSub(a, a); !math.IsInf(got, -1) {
		t.Errorf("LogSub(a, a) = %f, want -Inf", got)
	}
}
