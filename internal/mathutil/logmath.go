package mathutil

import "math"

// LogZero is the additive identity in log-domain arithmetic: log(0).
// Combining any value with LogZero via LogAdd yields the other operand.
var LogZero = math.Inf(-1)

// LogAdd returns log(exp(a) + exp(b)) in a numerically stable way.
// Uses threshold-based early exit to skip expensive exp/log1p when the
// smaller value contributes less than float64 precision (exp(-36) ≈ 2.3e-16).
func LogAdd(a, b float64) float64 {
	if a < b {
		a, b = b, a
	}
	if math.IsInf(b, -1) {
		return a
	}
	d := b - a
	if d < -36.0 {
		return a
	}
	return a + math.Log1p(math.Exp(d))
}

// LogSub returns log(exp(a) - exp(b)), assuming a > b.
func LogSub(a, b float64) float64 {
	if math.IsInf(b, -1) {
		return a
	}
	if a <= b {
		return LogZero
	}
	return a + math.Log1p(-math.Exp(b-a))
}
