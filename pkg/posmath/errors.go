package posmath

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument 参数不满足前置条件（非正价格、杠杆小于1、NaN/Inf）
var ErrInvalidArgument = errors.New("invalid argument")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkPositive(name string, v float64) error {
	if !isFinite(v) {
		return invalid("%s must be finite, got %v", name, v)
	}
	if v <= 0 {
		return invalid("%s must be positive, got %v", name, v)
	}
	return nil
}

func checkLeverage(leverage int) error {
	if leverage < 1 {
		return invalid("leverage must be >= 1, got %d", leverage)
	}
	return nil
}
