package window

import (
	"errors"
	"fmt"
	"math"
)

var (
	errEmptyTimes       = errors.New("window time axis must not be empty")
	errMismatchedLength = errors.New("samples and coefficients must have same length")
)

func validateTimes(times []float64) error {
	if len(times) == 0 {
		return errEmptyTimes
	}
	return nil
}

func validateFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite: %f", name, v)
	}
	return nil
}

func validateCenter(center float64) error {
	if center < 0 || center > 1 {
		return fmt.Errorf("gaussian center must be in [0,1]: %f", center)
	}
	return nil
}
