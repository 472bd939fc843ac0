package intensity

import "math"

// Stats holds intensity statistics of one channel.
type Stats struct {
	Length   int
	Mean     float64
	Variance float64 // sample variance (n-1)
	StdDev   float64
	Max      float64
	MaxPos   int
	Min      float64
	MinPos   int
	AbsMax   float64 // max(|max|, |min|)
	Range    float64 // max - min
	Energy   float64 // sum of squares
}

// Calculate computes all statistics in a single pass using Welford's online
// algorithm for numerical stability.
func Calculate(signal []float64) Stats {
	n := len(signal)
	if n == 0 {
		return Stats{}
	}

	var (
		mean   float64
		m2     float64
		sumSq  float64
		maxVal = signal[0]
		maxPos int
		minVal = signal[0]
		minPos int
	)

	for i, x := range signal {
		ni := float64(i + 1)
		delta := x - mean
		mean += delta / ni
		m2 += delta * (x - mean)

		sumSq += x * x

		if x > maxVal {
			maxVal = x
			maxPos = i
		}
		if x < minVal {
			minVal = x
			minPos = i
		}
	}

	var variance float64
	if n > 1 {
		variance = m2 / float64(n-1)
	}

	return Stats{
		Length:   n,
		Mean:     mean,
		Variance: variance,
		StdDev:   math.Sqrt(variance),
		Max:      maxVal,
		MaxPos:   maxPos,
		Min:      minVal,
		MinPos:   minPos,
		AbsMax:   math.Max(math.Abs(maxVal), math.Abs(minVal)),
		Range:    maxVal - minVal,
		Energy:   sumSq,
	}
}

// Mean returns the arithmetic mean of the signal.
func Mean(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// StdDev returns the sample standard deviation (n-1 denominator).
// Returns 0 for fewer than two values.
func StdDev(signal []float64) float64 {
	n := len(signal)
	if n < 2 {
		return 0
	}

	var mean, m2 float64
	for i, x := range signal {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}

	return math.Sqrt(m2 / float64(n-1))
}

// AbsMax returns the largest absolute value of the signal.
func AbsMax(signal []float64) float64 {
	var peak float64
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}
