package sensing

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Series collects the qualifying per-frame peaks of one band.
type Series []float64

// Accumulate appends value to series when it rises above the noise floor.
func Accumulate(series *Series, value, threshold float64) {
	if value > threshold {
		*series = append(*series, value)
	}
}

// ReduceToMean returns the rounded mean of series, or 0 when it is empty.
func ReduceToMean(series Series) int {
	if len(series) == 0 {
		return 0
	}
	return int(math.Round(stat.Mean(series, nil)))
}
