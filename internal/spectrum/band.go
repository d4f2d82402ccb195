package spectrum

import (
	"fmt"
	"math"
)

// Frame is one snapshot of frequency-bin magnitudes on a 0-255 scale.
type Frame []uint8

// FrequencyBand is an inclusive Hz range.
type FrequencyBand struct {
	LowHz  float64 `json:"low_hz"`
	HighHz float64 `json:"high_hz"`
}

func (b FrequencyBand) String() string {
	return fmt.Sprintf("%.0f-%.0fHz", b.LowHz, b.HighHz)
}

// DefaultBands are the three resonance bands sampled during a session, lowest first.
var DefaultBands = [3]FrequencyBand{
	{LowHz: 250, HighHz: 320},
	{LowHz: 350, HighHz: 480},
	{LowHz: 550, HighHz: 750},
}

// HzPerBin returns the width of one FFT bin.
func HzPerBin(sampleRate float64, fftSize int) float64 {
	if fftSize <= 0 {
		return 0
	}
	return sampleRate / float64(fftSize)
}

// BinRange converts a band to inclusive bin indices clamped to a frame of n bins.
// ok is false when there is nothing to scan.
func BinRange(band FrequencyBand, hzPerBin float64, n int) (low, high int, ok bool) {
	if n == 0 || hzPerBin <= 0 {
		return 0, 0, false
	}

	low = clamp(int(math.Round(band.LowHz/hzPerBin)), 0, n-1)
	high = clamp(int(math.Round(band.HighHz/hzPerBin)), 0, n-1)
	if low > high {
		low, high = high, low
	}
	return low, high, true
}

// PeakInBand returns the largest magnitude found in the band's bins.
// Bin indices outside the frame are clamped to its edges.
func PeakInBand(frame Frame, band FrequencyBand, hzPerBin float64) uint8 {
	low, high, ok := BinRange(band, hzPerBin, len(frame))
	if !ok {
		return 0
	}

	var peak uint8
	for _, v := range frame[low : high+1] {
		if v > peak {
			peak = v
		}
	}
	return peak
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
