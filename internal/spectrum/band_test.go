package spectrum

import (
	"math"
	"testing"
)

func TestPeakInBand(t *testing.T) {
	hzPerBin := HzPerBin(44100, 2048)

	frame := make(Frame, 1024)
	frame[11] = 250 // just below band 1
	frame[12] = 60
	frame[14] = 90
	frame[15] = 70
	frame[16] = 255 // just above band 1

	tests := []struct {
		name     string
		frame    Frame
		band     FrequencyBand
		hzPerBin float64
		expected uint8
	}{
		{
			name:     "max within range only",
			frame:    frame,
			band:     DefaultBands[0],
			hzPerBin: hzPerBin,
			expected: 90,
		},
		{
			name:     "empty band returns zero",
			frame:    frame,
			band:     DefaultBands[2],
			hzPerBin: hzPerBin,
			expected: 0,
		},
		{
			name:     "band beyond frame clamps to last bin",
			frame:    Frame{1, 2, 3, 4},
			band:     FrequencyBand{LowHz: 10000, HighHz: 20000},
			hzPerBin: hzPerBin,
			expected: 4,
		},
		{
			name:     "empty frame",
			frame:    Frame{},
			band:     DefaultBands[0],
			hzPerBin: hzPerBin,
			expected: 0,
		},
		{
			name:     "non-positive bin width",
			frame:    frame,
			band:     DefaultBands[0],
			hzPerBin: 0,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeakInBand(tt.frame, tt.band, tt.hzPerBin)
			if got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestPeakInBand_Monotonic(t *testing.T) {
	hzPerBin := HzPerBin(48000, 2048)
	band := DefaultBands[1]

	low, high, ok := BinRange(band, hzPerBin, 1024)
	if !ok {
		t.Fatal("expected a bin range")
	}

	frame := make(Frame, 1024)
	for i := range frame {
		frame[i] = uint8((i * 37) % 200)
	}

	before := PeakInBand(frame, band, hzPerBin)
	for i := low; i <= high; i++ {
		bumped := make(Frame, len(frame))
		copy(bumped, frame)
		bumped[i] += 40

		after := PeakInBand(bumped, band, hzPerBin)
		if after < before {
			t.Fatalf("peak decreased from %d to %d after raising bin %d", before, after, i)
		}
		if after < bumped[i] {
			t.Fatalf("peak %d below raised bin value %d", after, bumped[i])
		}
	}
}

func TestBinRange(t *testing.T) {
	hzPerBin := HzPerBin(44100, 2048)

	low, high, ok := BinRange(DefaultBands[2], hzPerBin, 1024)
	if !ok {
		t.Fatal("expected ok")
	}

	if low != int(math.Round(550/hzPerBin)) || high != int(math.Round(750/hzPerBin)) {
		t.Errorf("unexpected range [%d, %d]", low, high)
	}
}
