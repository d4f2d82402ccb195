package spectrum

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultFFTSize    = 2048
	DefaultSampleRate = 44100.0
	DefaultSmoothing  = 0.8
	DefaultMinDB      = -100.0
	DefaultMaxDB      = -30.0
)

type AnalyserConfig struct {
	FFTSize   int
	Smoothing float64
	MinDB     float64
	MaxDB     float64
}

func DefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:   DefaultFFTSize,
		Smoothing: DefaultSmoothing,
		MinDB:     DefaultMinDB,
		MaxDB:     DefaultMaxDB,
	}
}

// Analyser turns windows of PCM samples into byte magnitude frames, mirroring
// a browser analyser node: Blackman window, real FFT, temporal smoothing and
// a linear map of the [MinDB, MaxDB] range onto 0-255.
//
// An Analyser keeps smoothing state between calls and is not safe for
// concurrent use.
type Analyser struct {
	config   AnalyserConfig
	window   []float64
	windowed []float64
	smoothed []float64
}

func NewAnalyser(config AnalyserConfig) (*Analyser, error) {
	if config.FFTSize < 32 || config.FFTSize&(config.FFTSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 32, got %d", config.FFTSize)
	}
	if config.Smoothing < 0 || config.Smoothing >= 1 {
		return nil, fmt.Errorf("smoothing must be in [0, 1), got %f", config.Smoothing)
	}
	if config.MaxDB <= config.MinDB {
		return nil, fmt.Errorf("max dB (%f) must exceed min dB (%f)", config.MaxDB, config.MinDB)
	}

	return &Analyser{
		config:   config,
		window:   window.Blackman(config.FFTSize),
		windowed: make([]float64, config.FFTSize),
		smoothed: make([]float64, config.FFTSize/2),
	}, nil
}

func (a *Analyser) FFTSize() int {
	return a.config.FFTSize
}

// BinCount is the length of the frames produced by ByteFrequencyData.
func (a *Analyser) BinCount() int {
	return a.config.FFTSize / 2
}

// ByteFrequencyData fills dst with the magnitudes of the given samples.
// samples shorter than the FFT size are zero-padded at the front; longer
// inputs use only their most recent FFTSize samples.
func (a *Analyser) ByteFrequencyData(samples []float64, dst Frame) error {
	if len(dst) < a.BinCount() {
		return fmt.Errorf("frame buffer too small: %d < %d", len(dst), a.BinCount())
	}

	n := a.config.FFTSize
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	pad := n - len(samples)
	for i := 0; i < pad; i++ {
		a.windowed[i] = 0
	}
	copy(a.windowed[pad:], samples)
	floats.Mul(a.windowed, a.window)

	spectrum := fft.FFTReal(a.windowed)

	tau := a.config.Smoothing
	scale := 255.0 / (a.config.MaxDB - a.config.MinDB)
	for k := range a.smoothed {
		mag := cmplx.Abs(spectrum[k]) / float64(n)
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		dst[k] = toByte(a.smoothed[k], a.config.MinDB, scale)
	}
	return nil
}

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	for i := range a.smoothed {
		a.smoothed[i] = 0
	}
}

func toByte(mag, minDB, scale float64) uint8 {
	if mag <= 0 {
		return 0
	}
	v := math.Floor(scale * (20*math.Log10(mag) - minDB))
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
