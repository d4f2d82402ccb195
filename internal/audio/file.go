package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/spectrum"
)

// DefaultHopRate makes recordings play back at the live frame rate.
const DefaultHopRate = 60

// FileInput decodes a recording with ffmpeg and replays it one hop per frame.
type FileInput struct {
	Path       string
	SampleRate float64
	Analyser   spectrum.AnalyserConfig
	// Hop is the number of samples advanced per frame. Zero means
	// SampleRate / DefaultHopRate.
	Hop int
}

func (in FileInput) Open(ctx context.Context) (sensing.AudioStream, error) {
	if _, err := os.Stat(in.Path); err != nil {
		return nil, fmt.Errorf("recording not accessible: %w", err)
	}

	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	rate := in.SampleRate
	if rate <= 0 {
		rate = spectrum.DefaultSampleRate
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-loglevel", "error",
		"-i", in.Path,
		"-ac", "1",
		"-ar", strconv.Itoa(int(rate)),
		"-f", "s16le",
		"-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	samples := DecodeS16LE(stdout.Bytes(), make([]float64, 0, stdout.Len()/2))
	logrus.WithFields(logrus.Fields{
		"path":     in.Path,
		"samples":  len(samples),
		"duration": fmt.Sprintf("%.2fs", float64(len(samples))/rate),
	}).Info("Recording decoded")

	return NewSampleStream(samples, rate, in.Analyser, in.Hop)
}

// SampleStream replays an in-memory signal. Each ReadFrame analyses the
// window ending one hop further than the previous one and returns io.EOF once
// the signal is exhausted.
type SampleStream struct {
	samples    []float64
	sampleRate float64
	hop        int
	pos        int
	analyser   *spectrum.Analyser
}

func NewSampleStream(samples []float64, sampleRate float64, config spectrum.AnalyserConfig, hop int) (*SampleStream, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	analyser, err := spectrum.NewAnalyser(config)
	if err != nil {
		return nil, fmt.Errorf("invalid analyser config: %w", err)
	}
	if hop <= 0 {
		hop = int(sampleRate / DefaultHopRate)
	}

	return &SampleStream{
		samples:    samples,
		sampleRate: sampleRate,
		hop:        hop,
		analyser:   analyser,
	}, nil
}

func (s *SampleStream) ReadFrame(dst spectrum.Frame) error {
	if s.pos >= len(s.samples) {
		return io.EOF
	}

	end := min(s.pos+s.hop, len(s.samples))
	start := max(0, end-s.analyser.FFTSize())
	s.pos = end

	return s.analyser.ByteFrequencyData(s.samples[start:end], dst)
}

// Frames is the total number of frames the stream yields.
func (s *SampleStream) Frames() int {
	return (len(s.samples) + s.hop - 1) / s.hop
}

func (s *SampleStream) BinCount() int {
	return s.analyser.BinCount()
}

func (s *SampleStream) HzPerBin() float64 {
	return spectrum.HzPerBin(s.sampleRate, s.analyser.FFTSize())
}

func (s *SampleStream) Close() error {
	return nil
}
