package sensing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kdimtricp/triakustika/internal/models"
	"github.com/kdimtricp/triakustika/internal/spectrum"
	"github.com/sirupsen/logrus"
)

// DefaultNoiseFloor is the minimum peak (0-255 scale) a frame must exceed to count.
const DefaultNoiseFloor = 40

var (
	ErrAlreadySensing   = errors.New("sensing session already active")
	ErrNotSensing       = errors.New("no active sensing session")
	ErrPermissionDenied = errors.New("microphone access denied")
)

type State int

const (
	Idle State = iota
	Sensing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sensing:
		return "sensing"
	default:
		return "unknown"
	}
}

// AudioSource grants access to an input device.
type AudioSource interface {
	Open(ctx context.Context) (AudioStream, error)
}

// AudioStream delivers one magnitude frame per call until closed.
type AudioStream interface {
	ReadFrame(dst spectrum.Frame) error
	BinCount() int
	HzPerBin() float64
	Close() error
}

type Config struct {
	Bands      [3]spectrum.FrequencyBand
	NoiseFloor float64
}

func DefaultConfig() Config {
	return Config{
		Bands:      spectrum.DefaultBands,
		NoiseFloor: DefaultNoiseFloor,
	}
}

type Status struct {
	State     string    `json:"state"`
	Live      [3]uint8  `json:"live"`
	Samples   [3]int    `json:"samples"`
	Frames    int       `json:"frames"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// Controller owns the microphone and the per-band series of one sensing
// session at a time. All state changes and frame ticks are serialised on mu,
// so a tick that starts after Stop has returned finds the controller idle.
type Controller struct {
	source    AudioSource
	scheduler FrameScheduler
	config    Config
	log       *logrus.Entry

	mu        sync.Mutex
	state     State
	stream    AudioStream
	cancel    func()
	session   int
	frame     spectrum.Frame
	series    [3]Series
	live      [3]uint8
	frames    int
	startedAt time.Time
}

func NewController(source AudioSource, scheduler FrameScheduler, config Config) *Controller {
	if scheduler == nil {
		scheduler = TickerScheduler{}
	}
	return &Controller{
		source:    source,
		scheduler: scheduler,
		config:    config,
		log:       logrus.WithField("component", "sensing"),
	}
}

// Start opens the audio input and begins sampling. It fails with
// ErrAlreadySensing while a session is running and leaves that session alone.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Sensing {
		return ErrAlreadySensing
	}

	stream, err := c.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	c.stream = stream
	c.frame = make(spectrum.Frame, stream.BinCount())
	c.series = [3]Series{}
	c.live = [3]uint8{}
	c.frames = 0
	c.startedAt = time.Now()
	c.state = Sensing
	c.session++
	session := c.session
	c.cancel = c.scheduler.Schedule(func() { c.tick(session) })

	c.log.WithFields(logrus.Fields{
		"bins":       stream.BinCount(),
		"hz_per_bin": stream.HzPerBin(),
	}).Info("Sensing started")

	return nil
}

// Stop halts sampling, releases the audio input and reduces the session to
// a FeatureTriple. It is valid only while sensing.
func (c *Controller) Stop() (models.FeatureTriple, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Sensing {
		return models.FeatureTriple{}, ErrNotSensing
	}

	c.cancel()
	c.cancel = nil
	c.state = Idle

	if err := c.stream.Close(); err != nil {
		c.log.WithError(err).Warn("Failed to close audio stream")
	}
	c.stream = nil

	features := models.FeatureTriple{
		F1: ReduceToMean(c.series[0]),
		F2: ReduceToMean(c.series[1]),
		F3: ReduceToMean(c.series[2]),
	}

	c.log.WithFields(logrus.Fields{
		"frames":   c.frames,
		"samples":  [3]int{len(c.series[0]), len(c.series[1]), len(c.series[2])},
		"features": features,
		"elapsed":  time.Since(c.startedAt).Round(time.Millisecond),
	}).Info("Sensing stopped")

	c.series = [3]Series{}
	return features, nil
}

// tick samples one frame for session. A tick from an earlier session that
// was already waiting on mu when it was cancelled does nothing.
func (c *Controller) tick(session int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Sensing || session != c.session {
		return
	}

	if err := c.stream.ReadFrame(c.frame); err != nil {
		c.log.WithError(err).Debug("Skipping frame")
		return
	}

	hzPerBin := c.stream.HzPerBin()
	for i, band := range c.config.Bands {
		peak := spectrum.PeakInBand(c.frame, band, hzPerBin)
		c.live[i] = peak
		Accumulate(&c.series[i], float64(peak), c.config.NoiseFloor)
	}
	c.frames++
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		State:  c.state.String(),
		Live:   c.live,
		Frames: c.frames,
		Samples: [3]int{
			len(c.series[0]),
			len(c.series[1]),
			len(c.series[2]),
		},
	}
	if c.state == Sensing {
		status.StartedAt = c.startedAt
	}
	return status
}
