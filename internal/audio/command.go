package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/spectrum"
)

var ErrStreamClosed = errors.New("audio stream closed")

// DefaultStartTimeout bounds how long Open waits for the first audio bytes.
const DefaultStartTimeout = 2 * time.Second

// CommandInput captures live audio by running an external tool that writes
// mono s16le PCM to stdout.
type CommandInput struct {
	Device     string
	SampleRate float64
	Analyser   spectrum.AnalyserConfig
	// Command replaces tool discovery when set.
	Command      []string
	StartTimeout time.Duration
}

func (in CommandInput) Open(ctx context.Context) (sensing.AudioStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rate := in.SampleRate
	if rate <= 0 {
		rate = spectrum.DefaultSampleRate
	}

	analyser, err := spectrum.NewAnalyser(in.Analyser)
	if err != nil {
		return nil, fmt.Errorf("invalid analyser config: %w", err)
	}

	args := in.Command
	if len(args) == 0 {
		args, err = captureCommand(runtime.GOOS, in.Device, rate, exec.LookPath)
		if err != nil {
			return nil, err
		}
	}

	timeout := in.StartTimeout
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}

	stderr := &tailBuffer{limit: 2048}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	log := logrus.WithFields(logrus.Fields{
		"tool": args[0],
		"pid":  cmd.Process.Pid,
	})

	// A denied or busy device makes the tool exit before writing any audio.
	stream := newLiveStream(stdout, cmd, rate, analyser)
	if err := stream.waitForAudio(ctx, timeout); err != nil {
		_ = stream.Close()
		if msg := stderr.String(); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		log.WithError(err).Warn("Audio capture failed to start")
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}

	log.WithField("sample_rate", rate).Info("Audio capture started")
	return stream, nil
}

// tailBuffer keeps the first limit bytes written to it. It is read only after
// the process has been waited for.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	if room := b.limit - len(b.buf); room > 0 {
		b.buf = append(b.buf, p[:min(room, len(p))]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.buf))
}

// captureCommand picks a capture tool for the platform. arecord is preferred
// on Linux; ffmpeg is the fallback there and the only option on macOS.
func captureCommand(goos, device string, rate float64, lookPath func(string) (string, error)) ([]string, error) {
	sr := strconv.Itoa(int(rate))

	switch goos {
	case "linux":
		if device == "" {
			device = "default"
		}
		if path, err := lookPath("arecord"); err == nil {
			return []string{path, "-q", "-D", device, "-f", "S16_LE", "-c", "1", "-r", sr, "-t", "raw", "-"}, nil
		}
		if path, err := lookPath("ffmpeg"); err == nil {
			return []string{path, "-loglevel", "error", "-f", "alsa", "-i", device, "-ac", "1", "-ar", sr, "-f", "s16le", "-"}, nil
		}
		return nil, fmt.Errorf("no audio capture tool available (tried arecord, ffmpeg)")
	case "darwin":
		if device == "" {
			device = ":0"
		}
		if path, err := lookPath("ffmpeg"); err == nil {
			return []string{path, "-loglevel", "error", "-f", "avfoundation", "-i", device, "-ac", "1", "-ar", sr, "-f", "s16le", "-"}, nil
		}
		return nil, fmt.Errorf("no audio capture tool available (tried ffmpeg)")
	default:
		return nil, fmt.Errorf("audio capture not supported on %s", goos)
	}
}

// liveStream reads PCM on its own goroutine. ReadFrame analyses the latest
// FFT-size window and never blocks on the capture tool.
type liveStream struct {
	body       io.ReadCloser
	proc       *exec.Cmd
	sampleRate float64
	analyser   *spectrum.Analyser
	done       chan struct{}
	ready      chan struct{}
	readyOnce  sync.Once
	closeOnce  sync.Once

	mu      sync.Mutex
	ring    *ring
	window  []float64
	readErr error
	closed  bool
}

func newLiveStream(body io.ReadCloser, proc *exec.Cmd, sampleRate float64, analyser *spectrum.Analyser) *liveStream {
	s := &liveStream{
		body:       body,
		proc:       proc,
		sampleRate: sampleRate,
		analyser:   analyser,
		done:       make(chan struct{}),
		ready:      make(chan struct{}),
		ring:       newRing(analyser.FFTSize()),
		window:     make([]float64, 0, analyser.FFTSize()),
	}
	go s.readLoop()
	return s
}

func (s *liveStream) readLoop() {
	defer close(s.done)

	buf := make([]byte, 4096)
	samples := make([]float64, 0, len(buf)/2)
	pending := 0
	for {
		n, err := s.body.Read(buf[pending:])
		n += pending
		even := n &^ 1

		samples = DecodeS16LE(buf[:even], samples[:0])
		s.mu.Lock()
		s.ring.write(samples)
		s.mu.Unlock()
		if even > 0 {
			s.readyOnce.Do(func() { close(s.ready) })
		}

		pending = n - even
		if pending > 0 {
			buf[0] = buf[even]
		}

		if err != nil {
			s.mu.Lock()
			s.readErr = err
			s.mu.Unlock()
			return
		}
	}
}

// waitForAudio returns once the first samples have arrived. It fails when
// the capture ends first, when nothing arrives within timeout, or when ctx
// is done.
func (s *liveStream) waitForAudio(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ready:
		return nil
	case <-s.done:
		select {
		case <-s.ready:
			return nil
		default:
		}
		s.mu.Lock()
		err := s.readErr
		s.mu.Unlock()
		return fmt.Errorf("capture ended before any audio: %w", err)
	case <-timer.C:
		return fmt.Errorf("no audio within %v", timeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *liveStream) ReadFrame(dst spectrum.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStreamClosed
	}
	if s.readErr != nil {
		return fmt.Errorf("capture ended: %w", s.readErr)
	}

	s.window = s.ring.snapshot(s.window)
	return s.analyser.ByteFrequencyData(s.window, dst)
}

func (s *liveStream) BinCount() int {
	return s.analyser.BinCount()
}

func (s *liveStream) HzPerBin() float64 {
	return spectrum.HzPerBin(s.sampleRate, s.analyser.FFTSize())
}

// Close stops the capture tool and waits for the reader to exit.
func (s *liveStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		if s.proc != nil && s.proc.Process != nil {
			_ = s.proc.Process.Kill()
		}
		err = s.body.Close()
		<-s.done

		if s.proc != nil {
			// The tool was killed, so its exit status carries no information.
			_ = s.proc.Wait()
			logrus.WithField("pid", s.proc.Process.Pid).Info("Audio capture stopped")
		}
	})
	if errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
