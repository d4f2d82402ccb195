package sensing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kdimtricp/triakustika/internal/models"
	"github.com/kdimtricp/triakustika/internal/spectrum"
)

const testHzPerBin = 44100.0 / 2048

// Bins inside each default band at testHzPerBin.
var testBins = [3]int{14, 20, 30}

type mockStream struct {
	mu     sync.Mutex
	peaks  [][3]uint8
	reads  int
	closed bool
}

func (s *mockStream) ReadFrame(dst spectrum.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	if len(s.peaks) > 0 {
		p := s.peaks[0]
		s.peaks = s.peaks[1:]
		for band, bin := range testBins {
			dst[bin] = p[band]
		}
	}
	s.reads++
	return nil
}

func (s *mockStream) BinCount() int     { return 1024 }
func (s *mockStream) HzPerBin() float64 { return testHzPerBin }

func (s *mockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *mockStream) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

type mockSource struct {
	streams []*mockStream
	opens   int
	err     error
}

func (m *mockSource) Open(ctx context.Context) (AudioStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	stream := m.streams[m.opens]
	m.opens++
	return stream, nil
}

func newTestController(source AudioSource) (*Controller, *ManualScheduler) {
	scheduler := NewManualScheduler()
	return NewController(source, scheduler, DefaultConfig()), scheduler
}

func TestController_SessionMeans(t *testing.T) {
	stream := &mockStream{peaks: [][3]uint8{
		{50, 0, 90},
		{30, 0, 90},
		{60, 100, 90},
		{45, 0, 90},
		{0, 0, 91},
	}}
	c, scheduler := newTestController(&mockSource{streams: []*mockStream{stream}})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 5; i++ {
		if !scheduler.Tick() {
			t.Fatalf("tick %d did not run", i)
		}
	}

	if got := c.series[0]; len(got) != 3 || got[0] != 50 || got[1] != 60 || got[2] != 45 {
		t.Errorf("unexpected band 1 series %v", got)
	}

	features, err := c.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := models.FeatureTriple{F1: 52, F2: 100, F3: 90}
	if features != expected {
		t.Errorf("expected %+v, got %+v", expected, features)
	}
	if !stream.closed {
		t.Error("expected stream to be closed on stop")
	}
	if c.State() != Idle {
		t.Errorf("expected idle, got %s", c.State())
	}
}

func TestController_StartWhileSensing(t *testing.T) {
	stream := &mockStream{peaks: [][3]uint8{{80, 80, 80}}}
	source := &mockSource{streams: []*mockStream{stream}}
	c, scheduler := newTestController(source)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler.Tick()

	err := c.Start(context.Background())
	if !errors.Is(err, ErrAlreadySensing) {
		t.Fatalf("expected ErrAlreadySensing, got %v", err)
	}
	if source.opens != 1 {
		t.Errorf("expected a single microphone acquisition, got %d", source.opens)
	}
	if len(c.series[0]) != 1 {
		t.Errorf("running session was disturbed: %v", c.series[0])
	}
	if stream.closed {
		t.Error("running stream was closed")
	}
}

func TestController_PermissionDenied(t *testing.T) {
	c, scheduler := newTestController(&mockSource{err: errors.New("device busy")})

	err := c.Start(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if c.State() != Idle {
		t.Errorf("expected idle, got %s", c.State())
	}
	if scheduler.Active() {
		t.Error("no frame task should be scheduled")
	}
}

func TestController_StopWithoutFrames(t *testing.T) {
	c, _ := newTestController(&mockSource{streams: []*mockStream{{}}})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	features, err := c.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features != (models.FeatureTriple{}) {
		t.Errorf("expected zero features, got %+v", features)
	}
}

func TestController_StopWhenIdle(t *testing.T) {
	c, _ := newTestController(&mockSource{})

	if _, err := c.Stop(); !errors.Is(err, ErrNotSensing) {
		t.Errorf("expected ErrNotSensing, got %v", err)
	}
}

func TestController_NoMutationAfterStop(t *testing.T) {
	stream := &mockStream{peaks: [][3]uint8{{90, 90, 90}, {90, 90, 90}, {90, 90, 90}}}
	c, scheduler := newTestController(&mockSource{streams: []*mockStream{stream}})

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler.Tick()

	if _, err := c.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := c.Status()
	reads := stream.readCount()

	if scheduler.Tick() {
		t.Error("frame task still scheduled after stop")
	}
	c.tick(c.session)

	after := c.Status()
	if after.Samples != before.Samples || after.Frames != before.Frames {
		t.Errorf("series changed after stop: before %+v, after %+v", before, after)
	}
	if stream.readCount() != reads {
		t.Error("stream read after stop")
	}
}

func TestController_NoCarryoverBetweenSessions(t *testing.T) {
	first := &mockStream{peaks: [][3]uint8{{200, 200, 200}}}
	second := &mockStream{peaks: [][3]uint8{{50, 0, 0}}}
	c, scheduler := newTestController(&mockSource{streams: []*mockStream{first, second}})

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler.Tick()
	if _, err := c.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler.Tick()
	features, err := c.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := models.FeatureTriple{F1: 50}
	if features != expected {
		t.Errorf("expected %+v, got %+v", expected, features)
	}
}

// recordingScheduler keeps every scheduled task and ignores cancellation, as
// if each task had already been picked up by its goroutine.
type recordingScheduler struct {
	tasks []func()
}

func (r *recordingScheduler) Schedule(task func()) func() {
	r.tasks = append(r.tasks, task)
	return func() {}
}

func TestController_StaleTickIgnoredInNextSession(t *testing.T) {
	first := &mockStream{peaks: [][3]uint8{{200, 200, 200}}}
	second := &mockStream{peaks: [][3]uint8{{60, 0, 0}, {70, 0, 0}}}
	scheduler := &recordingScheduler{}
	c := NewController(&mockSource{streams: []*mockStream{first, second}}, scheduler, DefaultConfig())

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler.tasks[0]()
	if _, err := c.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := c.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scheduler.tasks[0]()

	if status := c.Status(); status.Frames != 0 {
		t.Errorf("tick from the previous session sampled %d frames", status.Frames)
	}
	if second.readCount() != 0 {
		t.Error("tick from the previous session read the new stream")
	}

	scheduler.tasks[1]()
	features, err := c.Stop()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expected := (models.FeatureTriple{F1: 60}); features != expected {
		t.Errorf("expected %+v, got %+v", expected, features)
	}
}

func TestController_TickerSchedulerStopsReading(t *testing.T) {
	stream := &mockStream{}
	source := &mockSource{streams: []*mockStream{stream}}
	c := NewController(source, TickerScheduler{Interval: time.Millisecond}, DefaultConfig())

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reads := stream.readCount()
	if reads == 0 {
		t.Error("expected frames to be read while sensing")
	}

	time.Sleep(20 * time.Millisecond)
	if stream.readCount() != reads {
		t.Errorf("stream read after stop: %d -> %d", reads, stream.readCount())
	}
}

func TestTickerScheduler_Cancel(t *testing.T) {
	var count atomic.Int32
	cancel := TickerScheduler{Interval: time.Millisecond}.Schedule(func() {
		count.Add(1)
	})

	time.Sleep(20 * time.Millisecond)
	cancel()
	cancel()

	time.Sleep(5 * time.Millisecond)
	settled := count.Load()
	time.Sleep(20 * time.Millisecond)

	if settled == 0 {
		t.Error("expected the task to run before cancel")
	}
	if count.Load() != settled {
		t.Errorf("task ran after cancel: %d -> %d", settled, count.Load())
	}
}

func TestManualScheduler_StaleCancel(t *testing.T) {
	m := NewManualScheduler()

	ran := 0
	cancelFirst := m.Schedule(func() {})
	m.Schedule(func() { ran++ })
	cancelFirst()

	if !m.Tick() || ran != 1 {
		t.Error("cancelling an old schedule must not cancel the current one")
	}
}
