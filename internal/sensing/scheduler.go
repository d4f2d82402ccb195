package sensing

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates a 60 Hz display refresh.
const DefaultFrameInterval = time.Second / 60

// FrameScheduler runs a task repeatedly until the returned cancel func is
// called. Once cancel returns, the task is not started again.
type FrameScheduler interface {
	Schedule(task func()) (cancel func())
}

// TickerScheduler runs the task on its own goroutine at a fixed interval.
// Runs never overlap.
type TickerScheduler struct {
	Interval time.Duration
}

func (s TickerScheduler) Schedule(task func()) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				task()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// ManualScheduler runs the scheduled task only when Tick is called. It drives
// offline analysis and tests.
type ManualScheduler struct {
	mu         sync.Mutex
	task       func()
	generation int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) Schedule(task func()) func() {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.task = task
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if m.generation == gen {
			m.task = nil
		}
		m.mu.Unlock()
	}
}

// Tick runs the scheduled task once and reports whether one was scheduled.
func (m *ManualScheduler) Tick() bool {
	m.mu.Lock()
	task := m.task
	m.mu.Unlock()

	if task == nil {
		return false
	}
	task()
	return true
}

func (m *ManualScheduler) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.task != nil
}
