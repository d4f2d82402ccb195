// Package studio ties a sensing session to classification, the narrative
// service and the analysis history, and reports every step to subscribers.
package studio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/ai"
	"github.com/kdimtricp/triakustika/internal/classify"
	"github.com/kdimtricp/triakustika/internal/database"
	"github.com/kdimtricp/triakustika/internal/models"
	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/state"
	"github.com/kdimtricp/triakustika/internal/storage"
)

var ErrAnalysisInProgress = errors.New("an analysis is already running")

type Controller interface {
	Start(ctx context.Context) error
	Stop() (models.FeatureTriple, error)
	Status() sensing.Status
}

type AnalysisStore interface {
	Insert(ctx context.Context, result *models.AnalysisResult) error
	Latest(ctx context.Context) (*models.AnalysisResult, error)
}

type Config struct {
	// ImagePrefix is prepended to stored image names to form the served path.
	ImagePrefix     string
	AnalysisTimeout time.Duration
}

type Service struct {
	controller  Controller
	state       *state.AppState
	narrative   ai.NarrativeService
	analyses    AnalysisStore
	images      storage.Storage
	imagePrefix string
	timeout     time.Duration
	log         *logrus.Entry

	mu        sync.RWMutex
	latest    *models.AnalysisResult
	analyzing atomic.Bool
	wg        sync.WaitGroup

	subsMu      sync.Mutex
	subscribers map[int]chan Update
	nextSubID   int
}

func NewService(
	controller Controller,
	appState *state.AppState,
	narrative ai.NarrativeService,
	analyses AnalysisStore,
	images storage.Storage,
	config Config,
) *Service {
	if config.ImagePrefix == "" {
		config.ImagePrefix = "/images/"
	}
	if config.AnalysisTimeout == 0 {
		config.AnalysisTimeout = 2 * time.Minute
	}

	return &Service{
		controller:  controller,
		state:       appState,
		narrative:   narrative,
		analyses:    analyses,
		images:      images,
		imagePrefix: config.ImagePrefix,
		timeout:     config.AnalysisTimeout,
		log:         logrus.WithField("component", "studio"),
		subscribers: make(map[int]chan Update),
	}
}

// LoadLatest restores the most recent stored analysis, if any.
func (s *Service) LoadLatest(ctx context.Context) error {
	latest, err := s.analyses.Latest(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load latest analysis: %w", err)
	}

	s.mu.Lock()
	s.latest = latest
	s.mu.Unlock()
	return nil
}

func (s *Service) StartSensing(ctx context.Context) error {
	if err := s.controller.Start(ctx); err != nil {
		if errors.Is(err, sensing.ErrPermissionDenied) {
			s.log.WithError(err).Warn("Microphone unavailable")
			s.notify(NoticePermissionDenied)
		}
		return err
	}

	s.publish(Update{Type: UpdateSensingStarted, Data: s.controller.Status()})
	return nil
}

// StopSensing always leaves the controller idle. The narrative request, when
// the profile allows one, runs in the background.
func (s *Service) StopSensing(ctx context.Context) (*StopOutcome, error) {
	features, err := s.controller.Stop()
	if err != nil {
		return nil, err
	}

	outcome := &StopOutcome{
		Features:       features,
		Classification: classify.Classify(features),
	}
	s.publish(Update{Type: UpdateFeatures, Data: outcome})

	profile := s.state.Profile()
	if err := state.Validate(profile); err != nil {
		outcome.Notice = s.notify(NoticeIncompleteInput)
		return outcome, nil
	}

	if !s.analyzing.CompareAndSwap(false, true) {
		outcome.Notice = s.notify(NoticeAnalysisBusy)
		return outcome, nil
	}

	outcome.Analyzing = true
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		_, _ = s.runAnalysis(ctx, profile, features, outcome.Classification)
	}()

	return outcome, nil
}

// Analyze runs the narrative step synchronously for the given features.
func (s *Service) Analyze(ctx context.Context, features models.FeatureTriple) (*models.AnalysisResult, error) {
	profile := s.state.Profile()
	if err := state.Validate(profile); err != nil {
		s.notify(NoticeIncompleteInput)
		return nil, err
	}

	if !s.analyzing.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInProgress
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.runAnalysis(ctx, profile, features, classify.Classify(features))
}

// runAnalysis must be called holding the analyzing flag; it releases it.
func (s *Service) runAnalysis(ctx context.Context, profile models.Profile, features models.FeatureTriple, class models.Classification) (*models.AnalysisResult, error) {
	defer s.analyzing.Store(false)

	log := s.log.WithFields(logrus.Fields{
		"performer": profile.PerformerName,
		"buana":     class.DominantBuana,
		"features":  features,
	})
	log.Info("Requesting narrative")
	s.publish(Update{Type: UpdateAnalysisStarted, Data: class})

	started := time.Now()
	result, err := s.compose(ctx, profile, features, class)
	if err != nil {
		log.WithError(err).Error("Analysis failed")
		s.notify(NoticeNarrativeFailed)
		return nil, err
	}

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	log.WithField("elapsed", time.Since(started).Round(time.Millisecond)).Info("Analysis complete")
	s.publish(Update{Type: UpdateAnalysis, Data: result})
	return result, nil
}

// compose produces a fully persisted result or nothing.
func (s *Service) compose(ctx context.Context, profile models.Profile, features models.FeatureTriple, class models.Classification) (*models.AnalysisResult, error) {
	narrative, err := s.narrative.Compose(ctx, ai.NarrativeRequest{
		Profile:        profile,
		Features:       features,
		Classification: class,
	})
	if err != nil {
		return nil, err
	}

	result := models.NewAnalysisResult(profile, features, class)
	result.NarrativeText = narrative.Text
	result.CuratorialText = narrative.Curatorial
	result.ImageReference = narrative.ImageReference

	var storedImage string
	if s.images != nil && storage.IsDataURI(narrative.ImageReference) {
		storedImage, err = storage.SaveDataURI(s.images, narrative.ImageReference)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		result.ImageReference = s.imagePrefix + storedImage
	}

	if err := s.analyses.Insert(ctx, result); err != nil {
		if storedImage != "" {
			if delErr := s.images.DeleteFile(storedImage); delErr != nil {
				s.log.WithError(delErr).Warn("Failed to remove orphaned image")
			}
		}
		return nil, err
	}

	return result, nil
}

func (s *Service) Latest() *models.AnalysisResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Service) Status() sensing.Status {
	return s.controller.Status()
}

func (s *Service) Analyzing() bool {
	return s.analyzing.Load()
}

// Wait blocks until background analyses have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Subscribe returns a channel of updates and a func to stop receiving them.
// Updates are dropped for subscribers that fall behind.
func (s *Service) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, 32)

	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subscribers, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Service) publish(update Update) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for id, ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			s.log.WithField("subscriber", id).Debugf("Dropping %s update for slow subscriber", update.Type)
		}
	}
}

func (s *Service) notify(kind string) *Notification {
	n := &Notification{Kind: kind, Message: noticeMessages[kind]}
	s.publish(Update{Type: UpdateNotification, Data: n})
	return n
}
