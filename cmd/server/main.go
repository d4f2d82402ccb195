package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/ai"
	"github.com/kdimtricp/triakustika/internal/api"
	"github.com/kdimtricp/triakustika/internal/audio"
	"github.com/kdimtricp/triakustika/internal/config"
	"github.com/kdimtricp/triakustika/internal/database"
	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/state"
	"github.com/kdimtricp/triakustika/internal/storage"
	"github.com/kdimtricp/triakustika/internal/studio"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ConfigureLogging(); err != nil {
		logrus.Fatalf("Failed to configure logging: %v", err)
	}

	images, err := storage.NewLocalStorage(cfg.ImageDir)
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	db, err := database.NewDB(database.Config{SQLitePath: cfg.DBPath})
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	appState := state.New(database.NewPreferenceRepository(db))
	if err := appState.Load(ctx); err != nil {
		logrus.Fatalf("Failed to load profile: %v", err)
	}

	narrative, err := ai.NewNarrativeService(&cfg.AI)
	if err != nil {
		logrus.Fatalf("Failed to initialize narrative service: %v", err)
	}

	input := audio.CommandInput{
		Device:     cfg.AudioDevice,
		SampleRate: cfg.SampleRate,
		Analyser:   cfg.AnalyserConfig(),
		Command:    cfg.AudioCommand,
	}
	controller := sensing.NewController(input, sensing.TickerScheduler{Interval: cfg.FrameInterval()}, cfg.SensingConfig())

	analyses := database.NewAnalysisRepository(db)
	service := studio.NewService(controller, appState, narrative, analyses, images, studio.Config{
		ImagePrefix:     "/images/",
		AnalysisTimeout: 2 * cfg.AI.Timeout,
	})
	if err := service.LoadLatest(ctx); err != nil {
		logrus.Warnf("Failed to restore latest analysis: %v", err)
	}

	app := &api.App{
		Studio:   service,
		State:    appState,
		Analyses: analyses,
		Images:   images,
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("Database path: %s", cfg.DBPath)
		logrus.Infof("Image directory: %s", cfg.ImageDir)
		logrus.Infof("Audio: %.0f Hz, fft size %d, %d frames/s", cfg.SampleRate, cfg.FFTSize, cfg.FrameRate)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down")
	if _, err := controller.Stop(); err == nil {
		logrus.Info("Stopped active sensing session")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server shutdown failed: %v", err)
	}
	service.Wait()
}
