package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kdimtricp/triakustika/internal/ai"
	"github.com/kdimtricp/triakustika/internal/audio"
	"github.com/kdimtricp/triakustika/internal/classify"
	"github.com/kdimtricp/triakustika/internal/config"
	"github.com/kdimtricp/triakustika/internal/database"
	"github.com/kdimtricp/triakustika/internal/models"
	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/state"
	"github.com/kdimtricp/triakustika/internal/storage"
	"github.com/kdimtricp/triakustika/internal/studio"
)

type options struct {
	narrate bool
	name    string
	title   string
	lyrics  string
	hop     int
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "analyze-recording <file>",
		Short: "Run the sensing pipeline over a recording",
		Long: "Decodes the recording with ffmpeg, samples the three bands frame by frame\n" +
			"and prints the features and the dominant buana. With --narrate the result is\n" +
			"sent to the narrative service and stored in the analysis history.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], opts)
		},
	}

	rootCmd.Flags().BoolVar(&opts.narrate, "narrate", false, "request a narrative for the result")
	rootCmd.Flags().StringVar(&opts.name, "name", "", "performer name (defaults to the stored profile)")
	rootCmd.Flags().StringVar(&opts.title, "title", "", "song title (defaults to the stored profile)")
	rootCmd.Flags().StringVar(&opts.lyrics, "lyrics", "", "lyrics (defaults to the stored profile)")
	rootCmd.Flags().IntVar(&opts.hop, "hop", 0, "samples advanced per frame (default sample rate / 60)")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context, path string, opts options) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ConfigureLogging(); err != nil {
		return err
	}

	input := audio.FileInput{
		Path:       path,
		SampleRate: cfg.SampleRate,
		Analyser:   cfg.AnalyserConfig(),
		Hop:        opts.hop,
	}
	scheduler := sensing.NewManualScheduler()
	controller := sensing.NewController(input, scheduler, cfg.SensingConfig())

	started := time.Now()
	features, frames, err := sensing.Replay(ctx, controller, scheduler)
	if err != nil {
		return fmt.Errorf("sensing failed: %w", err)
	}
	class := classify.Classify(features)

	fmt.Printf("Recording: %s\n", path)
	fmt.Printf("Frames:    %d (%v)\n", frames, time.Since(started).Round(time.Millisecond))
	for i, band := range cfg.SensingConfig().Bands {
		fmt.Printf("f%d %-14s %d\n", i+1, band.String(), features.Values()[i])
	}
	fmt.Printf("Buana:     %s\n", class.DominantBuana)
	fmt.Printf("Kualitas:  %s\n", class.Quality)

	if !opts.narrate {
		return nil
	}
	return narrate(ctx, cfg, opts, features)
}

func narrate(ctx context.Context, cfg *config.Config, opts options, features models.FeatureTriple) error {
	db, err := database.NewDB(database.Config{SQLitePath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	appState := state.New(database.NewPreferenceRepository(db))
	if err := appState.Load(ctx); err != nil {
		return err
	}
	overrides := []struct {
		field state.Field
		value string
	}{
		{state.FieldPerformerName, opts.name},
		{state.FieldTitle, opts.title},
		{state.FieldLyrics, opts.lyrics},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		if err := appState.Update(ctx, o.field, o.value); err != nil {
			return err
		}
	}

	narrative, err := ai.NewNarrativeService(&cfg.AI)
	if err != nil {
		return err
	}
	images, err := storage.NewLocalStorage(cfg.ImageDir)
	if err != nil {
		return err
	}

	service := studio.NewService(nil, appState, narrative, database.NewAnalysisRepository(db), images, studio.Config{
		ImagePrefix:     "/images/",
		AnalysisTimeout: 2 * cfg.AI.Timeout,
	})

	result, err := service.Analyze(ctx, features)
	if err != nil {
		return fmt.Errorf("narrative failed: %w", err)
	}

	fmt.Printf("\n%s\n\n%s\n\nImage: %s\nSaved as analysis %s\n",
		result.NarrativeText, result.CuratorialText, result.ImageReference, result.ID)
	return nil
}
