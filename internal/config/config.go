// Package config reads the service settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	shellquote "github.com/kballard/go-shellquote"
	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/ai"
	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/spectrum"
)

type Config struct {
	Port      string
	DBPath    string
	ImageDir  string
	LogLevel  string
	LogFormat string

	AI ai.Config

	AudioDevice  string
	AudioCommand []string
	SampleRate   float64
	FFTSize      int
	FrameRate    int
	NoiseFloor   float64
}

// Load reads envFiles (".env" when none are given) and then the environment.
// Missing env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	cfg := &Config{
		Port:        getenv("PORT", "8080"),
		DBPath:      getenv("DB_PATH", "./triakustika.db"),
		ImageDir:    getenv("IMAGE_DIR", "./images"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "text"),
		AudioDevice: os.Getenv("AUDIO_DEVICE"),
		AI: ai.Config{
			Provider:     getenv("AI_PROVIDER", ai.ProviderGemini),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
			BaseURL:      os.Getenv("AI_BASE_URL"),
		},
	}

	var err error
	switch cfg.AI.Provider {
	case ai.ProviderGemini:
		cfg.AI.TextModel = os.Getenv("GEMINI_TEXT_MODEL")
		cfg.AI.ImageModel = os.Getenv("GEMINI_IMAGE_MODEL")
	case ai.ProviderOpenAI:
		cfg.AI.TextModel = os.Getenv("OPENAI_TEXT_MODEL")
		cfg.AI.ImageModel = os.Getenv("OPENAI_IMAGE_MODEL")
	}

	if cfg.AI.Timeout, err = getDuration("AI_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.SampleRate, err = getFloat("AUDIO_SAMPLE_RATE", spectrum.DefaultSampleRate); err != nil {
		return nil, err
	}
	if cfg.FFTSize, err = getInt("FFT_SIZE", spectrum.DefaultFFTSize); err != nil {
		return nil, err
	}
	if cfg.FrameRate, err = getInt("FRAME_RATE", 60); err != nil {
		return nil, err
	}
	if cfg.NoiseFloor, err = getFloat("NOISE_FLOOR", sensing.DefaultNoiseFloor); err != nil {
		return nil, err
	}

	if raw := os.Getenv("AUDIO_COMMAND"); raw != "" {
		if cfg.AudioCommand, err = shellquote.Split(raw); err != nil {
			return nil, fmt.Errorf("invalid AUDIO_COMMAND: %w", err)
		}
	}

	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("AUDIO_SAMPLE_RATE must be positive")
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("FRAME_RATE must be positive")
	}

	return cfg, nil
}

// AnalyserConfig returns the default analyser settings with the configured FFT size.
func (c *Config) AnalyserConfig() spectrum.AnalyserConfig {
	ac := spectrum.DefaultAnalyserConfig()
	ac.FFTSize = c.FFTSize
	return ac
}

func (c *Config) SensingConfig() sensing.Config {
	sc := sensing.DefaultConfig()
	sc.NoiseFloor = c.NoiseFloor
	return sc
}

func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func (c *Config) ConfigureLogging() error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logrus.SetLevel(level)

	switch c.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q (want text or json)", c.LogFormat)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
