package ai

import (
	"context"
	"time"

	"github.com/kdimtricp/triakustika/internal/models"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// NarrativeService turns a completed session into prose and imagery.
type NarrativeService interface {
	Compose(ctx context.Context, req NarrativeRequest) (*Narrative, error)
}

type NarrativeRequest struct {
	Profile        models.Profile
	Features       models.FeatureTriple
	Classification models.Classification
}

type Narrative struct {
	Text           string `json:"narrative_text"`
	Curatorial     string `json:"curatorial_text"`
	ImageReference string `json:"image_reference"`
}

// TextGenerator returns the model's reply to a single prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ImageGenerator returns a data: URI or URL for the generated image. An
// empty reference with a nil error means the model answered without an image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Provider     string
	GeminiAPIKey string
	OpenAIAPIKey string
	TextModel    string
	ImageModel   string
	Timeout      time.Duration
	// BaseURL overrides the provider endpoint.
	BaseURL string
}

func NewConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Timeout:  60 * time.Second,
	}
}
