package ai

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

type Composer struct {
	text  TextGenerator
	image ImageGenerator
}

func NewNarrativeService(config *Config) (*Composer, error) {
	switch config.Provider {
	case ProviderGemini, "":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		client := newGeminiClientFromConfig(config)
		logrus.Infof("Narrative service enabled (gemini, text=%s, image=%s)", client.textModel, client.imageModel)
		return NewComposer(client, client), nil
	case ProviderOpenAI:
		if config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		client := newOpenAIClientFromConfig(config)
		logrus.Infof("Narrative service enabled (openai, text=%s, image=%s)", client.textModel, client.imageModel)
		return NewComposer(client, client), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", config.Provider)
	}
}

func NewComposer(text TextGenerator, image ImageGenerator) *Composer {
	return &Composer{text: text, image: image}
}

type musonography struct {
	curatorial string
	image      string
}

// Compose issues the narrative and the musonography requests concurrently
// and fails if either of them does.
func (s *Composer) Compose(ctx context.Context, req NarrativeRequest) (*Narrative, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	narrativeCh := make(chan struct {
		text string
		err  error
	}, 1)
	musonographyCh := make(chan struct {
		result musonography
		err    error
	}, 1)

	go func() {
		text, err := s.text.GenerateText(ctx, narrativePrompt(req))
		narrativeCh <- struct {
			text string
			err  error
		}{text, err}
	}()

	go func() {
		result, err := s.musonography(ctx, req)
		musonographyCh <- struct {
			result musonography
			err    error
		}{result, err}
	}()

	var narrative Narrative
	for pending := 2; pending > 0; pending-- {
		select {
		case r := <-narrativeCh:
			if r.err != nil {
				return nil, fmt.Errorf("narrative request failed: %w", r.err)
			}
			narrative.Text = orDefault(sanitize(r.text), fallbackNarrative)
		case r := <-musonographyCh:
			if r.err != nil {
				return nil, fmt.Errorf("musonography request failed: %w", r.err)
			}
			narrative.Curatorial = r.result.curatorial
			narrative.ImageReference = r.result.image
		}
	}

	return &narrative, nil
}

func (s *Composer) musonography(ctx context.Context, req NarrativeRequest) (musonography, error) {
	buana := req.Classification.DominantBuana
	f3 := req.Features.F3

	curatorial, err := s.text.GenerateText(ctx, curatorialPrompt(buana, f3))
	if err != nil {
		return musonography{}, fmt.Errorf("curatorial text: %w", err)
	}

	image, err := s.image.GenerateImage(ctx, imagePrompt(buana, f3))
	if err != nil {
		return musonography{}, fmt.Errorf("image: %w", err)
	}
	if image == "" {
		logrus.Warn("Image model returned no image, using placeholder")
		image = PlaceholderImageURL
	}

	return musonography{
		curatorial: orDefault(sanitize(curatorial), fallbackCuratorial),
		image:      image,
	}, nil
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
