package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kdimtricp/triakustika/internal/models"
)

type mockTextGenerator struct {
	mu            sync.Mutex
	narrative     string
	curatorial    string
	narrativeErr  error
	curatorialErr error
	prompts       []string
}

func (m *mockTextGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if strings.Contains(prompt, "kuratorial") {
		return m.curatorial, m.curatorialErr
	}
	return m.narrative, m.narrativeErr
}

type mockImageGenerator struct {
	reference string
	err       error
	prompt    string
}

func (m *mockImageGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	m.prompt = prompt
	return m.reference, m.err
}

func testRequest(buana models.Buana) NarrativeRequest {
	return NarrativeRequest{
		Profile: models.Profile{
			PerformerName: "Euis",
			Title:         "Papatet",
			Lyrics:        "Pajajaran anu tilem",
		},
		Features:       models.FeatureTriple{F1: 52, F2: 48, F3: 61},
		Classification: models.Classification{DominantBuana: buana, Quality: models.QualityPinter},
	}
}

func TestComposerCompose(t *testing.T) {
	tests := []struct {
		name               string
		text               *mockTextGenerator
		image              *mockImageGenerator
		buana              models.Buana
		expectedText       string
		expectedCuratorial string
		expectedImage      string
		expectedStyle      string
		wantErr            bool
	}{
		{
			name:               "successful composition",
			text:               &mockTextGenerator{narrative: "Sampurasun *Bp/Ibu* Euis", curatorial: "Karya _resonansi_."},
			image:              &mockImageGenerator{reference: "data:image/png;base64,AAAA"},
			buana:              models.BuanaNyungcung,
			expectedText:       "Sampurasun Bp/Ibu Euis",
			expectedCuratorial: "Karya resonansi.",
			expectedImage:      "data:image/png;base64,AAAA",
			expectedStyle:      "ethereal cosmic nebula",
		},
		{
			name:               "missing image uses placeholder",
			text:               &mockTextGenerator{narrative: "Narasi", curatorial: "Kuratorial"},
			image:              &mockImageGenerator{},
			buana:              models.BuanaLarang,
			expectedText:       "Narasi",
			expectedCuratorial: "Kuratorial",
			expectedImage:      PlaceholderImageURL,
			expectedStyle:      "deep earthy volcanic textures",
		},
		{
			name:               "empty text uses fallbacks",
			text:               &mockTextGenerator{narrative: "**", curatorial: ""},
			image:              &mockImageGenerator{reference: "https://example.com/a.png"},
			buana:              models.BuanaTengah,
			expectedText:       fallbackNarrative,
			expectedCuratorial: fallbackCuratorial,
			expectedImage:      "https://example.com/a.png",
			expectedStyle:      "deep earthy volcanic textures",
		},
		{
			name:    "narrative failure fails the step",
			text:    &mockTextGenerator{narrativeErr: errors.New("quota exceeded"), curatorial: "ok"},
			image:   &mockImageGenerator{reference: "data:image/png;base64,AAAA"},
			buana:   models.BuanaLarang,
			wantErr: true,
		},
		{
			name:    "curatorial failure fails the step",
			text:    &mockTextGenerator{narrative: "ok", curatorialErr: errors.New("timeout")},
			image:   &mockImageGenerator{},
			buana:   models.BuanaLarang,
			wantErr: true,
		},
		{
			name:    "image failure fails the step",
			text:    &mockTextGenerator{narrative: "ok", curatorial: "ok"},
			image:   &mockImageGenerator{err: errors.New("malformed response")},
			buana:   models.BuanaLarang,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			composer := NewComposer(tt.text, tt.image)

			narrative, err := composer.Compose(context.Background(), testRequest(tt.buana))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", narrative)
				}
				if narrative != nil {
					t.Error("expected no partial result on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if narrative.Text != tt.expectedText {
				t.Errorf("expected text %q, got %q", tt.expectedText, narrative.Text)
			}
			if narrative.Curatorial != tt.expectedCuratorial {
				t.Errorf("expected curatorial %q, got %q", tt.expectedCuratorial, narrative.Curatorial)
			}
			if narrative.ImageReference != tt.expectedImage {
				t.Errorf("expected image %q, got %q", tt.expectedImage, narrative.ImageReference)
			}
			if !strings.Contains(tt.image.prompt, tt.expectedStyle) {
				t.Errorf("expected image prompt with style %q, got %q", tt.expectedStyle, tt.image.prompt)
			}
			if len(tt.text.prompts) != 2 {
				t.Errorf("expected 2 text prompts, got %d", len(tt.text.prompts))
			}
		})
	}
}

func TestNarrativePrompt(t *testing.T) {
	prompt := narrativePrompt(testRequest(models.BuanaNyungcung))

	for _, want := range []string{
		"Sampurasun Bp/Ibu Euis",
		"Judul Lagu: Papatet",
		`"Pajajaran anu tilem"`,
		"f1=52Hz, f2=48Hz, f3=61Hz",
		"Hasil Triakustika Anda: Dominan pada Buana Nyungcung (Transendensi). Kualitas: PINTER.",
		"Rahayu, Cag Rampes.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestNewNarrativeService(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"gemini with key", Config{Provider: ProviderGemini, GeminiAPIKey: "k"}, false},
		{"default provider is gemini", Config{GeminiAPIKey: "k"}, false},
		{"gemini without key", Config{Provider: ProviderGemini, OpenAIAPIKey: "k"}, true},
		{"openai with key", Config{Provider: ProviderOpenAI, OpenAIAPIKey: "k"}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"unknown provider", Config{Provider: "llama", GeminiAPIKey: "k"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNarrativeService(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
