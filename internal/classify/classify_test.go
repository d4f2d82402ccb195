package classify

import (
	"testing"

	"github.com/kdimtricp/triakustika/internal/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		features models.FeatureTriple
		index    int
		buana    models.Buana
		quality  models.Quality
	}{
		{"tie between first two", models.FeatureTriple{F1: 5, F2: 5, F3: 1}, 0, models.BuanaLarang, models.QualityCageurBener},
		{"middle dominant", models.FeatureTriple{F1: 1, F2: 9, F3: 3}, 1, models.BuanaTengah, models.QualityBageurSinger},
		{"all zero", models.FeatureTriple{}, 0, models.BuanaLarang, models.QualityCageurBener},
		{"high dominant", models.FeatureTriple{F1: 60, F2: 70, F3: 120}, 2, models.BuanaNyungcung, models.QualityPinter},
		{"tie between last two", models.FeatureTriple{F1: 10, F2: 80, F3: 80}, 1, models.BuanaTengah, models.QualityBageurSinger},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DominantIndex(tt.features); got != tt.index {
				t.Errorf("expected index %d, got %d", tt.index, got)
			}

			got := Classify(tt.features)
			if got.DominantBuana != tt.buana {
				t.Errorf("expected buana %q, got %q", tt.buana, got.DominantBuana)
			}
			if got.Quality != tt.quality {
				t.Errorf("expected quality %q, got %q", tt.quality, got.Quality)
			}
		})
	}
}

func TestQualityOf(t *testing.T) {
	for _, b := range Buanas() {
		q, ok := QualityOf(b)
		if !ok || q == "" {
			t.Errorf("buana %q has no quality", b)
		}
	}

	if _, ok := QualityOf("Unknown"); ok {
		t.Error("expected unknown buana to have no quality")
	}
}
