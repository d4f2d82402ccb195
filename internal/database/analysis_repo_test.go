package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kdimtricp/triakustika/internal/models"
)

func newTestAnalysis(name string, at time.Time) *models.AnalysisResult {
	result := models.NewAnalysisResult(
		models.Profile{PerformerName: name, Title: "Papatet", Lyrics: "Pajajaran anu tilem"},
		models.FeatureTriple{F1: 52, F2: 48, F3: 61},
		models.Classification{DominantBuana: models.BuanaNyungcung, Quality: models.QualityPinter},
	)
	result.NarrativeText = "Sampurasun"
	result.CuratorialText = "Kuratorial"
	result.ImageReference = "/images/a.png"
	result.Timestamp = at
	return result
}

func TestAnalysisRepository_InsertAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	result := newTestAnalysis("Euis", time.Now())
	if err := repo.Insert(ctx, result); err != nil {
		t.Fatalf("Failed to insert analysis: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, result.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve analysis: %v", err)
	}

	if retrieved.Profile != result.Profile {
		t.Errorf("Expected profile %+v, got %+v", result.Profile, retrieved.Profile)
	}
	if retrieved.Features != result.Features {
		t.Errorf("Expected features %+v, got %+v", result.Features, retrieved.Features)
	}
	if retrieved.DominantBuana != result.DominantBuana || retrieved.Quality != result.Quality {
		t.Errorf("Expected %s/%s, got %s/%s", result.DominantBuana, result.Quality, retrieved.DominantBuana, retrieved.Quality)
	}
	if retrieved.NarrativeText != result.NarrativeText || retrieved.ImageReference != result.ImageReference {
		t.Errorf("Unexpected narrative fields: %+v", retrieved)
	}
	if !retrieved.Timestamp.Equal(result.Timestamp) {
		t.Errorf("Expected timestamp %v, got %v", result.Timestamp, retrieved.Timestamp)
	}
}

func TestAnalysisRepository_NotFound(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Latest(ctx); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on empty history, got %v", err)
	}
	if err := repo.DeleteByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on delete, got %v", err)
	}
}

func TestAnalysisRepository_ListAndLatest(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAnalysisRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := newTestAnalysis("First", base)
	second := newTestAnalysis("Second", base.Add(time.Minute))
	third := newTestAnalysis("Third", base.Add(2*time.Minute))

	for _, r := range []*models.AnalysisResult{second, third, first} {
		if err := repo.Insert(ctx, r); err != nil {
			t.Fatalf("Failed to insert analysis: %v", err)
		}
	}

	latest, err := repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest: %v", err)
	}
	if latest.ID != third.ID {
		t.Errorf("Expected latest %s, got %s", third.Profile.PerformerName, latest.Profile.PerformerName)
	}

	all, err := repo.List(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list analyses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 analyses, got %d", len(all))
	}
	expectedOrder := []string{"Third", "Second", "First"}
	for i, name := range expectedOrder {
		if all[i].Profile.PerformerName != name {
			t.Errorf("Position %d: expected %s, got %s", i, name, all[i].Profile.PerformerName)
		}
	}

	limited, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list analyses: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 analyses, got %d", len(limited))
	}

	if err := repo.DeleteByID(ctx, third.ID); err != nil {
		t.Fatalf("Failed to delete analysis: %v", err)
	}
	latest, err = repo.Latest(ctx)
	if err != nil {
		t.Fatalf("Failed to get latest: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Expected latest to fall back to %s, got %s", second.Profile.PerformerName, latest.Profile.PerformerName)
	}
}
