package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kdimtricp/triakustika/internal/models"
)

const analysisColumns = `id, performer_name, title, lyrics, f1, f2, f3,
	dominant_buana, quality, narrative_text, curatorial_text, image_reference, created_at`

type AnalysisRepository struct {
	db *DB
}

func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

func (r *AnalysisRepository) Insert(ctx context.Context, result *models.AnalysisResult) error {
	_, err := r.db.conn.ExecContext(ctx,
		"INSERT INTO analyses ("+analysisColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		result.ID,
		result.Profile.PerformerName,
		result.Profile.Title,
		result.Profile.Lyrics,
		result.Features.F1,
		result.Features.F2,
		result.Features.F3,
		string(result.DominantBuana),
		string(result.Quality),
		result.NarrativeText,
		result.CuratorialText,
		result.ImageReference,
		result.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*models.AnalysisResult, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT "+analysisColumns+" FROM analyses WHERE id = ?", id)

	result, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return result, nil
}

// Latest returns the most recent analysis, or ErrNotFound on an empty history.
func (r *AnalysisRepository) Latest(ctx context.Context) (*models.AnalysisResult, error) {
	row := r.db.conn.QueryRowContext(ctx,
		"SELECT "+analysisColumns+" FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT 1")

	result, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest analysis: %w", err)
	}
	return result, nil
}

// List returns up to limit analyses, newest first. A non-positive limit
// returns everything.
func (r *AnalysisRepository) List(ctx context.Context, limit int) ([]models.AnalysisResult, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT "+analysisColumns+" FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var results []models.AnalysisResult
	for rows.Next() {
		result, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		results = append(results, *result)
	}
	return results, rows.Err()
}

func (r *AnalysisRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.conn.ExecContext(ctx, "DELETE FROM analyses WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("analysis %s: %w", id, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(s scanner) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	var buana, quality string
	err := s.Scan(
		&result.ID,
		&result.Profile.PerformerName,
		&result.Profile.Title,
		&result.Profile.Lyrics,
		&result.Features.F1,
		&result.Features.F2,
		&result.Features.F3,
		&buana,
		&quality,
		&result.NarrativeText,
		&result.CuratorialText,
		&result.ImageReference,
		&result.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	result.DominantBuana = models.Buana(buana)
	result.Quality = models.Quality(quality)
	return &result, nil
}
