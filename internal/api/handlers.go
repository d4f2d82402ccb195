package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/database"
	"github.com/kdimtricp/triakustika/internal/models"
	"github.com/kdimtricp/triakustika/internal/sensing"
	"github.com/kdimtricp/triakustika/internal/state"
	"github.com/kdimtricp/triakustika/internal/storage"
	"github.com/kdimtricp/triakustika/internal/studio"
)

const defaultHistoryLimit = 20

type Studio interface {
	StartSensing(ctx context.Context) error
	StopSensing(ctx context.Context) (*studio.StopOutcome, error)
	Analyze(ctx context.Context, features models.FeatureTriple) (*models.AnalysisResult, error)
	Latest() *models.AnalysisResult
	Status() sensing.Status
	Analyzing() bool
	Subscribe() (<-chan studio.Update, func())
}

type AnalysisReader interface {
	GetByID(ctx context.Context, id string) (*models.AnalysisResult, error)
	List(ctx context.Context, limit int) ([]models.AnalysisResult, error)
}

type App struct {
	Studio   Studio
	State    *state.AppState
	Analyses AnalysisReader
	Images   storage.Storage
}

type errorResponse struct {
	Error string `json:"error"`
}

type sensingResponse struct {
	sensing.Status
	Analyzing bool `json:"analyzing"`
}

type profileUpdate struct {
	PerformerName *string `json:"performer_name"`
	Title         *string `json:"title"`
	Lyrics        *string `json:"lyrics"`
}

func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

func (app *App) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, app.State.Profile())
}

// UpdateProfileHandler applies the fields present in the body; absent fields
// keep their value.
func (app *App) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var update profileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	fields := []struct {
		field state.Field
		value *string
	}{
		{state.FieldPerformerName, update.PerformerName},
		{state.FieldTitle, update.Title},
		{state.FieldLyrics, update.Lyrics},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := app.State.Update(r.Context(), f.field, *f.value); err != nil {
			logrus.WithError(err).Error("Failed to update profile")
			writeError(w, http.StatusInternalServerError, "failed to save profile")
			return
		}
	}

	writeJSON(w, http.StatusOK, app.State.Profile())
}

func (app *App) SensingStatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sensingResponse{
		Status:    app.Studio.Status(),
		Analyzing: app.Studio.Analyzing(),
	})
}

func (app *App) StartSensingHandler(w http.ResponseWriter, r *http.Request) {
	err := app.Studio.StartSensing(r.Context())
	switch {
	case errors.Is(err, sensing.ErrAlreadySensing):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, sensing.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		logrus.WithError(err).Error("Failed to start sensing")
		writeError(w, http.StatusInternalServerError, "failed to start sensing")
		return
	}

	writeJSON(w, http.StatusOK, sensingResponse{
		Status:    app.Studio.Status(),
		Analyzing: app.Studio.Analyzing(),
	})
}

func (app *App) StopSensingHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := app.Studio.StopSensing(r.Context())
	if errors.Is(err, sensing.ErrNotSensing) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to stop sensing")
		writeError(w, http.StatusInternalServerError, "failed to stop sensing")
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

func (app *App) LatestAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	latest := app.Studio.Latest()
	if latest == nil {
		writeError(w, http.StatusNotFound, "no analysis yet")
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

func (app *App) ListAnalysesHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	results, err := app.Analyses.List(r.Context(), limit)
	if err != nil {
		logrus.WithError(err).Error("Failed to list analyses")
		writeError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	if results == nil {
		results = []models.AnalysisResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (app *App) GetAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := app.Analyses.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to get analysis")
		writeError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateAnalysisHandler runs the narrative step for features supplied by the
// client and waits for the result.
func (app *App) CreateAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var features models.FeatureTriple
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if features.F1 < 0 || features.F2 < 0 || features.F3 < 0 {
		writeError(w, http.StatusBadRequest, "features must be non-negative")
		return
	}

	result, err := app.Studio.Analyze(r.Context(), features)
	switch {
	case errors.Is(err, state.ErrIncompleteInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, studio.ErrAnalysisInProgress):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadGateway, "narrative service failed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (app *App) ImageHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	file, err := app.Images.OpenFile(name)
	if errors.Is(err, storage.ErrInvalidPath) {
		writeError(w, http.StatusBadRequest, "invalid image path")
		return
	}
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer file.Close()

	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, path.Base(name), time.Time{}, file)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
