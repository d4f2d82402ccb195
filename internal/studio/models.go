package studio

import (
	"github.com/kdimtricp/triakustika/internal/models"
)

const (
	UpdateSensingStarted  = "sensing_started"
	UpdateFeatures        = "features"
	UpdateAnalysisStarted = "analysis_started"
	UpdateAnalysis        = "analysis"
	UpdateNotification    = "notification"
)

const (
	NoticePermissionDenied = "permission_denied"
	NoticeIncompleteInput  = "incomplete_input"
	NoticeNarrativeFailed  = "narrative_failed"
	NoticeAnalysisBusy     = "analysis_busy"
)

var noticeMessages = map[string]string{
	NoticePermissionDenied: "Izin mikrofon diperlukan untuk laboratorium sonic.",
	NoticeIncompleteInput:  "Lengkapi Identitas & Rumpaka!",
	NoticeNarrativeFailed:  "Koneksi AI Terputus.",
	NoticeAnalysisBusy:     "Analisis sebelumnya masih berjalan.",
}

// Update is one event pushed to subscribers.
type Update struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StopOutcome describes a finished sensing session. Analyzing is false when
// no narrative request was issued; Notice then says why.
type StopOutcome struct {
	Features       models.FeatureTriple  `json:"features"`
	Classification models.Classification `json:"classification"`
	Analyzing      bool                  `json:"analyzing"`
	Notice         *Notification         `json:"notice,omitempty"`
}
