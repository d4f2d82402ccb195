package models

import (
	"time"

	"github.com/google/uuid"
)

// FeatureTriple is the output of one completed sensing session: the rounded
// mean peak energy of each frequency band.
type FeatureTriple struct {
	F1 int `json:"f1"`
	F2 int `json:"f2"`
	F3 int `json:"f3"`
}

func (f FeatureTriple) Values() [3]int {
	return [3]int{f.F1, f.F2, f.F3}
}

type Buana string

const (
	BuanaLarang    Buana = "Larang (Grounding)"
	BuanaTengah    Buana = "Panca Tengah (Emosi)"
	BuanaNyungcung Buana = "Nyungcung (Transendensi)"
)

type Quality string

const (
	QualityCageurBener  Quality = "CAGEUR & BENER"
	QualityBageurSinger Quality = "BAGEUR & SINGER"
	QualityPinter       Quality = "PINTER"
)

type Classification struct {
	DominantBuana Buana   `json:"dominant_buana"`
	Quality       Quality `json:"quality"`
}

// Profile holds the three free-text fields entered by the performer.
type Profile struct {
	PerformerName string `json:"performer_name"`
	Title         string `json:"title"`
	Lyrics        string `json:"lyrics"`
}

type AnalysisResult struct {
	ID             string        `json:"id"`
	NarrativeText  string        `json:"narrative_text"`
	CuratorialText string        `json:"curatorial_text"`
	ImageReference string        `json:"image_reference"`
	DominantBuana  Buana         `json:"dominant_buana"`
	Quality        Quality       `json:"quality"`
	Features       FeatureTriple `json:"features"`
	Profile        Profile       `json:"profile"`
	Timestamp      time.Time     `json:"timestamp"`
}

func NewAnalysisResult(profile Profile, features FeatureTriple, class Classification) *AnalysisResult {
	return &AnalysisResult{
		ID:            uuid.New().String(),
		DominantBuana: class.DominantBuana,
		Quality:       class.Quality,
		Features:      features,
		Profile:       profile,
		Timestamp:     time.Now(),
	}
}
