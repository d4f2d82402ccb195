// Package classify maps a session's FeatureTriple to its dominant buana and
// the quality associated with it.
package classify

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kdimtricp/triakustika/internal/models"
)

// buanas is indexed by band position. Each buana carries exactly one quality.
var buanas = [3]struct {
	buana   models.Buana
	quality models.Quality
}{
	{models.BuanaLarang, models.QualityCageurBener},
	{models.BuanaTengah, models.QualityBageurSinger},
	{models.BuanaNyungcung, models.QualityPinter},
}

// DominantIndex returns the index of the largest feature. Ties resolve to the
// lowest index, so an all-zero triple yields 0.
func DominantIndex(features models.FeatureTriple) int {
	v := features.Values()
	return floats.MaxIdx([]float64{float64(v[0]), float64(v[1]), float64(v[2])})
}

func Classify(features models.FeatureTriple) models.Classification {
	entry := buanas[DominantIndex(features)]
	return models.Classification{
		DominantBuana: entry.buana,
		Quality:       entry.quality,
	}
}

// QualityOf returns the quality paired with buana.
func QualityOf(buana models.Buana) (models.Quality, bool) {
	for _, entry := range buanas {
		if entry.buana == buana {
			return entry.quality, true
		}
	}
	return "", false
}

// Buanas lists every buana in band order.
func Buanas() []models.Buana {
	out := make([]models.Buana, len(buanas))
	for i, entry := range buanas {
		out[i] = entry.buana
	}
	return out
}
