package pipeline

import (
	"math"

	"github.com/siherrmann/chronique/model"
)

// Score fills in FinalConfidence and Ambiguous on an association.
//
// The final confidence is the product of the classifier confidence, the parse
// confidence of the chosen date and an exponential proximity weight that
// halves every DistanceHalfLife characters of weighted distance. An
// association is flagged ambiguous when the confidence falls below the
// ambiguity threshold, when the runner-up date sits within AmbiguityMargin of
// the chosen one, or when no date could be chosen at all.
func Score(a *model.Association, config model.PipelineConfig) {
	if a.Date == nil {
		a.FinalConfidence = 0
		a.Ambiguous = true
		return
	}

	proximity := math.Exp2(-a.Distance / config.DistanceHalfLife)
	a.FinalConfidence = a.Event.ModelConfidence * a.Date.ParseConfidence * proximity

	a.Ambiguous = a.FinalConfidence < config.AmbiguityThreshold
	if !a.Ambiguous && len(a.Alternatives) > 0 {
		a.Ambiguous = a.Alternatives[0].Distance-a.Distance < config.AmbiguityMargin
	}
}
