package pipeline

import (
	"math"
	"testing"

	"github.com/siherrmann/chronique/model"
	"github.com/stretchr/testify/assert"
)

func scoredAssociation(modelConf float64, parseConf float64, distance float64) *model.Association {
	return &model.Association{
		Event: &model.EventMention{ModelConfidence: modelConf},
		Date: &model.DateMention{
			RawText:         "12/01/2023",
			Resolved:        &model.PartialDate{Year: 2023, Month: 1, Day: 12},
			ParseConfidence: parseConf,
		},
		Distance: distance,
	}
}

func TestScore(t *testing.T) {
	config := model.DefaultPipelineConfig()

	t.Run("Zero distance keeps the raw confidence product", func(t *testing.T) {
		a := scoredAssociation(0.8, 0.9, 0)

		Score(a, config)

		assert.InDelta(t, 0.72, a.FinalConfidence, 1e-9)
		assert.False(t, a.Ambiguous)
	})

	t.Run("Confidence halves per half life of distance", func(t *testing.T) {
		a := scoredAssociation(1.0, 1.0, config.DistanceHalfLife)

		Score(a, config)

		assert.InDelta(t, 0.5, a.FinalConfidence, 1e-9)
	})

	t.Run("Confidence decreases monotonically with distance", func(t *testing.T) {
		near := scoredAssociation(0.9, 1.0, 10)
		far := scoredAssociation(0.9, 1.0, 300)

		Score(near, config)
		Score(far, config)

		assert.Greater(t, near.FinalConfidence, far.FinalConfidence)
	})

	t.Run("Low confidence flags ambiguity", func(t *testing.T) {
		a := scoredAssociation(0.4, 0.5, 200)

		Score(a, config)

		assert.Less(t, a.FinalConfidence, config.AmbiguityThreshold)
		assert.True(t, a.Ambiguous)
	})

	t.Run("Close runner up flags ambiguity", func(t *testing.T) {
		a := scoredAssociation(1.0, 1.0, 5)
		a.Alternatives = []model.ScoredDate{{
			Date:     &model.DateMention{RawText: "15/01/2023", ParseConfidence: 1.0},
			Distance: 5.5,
		}}

		Score(a, config)

		assert.True(t, a.Ambiguous, "Expected a runner-up within the margin to flag ambiguity")
	})

	t.Run("Distant runner up stays unambiguous", func(t *testing.T) {
		a := scoredAssociation(1.0, 1.0, 5)
		a.Alternatives = []model.ScoredDate{{
			Date:     &model.DateMention{RawText: "15/01/2023", ParseConfidence: 1.0},
			Distance: 120,
		}}

		Score(a, config)

		assert.False(t, a.Ambiguous)
	})

	t.Run("Nil date zeroes confidence and flags ambiguity", func(t *testing.T) {
		a := &model.Association{
			Event:    &model.EventMention{ModelConfidence: 0.9},
			Distance: math.Inf(1),
		}

		Score(a, config)

		assert.Equal(t, 0.0, a.FinalConfidence)
		assert.True(t, a.Ambiguous)
	})

	t.Run("Unparseable chosen date zeroes confidence", func(t *testing.T) {
		a := scoredAssociation(0.9, 0, 5)

		Score(a, config)

		assert.Equal(t, 0.0, a.FinalConfidence)
		assert.True(t, a.Ambiguous, "Expected zero confidence to fall below the threshold")
	})
}
