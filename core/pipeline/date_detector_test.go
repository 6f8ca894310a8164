package pipeline

import (
	"testing"
	"time"

	"github.com/siherrmann/chronique/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDateDetector(t *testing.T) {
	detector := DefaultDateDetector(nil)

	t.Run("Numeric date with slashes", func(t *testing.T) {
		mentions, err := detector("Patiente admise le 12/01/2023 pour bilan.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions), "Expected exactly one date mention")
		assert.Equal(t, "12/01/2023", mentions[0].RawText)
		require.NotNil(t, mentions[0].Resolved)
		assert.Equal(t, 2023, mentions[0].Resolved.Year)
		assert.Equal(t, time.January, mentions[0].Resolved.Month)
		assert.Equal(t, 12, mentions[0].Resolved.Day)
		assert.Equal(t, 1.0, mentions[0].ParseConfidence)
	})

	t.Run("Numeric date with dashes and dots", func(t *testing.T) {
		mentions, err := detector("Vu le 03-06-2021 puis le 04.06.2021.")

		require.NoError(t, err)
		require.Equal(t, 2, len(mentions))
		assert.Equal(t, "03-06-2021", mentions[0].RawText)
		assert.Equal(t, "04.06.2021", mentions[1].RawText)
	})

	t.Run("Textual French date", func(t *testing.T) {
		mentions, err := detector("Diagnostic posé le 12 janvier 2023.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		assert.Equal(t, "12 janvier 2023", mentions[0].RawText)
		require.NotNil(t, mentions[0].Resolved)
		assert.Equal(t, time.January, mentions[0].Resolved.Month)
		assert.Equal(t, 12, mentions[0].Resolved.Day)
	})

	t.Run("Textual date with 1er and accented month", func(t *testing.T) {
		mentions, err := detector("Intervention le 1er août 2022.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].Resolved)
		assert.Equal(t, time.August, mentions[0].Resolved.Month)
		assert.Equal(t, 1, mentions[0].Resolved.Day)
	})

	t.Run("Unaccented month spelling", func(t *testing.T) {
		mentions, err := detector("Revue en fevrier 2023.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].Resolved)
		assert.Equal(t, time.February, mentions[0].Resolved.Month)
	})

	t.Run("Month and year only has month granularity", func(t *testing.T) {
		mentions, err := detector("Chimiothérapie débutée en mars 2021.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].Resolved)
		assert.Equal(t, model.GranularityMonth, mentions[0].Resolved.Granularity())
		assert.Equal(t, monthYearParseConfidence, mentions[0].ParseConfidence)
	})

	t.Run("Year only has year granularity", func(t *testing.T) {
		mentions, err := detector("Antécédent de tumeur en 2019.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].Resolved)
		assert.Equal(t, model.GranularityYear, mentions[0].Resolved.Granularity())
		assert.Equal(t, yearParseConfidence, mentions[0].ParseConfidence)
	})

	t.Run("Impossible calendar date kept with zero confidence", func(t *testing.T) {
		mentions, err := detector("Consultation le 31/02/2023 selon le courrier.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions), "Expected the unparseable mention to be kept")
		assert.Equal(t, "31/02/2023", mentions[0].RawText)
		assert.Nil(t, mentions[0].Resolved)
		assert.Equal(t, 0.0, mentions[0].ParseConfidence)
	})

	t.Run("Full date wins overlap against bare year", func(t *testing.T) {
		mentions, err := detector("Opérée le 15 juin 2020.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions), "Expected the year inside the full date to be absorbed")
		assert.Equal(t, "15 juin 2020", mentions[0].RawText)
	})

	t.Run("Relative mention le lendemain", func(t *testing.T) {
		mentions, err := detector("La patiente a été revue le lendemain.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		assert.Nil(t, mentions[0].Resolved)
		require.NotNil(t, mentions[0].RelativeOffset)
		assert.Equal(t, 1, *mentions[0].RelativeOffset)
		assert.Equal(t, relativeParseConfidence, mentions[0].ParseConfidence)
	})

	t.Run("Relative mention la veille", func(t *testing.T) {
		mentions, err := detector("Fièvre apparue la veille.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].RelativeOffset)
		assert.Equal(t, -1, *mentions[0].RelativeOffset)
	})

	t.Run("Relative count in days", func(t *testing.T) {
		mentions, err := detector("Contrôle prévu trois jours après.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].RelativeOffset)
		assert.Equal(t, 3, *mentions[0].RelativeOffset)
	})

	t.Run("Relative count in weeks before", func(t *testing.T) {
		mentions, err := detector("Symptômes débutés deux semaines avant.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		require.NotNil(t, mentions[0].RelativeOffset)
		assert.Equal(t, -14, *mentions[0].RelativeOffset)
	})

	t.Run("Spans count runes not bytes", func(t *testing.T) {
		// "Opéré" contains two multi-byte runes before the date
		mentions, err := detector("Opéré le 12/01/2023.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		assert.Equal(t, 9, mentions[0].Span.Start, "Expected span start in rune offsets")
		assert.Equal(t, 19, mentions[0].Span.End)
	})

	t.Run("Mentions ordered by span start", func(t *testing.T) {
		mentions, err := detector("En mars 2021 puis le 05/08/2021 et enfin en 2022.")

		require.NoError(t, err)
		require.Equal(t, 3, len(mentions))
		for i := 1; i < len(mentions); i++ {
			assert.Less(t, mentions[i-1].Span.Start, mentions[i].Span.Start)
		}
	})

	t.Run("No dates in text", func(t *testing.T) {
		mentions, err := detector("Examen clinique sans particularité.")

		require.NoError(t, err)
		assert.Empty(t, mentions)
	})

	t.Run("Restricted format selection", func(t *testing.T) {
		numericOnly := DefaultDateDetector([]string{FormatNumeric})

		mentions, err := numericOnly("Le 12/01/2023 puis en mars 2021.")

		require.NoError(t, err)
		require.Equal(t, 1, len(mentions))
		assert.Equal(t, "12/01/2023", mentions[0].RawText)
	})

	t.Run("Unknown format family returns error", func(t *testing.T) {
		broken := DefaultDateDetector([]string{"roman_numerals"})

		_, err := broken("Le 12/01/2023.")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unknown date format family")
	})
}
