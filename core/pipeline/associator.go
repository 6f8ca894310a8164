package pipeline

import (
	"math"
	"sort"
	"strings"

	"github.com/siherrmann/chronique/model"
)

// Built-in French cue tokens that mark an explicit link between an event and
// an adjacent date
var defaultCueTokens = []string{
	"le", "en date du", "depuis", "depuis le", "à partir du", "a partir du",
	"du", "au", "en", "datant de", "daté du", "date du",
}

// Associate links every event mention to its best candidate date mention in
// the same document. Exactly one association is produced per event. With no
// dates in the document the association carries a nil date and infinite
// distance. Candidates are ranked by weighted character distance; among
// candidates within TieEpsilon of the minimum the higher parse confidence
// wins, then the earlier span.
func Associate(text string, events []*model.EventMention, dates []*model.DateMention, config model.PipelineConfig) []*model.Association {
	cues := config.CueTokens
	if len(cues) == 0 {
		cues = defaultCueTokens
	}

	runes := []rune(text)
	associations := make([]*model.Association, 0, len(events))

	for _, event := range events {
		if len(dates) == 0 {
			associations = append(associations, &model.Association{
				Event:    event,
				Distance: math.Inf(1),
			})
			continue
		}

		candidates := make([]model.ScoredDate, 0, len(dates))
		for _, date := range dates {
			candidates = append(candidates, model.ScoredDate{
				Date:     date,
				Distance: weightedDistance(runes, event, date, cues, config),
			})
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			a, b := candidates[i], candidates[j]
			if a.Distance != b.Distance {
				return a.Distance < b.Distance
			}
			return preferInTie(a, b)
		})

		// The tie window is anchored at the global minimum, so a chain of
		// pairwise near-ties cannot drift the choice past TieEpsilon.
		chosen := 0
		for i := 1; i < len(candidates); i++ {
			if candidates[i].Distance-candidates[0].Distance > config.TieEpsilon {
				break
			}
			if preferInTie(candidates[i], candidates[chosen]) {
				chosen = i
			}
		}

		alternatives := make([]model.ScoredDate, 0, len(candidates)-1)
		alternatives = append(alternatives, candidates[:chosen]...)
		alternatives = append(alternatives, candidates[chosen+1:]...)

		associations = append(associations, &model.Association{
			Event:        event,
			Date:         candidates[chosen].Date,
			Distance:     candidates[chosen].Distance,
			Alternatives: alternatives,
		})
	}

	return associations
}

// preferInTie reports whether a beats b inside a tie window: higher parse
// confidence first, then the earlier span
func preferInTie(a, b model.ScoredDate) bool {
	if a.Date.ParseConfidence != b.Date.ParseConfidence {
		return a.Date.ParseConfidence > b.Date.ParseConfidence
	}
	return a.Date.Span.Start < b.Date.Span.Start
}

// weightedDistance computes the effective distance between an event and a
// date: midpoint character distance scaled by direction weight, sentence
// boundary penalty and the linguistic cue bonus
func weightedDistance(runes []rune, event *model.EventMention, date *model.DateMention, cues []string, config model.PipelineConfig) float64 {
	distance := math.Abs(event.Span.Mid() - date.Span.Mid())

	// date before the event in reading order
	if date.Span.Start <= event.Span.Start {
		distance *= config.BeforeWeight
	} else {
		distance *= config.AfterWeight
	}

	boundaries := sentenceBoundariesBetween(runes, event.Span, date.Span)
	distance *= math.Pow(config.SentenceBoundaryPenalty, float64(boundaries))

	if hasCueBetween(runes, event.Span, date.Span, cues) {
		distance *= config.CueBonus
	}

	return distance
}

// sentenceBoundariesBetween counts sentence terminators and newlines in the
// gap between two spans. Overlapping or adjacent spans cross no boundary.
func sentenceBoundariesBetween(runes []rune, a model.Span, b model.Span) int {
	start, end := gapBetween(a, b)
	if start >= end {
		return 0
	}

	count := 0
	for i := start; i < end && i < len(runes); i++ {
		switch runes[i] {
		case '\n':
			count++
		case '.', '!', '?':
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				count++
			}
		}
	}
	return count
}

// hasCueBetween reports whether the gap between the spans consists of a known
// cue phrase, optionally surrounded by whitespace and punctuation. Long gaps
// never qualify.
func hasCueBetween(runes []rune, a model.Span, b model.Span, cues []string) bool {
	start, end := gapBetween(a, b)
	if start >= end || end > len(runes) || end-start > 24 {
		return false
	}

	gap := strings.ToLower(strings.Trim(string(runes[start:end]), " \t\n,;:"))
	if gap == "" {
		return false
	}
	for _, cue := range cues {
		if gap == strings.ToLower(cue) {
			return true
		}
	}
	return false
}

func gapBetween(a model.Span, b model.Span) (int, int) {
	if a.Start <= b.Start {
		return a.End, b.Start
	}
	return b.End, a.Start
}
