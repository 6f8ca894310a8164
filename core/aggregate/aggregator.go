package aggregate

import (
	"sort"
	"strings"

	"github.com/siherrmann/chronique/core/pipeline"
	"github.com/siherrmann/chronique/model"
)

// entryAccumulator collects the evidence for one timeline entry while
// aggregation is still merging duplicates
type entryAccumulator struct {
	patientID  string
	eventType  model.EventType
	resolved   *model.PartialDate
	confidence float64
	ambiguous  bool
	documents  map[string]bool
	tokens     map[string]bool // event surface tokens, for undated fuzzy merging
}

// BuildTimelines aggregates scored associations into one deduplicated
// timeline per patient. Documents provide the patient mapping; a document
// without a mapping forms a singleton patient keyed by its own id.
//
// Two dated associations merge when their event types match and one resolved
// date covers the other, keeping the most specific date. Undated associations
// merge on fuzzy surface similarity of the event text. A merged entry keeps
// the maximum confidence, the union of supporting documents, and stays
// ambiguous only if every merged association was ambiguous.
func BuildTimelines(results []*pipeline.DocumentResult, documents []*model.Document, config model.PipelineConfig) map[string][]*model.TimelineEntry {
	patientByDocument := make(map[string]string, len(documents))
	for _, doc := range documents {
		patientByDocument[doc.DocumentID] = doc.EffectivePatientID()
	}

	accumulators := map[string][]*entryAccumulator{}

	for _, result := range results {
		patientID, ok := patientByDocument[result.DocumentID]
		if !ok {
			patientID = result.DocumentID
		}

		for _, association := range result.Associations {
			mergeAssociation(accumulators, patientID, result.DocumentID, association, config)
		}
	}

	timelines := make(map[string][]*model.TimelineEntry, len(accumulators))
	for patientID, entries := range accumulators {
		timeline := make([]*model.TimelineEntry, 0, len(entries))
		for _, acc := range entries {
			timeline = append(timeline, acc.toEntry())
		}
		model.SortTimeline(timeline)
		timelines[patientID] = timeline
	}

	return timelines
}

func mergeAssociation(accumulators map[string][]*entryAccumulator, patientID string, documentID string, association *model.Association, config model.PipelineConfig) {
	resolved := association.ResolvedDate()
	tokens := tokenize(association.Event.RawText)

	for _, acc := range accumulators[patientID] {
		if acc.eventType != association.Event.Type {
			continue
		}

		if resolved != nil && acc.resolved != nil {
			merged := acc.resolved.MergeMostSpecific(resolved)
			if merged == nil {
				continue
			}
			acc.resolved = merged
		} else if resolved == nil && acc.resolved == nil {
			if jaccard(acc.tokens, tokens) < config.FuzzyDedupThreshold {
				continue
			}
		} else {
			continue
		}

		if association.FinalConfidence > acc.confidence {
			acc.confidence = association.FinalConfidence
		}
		acc.ambiguous = acc.ambiguous && association.Ambiguous
		acc.documents[documentID] = true
		for token := range tokens {
			acc.tokens[token] = true
		}
		return
	}

	accumulators[patientID] = append(accumulators[patientID], &entryAccumulator{
		patientID:  patientID,
		eventType:  association.Event.Type,
		resolved:   resolved,
		confidence: association.FinalConfidence,
		ambiguous:  association.Ambiguous,
		documents:  map[string]bool{documentID: true},
		tokens:     tokens,
	})
}

func (acc *entryAccumulator) toEntry() *model.TimelineEntry {
	documents := make([]string, 0, len(acc.documents))
	for id := range acc.documents {
		documents = append(documents, id)
	}
	sort.Strings(documents)

	return &model.TimelineEntry{
		PatientID:           acc.patientID,
		Type:                acc.eventType,
		Resolved:            acc.resolved,
		Confidence:          acc.confidence,
		SupportingDocuments: documents,
		Ambiguous:           acc.ambiguous,
	}
}

// tokenize lowercases and splits a surface form into its word tokens,
// stripping surrounding punctuation
func tokenize(text string) map[string]bool {
	tokens := map[string]bool{}
	for _, field := range strings.Fields(strings.ToLower(text)) {
		token := strings.Trim(field, ".,;:!?()'\"")
		if token != "" {
			tokens[token] = true
		}
	}
	return tokens
}

// jaccard computes token-set similarity in [0,1]; two empty sets count as
// identical
func jaccard(a map[string]bool, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
