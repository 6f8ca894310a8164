package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/chronique/helper"
	"github.com/siherrmann/chronique/model"
)

// defaultLabelMap maps token classification labels (BIO prefixes already
// stripped) onto clinical event types. Covers the QUAERO/CAS label sets used
// by French biomedical NER models plus common English i2b2-style labels.
var defaultLabelMap = map[string]model.EventType{
	"DISO":         model.EventDiagnosis,
	"DISEASE":      model.EventDiagnosis,
	"PROBLEM":      model.EventDiagnosis,
	"DIAGNOSIS":    model.EventDiagnosis,
	"PROC":         model.EventTreatment,
	"PROCEDURE":    model.EventTreatment,
	"CHEM":         model.EventTreatment,
	"TREATMENT":    model.EventTreatment,
	"MEDICATION":   model.EventTreatment,
	"COMPLICATION": model.EventComplication,
	"FOLLOWUP":     model.EventFollowUp,
	"FOLLOW-UP":    model.EventFollowUp,
	"EXAM":         model.EventFollowUp,
	"TEST":         model.EventFollowUp,
}

// DefaultEventClassifier creates an event classifier backed by a French
// biomedical token classification model. Spans are emitted when the model
// score reaches the configured threshold and the label maps to one of the
// configured event types.
func DefaultEventClassifier(config model.PipelineConfig) (EventClassifyFunc, error) {
	modelName := "Dr-BERT/DrBERT-CASM2"
	modelPath, err := helper.PrepareModel(modelName, "model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	pipelineConfig := hugot.TokenClassificationConfig{
		ModelPath: modelPath,
		Name:      "event-classification-pipeline",
		Options: []hugot.TokenClassificationOption{
			pipelines.WithSimpleAggregation(),
			pipelines.WithIgnoreLabels([]string{"O"}),
		},
	}
	nerPipeline, err := hugot.NewPipeline(session, pipelineConfig)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create event classification pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create event classification pipeline: %w", err)
	}

	enabled := enabledTypes(config)

	return func(texts []string) ([][]*model.EventMention, error) {
		if len(texts) == 0 {
			return nil, nil
		}

		result, err := nerPipeline.RunPipeline(texts)
		if err != nil {
			return nil, fmt.Errorf("failed to run event classification: %w", err)
		}

		mentions := make([][]*model.EventMention, len(texts))
		for i := range texts {
			if i >= len(result.Entities) {
				break
			}
			byteToRune := buildRuneIndex(texts[i])
			for _, entity := range result.Entities[i] {
				eventType, ok := defaultLabelMap[normalizeLabel(entity.Entity)]
				if !ok || !enabled[eventType] {
					continue
				}
				if float64(entity.Score) < config.EventThreshold {
					continue
				}
				start, end := clampOffsets(int(entity.Start), int(entity.End), len(byteToRune)-1)
				mentions[i] = append(mentions[i], &model.EventMention{
					Span:            model.Span{Start: byteToRune[start], End: byteToRune[end]},
					Type:            eventType,
					RawText:         strings.TrimSpace(entity.Word),
					ModelConfidence: float64(entity.Score),
				})
			}
		}

		return mentions, nil
	}, nil
}

// normalizeLabel strips BIO tagging prefixes and uppercases the label
func normalizeLabel(label string) string {
	label = strings.TrimPrefix(label, "B-")
	label = strings.TrimPrefix(label, "I-")
	return strings.ToUpper(label)
}

func clampOffsets(start int, end int, max int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > max {
		end = max
	}
	if start > end {
		start = end
	}
	return start, end
}

func enabledTypes(config model.PipelineConfig) map[model.EventType]bool {
	enabled := make(map[model.EventType]bool, len(config.EventTypes))
	for _, t := range config.EventTypes {
		enabled[t] = true
	}
	return enabled
}

// lexiconMatchConfidence is the fixed model confidence assigned to lexicon
// matches, which carry no model score of their own
const lexiconMatchConfidence = 0.9

// LexiconEventClassifier creates a deterministic keyword-based classifier for
// model-free operation. One term may map to several event types, producing one
// mention per type for the same span. Matching is case-insensitive on word
// boundaries; longer terms win overlapping matches.
func LexiconEventClassifier(lexicon map[string][]model.EventType, config model.PipelineConfig) EventClassifyFunc {
	type lexiconPattern struct {
		pattern *regexp.Regexp
		types   []model.EventType
		length  int
	}

	patterns := make([]lexiconPattern, 0, len(lexicon))
	for term, types := range lexicon {
		patterns = append(patterns, lexiconPattern{
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`),
			types:   types,
			length:  len(term),
		})
	}
	// longer terms first so "chimiothérapie adjuvante" beats "chimiothérapie"
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].length > patterns[j].length
	})

	enabled := enabledTypes(config)

	return func(texts []string) ([][]*model.EventMention, error) {
		mentions := make([][]*model.EventMention, len(texts))
		for i, text := range texts {
			byteToRune := buildRuneIndex(text)
			var taken []model.Span

			for _, p := range patterns {
				for _, m := range p.pattern.FindAllStringIndex(text, -1) {
					span := model.Span{Start: byteToRune[m[0]], End: byteToRune[m[1]]}
					if overlapsAny(span, taken) {
						continue
					}
					taken = append(taken, span)

					for _, eventType := range p.types {
						if !enabled[eventType] {
							continue
						}
						mentions[i] = append(mentions[i], &model.EventMention{
							Span:            span,
							Type:            eventType,
							RawText:         text[m[0]:m[1]],
							ModelConfidence: lexiconMatchConfidence,
						})
					}
				}
			}

			sort.SliceStable(mentions[i], func(a, b int) bool {
				if mentions[i][a].Span.Start != mentions[i][b].Span.Start {
					return mentions[i][a].Span.Start < mentions[i][b].Span.Start
				}
				return mentions[i][a].Type < mentions[i][b].Type
			})
		}
		return mentions, nil
	}
}

func overlapsAny(span model.Span, taken []model.Span) bool {
	for _, t := range taken {
		if span.Overlaps(t) {
			return true
		}
	}
	return false
}

// DefaultLexicon returns a small built-in French clinical lexicon, sufficient
// for offline runs and tests. Production runs should prefer the model-backed
// classifier.
func DefaultLexicon() map[string][]model.EventType {
	return map[string][]model.EventType{
		"cancer":                 {model.EventDiagnosis},
		"carcinome":              {model.EventDiagnosis},
		"adénocarcinome":         {model.EventDiagnosis},
		"tumeur":                 {model.EventDiagnosis},
		"métastase":              {model.EventDiagnosis},
		"diabète":                {model.EventDiagnosis},
		"hypertension":           {model.EventDiagnosis},
		"diagnostic":             {model.EventDiagnosis},
		"diagnostiqué":           {model.EventDiagnosis},
		"chimiothérapie":         {model.EventTreatment},
		"radiothérapie":          {model.EventTreatment},
		"chirurgie":              {model.EventTreatment},
		"intervention":           {model.EventTreatment},
		"exérèse":                {model.EventTreatment},
		"traitement":             {model.EventTreatment},
		"greffe":                 {model.EventTreatment},
		"infection":              {model.EventComplication},
		"hémorragie":             {model.EventComplication},
		"récidive":               {model.EventComplication, model.EventDiagnosis},
		"complication":           {model.EventComplication},
		"sepsis":                 {model.EventComplication},
		"embolie":                {model.EventComplication},
		"consultation":           {model.EventFollowUp},
		"contrôle":               {model.EventFollowUp},
		"suivi":                  {model.EventFollowUp},
		"surveillance":           {model.EventFollowUp},
		"scanner":                {model.EventFollowUp},
		"irm":                    {model.EventFollowUp},
		"bilan":                  {model.EventFollowUp},
		"consultation de suivi":  {model.EventFollowUp},
	}
}
