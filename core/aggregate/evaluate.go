package aggregate

import (
	"github.com/siherrmann/chronique/model"
)

// ReferenceEntry is one gold-standard timeline fact used for evaluation. Date
// is the ISO form truncated to its granularity ("2023", "2023-01",
// "2023-01-12"); empty means an undated event.
type ReferenceEntry struct {
	PatientID string          `json:"patient_id"`
	Type      model.EventType `json:"event_type"`
	Date      string          `json:"date,omitempty"`
}

// Metrics holds precision, recall and F1 over (patient, type, date) keys,
// overall and broken down per event type
type Metrics struct {
	TruePositives  int                            `json:"true_positives"`
	FalsePositives int                            `json:"false_positives"`
	FalseNegatives int                            `json:"false_negatives"`
	Precision      float64                        `json:"precision"`
	Recall         float64                        `json:"recall"`
	F1             float64                        `json:"f1"`
	PerType        map[model.EventType]TypeCounts `json:"per_type,omitempty"`
}

// TypeCounts holds the raw counts and ratios for one event type
type TypeCounts struct {
	TruePositives  int     `json:"true_positives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

type evaluationKey struct {
	patientID string
	eventType model.EventType
	date      string
}

// Evaluate compares built timelines against a gold standard. An entry counts
// as correct when patient, event type and the resolved date at its stated
// granularity all match.
func Evaluate(timelines map[string][]*model.TimelineEntry, reference []ReferenceEntry) Metrics {
	expected := make(map[evaluationKey]bool, len(reference))
	for _, ref := range reference {
		expected[evaluationKey{patientID: ref.PatientID, eventType: ref.Type, date: ref.Date}] = true
	}

	metrics := Metrics{PerType: map[model.EventType]TypeCounts{}}
	matched := map[evaluationKey]bool{}

	for patientID, timeline := range timelines {
		for _, entry := range timeline {
			key := evaluationKey{patientID: patientID, eventType: entry.Type}
			if entry.Resolved != nil {
				key.date = entry.Resolved.String()
			}
			counts := metrics.PerType[entry.Type]
			if expected[key] && !matched[key] {
				matched[key] = true
				metrics.TruePositives++
				counts.TruePositives++
			} else {
				metrics.FalsePositives++
				counts.FalsePositives++
			}
			metrics.PerType[entry.Type] = counts
		}
	}

	for key := range expected {
		if !matched[key] {
			metrics.FalseNegatives++
			counts := metrics.PerType[key.eventType]
			counts.FalseNegatives++
			metrics.PerType[key.eventType] = counts
		}
	}

	metrics.Precision, metrics.Recall, metrics.F1 = ratios(metrics.TruePositives, metrics.FalsePositives, metrics.FalseNegatives)
	for eventType, counts := range metrics.PerType {
		counts.Precision, counts.Recall, counts.F1 = ratios(counts.TruePositives, counts.FalsePositives, counts.FalseNegatives)
		metrics.PerType[eventType] = counts
	}

	return metrics
}

func ratios(tp, fp, fn int) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}
