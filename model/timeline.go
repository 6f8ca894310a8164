package model

import "sort"

// TimelineEntry is one deduplicated event in a patient's longitudinal
// timeline. It is the terminal artifact of aggregation.
type TimelineEntry struct {
	PatientID           string       `json:"patient_id"`
	Type                EventType    `json:"event_type"`
	Resolved            *PartialDate `json:"resolved_date,omitempty"`
	Confidence          float64      `json:"confidence"`
	SupportingDocuments []string     `json:"supporting_document_ids"`
	Ambiguous           bool         `json:"is_ambiguous"`
}

// earliestDocument returns the lexicographically smallest supporting document
// id, used as the final ordering tie-break
func (e *TimelineEntry) earliestDocument() string {
	if len(e.SupportingDocuments) == 0 {
		return ""
	}
	return e.SupportingDocuments[0]
}

// SortTimeline orders entries by resolved date ascending with nil dates last,
// ties broken by event type, then by earliest supporting document
func SortTimeline(entries []*TimelineEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.Resolved == nil && b.Resolved == nil:
			// fall through to tie-breaks
		case a.Resolved == nil:
			return false
		case b.Resolved == nil:
			return true
		case !a.Resolved.Equal(b.Resolved):
			return a.Resolved.Before(b.Resolved)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.earliestDocument() < b.earliestDocument()
	})
}
