package model

// Span is a half-open character offset interval [Start, End) into normalized
// document text. Offsets count runes, matching the normalized UTF-8 input.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Mid returns the span midpoint, used for proximity scoring
func (s Span) Mid() float64 {
	return float64(s.Start+s.End) / 2
}

// Len returns the span length in characters
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one character
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// EventType labels a clinical event mention
type EventType string

const (
	EventDiagnosis    EventType = "Diagnosis"
	EventTreatment    EventType = "Treatment"
	EventComplication EventType = "Complication"
	EventFollowUp     EventType = "Follow-up"
)

// AllEventTypes returns the recognized event types in a fixed order
func AllEventTypes() []EventType {
	return []EventType{EventDiagnosis, EventTreatment, EventComplication, EventFollowUp}
}

// DateMention is a detected date in a document. Resolved is nil when the
// surface form matched but could not be interpreted (ParseConfidence 0) or
// when the mention is relative ("le lendemain"), in which case RelativeOffset
// carries the day offset hint.
type DateMention struct {
	DocumentID      string       `json:"document_id"`
	Span            Span         `json:"span"`
	RawText         string       `json:"raw_text"`
	Resolved        *PartialDate `json:"resolved,omitempty"`
	ParseConfidence float64      `json:"parse_confidence"`
	RelativeOffset  *int         `json:"relative_offset,omitempty"`
}

// EventMention is a classified clinical event span. One text span may yield
// several EventMentions, one per event type above the emission threshold.
type EventMention struct {
	DocumentID      string    `json:"document_id"`
	Span            Span      `json:"span"`
	Type            EventType `json:"event_type"`
	RawText         string    `json:"raw_text"`
	ModelConfidence float64   `json:"model_confidence"`
}
