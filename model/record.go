package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AssociationRecord is the persisted audit form of one scored association.
// ResolvedDate holds the ISO form truncated to granularity, empty when the
// event stayed undated. Embedding optionally holds the snippet embedding for
// similarity lookups.
type AssociationRecord struct {
	ID              int64     `json:"id"`
	RID             uuid.UUID `json:"rid"`
	DocumentID      string    `json:"document_id"`
	EventType       EventType `json:"event_type"`
	EventText       string    `json:"event_text"`
	EventStart      int       `json:"event_start"`
	EventEnd        int       `json:"event_end"`
	DateText        string    `json:"date_text,omitempty"`
	ResolvedDate    string    `json:"resolved_date,omitempty"`
	Distance        float64   `json:"distance_score"`
	FinalConfidence float64   `json:"final_confidence"`
	Ambiguous       bool      `json:"is_ambiguous"`
	Snippet         string    `json:"snippet,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty" db:"-"`
	Similarity      float64   `json:"similarity,omitempty" db:"-"` // only set by similarity queries
	CreatedAt       time.Time `json:"created_at"`
}

// NewAssociationRecord flattens a scored association into its storable form.
// snippet is the surrounding text kept for audit, may be empty.
func NewAssociationRecord(a *Association, snippet string) *AssociationRecord {
	record := &AssociationRecord{
		DocumentID:      a.Event.DocumentID,
		EventType:       a.Event.Type,
		EventText:       a.Event.RawText,
		EventStart:      a.Event.Span.Start,
		EventEnd:        a.Event.Span.End,
		Distance:        a.Distance,
		FinalConfidence: a.FinalConfidence,
		Ambiguous:       a.Ambiguous,
		Snippet:         snippet,
	}
	if a.Date != nil {
		record.DateText = a.Date.RawText
		if a.Date.Resolved != nil {
			record.ResolvedDate = a.Date.Resolved.String()
		}
	}
	return record
}

// TimelineRecord is the persisted form of one timeline entry, tagged with the
// run that produced it
type TimelineRecord struct {
	ID                  int64     `json:"id"`
	RID                 uuid.UUID `json:"rid"`
	RunID               uuid.UUID `json:"run_id"`
	PatientID           string    `json:"patient_id"`
	EventType           EventType `json:"event_type"`
	ResolvedDate        string    `json:"resolved_date,omitempty"`
	Confidence          float64   `json:"confidence"`
	SupportingDocuments []string  `json:"supporting_document_ids"`
	Ambiguous           bool      `json:"is_ambiguous"`
	CreatedAt           time.Time `json:"created_at"`
}

// NewTimelineRecord converts an aggregated entry into its storable form
func NewTimelineRecord(entry *TimelineEntry, runID uuid.UUID) *TimelineRecord {
	record := &TimelineRecord{
		RunID:               runID,
		PatientID:           entry.PatientID,
		EventType:           entry.Type,
		Confidence:          entry.Confidence,
		SupportingDocuments: entry.SupportingDocuments,
		Ambiguous:           entry.Ambiguous,
	}
	if entry.Resolved != nil {
		record.ResolvedDate = entry.Resolved.String()
	}
	return record
}

// ToEntry converts a stored record back to a timeline entry. An unparseable
// stored date is returned as an error, not silently dropped.
func (r *TimelineRecord) ToEntry() (*TimelineEntry, error) {
	entry := &TimelineEntry{
		PatientID:           r.PatientID,
		Type:                r.EventType,
		Confidence:          r.Confidence,
		SupportingDocuments: r.SupportingDocuments,
		Ambiguous:           r.Ambiguous,
	}
	if r.ResolvedDate != "" {
		resolved, err := ParsePartialDate(r.ResolvedDate)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", r.ResolvedDate, err)
		}
		entry.Resolved = resolved
	}
	return entry, nil
}
