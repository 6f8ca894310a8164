package model

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Document represents one source medical document with its normalized text.
// DocumentID is the upstream identifier and is passed through unchanged.
// PatientID comes from the external patient-metadata mapping; it is empty
// when no mapping exists, in which case the document forms a singleton
// patient keyed by its own DocumentID.
type Document struct {
	ID         int64     `json:"id"`
	RID        uuid.UUID `json:"rid"`
	DocumentID string    `json:"document_id"`
	PatientID  string    `json:"patient_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	Text       string    `json:"text,omitempty" db:"-"` // Normalized text for processing, not stored in DB
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EffectivePatientID returns the patient grouping key, falling back to the
// document's own id for unmapped documents
func (d *Document) EffectivePatientID() string {
	if d.PatientID != "" {
		return d.PatientID
	}
	return d.DocumentID
}

// NewDocumentFromFile reads a normalized text file and creates a Document.
// The document id defaults to the filename without extension, and source to
// the file path.
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(filePath)
	docID := filename[:len(filename)-len(filepath.Ext(filename))]
	if docID == "" {
		docID = filename
	}

	return &Document{
		DocumentID: docID,
		Source:     filePath,
		Text:       string(content),
		Metadata:   metadata,
	}, nil
}
