package model

import (
	"time"

	"github.com/google/uuid"
)

// FailureReason categorizes why a document was excluded from its patient's
// aggregation
type FailureReason string

const (
	FailureModelInference FailureReason = "model_inference"
	FailureEmptyText      FailureReason = "empty_text"
	FailureDetection      FailureReason = "detection"
)

// DocumentFailure records one isolated per-document processing failure
type DocumentFailure struct {
	DocumentID string        `json:"document_id"`
	Reason     FailureReason `json:"reason"`
	Error      string        `json:"error"`
}

// RunReport is the per-run failure ledger and counters. A run always
// completes and reports counts instead of failing the whole batch on one bad
// document.
type RunReport struct {
	RunID          uuid.UUID         `json:"run_id"`
	StartedAt      time.Time         `json:"started_at"`
	FinishedAt     time.Time         `json:"finished_at"`
	SuccessCount   int               `json:"success_count"`
	FailureCount   int               `json:"failure_count"`
	Failures       []DocumentFailure `json:"failure_reasons,omitempty"`
	PatientsNoData []string          `json:"patients_no_data,omitempty"`
}

// Duration returns the wall time of the run
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
