package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronique/model"
)

// CorpusResult is the outcome of one corpus run: per-document results in
// deterministic document id order plus the run report
type CorpusResult struct {
	Results []*DocumentResult `json:"results"`
	Report  *model.RunReport  `json:"report"`
}

// Runner executes the per-document pipeline over a corpus. The classifier is
// invoked once per batch since model inference dominates the cost; date
// detection, association and scoring fan out over a bounded worker pool. A
// failing document is recorded in the run report and never aborts the run.
type Runner struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewRunner creates a runner for the given pipeline. A nil logger falls back
// to the default slog logger.
func NewRunner(pipeline *Pipeline, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{pipeline: pipeline, logger: logger}
}

// ProcessCorpus runs the pipeline over all documents. Identical corpus and
// configuration yield an identical result, independent of worker scheduling.
// The returned report lists every failed document and every patient whose
// documents all failed.
func (r *Runner) ProcessCorpus(ctx context.Context, documents []*model.Document) (*CorpusResult, error) {
	report := &model.RunReport{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
	}

	var processable []*model.Document
	for _, doc := range documents {
		if doc.Text == "" {
			report.Failures = append(report.Failures, model.DocumentFailure{
				DocumentID: doc.DocumentID,
				Reason:     model.FailureEmptyText,
				Error:      "document text is empty",
			})
			continue
		}
		processable = append(processable, doc)
	}

	var results []*DocumentResult

	batchSize := r.pipeline.Config.BatchSize
	for start := 0; start < len(processable); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + batchSize
		if end > len(processable) {
			end = len(processable)
		}
		batch := processable[start:end]

		batchResults, batchFailures := r.processBatch(batch)
		results = append(results, batchResults...)
		report.Failures = append(report.Failures, batchFailures...)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DocumentID < results[j].DocumentID
	})
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].DocumentID < report.Failures[j].DocumentID
	})

	report.SuccessCount = len(results)
	report.FailureCount = len(report.Failures)
	report.PatientsNoData = patientsWithoutData(documents, results)
	report.FinishedAt = time.Now()

	r.logger.Info("corpus run finished",
		slog.String("runId", report.RunID.String()),
		slog.Int("success", report.SuccessCount),
		slog.Int("failed", report.FailureCount),
		slog.Duration("duration", report.Duration()))

	return &CorpusResult{Results: results, Report: report}, nil
}

// processBatch classifies all batch texts in one model call, then finishes
// the per-document stages on the worker pool. A classifier error fails the
// whole batch because no document in it has usable events.
func (r *Runner) processBatch(batch []*model.Document) ([]*DocumentResult, []model.DocumentFailure) {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Text
	}

	eventsPerDoc, err := r.pipeline.EventClassifier(texts)
	if err == nil && len(eventsPerDoc) != len(batch) {
		err = fmt.Errorf("classifier returned %d result slices for %d texts", len(eventsPerDoc), len(batch))
	}
	if err != nil {
		r.logger.Error("batch classification failed", slog.String("error", err.Error()))
		failures := make([]model.DocumentFailure, 0, len(batch))
		for _, doc := range batch {
			failures = append(failures, model.DocumentFailure{
				DocumentID: doc.DocumentID,
				Reason:     model.FailureModelInference,
				Error:      err.Error(),
			})
		}
		return nil, failures
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  []*DocumentResult
		failures []model.DocumentFailure
	)

	semaphore := make(chan struct{}, r.pipeline.Config.WorkerCount)
	for i, doc := range batch {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(doc *model.Document, events []*model.EventMention) {
			defer wg.Done()
			defer func() { <-semaphore }()

			result, err := r.finishDocument(doc, events)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, model.DocumentFailure{
					DocumentID: doc.DocumentID,
					Reason:     model.FailureDetection,
					Error:      err.Error(),
				})
				return
			}
			results = append(results, result)
		}(doc, eventsPerDoc[i])
	}
	wg.Wait()

	return results, failures
}

// finishDocument runs the non-model stages for one already-classified document
func (r *Runner) finishDocument(doc *model.Document, events []*model.EventMention) (*DocumentResult, error) {
	dates, err := r.pipeline.DateDetector(doc.Text)
	if err != nil {
		return nil, err
	}
	for _, d := range dates {
		d.DocumentID = doc.DocumentID
	}
	for _, e := range events {
		e.DocumentID = doc.DocumentID
	}

	associations := Associate(doc.Text, events, dates, r.pipeline.Config)
	for _, a := range associations {
		Score(a, r.pipeline.Config)
	}

	return &DocumentResult{
		DocumentID:   doc.DocumentID,
		Dates:        dates,
		Events:       events,
		Associations: associations,
	}, nil
}

// patientsWithoutData lists patients whose documents all failed, sorted for
// deterministic reporting
func patientsWithoutData(documents []*model.Document, results []*DocumentResult) []string {
	succeeded := make(map[string]bool, len(results))
	for _, res := range results {
		succeeded[res.DocumentID] = true
	}

	patientHasData := map[string]bool{}
	for _, doc := range documents {
		patient := doc.EffectivePatientID()
		if _, ok := patientHasData[patient]; !ok {
			patientHasData[patient] = false
		}
		if succeeded[doc.DocumentID] {
			patientHasData[patient] = true
		}
	}

	var patients []string
	for patient, hasData := range patientHasData {
		if !hasData {
			patients = append(patients, patient)
		}
	}
	sort.Strings(patients)
	return patients
}
