package pipeline

import (
	"fmt"

	"github.com/siherrmann/chronique/model"
)

// DateDetectFunc scans normalized text and returns all date mentions ordered
// by span start. DocumentID is filled in by the pipeline.
type DateDetectFunc func(text string) ([]*model.DateMention, error)

// EventClassifyFunc classifies clinical event spans for a batch of documents.
// It returns one slice of event mentions per input text, in input order.
// The model-inference step is the resource-heavy stage, so it is always
// invoked batched rather than per document.
type EventClassifyFunc func(texts []string) ([][]*model.EventMention, error)

// EmbedFunc generates an embedding for a text snippet, used for the
// embedding-based duplicate audit in the database layer
type EmbedFunc func(text string) ([]float32, error)

// DocumentResult holds everything the per-document pipeline produced for one
// document: the raw detections and the scored associations
type DocumentResult struct {
	DocumentID   string
	Dates        []*model.DateMention
	Events       []*model.EventMention
	Associations []*model.Association
}

// Pipeline combines the per-document stages: date detection, event
// classification, temporal association and confidence scoring. Embedder is
// optional and only feeds the database audit path.
type Pipeline struct {
	DateDetector    DateDetectFunc
	EventClassifier EventClassifyFunc
	Embedder        EmbedFunc
	Config          model.PipelineConfig
}

// NewPipeline creates a new processing pipeline after validating the
// configuration. An invalid configuration is fatal, there is no partial run.
func NewPipeline(detector DateDetectFunc, classifier EventClassifyFunc, config model.PipelineConfig) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if detector == nil {
		return nil, fmt.Errorf("date detector is required")
	}
	if classifier == nil {
		return nil, fmt.Errorf("event classifier is required")
	}
	return &Pipeline{
		DateDetector:    detector,
		EventClassifier: classifier,
		Config:          config,
	}, nil
}

// SetEmbedder sets the optional snippet embedding function
func (p *Pipeline) SetEmbedder(embedder EmbedFunc) {
	p.Embedder = embedder
}

// Process runs the full per-document pipeline on one document. Each run is a
// pure function of the text and the static configuration, safe to call from
// parallel workers.
func (p *Pipeline) Process(documentID string, text string) (*DocumentResult, error) {
	if text == "" {
		return nil, fmt.Errorf("document text is empty")
	}

	dates, err := p.DateDetector(text)
	if err != nil {
		return nil, fmt.Errorf("date detection: %w", err)
	}
	for _, d := range dates {
		d.DocumentID = documentID
	}

	eventsPerText, err := p.EventClassifier([]string{text})
	if err != nil {
		return nil, &model.InferenceError{Err: err}
	}
	if len(eventsPerText) != 1 {
		return nil, &model.InferenceError{Err: fmt.Errorf("classifier returned %d result slices for 1 text", len(eventsPerText))}
	}
	events := eventsPerText[0]
	for _, e := range events {
		e.DocumentID = documentID
	}

	associations := Associate(text, events, dates, p.Config)
	for _, a := range associations {
		Score(a, p.Config)
	}

	return &DocumentResult{
		DocumentID:   documentID,
		Dates:        dates,
		Events:       events,
		Associations: associations,
	}, nil
}
