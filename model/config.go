package model

import "fmt"

// PipelineConfig holds all tunable thresholds and weights for the detection,
// association, scoring and aggregation stages. It is an immutable value
// threaded through every component call so per-document processing stays
// parallel-safe and deterministic.
type PipelineConfig struct {
	// Event classification
	EventTypes     []EventType `json:"event_types"`
	EventThreshold float64     `json:"confidence_threshold"` // emission threshold per type

	// Ambiguity flagging
	AmbiguityThreshold float64 `json:"ambiguity_threshold"` // minimum final confidence
	AmbiguityMargin    float64 `json:"ambiguity_margin"`    // minimum distance gap between top candidates

	// Distance weighting
	DistanceHalfLife        float64 `json:"distance_half_life"`        // chars until proximity weight halves
	BeforeWeight            float64 `json:"before_weight"`             // multiplier when the date precedes the event
	AfterWeight             float64 `json:"after_weight"`              // multiplier when the date follows the event
	SentenceBoundaryPenalty float64 `json:"sentence_boundary_penalty"` // multiplier per crossed sentence boundary, >= 1
	CueBonus                float64 `json:"linguistic_cue_bonus"`      // multiplier in (0,1] when a cue links the spans
	TieEpsilon              float64 `json:"tie_epsilon"`               // char-equivalent window treated as a tie

	// Aggregation
	FuzzyDedupThreshold float64 `json:"fuzzy_dedup_similarity_threshold"`

	// Resource model
	WorkerCount int `json:"worker_count"`
	BatchSize   int `json:"batch_size"`

	// Date detection; empty means the built-in French formats
	DateFormats []string `json:"date_formats,omitempty"`

	// Linguistic cue tokens linking an event to a date ("le", "en date du",
	// "depuis"); empty means the built-in French cues
	CueTokens []string `json:"cue_tokens,omitempty"`
}

// DefaultPipelineConfig returns the documented default policy. The decay
// function, tie epsilon and fuzzy similarity metric are defaults, not fixed
// behaviour; adjust per corpus.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		EventTypes:              AllEventTypes(),
		EventThreshold:          0.5,
		AmbiguityThreshold:      0.3,
		AmbiguityMargin:         1.0,
		DistanceHalfLife:        120,
		BeforeWeight:            1.0,
		AfterWeight:             1.0,
		SentenceBoundaryPenalty: 2.0,
		CueBonus:                0.5,
		TieEpsilon:              1.0,
		FuzzyDedupThreshold:     0.85,
		WorkerCount:             4,
		BatchSize:               8,
	}
}

// Validate checks every threshold and weight, returning a ConfigurationError
// on the first violation. Invalid configuration is fatal at startup, there is
// no partial run with a broken config.
func (c PipelineConfig) Validate() error {
	if len(c.EventTypes) == 0 {
		return &ConfigurationError{Field: "event_types", Message: "at least one event type is required"}
	}
	if c.EventThreshold < 0 || c.EventThreshold > 1 {
		return &ConfigurationError{Field: "confidence_threshold", Message: fmt.Sprintf("must be in [0,1], got %v", c.EventThreshold)}
	}
	if c.AmbiguityThreshold < 0 || c.AmbiguityThreshold > 1 {
		return &ConfigurationError{Field: "ambiguity_threshold", Message: fmt.Sprintf("must be in [0,1], got %v", c.AmbiguityThreshold)}
	}
	if c.AmbiguityMargin < 0 {
		return &ConfigurationError{Field: "ambiguity_margin", Message: fmt.Sprintf("must be >= 0, got %v", c.AmbiguityMargin)}
	}
	if c.DistanceHalfLife <= 0 {
		return &ConfigurationError{Field: "distance_half_life", Message: fmt.Sprintf("must be > 0, got %v", c.DistanceHalfLife)}
	}
	if c.BeforeWeight <= 0 || c.AfterWeight <= 0 {
		return &ConfigurationError{Field: "before_weight/after_weight", Message: "direction weights must be > 0"}
	}
	if c.SentenceBoundaryPenalty < 1 {
		return &ConfigurationError{Field: "sentence_boundary_penalty", Message: fmt.Sprintf("must be >= 1, got %v", c.SentenceBoundaryPenalty)}
	}
	if c.CueBonus <= 0 || c.CueBonus > 1 {
		return &ConfigurationError{Field: "linguistic_cue_bonus", Message: fmt.Sprintf("must be in (0,1], got %v", c.CueBonus)}
	}
	if c.TieEpsilon < 0 {
		return &ConfigurationError{Field: "tie_epsilon", Message: fmt.Sprintf("must be >= 0, got %v", c.TieEpsilon)}
	}
	if c.FuzzyDedupThreshold < 0 || c.FuzzyDedupThreshold > 1 {
		return &ConfigurationError{Field: "fuzzy_dedup_similarity_threshold", Message: fmt.Sprintf("must be in [0,1], got %v", c.FuzzyDedupThreshold)}
	}
	if c.WorkerCount < 1 {
		return &ConfigurationError{Field: "worker_count", Message: fmt.Sprintf("must be >= 1, got %d", c.WorkerCount)}
	}
	if c.BatchSize < 1 {
		return &ConfigurationError{Field: "batch_size", Message: fmt.Sprintf("must be >= 1, got %d", c.BatchSize)}
	}
	return nil
}
