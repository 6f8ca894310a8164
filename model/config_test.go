package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineConfig(t *testing.T) {
	t.Run("Returns correct default values", func(t *testing.T) {
		config := DefaultPipelineConfig()

		assert.Equal(t, AllEventTypes(), config.EventTypes, "Default EventTypes should include every type")
		assert.Equal(t, 0.5, config.EventThreshold, "Default EventThreshold should be 0.5")
		assert.Equal(t, 0.3, config.AmbiguityThreshold, "Default AmbiguityThreshold should be 0.3")
		assert.Equal(t, 1.0, config.AmbiguityMargin, "Default AmbiguityMargin should be 1.0")
		assert.Equal(t, 120.0, config.DistanceHalfLife, "Default DistanceHalfLife should be 120")
		assert.Equal(t, 1.0, config.BeforeWeight, "Default BeforeWeight should be 1.0")
		assert.Equal(t, 1.0, config.AfterWeight, "Default AfterWeight should be 1.0")
		assert.Equal(t, 2.0, config.SentenceBoundaryPenalty, "Default SentenceBoundaryPenalty should be 2.0")
		assert.Equal(t, 0.5, config.CueBonus, "Default CueBonus should be 0.5")
		assert.Equal(t, 0.85, config.FuzzyDedupThreshold, "Default FuzzyDedupThreshold should be 0.85")
		assert.Equal(t, 4, config.WorkerCount, "Default WorkerCount should be 4")
		assert.Equal(t, 8, config.BatchSize, "Default BatchSize should be 8")
		assert.Empty(t, config.DateFormats, "Default DateFormats should be empty (built-in formats)")
		assert.Empty(t, config.CueTokens, "Default CueTokens should be empty (built-in cues)")
	})

	t.Run("Default configuration is valid", func(t *testing.T) {
		config := DefaultPipelineConfig()
		assert.NoError(t, config.Validate())
	})

	t.Run("Can be modified after creation", func(t *testing.T) {
		config := DefaultPipelineConfig()

		config.EventTypes = []EventType{EventDiagnosis}
		config.DistanceHalfLife = 60
		config.WorkerCount = 1

		assert.NoError(t, config.Validate())
		assert.Equal(t, []EventType{EventDiagnosis}, config.EventTypes)
	})
}

func TestPipelineConfigValidate(t *testing.T) {
	invalid := []struct {
		name   string
		mutate func(*PipelineConfig)
		field  string
	}{
		{"Empty event types", func(c *PipelineConfig) { c.EventTypes = nil }, "event_types"},
		{"Event threshold above one", func(c *PipelineConfig) { c.EventThreshold = 1.5 }, "confidence_threshold"},
		{"Negative ambiguity threshold", func(c *PipelineConfig) { c.AmbiguityThreshold = -0.1 }, "ambiguity_threshold"},
		{"Negative ambiguity margin", func(c *PipelineConfig) { c.AmbiguityMargin = -1 }, "ambiguity_margin"},
		{"Zero half-life", func(c *PipelineConfig) { c.DistanceHalfLife = 0 }, "distance_half_life"},
		{"Zero direction weight", func(c *PipelineConfig) { c.BeforeWeight = 0 }, "before_weight"},
		{"Boundary penalty below one", func(c *PipelineConfig) { c.SentenceBoundaryPenalty = 0.5 }, "sentence_boundary_penalty"},
		{"Zero cue bonus", func(c *PipelineConfig) { c.CueBonus = 0 }, "linguistic_cue_bonus"},
		{"Negative tie epsilon", func(c *PipelineConfig) { c.TieEpsilon = -1 }, "tie_epsilon"},
		{"Dedup threshold above one", func(c *PipelineConfig) { c.FuzzyDedupThreshold = 1.1 }, "fuzzy_dedup"},
		{"Zero worker count", func(c *PipelineConfig) { c.WorkerCount = 0 }, "worker_count"},
		{"Zero batch size", func(c *PipelineConfig) { c.BatchSize = 0 }, "batch_size"},
	}

	for _, test := range invalid {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultPipelineConfig()
			test.mutate(&config)

			err := config.Validate()
			require.Error(t, err, "Expected Validate to return an error")

			var configErr *ConfigurationError
			require.ErrorAs(t, err, &configErr, "Expected a ConfigurationError")
			assert.Contains(t, err.Error(), test.field, "Expected the offending field in the error")
		})
	}
}
