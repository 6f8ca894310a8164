package chronique

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/chronique/core/aggregate"
	"github.com/siherrmann/chronique/core/pipeline"
	"github.com/siherrmann/chronique/database"
	"github.com/siherrmann/chronique/helper"
	"github.com/siherrmann/chronique/model"
	loadSql "github.com/siherrmann/chronique/sql"
)

// Chronique provides a unified interface to the extraction pipeline and all
// database handlers
type Chronique struct {
	DB           *helper.Database
	Documents    *database.DocumentsDBHandler
	Associations *database.AssociationsDBHandler
	Timelines    *database.TimelinesDBHandler
	Pipeline     *pipeline.Pipeline // Optional extraction pipeline
	Config       model.PipelineConfig
	// Logging
	log *slog.Logger
}

// NewChronique creates a new Chronique instance with all handlers initialized.
// embeddingDim fixes the dimension of the snippet embedding column.
func NewChronique(config *helper.DatabaseConfiguration, pipelineConfig model.PipelineConfig, embeddingDim int) (*Chronique, error) {
	if err := pipelineConfig.Validate(); err != nil {
		return nil, helper.NewError("validate pipeline configuration", err)
	}

	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("chronique", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, associations
	// reference them). force=false to not reload if functions already exist.
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	associations, err := database.NewAssociationsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create associations handler", err)
	}

	timelines, err := database.NewTimelinesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create timelines handler", err)
	}

	return &Chronique{
		DB:           db,
		Documents:    documents,
		Associations: associations,
		Timelines:    timelines,
		Config:       pipelineConfig,
		log:          logger,
	}, nil
}

// Close closes the database connection
func (c *Chronique) Close() error {
	if c.DB != nil && c.DB.Instance != nil {
		return c.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the extraction pipeline for document processing
func (c *Chronique) SetPipeline(pipeline *pipeline.Pipeline) {
	c.Pipeline = pipeline
}

// UseDefaultPipeline sets up the model-backed extraction pipeline: the
// built-in French date detector, the biomedical token classification model
// and the multilingual snippet embedder (384 dimensions)
func (c *Chronique) UseDefaultPipeline() error {
	classifier, err := pipeline.DefaultEventClassifier(c.Config)
	if err != nil {
		return helper.NewError("create default event classifier", err)
	}

	p, err := pipeline.NewPipeline(pipeline.DefaultDateDetector(c.Config.DateFormats), classifier, c.Config)
	if err != nil {
		return helper.NewError("create pipeline", err)
	}

	embedder, err := pipeline.DefaultSnippetEmbedder()
	if err != nil {
		return helper.NewError("create default snippet embedder", err)
	}
	p.SetEmbedder(embedder)

	c.Pipeline = p
	return nil
}

// UseLexiconPipeline sets up a fully deterministic pipeline with the built-in
// clinical lexicon instead of a model, for offline use and tests. No snippet
// embeddings are produced.
func (c *Chronique) UseLexiconPipeline() error {
	classifier := pipeline.LexiconEventClassifier(pipeline.DefaultLexicon(), c.Config)

	p, err := pipeline.NewPipeline(pipeline.DefaultDateDetector(c.Config.DateFormats), classifier, c.Config)
	if err != nil {
		return helper.NewError("create pipeline", err)
	}

	c.Pipeline = p
	return nil
}

// ProcessAndInsertDocument processes a document by:
// 1. Inserting the document metadata (without text)
// 2. Running the extraction pipeline on the normalized text
// 3. Inserting all scored associations as audit records
// The document's Text field is used for processing but not stored in the
// database. Returns the number of associations inserted and any error
// encountered.
func (c *Chronique) ProcessAndInsertDocument(doc *model.Document) (int, error) {
	if c.Pipeline == nil {
		return 0, helper.NewError("process document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if doc.Text == "" {
		return 0, helper.NewError("process document", fmt.Errorf("document text is empty"))
	}

	// Store text temporarily and clear it before DB insert
	text := doc.Text
	doc.Text = ""

	// Insert document metadata
	if err := c.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	c.log.Info("Inserted document", slog.String("document_id", doc.DocumentID), slog.String("patient_id", doc.PatientID))

	result, err := c.Pipeline.Process(doc.DocumentID, text)
	if err != nil {
		return 0, helper.NewError("process document", err)
	}

	c.log.Info("Processed document",
		slog.Int("num_dates", len(result.Dates)),
		slog.Int("num_events", len(result.Events)),
		slog.Int("num_associations", len(result.Associations)),
		slog.String("document_id", doc.DocumentID))

	// Insert all associations
	for i, association := range result.Associations {
		snippet := associationSnippet(text, association)
		record := model.NewAssociationRecord(association, snippet)

		if c.Pipeline.Embedder != nil {
			embedding, err := c.Pipeline.Embedder(snippet)
			if err != nil {
				return i, helper.NewError(fmt.Sprintf("embed association %d", i), err)
			}
			record.Embedding = embedding
		}

		if err := c.Associations.InsertAssociation(record); err != nil {
			return i, helper.NewError(fmt.Sprintf("insert association %d", i), err)
		}
	}

	return len(result.Associations), nil
}

// ProcessCorpus runs the extraction pipeline over a document corpus with
// batched inference and bounded workers, without touching the database
func (c *Chronique) ProcessCorpus(ctx context.Context, documents []*model.Document) (*pipeline.CorpusResult, error) {
	if c.Pipeline == nil {
		return nil, helper.NewError("process corpus", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	runner := pipeline.NewRunner(c.Pipeline, c.log)
	return runner.ProcessCorpus(ctx, documents)
}

// BuildTimelines processes a corpus and aggregates the results into one
// deduplicated timeline per patient, replacing each patient's stored timeline.
// The returned report lists per-document failures and patients without data.
func (c *Chronique) BuildTimelines(ctx context.Context, documents []*model.Document) (map[string][]*model.TimelineEntry, *model.RunReport, error) {
	result, err := c.ProcessCorpus(ctx, documents)
	if err != nil {
		return nil, nil, err
	}

	timelines := aggregate.BuildTimelines(result.Results, documents, c.Config)

	for patientID, entries := range timelines {
		if err := c.Timelines.ReplaceTimeline(patientID, result.Report.RunID, entries); err != nil {
			return nil, nil, helper.NewError(fmt.Sprintf("replace timeline for %s", patientID), err)
		}
	}

	c.log.Info("Built timelines",
		slog.Int("num_patients", len(timelines)),
		slog.String("run_id", result.Report.RunID.String()))

	return timelines, result.Report, nil
}

// Timeline loads a patient's stored timeline
func (c *Chronique) Timeline(patientID string) ([]*model.TimelineEntry, error) {
	records, err := c.Timelines.SelectTimeline(patientID)
	if err != nil {
		return nil, helper.NewError("select timeline", err)
	}
	if len(records) == 0 {
		return nil, model.ErrNoData
	}

	entries := make([]*model.TimelineEntry, 0, len(records))
	for _, record := range records {
		entry, err := record.ToEntry()
		if err != nil {
			return nil, helper.NewError("convert timeline record", err)
		}
		entries = append(entries, entry)
	}
	model.SortTimeline(entries)

	return entries, nil
}

// SimilarAssociations finds stored associations whose snippet embedding is
// similar to the given text, for cross-document audit
func (c *Chronique) SimilarAssociations(text string, limit int, threshold float64) ([]*model.AssociationRecord, error) {
	if c.Pipeline == nil || c.Pipeline.Embedder == nil {
		return nil, helper.NewError("similarity search", fmt.Errorf("pipeline with embedder not set, use SetPipeline() first"))
	}

	embedding, err := c.Pipeline.Embedder(text)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return c.Associations.SelectAssociationsBySimilarity(embedding, limit, threshold)
}

// ChangeIndexType changes the vector index type on the association embedding
// column between HNSW and IVFFlat
func (c *Chronique) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return c.Associations.ChangeIndexType(ctx, indexType, params)
}

// associationSnippet extracts the text window spanning the event and its
// chosen date, with a little surrounding context
func associationSnippet(text string, association *model.Association) string {
	const margin = 40

	runes := []rune(text)
	start := association.Event.Span.Start
	end := association.Event.Span.End
	if association.Date != nil {
		if association.Date.Span.Start < start {
			start = association.Date.Span.Start
		}
		if association.Date.Span.End > end {
			end = association.Date.Span.End
		}
	}

	start -= margin
	if start < 0 {
		start = 0
	}
	end += margin
	if end > len(runes) {
		end = len(runes)
	}

	return string(runes[start:end])
}
