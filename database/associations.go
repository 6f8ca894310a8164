package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/chronique/helper"
	"github.com/siherrmann/chronique/model"
	loadSql "github.com/siherrmann/chronique/sql"
)

// AssociationsDBHandlerFunctions defines the interface for Associations database operations.
type AssociationsDBHandlerFunctions interface {
	InsertAssociation(record *model.AssociationRecord) error
	SelectAssociation(rid uuid.UUID) (*model.AssociationRecord, error)
	SelectAssociationsByDocument(documentID string) ([]*model.AssociationRecord, error)
	SelectAssociationsByPatient(patientID string) ([]*model.AssociationRecord, error)
	SelectAssociationsBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.AssociationRecord, error)
	DeleteAssociationsByDocument(documentID string) error
}

// AssociationsDBHandler handles association audit records
type AssociationsDBHandler struct {
	db *helper.Database
}

// NewAssociationsDBHandler creates a new associations database handler.
// embeddingDim fixes the snippet embedding dimension of the audit table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewAssociationsDBHandler(db *helper.Database, embeddingDim int, force bool) (*AssociationsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	associationsDbHandler := &AssociationsDBHandler{
		db: db,
	}

	err := loadSql.LoadAssociationsSql(associationsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load associations sql", err)
	}

	err = associationsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized AssociationsDBHandler")

	return associationsDbHandler, nil
}

// CreateTable creates the 'associations' table in the database.
// If the table already exists, it does not create it again.
func (h *AssociationsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_associations($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing associations table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table associations")

	return nil
}

// InsertAssociation inserts a scored association record. A record without an
// embedding is stored with a null embedding and excluded from similarity
// lookups.
func (h *AssociationsDBHandler) InsertAssociation(record *model.AssociationRecord) error {
	var embedding interface{}
	if len(record.Embedding) > 0 {
		embedding = pgvector.NewVector(record.Embedding)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_association($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		record.DocumentID,
		record.EventType,
		record.EventText,
		record.EventStart,
		record.EventEnd,
		record.DateText,
		record.ResolvedDate,
		record.Distance,
		record.FinalConfidence,
		record.Ambiguous,
		record.Snippet,
		embedding,
	)

	// NULL-tolerant scan of the embedding column
	var rawEmbedding []byte
	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.DocumentID,
		&record.EventType,
		&record.EventText,
		&record.EventStart,
		&record.EventEnd,
		&record.DateText,
		&record.ResolvedDate,
		&record.Distance,
		&record.FinalConfidence,
		&record.Ambiguous,
		&record.Snippet,
		&rawEmbedding,
		&record.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectAssociation retrieves an association record by RID
func (h *AssociationsDBHandler) SelectAssociation(rid uuid.UUID) (*model.AssociationRecord, error) {
	record := &model.AssociationRecord{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_association($1)`,
		rid,
	)

	var rawEmbedding []byte
	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.DocumentID,
		&record.EventType,
		&record.EventText,
		&record.EventStart,
		&record.EventEnd,
		&record.DateText,
		&record.ResolvedDate,
		&record.Distance,
		&record.FinalConfidence,
		&record.Ambiguous,
		&record.Snippet,
		&rawEmbedding,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}
	if rawEmbedding != nil {
		var storedEmbedding pgvector.Vector
		if err := storedEmbedding.Scan(rawEmbedding); err != nil {
			return nil, helper.NewError("scan embedding", err)
		}
		record.Embedding = storedEmbedding.Slice()
	}

	return record, nil
}

// SelectAssociationsByDocument retrieves all association records of a document
// ordered by event span start
func (h *AssociationsDBHandler) SelectAssociationsByDocument(documentID string) ([]*model.AssociationRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_associations_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.AssociationRecord
	for rows.Next() {
		record := &model.AssociationRecord{}
		var rawEmbedding []byte
		err := rows.Scan(
			&record.ID,
			&record.RID,
			&record.DocumentID,
			&record.EventType,
			&record.EventText,
			&record.EventStart,
			&record.EventEnd,
			&record.DateText,
			&record.ResolvedDate,
			&record.Distance,
			&record.FinalConfidence,
			&record.Ambiguous,
			&record.Snippet,
			&rawEmbedding,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// SelectAssociationsByPatient retrieves all association records across a
// patient's documents
func (h *AssociationsDBHandler) SelectAssociationsByPatient(patientID string) ([]*model.AssociationRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_associations_by_patient($1)`,
		patientID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.AssociationRecord
	for rows.Next() {
		record := &model.AssociationRecord{}
		var rawEmbedding []byte
		err := rows.Scan(
			&record.ID,
			&record.RID,
			&record.DocumentID,
			&record.EventType,
			&record.EventText,
			&record.EventStart,
			&record.EventEnd,
			&record.DateText,
			&record.ResolvedDate,
			&record.Distance,
			&record.FinalConfidence,
			&record.Ambiguous,
			&record.Snippet,
			&rawEmbedding,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// SelectAssociationsBySimilarity performs vector similarity search over the
// stored snippet embeddings
func (h *AssociationsDBHandler) SelectAssociationsBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.AssociationRecord, error) {
	embeddingVector := pgvector.NewVector(embedding)

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_associations_by_similarity($1, $2, $3)`,
		embeddingVector,
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.AssociationRecord
	for rows.Next() {
		record := &model.AssociationRecord{}
		err := rows.Scan(
			&record.ID,
			&record.RID,
			&record.DocumentID,
			&record.EventType,
			&record.EventText,
			&record.EventStart,
			&record.EventEnd,
			&record.DateText,
			&record.ResolvedDate,
			&record.Distance,
			&record.FinalConfidence,
			&record.Ambiguous,
			&record.Snippet,
			&record.CreatedAt,
			&record.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		records = append(records, record)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return records, nil
}

// DeleteAssociationsByDocument deletes all association records of a document
func (h *AssociationsDBHandler) DeleteAssociationsByDocument(documentID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_associations_by_document($1)`,
		documentID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
