package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/chronique/helper"
	"github.com/siherrmann/chronique/model"
	loadSql "github.com/siherrmann/chronique/sql"
)

// TimelinesDBHandlerFunctions defines the interface for Timelines database operations.
type TimelinesDBHandlerFunctions interface {
	InsertTimelineEntry(record *model.TimelineRecord) error
	ReplaceTimeline(patientID string, runID uuid.UUID, entries []*model.TimelineEntry) error
	SelectTimeline(patientID string) ([]*model.TimelineRecord, error)
	SelectTimelinePatients() ([]string, error)
	DeleteTimeline(patientID string) error
}

// TimelinesDBHandler handles persisted patient timelines
type TimelinesDBHandler struct {
	db *helper.Database
}

// NewTimelinesDBHandler creates a new timelines database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTimelinesDBHandler(db *helper.Database, force bool) (*TimelinesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	timelinesDbHandler := &TimelinesDBHandler{
		db: db,
	}

	err := loadSql.LoadTimelinesSql(timelinesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load timelines sql", err)
	}

	err = timelinesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TimelinesDBHandler")

	return timelinesDbHandler, nil
}

// CreateTable creates the 'timelines' table in the database.
// If the table already exists, it does not create it again.
func (h *TimelinesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_timelines();`)
	if err != nil {
		log.Panicf("error initializing timelines table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table timelines")

	return nil
}

// InsertTimelineEntry inserts one timeline entry record
func (h *TimelinesDBHandler) InsertTimelineEntry(record *model.TimelineRecord) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_timeline_entry($1, $2, $3, $4, $5, $6, $7)`,
		record.RunID,
		record.PatientID,
		record.EventType,
		record.ResolvedDate,
		record.Confidence,
		pq.Array(record.SupportingDocuments),
		record.Ambiguous,
	)

	err := row.Scan(
		&record.ID,
		&record.RID,
		&record.RunID,
		&record.PatientID,
		&record.EventType,
		&record.ResolvedDate,
		&record.Confidence,
		pq.Array(&record.SupportingDocuments),
		&record.Ambiguous,
		&record.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// ReplaceTimeline replaces a patient's stored timeline with the entries of a
// new run, atomically within one transaction
func (h *TimelinesDBHandler) ReplaceTimeline(patientID string, runID uuid.UUID, entries []*model.TimelineEntry) error {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.Exec(`SELECT delete_timeline($1)`, patientID)
	if err != nil {
		return helper.NewError("delete timeline", err)
	}

	for _, entry := range entries {
		record := model.NewTimelineRecord(entry, runID)
		_, err = tx.Exec(
			`SELECT insert_timeline_entry($1, $2, $3, $4, $5, $6, $7)`,
			record.RunID,
			record.PatientID,
			record.EventType,
			record.ResolvedDate,
			record.Confidence,
			pq.Array(record.SupportingDocuments),
			record.Ambiguous,
		)
		if err != nil {
			return helper.NewError("insert timeline entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectTimeline retrieves a patient's stored timeline ordered by date with
// undated entries last
func (h *TimelinesDBHandler) SelectTimeline(patientID string) ([]*model.TimelineRecord, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_timeline($1)`,
		patientID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.TimelineRecord
	for rows.Next() {
		record := &model.TimelineRecord{}
		err := rows.Scan(
			&record.ID,
			&record.RID,
			&record.RunID,
			&record.PatientID,
			&record.EventType,
			&record.ResolvedDate,
			&record.Confidence,
			pq.Array(&record.SupportingDocuments),
			&record.Ambiguous,
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

// SelectTimelinePatients lists all patients with a stored timeline
func (h *TimelinesDBHandler) SelectTimelinePatients() ([]string, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_timeline_patients()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var patients []string
	for rows.Next() {
		var patientID string
		if err := rows.Scan(&patientID); err != nil {
			return nil, helper.NewError("scan", err)
		}
		patients = append(patients, patientID)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return patients, nil
}

// DeleteTimeline deletes a patient's stored timeline
func (h *TimelinesDBHandler) DeleteTimeline(patientID string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_timeline($1)`,
		patientID,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}
