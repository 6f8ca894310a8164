package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/chronique/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTimelineRecord(patientID string, eventType model.EventType, resolvedDate string) *model.TimelineRecord {
	return &model.TimelineRecord{
		RunID:               uuid.New(),
		PatientID:           patientID,
		EventType:           eventType,
		ResolvedDate:        resolvedDate,
		Confidence:          0.8,
		SupportingDocuments: []string{"doc-1", "doc-2"},
		Ambiguous:           false,
	}
}

func TestTimelinesNewTimelinesDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewTimelinesDBHandler", func(t *testing.T) {
		timelinesDbHandler, err := NewTimelinesDBHandler(database, true)
		assert.NoError(t, err, "Expected NewTimelinesDBHandler to not return an error")
		require.NotNil(t, timelinesDbHandler, "Expected NewTimelinesDBHandler to return a non-nil instance")
	})

	t.Run("Invalid call NewTimelinesDBHandler with nil database", func(t *testing.T) {
		_, err := NewTimelinesDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating TimelinesDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestTimelinesInsert(t *testing.T) {
	database := initDB(t)

	timelinesDbHandler, err := NewTimelinesDBHandler(database, true)
	require.NoError(t, err)

	t.Run("Insert timeline entry", func(t *testing.T) {
		record := testTimelineRecord("patient-tl-insert", model.EventDiagnosis, "2023-01-12")

		err := timelinesDbHandler.InsertTimelineEntry(record)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotEmpty(t, record.RID, "Expected inserted record to have a RID")
		assert.WithinDuration(t, record.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
		assert.Equal(t, []string{"doc-1", "doc-2"}, record.SupportingDocuments)

		// Cleanup
		timelinesDbHandler.DeleteTimeline("patient-tl-insert")
	})

	t.Run("Insert undated timeline entry", func(t *testing.T) {
		record := testTimelineRecord("patient-tl-undated", model.EventComplication, "")

		err := timelinesDbHandler.InsertTimelineEntry(record)
		assert.NoError(t, err)
		assert.Empty(t, record.ResolvedDate)

		// Cleanup
		timelinesDbHandler.DeleteTimeline("patient-tl-undated")
	})
}

func TestTimelinesSelect(t *testing.T) {
	database := initDB(t)

	timelinesDbHandler, err := NewTimelinesDBHandler(database, true)
	require.NoError(t, err)

	patientID := "patient-tl-select"
	runID := uuid.New()
	entries := []*model.TimelineRecord{
		testTimelineRecord(patientID, model.EventFollowUp, "2023-06-20"),
		testTimelineRecord(patientID, model.EventDiagnosis, "2023-01-12"),
		testTimelineRecord(patientID, model.EventComplication, ""),
	}
	for _, record := range entries {
		record.RunID = runID
		require.NoError(t, timelinesDbHandler.InsertTimelineEntry(record))
	}
	defer timelinesDbHandler.DeleteTimeline(patientID)

	t.Run("Select timeline ordered by date with undated last", func(t *testing.T) {
		records, err := timelinesDbHandler.SelectTimeline(patientID)
		assert.NoError(t, err)
		require.Equal(t, 3, len(records))
		assert.Equal(t, "2023-01-12", records[0].ResolvedDate)
		assert.Equal(t, "2023-06-20", records[1].ResolvedDate)
		assert.Empty(t, records[2].ResolvedDate, "Expected the undated entry to sort last")
	})

	t.Run("Stored record converts back to a timeline entry", func(t *testing.T) {
		records, err := timelinesDbHandler.SelectTimeline(patientID)
		require.NoError(t, err)
		require.NotEmpty(t, records)

		entry, err := records[0].ToEntry()
		assert.NoError(t, err)
		require.NotNil(t, entry.Resolved)
		assert.Equal(t, 2023, entry.Resolved.Year)
		assert.Equal(t, 12, entry.Resolved.Day)
	})

	t.Run("Select timeline patients", func(t *testing.T) {
		patients, err := timelinesDbHandler.SelectTimelinePatients()
		assert.NoError(t, err)
		assert.Contains(t, patients, patientID)
	})
}

func TestTimelinesReplace(t *testing.T) {
	database := initDB(t)

	timelinesDbHandler, err := NewTimelinesDBHandler(database, true)
	require.NoError(t, err)

	patientID := "patient-tl-replace"
	old := testTimelineRecord(patientID, model.EventDiagnosis, "2022-05-01")
	require.NoError(t, timelinesDbHandler.InsertTimelineEntry(old))
	defer timelinesDbHandler.DeleteTimeline(patientID)

	date, err := model.NewPartialDate(2023, time.January, 12)
	require.NoError(t, err)
	newEntries := []*model.TimelineEntry{
		{
			PatientID:           patientID,
			Type:                model.EventDiagnosis,
			Resolved:            date,
			Confidence:          0.9,
			SupportingDocuments: []string{"doc-3"},
		},
	}

	err = timelinesDbHandler.ReplaceTimeline(patientID, uuid.New(), newEntries)
	assert.NoError(t, err, "Expected Replace to not return an error")

	records, err := timelinesDbHandler.SelectTimeline(patientID)
	require.NoError(t, err)
	require.Equal(t, 1, len(records), "Expected the old timeline to be replaced")
	assert.Equal(t, "2023-01-12", records[0].ResolvedDate)
	assert.Equal(t, []string{"doc-3"}, records[0].SupportingDocuments)
}

func TestTimelinesDelete(t *testing.T) {
	database := initDB(t)

	timelinesDbHandler, err := NewTimelinesDBHandler(database, true)
	require.NoError(t, err)

	patientID := "patient-tl-delete"
	record := testTimelineRecord(patientID, model.EventDiagnosis, "2023-01-12")
	require.NoError(t, timelinesDbHandler.InsertTimelineEntry(record))

	err = timelinesDbHandler.DeleteTimeline(patientID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	records, err := timelinesDbHandler.SelectTimeline(patientID)
	assert.NoError(t, err)
	assert.Empty(t, records)
}
