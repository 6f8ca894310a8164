package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed documents.sql
var documentsSQL string

//go:embed associations.sql
var associationsSQL string

//go:embed timelines.sql
var timelinesSQL string

// Function lists for verification
var DocumentsFunctions = []string{
	"init_documents",
	"insert_document",
	"select_document",
	"select_document_by_document_id",
	"select_all_documents",
	"select_documents_by_patient",
	"update_document",
	"delete_document",
}

var AssociationsFunctions = []string{
	"init_associations",
	"insert_association",
	"select_association",
	"select_associations_by_document",
	"select_associations_by_patient",
	"select_associations_by_similarity",
	"delete_associations_by_document",
}

var TimelinesFunctions = []string{
	"init_timelines",
	"insert_timeline_entry",
	"select_timeline",
	"select_timeline_patients",
	"delete_timeline",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadDocumentsSql loads document-related SQL functions
func LoadDocumentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, DocumentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing documents functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(documentsSQL)
	if err != nil {
		return fmt.Errorf("error executing documents SQL: %w", err)
	}

	exist, err := checkFunctions(db, DocumentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL documents functions loaded successfully")
	return nil
}

// LoadAssociationsSql loads association-related SQL functions
func LoadAssociationsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, AssociationsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing associations functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(associationsSQL)
	if err != nil {
		return fmt.Errorf("error executing associations SQL: %w", err)
	}

	exist, err := checkFunctions(db, AssociationsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL associations functions loaded successfully")
	return nil
}

// LoadTimelinesSql loads timeline-related SQL functions
func LoadTimelinesSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, TimelinesFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing timelines functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(timelinesSQL)
	if err != nil {
		return fmt.Errorf("error executing timelines SQL: %w", err)
	}

	exist, err := checkFunctions(db, TimelinesFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL timelines functions loaded successfully")
	return nil
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadDocumentsSql(db, force); err != nil {
		return err
	}

	if err := LoadAssociationsSql(db, force); err != nil {
		return err
	}

	if err := LoadTimelinesSql(db, force); err != nil {
		return err
	}

	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
