package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/chronique"
	"github.com/siherrmann/chronique/helper"
	"github.com/siherrmann/chronique/model"
)

const sampleText = `Patient suivi pour un adénocarcinome pulmonaire.
Le scanner du 12/01/2023 confirme une tumeur du lobe supérieur droit.
Chimiothérapie débutée le 03/02/2023, bien tolérée.
Consultation de suivi le 20/06/2023 sans signe de récidive.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	c, err := chronique.NewChronique(dbConfig, model.DefaultPipelineConfig(), 384)
	if err != nil {
		log.Fatalf("Failed to create chronique: %v", err)
	}
	defer c.Close()

	// The lexicon pipeline runs fully offline; use UseDefaultPipeline for the
	// model-backed classifier and snippet embeddings.
	if err := c.UseLexiconPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	doc := &model.Document{
		DocumentID: "crh-2023-06-20",
		PatientID:  "patient-42",
		Source:     "basic_example",
		Text:       sampleText,
		Metadata: model.Metadata{
			"service": "oncologie",
			"year":    2023,
		},
	}

	fmt.Println("Ingesting document...")
	numAssociations, err := c.ProcessAndInsertDocument(doc)
	if err != nil {
		log.Fatalf("Failed to process and insert document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)
	fmt.Printf("Inserted %d dated events\n", numAssociations)

	// Build and store the patient timeline from the full corpus
	doc.Text = sampleText
	timelines, report, err := c.BuildTimelines(context.Background(), []*model.Document{doc})
	if err != nil {
		log.Fatalf("Failed to build timelines: %v", err)
	}
	fmt.Printf("\nRun %s: %d documents processed, %d failed\n", report.RunID, report.SuccessCount, report.FailureCount)

	for patientID, entries := range timelines {
		fmt.Printf("\nTimeline for %s:\n", patientID)
		for _, entry := range entries {
			date := "undated"
			if entry.Resolved != nil {
				date = entry.Resolved.String()
			}
			fmt.Printf("  %-10s  %-12s  confidence %.2f  from %v\n", date, entry.Type, entry.Confidence, entry.SupportingDocuments)
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
