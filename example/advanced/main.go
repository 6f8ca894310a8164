package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/chronique"
	"github.com/siherrmann/chronique/core/pipeline"
	"github.com/siherrmann/chronique/helper"
	"github.com/siherrmann/chronique/model"
)

const report1 = `Compte rendu d'hospitalisation.
Le scanner du 12/01/2023 confirme une tumeur du lobe supérieur droit.
Biopsie réalisée trois jours après. Chimiothérapie débutée le 03/02/2023.`

const report2 = `Compte rendu de consultation.
Tumeur connue depuis janvier 2023, en cours de traitement.
Consultation de suivi le 20/06/2023. IRM cérébrale sans anomalie.`

const report3 = `Compte rendu de consultation.
Récidive suspectée sur le scanner du 15/11/2023.
Nouvelle chimiothérapie discutée en réunion de concertation.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	embeddingDim := 384
	c, err := chronique.NewChronique(dbConfig, model.DefaultPipelineConfig(), embeddingDim)
	if err != nil {
		log.Fatalf("Failed to create chronique: %v", err)
	}
	defer c.Close()

	// Lexicon classifier with a deterministic embedder so the example runs
	// offline; UseDefaultPipeline wires the ONNX models instead.
	if err := c.UseLexiconPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}
	c.Pipeline.SetEmbedder(lengthEmbedder(embeddingDim))

	documents := []*model.Document{
		{
			DocumentID: "crh-2023-02-03",
			PatientID:  "patient-42",
			Source:     "advanced_example",
			Text:       report1,
			Metadata:   model.Metadata{"service": "oncologie"},
		},
		{
			DocumentID: "cs-2023-06-20",
			PatientID:  "patient-42",
			Source:     "advanced_example",
			Text:       report2,
			Metadata:   model.Metadata{"service": "oncologie"},
		},
		{
			DocumentID: "cs-2023-11-15",
			PatientID:  "patient-7",
			Source:     "advanced_example",
			Text:       report3,
			Metadata:   model.Metadata{"service": "pneumologie"},
		},
	}

	ctx := context.Background()

	// 1. Ingest every document with its scored associations
	fmt.Println("=== 1. Ingesting Documents ===")
	for _, doc := range documents {
		text := doc.Text
		numAssociations, err := c.ProcessAndInsertDocument(doc)
		if err != nil {
			log.Fatalf("Failed to process and insert %s: %v", doc.DocumentID, err)
		}
		doc.Text = text
		fmt.Printf("Document '%s' (RID: %s): %d dated events\n", doc.DocumentID, doc.RID, numAssociations)
	}

	// 2. Build per-patient timelines over the whole corpus
	fmt.Println("\n=== 2. Building Timelines ===")
	timelines, report, err := c.BuildTimelines(ctx, documents)
	if err != nil {
		log.Fatalf("Failed to build timelines: %v", err)
	}
	fmt.Printf("Run %s: %d processed, %d failed in %s\n", report.RunID, report.SuccessCount, report.FailureCount, report.Duration())
	for patientID, entries := range timelines {
		fmt.Printf("\nTimeline for %s:\n", patientID)
		for _, entry := range entries {
			printEntry(entry)
		}
	}

	// 3. Reading a stored timeline back
	fmt.Println("\n=== 3. Stored Timeline ===")
	stored, err := c.Timeline("patient-42")
	if err != nil {
		log.Fatalf("Failed to load timeline: %v", err)
	}
	for _, entry := range stored {
		printEntry(entry)
	}

	// 4. Cross-document audit via snippet similarity
	fmt.Println("\n=== 4. Similar Associations ===")
	similar, err := c.SimilarAssociations("tumeur du lobe supérieur", 3, 0.0)
	if err != nil {
		log.Fatalf("Similarity search failed: %v", err)
	}
	for i, record := range similar {
		fmt.Printf("  %d. [%.4f] %s (%s) in %s\n", i+1, record.Similarity, record.EventText, record.EventType, record.DocumentID)
	}

	// 5. Demonstrate index type switching
	fmt.Println("\n=== 5. Changing Index Type ===")
	fmt.Println("Switching to IVFFlat index...")
	err = c.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{
		"lists": 100,
	})
	if err != nil {
		log.Printf("Warning: Index change failed (this is okay for small datasets): %v", err)
	} else {
		fmt.Println("Successfully switched to IVFFlat index")
	}

	fmt.Println("Switching back to HNSW index...")
	err = c.ChangeIndexType(ctx, "hnsw", map[string]interface{}{
		"m":               16,
		"ef_construction": 64,
	})
	if err != nil {
		log.Printf("Warning: Index change failed: %v", err)
	} else {
		fmt.Println("Successfully switched to HNSW index")
	}

	fmt.Println("\n=== Advanced Example Completed Successfully! ===")
}

func printEntry(entry *model.TimelineEntry) {
	date := "undated"
	if entry.Resolved != nil {
		date = entry.Resolved.String()
	}
	flag := ""
	if entry.Ambiguous {
		flag = "  (ambiguous)"
	}
	fmt.Printf("  %-10s  %-12s  confidence %.2f  from %v%s\n", date, entry.Type, entry.Confidence, entry.SupportingDocuments, flag)
}

// lengthEmbedder is a deterministic stand-in for the ONNX snippet embedder
func lengthEmbedder(dimension int) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		for i := 0; i < dimension; i++ {
			embedding[i] = float32((len(text)+i)%100) / 100.0
		}
		return embedding, nil
	}
}
