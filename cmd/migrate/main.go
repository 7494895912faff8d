package main

import (
	"log"

	"ai-interviewer-be/internal/bootstrap"
	"ai-interviewer-be/internal/config"
	"ai-interviewer-be/pkg/database"
)

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Migrating interview archive tables...")
	if err := database.Migrate(db, bootstrap.ArchiveModels()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Creating vector index...")
	index := `CREATE INDEX IF NOT EXISTS idx_interview_interactions_embedding
		ON interview_interactions USING hnsw (embedding vector_cosine_ops);`
	if err := db.Exec(index).Error; err != nil {
		log.Printf("Warn: Failed to create vector index: %v", err)
	}

	log.Println("Migration completed.")
}
