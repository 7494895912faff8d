package integration

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"ai-interviewer-be/internal/bootstrap"
	"ai-interviewer-be/internal/entity"
	"ai-interviewer-be/internal/model"
	"ai-interviewer-be/internal/repository/specification"
	"ai-interviewer-be/internal/repository/unitofwork"
	"ai-interviewer-be/pkg/database"
	"ai-interviewer-be/pkg/embedding"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "Failed to connect to DB")
	require.NoError(t, database.Migrate(gormDB, bootstrap.ArchiveModels()...))

	ctx := context.Background()
	factory := unitofwork.NewRepositoryFactory(gormDB)
	embedder := embedding.NewHashProvider(model.ArchiveEmbeddingDimensions)

	sessionID := uuid.New()
	candidate := "it-" + sessionID.String()[:8]

	t.Cleanup(func() {
		uow := factory.NewUnitOfWork(ctx)
		_ = uow.InterviewInteractionRepository().DeleteBySessionId(ctx, sessionID)
		_ = uow.InterviewSessionRepository().Delete(ctx, sessionID)
	})

	t.Run("Archive Turns", func(t *testing.T) {
		answers := []struct {
			question string
			answer   string
			topic    string
		}{
			{"What is a goroutine?", "A lightweight thread managed by the Go runtime.", "goroutines"},
			{"How do channels work?", "They pass values between goroutines and can block.", "channels"},
		}

		for i, a := range answers {
			vec, err := embedder.Generate(ctx, a.question+"\n"+a.answer)
			require.NoError(t, err)

			uow := factory.NewUnitOfWork(ctx)
			require.NoError(t, uow.Begin(ctx))
			err = uow.InterviewSessionRepository().Upsert(ctx, &entity.InterviewSession{
				Id:                sessionID,
				CandidateId:       candidate,
				Status:            "active",
				Round:             i + 2,
				MaxRounds:         5,
				Difficulty:        "medium",
				TopicsCovered:     []string{a.topic},
				TotalInteractions: i + 1,
				CreatedAt:         time.Now(),
			})
			require.NoError(t, err)
			err = uow.InterviewInteractionRepository().Create(ctx, &entity.InterviewInteraction{
				Id:               uuid.New(),
				SessionId:        sessionID,
				CandidateId:      candidate,
				Round:            i + 2,
				Question:         a.question,
				Answer:           a.answer,
				Topic:            a.topic,
				CorrectnessScore: 0.8,
				DepthLevel:       "good",
				Decision:         "next_topic",
				Embedding:        vec,
			})
			require.NoError(t, err)
			require.NoError(t, uow.Commit())
		}

		count, err := factory.NewUnitOfWork(ctx).InterviewInteractionRepository().Count(ctx, specification.BySessionID{SessionID: sessionID})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("Stale Round Is Ignored", func(t *testing.T) {
		repo := factory.NewUnitOfWork(ctx).InterviewSessionRepository()
		err := repo.Upsert(ctx, &entity.InterviewSession{
			Id:          sessionID,
			CandidateId: candidate,
			Status:      "active",
			Round:       1,
			MaxRounds:   5,
			Difficulty:  "medium",
			CreatedAt:   time.Now(),
		})
		require.NoError(t, err)

		stored, err := repo.FindOne(ctx, specification.ByID{ID: sessionID})
		require.NoError(t, err)
		assert.Equal(t, 3, stored.Round)
		assert.Equal(t, 2, stored.TotalInteractions)
	})

	t.Run("Search Similar", func(t *testing.T) {
		query, err := embedder.Generate(ctx, "How do channels work?\nThey pass values between goroutines and can block.")
		require.NoError(t, err)

		results, err := factory.NewUnitOfWork(ctx).InterviewInteractionRepository().SearchSimilar(ctx, query, 1, candidate)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "channels", results[0].Interaction.Topic)
		assert.InDelta(t, 1.0, results[0].Similarity, 1e-3)
	})
}
