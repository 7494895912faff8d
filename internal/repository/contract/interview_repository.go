package contract

import (
	"context"

	"ai-interviewer-be/internal/entity"
	"ai-interviewer-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredInteraction wraps an archived interaction with its similarity score.
type ScoredInteraction struct {
	Interaction *entity.InterviewInteraction
	Similarity  float64 // 0.0 to 1.0 (1.0 = identical)
}

type InterviewSessionRepository interface {
	// Upsert inserts the session or overwrites its mutable columns.
	Upsert(ctx context.Context, session *entity.InterviewSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InterviewSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewSession, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type InterviewInteractionRepository interface {
	Create(ctx context.Context, interaction *entity.InterviewInteraction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewInteraction, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error
	SearchSimilar(ctx context.Context, embedding []float32, limit int, candidateId string) ([]*ScoredInteraction, error)
}
