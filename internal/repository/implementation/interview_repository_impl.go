package implementation

import (
	"context"
	"errors"

	"ai-interviewer-be/internal/entity"
	"ai-interviewer-be/internal/mapper"
	"ai-interviewer-be/internal/model"
	"ai-interviewer-be/internal/repository/contract"
	"ai-interviewer-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

type InterviewSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InterviewMapper
}

func NewInterviewSessionRepository(db *gorm.DB) contract.InterviewSessionRepository {
	return &InterviewSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewInterviewMapper(),
	}
}

// Upsert never moves a stored session back to an earlier round, so events
// delivered out of order cannot overwrite newer state.
func (r *InterviewSessionRepositoryImpl) Upsert(ctx context.Context, session *entity.InterviewSession) error {
	m := r.mapper.SessionToModel(session)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "round", "difficulty", "topics_covered",
			"strengths", "weaknesses", "total_interactions", "updated_at", "ended_at",
		}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "interview_sessions.round <= excluded.round"},
		}},
	}).Create(m).Error
	if err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *InterviewSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.InterviewSession, error) {
	var m model.InterviewSession
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *InterviewSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewSession, error) {
	var models []*model.InterviewSession
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.InterviewSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *InterviewSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.InterviewSession{}, id).Error
}

type InterviewInteractionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InterviewMapper
}

func NewInterviewInteractionRepository(db *gorm.DB) contract.InterviewInteractionRepository {
	return &InterviewInteractionRepositoryImpl{
		db:     db,
		mapper: mapper.NewInterviewMapper(),
	}
}

func (r *InterviewInteractionRepositoryImpl) Create(ctx context.Context, interaction *entity.InterviewInteraction) error {
	m := r.mapper.InteractionToModel(interaction)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*interaction = *r.mapper.InteractionToEntity(m)
	return nil
}

func (r *InterviewInteractionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.InterviewInteraction, error) {
	var models []*model.InterviewInteraction
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.InterviewInteraction, len(models))
	for i, m := range models {
		entities[i] = r.mapper.InteractionToEntity(m)
	}
	return entities, nil
}

func (r *InterviewInteractionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.InterviewInteraction{}).Count(&count).Error
	return count, err
}

func (r *InterviewInteractionRepositoryImpl) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionId).Delete(&model.InterviewInteraction{}).Error
}

// SearchSimilar ranks a candidate's archived interactions by cosine
// similarity, across every session they took.
func (r *InterviewInteractionRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, limit int, candidateId string) ([]*contract.ScoredInteraction, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity.
	type result struct {
		model.InterviewInteraction
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("interview_interactions").
		Select("interview_interactions.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("candidate_id = ?", candidateId).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]*contract.ScoredInteraction, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredInteraction{
			Interaction: r.mapper.InteractionToEntity(&res.InterviewInteraction),
			Similarity:  res.Similarity,
		}
	}
	return scored, nil
}
