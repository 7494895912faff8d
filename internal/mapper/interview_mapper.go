package mapper

import (
	"ai-interviewer-be/internal/entity"
	"ai-interviewer-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type InterviewMapper struct{}

func NewInterviewMapper() *InterviewMapper {
	return &InterviewMapper{}
}

func (m *InterviewMapper) SessionToEntity(s *model.InterviewSession) *entity.InterviewSession {
	if s == nil {
		return nil
	}

	updatedAt := s.UpdatedAt
	return &entity.InterviewSession{
		Id:                s.Id,
		CandidateId:       s.CandidateId,
		Status:            s.Status,
		Round:             s.Round,
		MaxRounds:         s.MaxRounds,
		Difficulty:        s.Difficulty,
		TopicsCovered:     s.TopicsCovered,
		Strengths:         s.Strengths,
		Weaknesses:        s.Weaknesses,
		TotalInteractions: s.TotalInteractions,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         &updatedAt,
		EndedAt:           s.EndedAt,
	}
}

func (m *InterviewMapper) SessionToModel(s *entity.InterviewSession) *model.InterviewSession {
	if s == nil {
		return nil
	}
	return &model.InterviewSession{
		Id:                s.Id,
		CandidateId:       s.CandidateId,
		Status:            s.Status,
		Round:             s.Round,
		MaxRounds:         s.MaxRounds,
		Difficulty:        s.Difficulty,
		TopicsCovered:     s.TopicsCovered,
		Strengths:         s.Strengths,
		Weaknesses:        s.Weaknesses,
		TotalInteractions: s.TotalInteractions,
		CreatedAt:         s.CreatedAt,
		EndedAt:           s.EndedAt,
	}
}

func (m *InterviewMapper) InteractionToEntity(i *model.InterviewInteraction) *entity.InterviewInteraction {
	if i == nil {
		return nil
	}
	return &entity.InterviewInteraction{
		Id:               i.Id,
		SessionId:        i.SessionId,
		CandidateId:      i.CandidateId,
		Round:            i.Round,
		Question:         i.Question,
		Answer:           i.Answer,
		Topic:            i.Topic,
		CorrectnessScore: i.CorrectnessScore,
		DepthLevel:       i.DepthLevel,
		Decision:         i.Decision,
		Embedding:        i.Embedding.Slice(),
		CreatedAt:        i.CreatedAt,
	}
}

func (m *InterviewMapper) InteractionToModel(i *entity.InterviewInteraction) *model.InterviewInteraction {
	if i == nil {
		return nil
	}
	return &model.InterviewInteraction{
		Id:               i.Id,
		SessionId:        i.SessionId,
		CandidateId:      i.CandidateId,
		Round:            i.Round,
		Question:         i.Question,
		Answer:           i.Answer,
		Topic:            i.Topic,
		CorrectnessScore: i.CorrectnessScore,
		DepthLevel:       i.DepthLevel,
		Decision:         i.Decision,
		Embedding:        pgvector.NewVector(i.Embedding),
		CreatedAt:        i.CreatedAt,
	}
}
