package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ArchiveEmbeddingDimensions is the width of the embedding column.
const ArchiveEmbeddingDimensions = 384

type InterviewSession struct {
	Id                uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CandidateId       string     `gorm:"type:text;not null;index"`
	Status            string     `gorm:"type:varchar(16);not null"`
	Round             int        `gorm:"not null;default:1"`
	MaxRounds         int        `gorm:"not null"`
	Difficulty        string     `gorm:"type:varchar(16)"`
	TopicsCovered     []string   `gorm:"type:jsonb;serializer:json"`
	Strengths         []string   `gorm:"type:jsonb;serializer:json"`
	Weaknesses        []string   `gorm:"type:jsonb;serializer:json"`
	TotalInteractions int        `gorm:"default:0"`
	CreatedAt         time.Time  `gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime"`
	EndedAt           *time.Time `gorm:"index"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}

type InterviewInteraction struct {
	Id               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId        uuid.UUID       `gorm:"type:uuid;not null;index"`
	CandidateId      string          `gorm:"type:text;not null;index"`
	Round            int             `gorm:"not null"`
	Question         string          `gorm:"type:text"`
	Answer           string          `gorm:"type:text"`
	Topic            string          `gorm:"type:text;index"`
	CorrectnessScore float64         `gorm:"not null"`
	DepthLevel       string          `gorm:"type:varchar(16)"`
	Decision         string          `gorm:"type:varchar(32)"`
	Embedding        pgvector.Vector `gorm:"type:vector(384)"`
	CreatedAt        time.Time       `gorm:"autoCreateTime"`
}

func (InterviewInteraction) TableName() string {
	return "interview_interactions"
}
