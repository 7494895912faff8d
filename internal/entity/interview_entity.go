package entity

import (
	"time"

	"github.com/google/uuid"
)

// InterviewSession is the archived outcome of one interview.
type InterviewSession struct {
	Id                uuid.UUID
	CandidateId       string
	Status            string
	Round             int
	MaxRounds         int
	Difficulty        string
	TopicsCovered     []string
	Strengths         []string
	Weaknesses        []string
	TotalInteractions int
	CreatedAt         time.Time
	UpdatedAt         *time.Time
	EndedAt           *time.Time
}

// InterviewInteraction is one archived question/answer exchange.
type InterviewInteraction struct {
	Id               uuid.UUID
	SessionId        uuid.UUID
	CandidateId      string
	Round            int
	Question         string
	Answer           string
	Topic            string
	CorrectnessScore float64
	DepthLevel       string
	Decision         string
	Embedding        []float32
	CreatedAt        time.Time
}
