package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySessionID filters interactions of one interview.
type BySessionID struct {
	SessionID uuid.UUID
}

func (s BySessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionID)
}

// ByCandidateID filters rows of one candidate.
type ByCandidateID struct {
	CandidateID string
}

func (s ByCandidateID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("candidate_id = ?", s.CandidateID)
}

// EndedOnly keeps finished interviews.
type EndedOnly struct{}

func (s EndedOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("ended_at IS NOT NULL")
}
