package unitofwork

import (
	"context"

	"ai-interviewer-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	InterviewSessionRepository() contract.InterviewSessionRepository
	InterviewInteractionRepository() contract.InterviewInteractionRepository
}
