package interview

import "errors"

// Error is a domain failure with a stable, user-visible code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrSessionNotFound   = &Error{Code: "SESSION_NOT_FOUND", Message: "interview session not found"}
	ErrSessionEnded      = &Error{Code: "SESSION_ENDED", Message: "interview session has already ended"}
	ErrDuplicateSession  = &Error{Code: "DUPLICATE_SESSION", Message: "candidate already has an ongoing interview session"}
	ErrEmptyAnswer       = &Error{Code: "EMPTY_ANSWER", Message: "answer cannot be empty"}
	ErrOracleTimeout     = &Error{Code: "ORACLE_TIMEOUT", Message: "oracle did not respond in time"}
	ErrEvaluationSchema  = &Error{Code: "EVALUATION_SCHEMA_ERROR", Message: "evaluation oracle returned an invalid result"}
	ErrDecisionSchema    = &Error{Code: "DECISION_SCHEMA_ERROR", Message: "decision oracle returned an invalid result"}
	ErrQuestionOracle    = &Error{Code: "QUESTION_ORACLE_ERROR", Message: "question oracle failed to produce a question"}
	ErrOracleUnavailable = &Error{Code: "ORACLE_UNAVAILABLE", Message: "oracle could not be reached"}
	ErrMemoryIndex       = &Error{Code: "MEMORY_INDEX_ERROR", Message: "memory index rejected the interaction"}
)

// CodeOf returns the stable code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
