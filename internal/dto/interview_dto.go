package dto

import (
	"encoding/json"
	"time"

	"ai-interviewer-be/pkg/interview"
)

type StartInterviewRequest struct {
	CandidateId string `json:"candidate_id" validate:"omitempty,max=128"`
	MaxRounds   int    `json:"max_rounds" validate:"omitempty,min=1,max=50"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type StartInterviewResponse struct {
	SessionId   string               `json:"session_id"`
	CandidateId string               `json:"candidate_id"`
	Status      interview.Status     `json:"status"`
	MaxRounds   int                  `json:"max_rounds"`
	Difficulty  interview.Difficulty `json:"difficulty"`
	Question    string               `json:"question"`
}

// SubmitAnswerRequest leaves text unvalidated; a blank answer is a domain
// error (EMPTY_ANSWER), not a validation one.
type SubmitAnswerRequest struct {
	Text            string   `json:"text"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty" validate:"omitempty,min=0,max=1"`
	EmotionState    string   `json:"emotion_state,omitempty" validate:"omitempty,max=32"`
}

type SubmitAnswerResponse struct {
	NextQuestion *string               `json:"next_question"`
	Status       interview.Status      `json:"status"`
	Round        int                   `json:"round"`
	Repeated     bool                  `json:"repeated,omitempty"`
	Decision     *interview.Decision   `json:"decision,omitempty"`
	Evaluation   *interview.Evaluation `json:"evaluation,omitempty"`
	WeakTopics   []string              `json:"weak_topics"`
	Profile      *interview.Profile    `json:"profile,omitempty"`
}

type InterviewStatusResponse struct {
	SessionId       string               `json:"session_id"`
	Status          interview.Status     `json:"status"`
	Round           int                  `json:"round"`
	MaxRounds       int                  `json:"max_rounds"`
	Difficulty      interview.Difficulty `json:"difficulty"`
	CurrentQuestion string               `json:"current_question"`
}

type InterviewSummaryResponse struct {
	SessionId         string           `json:"session_id"`
	CandidateId       string           `json:"candidate_id"`
	Status            interview.Status `json:"status"`
	Strengths         []string         `json:"strengths"`
	Weaknesses        []string         `json:"weaknesses"`
	TotalRounds       int              `json:"total_rounds"`
	TotalInteractions int              `json:"total_interactions"`
	TopicsCovered     []string         `json:"topics_covered"`
	WeakTopics        []string         `json:"weak_topics"`
}

type ContextMatchDTO struct {
	Question         string  `json:"question"`
	Answer           string  `json:"answer"`
	Topic            string  `json:"topic"`
	CorrectnessScore float64 `json:"correctness_score"`
	Round            int     `json:"round"`
	Distance         float64 `json:"distance"`
}

type RelevantContextResponse struct {
	Query   string            `json:"query"`
	Matches []ContextMatchDTO `json:"matches"`
}

type ActiveInterviewResponse struct {
	SessionId   string    `json:"session_id"`
	CandidateId string    `json:"candidate_id"`
	Round       int       `json:"round"`
	MaxRounds   int       `json:"max_rounds"`
	CreatedAt   time.Time `json:"created_at"`
}

// Websocket frames

const (
	WsTypeInfo         = "info"
	WsTypeAnswer       = "answer"
	WsTypeQuestion     = "question"
	WsTypeInterviewEnd = "interview_end"
	WsTypeError        = "error"
)

type WsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WsInfoPayload struct {
	Message  string `json:"message"`
	Question string `json:"question,omitempty"`
	Round    int    `json:"round"`
}

type WsQuestionPayload struct {
	Text       string   `json:"text"`
	Round      int      `json:"round"`
	Repeated   bool     `json:"repeated,omitempty"`
	WeakTopics []string `json:"weak_topics,omitempty"`
}

type WsInterviewEndPayload struct {
	Message    string   `json:"message"`
	Round      int      `json:"round"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

type WsErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
