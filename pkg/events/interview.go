package events

import "time"

const (
	InterviewStarted       = "interview.started"
	InterviewTurnCompleted = "interview.turn_completed"
	InterviewEnded         = "interview.ended"
	InterviewRemoved       = "interview.removed"
)

// InterviewEvent is the wire shape shared by the in-process bus, NATS and
// the archive consumer.
type InterviewEvent struct {
	EventID           string    `json:"event_id"`
	Type              string    `json:"type"`
	SessionID         string    `json:"session_id"`
	CandidateID       string    `json:"candidate_id"`
	Status            string    `json:"status"`
	Round             int       `json:"round"`
	MaxRounds         int       `json:"max_rounds"`
	Difficulty        string    `json:"difficulty,omitempty"`
	Question          string    `json:"question,omitempty"`
	Answer            string    `json:"answer,omitempty"`
	Topic             string    `json:"topic,omitempty"`
	Correctness       *float64  `json:"correctness_score,omitempty"`
	DepthLevel        string    `json:"depth_level,omitempty"`
	Decision          string    `json:"decision,omitempty"`
	NextQuestion      *string   `json:"next_question,omitempty"`
	TopicsCovered     []string  `json:"topics_covered,omitempty"`
	Strengths         []string  `json:"strengths,omitempty"`
	Weaknesses        []string  `json:"weaknesses,omitempty"`
	TotalInteractions int       `json:"total_interactions,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func (e InterviewEvent) EventType() string {
	return e.Type
}

func (e InterviewEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func (e InterviewEvent) Payload() map[string]interface{} {
	data := map[string]interface{}{
		"event_id":     e.EventID,
		"type":         e.Type,
		"session_id":   e.SessionID,
		"candidate_id": e.CandidateID,
		"status":       e.Status,
		"round":        e.Round,
		"max_rounds":   e.MaxRounds,
		"occurred_at":  e.OccurredAt.Format(time.RFC3339Nano),
	}
	if e.Difficulty != "" {
		data["difficulty"] = e.Difficulty
	}
	if e.Question != "" {
		data["question"] = e.Question
	}
	if e.Topic != "" {
		data["topic"] = e.Topic
	}
	if e.Correctness != nil {
		data["correctness_score"] = *e.Correctness
	}
	if e.DepthLevel != "" {
		data["depth_level"] = e.DepthLevel
	}
	if e.Decision != "" {
		data["decision"] = e.Decision
	}
	if e.NextQuestion != nil {
		data["next_question"] = *e.NextQuestion
	}
	if len(e.Strengths) > 0 {
		data["strengths"] = e.Strengths
	}
	if len(e.Weaknesses) > 0 {
		data["weaknesses"] = e.Weaknesses
	}
	if len(e.TopicsCovered) > 0 {
		data["topics_covered"] = e.TopicsCovered
	}
	if e.TotalInteractions > 0 {
		data["total_interactions"] = e.TotalInteractions
	}
	return data
}
