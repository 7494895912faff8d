package interview

import "time"

const (
	DefaultConfidence = 0.5
	DefaultEmotion    = "calm"
	GeneralTopic      = "general"
)

// Profile is the strength/weakness summary computed from stored interactions.
type Profile struct {
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	TotalInteractions int      `json:"total_interactions"`
}

// Insights are the memory signals read back after a turn.
type Insights struct {
	WeakTopics []string `json:"weak_topics"`
	Profile    Profile  `json:"profile"`
}

// Session is the mutable progress record of one candidate interview.
// The Session Registry owns it; everything else works on clones.
type Session struct {
	ID          string `json:"session_id"`
	CandidateID string `json:"candidate_id"`
	Status      Status `json:"status"`
	Round       int    `json:"round"`
	MaxRounds   int    `json:"max_rounds"`

	CurrentQuestion string   `json:"current_question"`
	CandidateAnswer string   `json:"candidate_answer"`
	PastQuestions   []string `json:"past_questions"`
	TopicsCovered   []string `json:"topics_covered"`

	LastEvaluation  *Evaluation `json:"last_evaluation"`
	ConfidenceScore float64     `json:"confidence_score"`
	EmotionState    string      `json:"emotion_state"`
	LastDecision    *Decision   `json:"last_decision"`
	NextQuestion    *string     `json:"next_question"`
	Difficulty      Difficulty  `json:"difficulty"`
	Insights        *Insights   `json:"insights,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession returns a fresh ongoing session at round 1.
func NewSession(id, candidateID string, maxRounds int, difficulty Difficulty) *Session {
	if maxRounds < 1 {
		maxRounds = 1
	}
	now := time.Now()
	return &Session{
		ID:              id,
		CandidateID:     candidateID,
		Status:          StatusOngoing,
		Round:           1,
		MaxRounds:       maxRounds,
		PastQuestions:   make([]string, 0),
		TopicsCovered:   make([]string, 0),
		ConfidenceScore: DefaultConfidence,
		EmotionState:    DefaultEmotion,
		Difficulty:      difficulty,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// cloneStrings copies a list, keeping nil and empty apart so snapshots
// encode the same way as the original.
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}

// Clone deep-copies the session so a turn can mutate it privately.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.PastQuestions = cloneStrings(s.PastQuestions)
	c.TopicsCovered = cloneStrings(s.TopicsCovered)
	if s.LastEvaluation != nil {
		ev := s.LastEvaluation.clone()
		c.LastEvaluation = &ev
	}
	if s.LastDecision != nil {
		d := *s.LastDecision
		c.LastDecision = &d
	}
	if s.NextQuestion != nil {
		q := *s.NextQuestion
		c.NextQuestion = &q
	}
	if s.Insights != nil {
		in := Insights{
			WeakTopics: cloneStrings(s.Insights.WeakTopics),
			Profile: Profile{
				Strengths:         cloneStrings(s.Insights.Profile.Strengths),
				Weaknesses:        cloneStrings(s.Insights.Profile.Weaknesses),
				TotalInteractions: s.Insights.Profile.TotalInteractions,
			},
		}
		c.Insights = &in
	}
	return &c
}

// MergeTopics appends unseen, non-blank topics, keeping first-seen order.
func (s *Session) MergeTopics(topics []string) {
	seen := make(map[string]struct{}, len(s.TopicsCovered))
	for _, t := range s.TopicsCovered {
		seen[t] = struct{}{}
	}
	for _, t := range topics {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		s.TopicsCovered = append(s.TopicsCovered, t)
	}
}

// LastTopic is the most recently added topic, or "general".
func (s *Session) LastTopic() string {
	if len(s.TopicsCovered) == 0 {
		return GeneralTopic
	}
	return s.TopicsCovered[len(s.TopicsCovered)-1]
}

// AskQuestion makes q the question surfaced to the candidate.
func (s *Session) AskQuestion(q string) {
	s.PastQuestions = append(s.PastQuestions, q)
	s.CurrentQuestion = q
	next := q
	s.NextQuestion = &next
}

// End moves the session to its terminal state.
func (s *Session) End() {
	s.Status = StatusEnded
	s.NextQuestion = nil
}

func (s *Session) Ended() bool {
	return s.Status == StatusEnded
}
