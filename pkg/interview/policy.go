package interview

import "strings"

const (
	LowCorrectnessThreshold  = 0.5
	HighCorrectnessThreshold = 0.8
	LowConfidenceThreshold   = 0.4
)

var nervousEmotions = map[string]struct{}{
	"nervous":  {},
	"anxious":  {},
	"fear":     {},
	"fearful":  {},
	"stressed": {},
	"scared":   {},
}

// DecisionInput is everything the decision step may look at.
type DecisionInput struct {
	Evaluation      Evaluation `json:"knowledge_evaluation"`
	ConfidenceScore float64    `json:"confidence_score"`
	EmotionState    string     `json:"emotion_state"`
	TopicsCovered   []string   `json:"topics_covered"`
	Round           int        `json:"interview_round"`
	MaxRounds       int        `json:"max_rounds"`
}

// Outcome is a decision plus the hint that the next question should be easier.
type Outcome struct {
	Decision Decision `json:"decision"`
	Simpler  bool     `json:"simpler,omitempty"`
}

// RoundLimitReached reports whether the hard ceiling applies.
func (in DecisionInput) RoundLimitReached() bool {
	return in.Round >= in.MaxRounds
}

// Decide applies the ordered rule set; the first matching rule wins.
func Decide(in DecisionInput) Outcome {
	ev := in.Evaluation
	switch {
	case in.RoundLimitReached():
		return Outcome{Decision: DecisionEndInterview}
	case ev.CorrectnessScore < LowCorrectnessThreshold || ev.DepthLevel == DepthPoor:
		return Outcome{Decision: DecisionAskFollowUp}
	case ev.FollowUpNeeded:
		return Outcome{Decision: DecisionAskFollowUp}
	case ev.CorrectnessScore >= HighCorrectnessThreshold && ev.DepthLevel == DepthGood:
		return Outcome{Decision: DecisionIncreaseDifficulty}
	case in.ConfidenceScore < LowConfidenceThreshold || IsNervous(in.EmotionState):
		return Outcome{Decision: DecisionAskFollowUp, Simpler: true}
	default:
		return Outcome{Decision: DecisionNextTopic}
	}
}

// IsNervous reports whether an emotion label signals a stressed candidate.
func IsNervous(emotion string) bool {
	_, ok := nervousEmotions[strings.ToLower(strings.TrimSpace(emotion))]
	return ok
}

var repeatPhrases = []string{
	"repeat",
	"say again",
	"can you repeat",
	"pardon",
	"didn't hear",
	"come again",
}

// IsRepeatRequest reports whether the answer asks to hear the question again.
func IsRepeatRequest(answer string) bool {
	text := strings.ToLower(answer)
	for _, phrase := range repeatPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
