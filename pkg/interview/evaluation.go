package interview

import (
	"fmt"
	"math"
	"strings"
)

// DepthLevel grades how deep an answer goes.
type DepthLevel string

const (
	DepthPoor  DepthLevel = "poor"
	DepthBasic DepthLevel = "basic"
	DepthGood  DepthLevel = "good"
)

// ParseDepthLevel accepts only the three known levels (case-insensitive).
func ParseDepthLevel(s string) (DepthLevel, error) {
	switch DepthLevel(strings.ToLower(strings.TrimSpace(s))) {
	case DepthPoor:
		return DepthPoor, nil
	case DepthBasic:
		return DepthBasic, nil
	case DepthGood:
		return DepthGood, nil
	default:
		return "", fmt.Errorf("%w: unknown depth level %q", ErrEvaluationSchema, s)
	}
}

// Evaluation is the structured verdict on one answer.
type Evaluation struct {
	CorrectnessScore float64    `json:"correctness_score"`
	DepthLevel       DepthLevel `json:"depth_level"`
	FollowUpNeeded   bool       `json:"follow_up_needed"`
	DetectedTopics   []string   `json:"detected_topics"`
}

// Validate checks the evaluation oracle contract.
func (e Evaluation) Validate() error {
	_, err := e.Normalize()
	return err
}

// Normalize validates e and returns a copy with the depth level in its
// canonical form, so "GOOD" compares equal to DepthGood downstream.
func (e Evaluation) Normalize() (Evaluation, error) {
	if math.IsNaN(e.CorrectnessScore) || e.CorrectnessScore < 0 || e.CorrectnessScore > 1 {
		return Evaluation{}, fmt.Errorf("%w: correctness_score %v outside [0, 1]", ErrEvaluationSchema, e.CorrectnessScore)
	}
	depth, err := ParseDepthLevel(string(e.DepthLevel))
	if err != nil {
		return Evaluation{}, err
	}
	for i, topic := range e.DetectedTopics {
		if strings.TrimSpace(topic) == "" {
			return Evaluation{}, fmt.Errorf("%w: detected_topics[%d] is blank", ErrEvaluationSchema, i)
		}
	}
	n := e.clone()
	n.DepthLevel = depth
	return n, nil
}

func (e Evaluation) clone() Evaluation {
	e.DetectedTopics = cloneStrings(e.DetectedTopics)
	return e
}
