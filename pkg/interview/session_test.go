package interview

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession_Defaults(t *testing.T) {
	s := NewSession("s1", "c1", 0, DifficultyEasy)
	assert.Equal(t, StatusOngoing, s.Status)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, 1, s.MaxRounds)
	assert.Equal(t, DefaultConfidence, s.ConfidenceScore)
	assert.Equal(t, DefaultEmotion, s.EmotionState)
	assert.Nil(t, s.LastDecision)
	assert.Nil(t, s.NextQuestion)
}

func TestSession_CloneIsDeep(t *testing.T) {
	s := NewSession("s1", "c1", 3, DifficultyEasy)
	s.AskQuestion("What is a map?")
	s.MergeTopics([]string{"maps"})
	s.LastEvaluation = &Evaluation{CorrectnessScore: 0.5, DepthLevel: DepthBasic, DetectedTopics: []string{"maps"}}
	s.Insights = &Insights{WeakTopics: []string{"maps"}}

	c := s.Clone()
	c.AskQuestion("What is a slice?")
	c.MergeTopics([]string{"slices"})
	c.LastEvaluation.DetectedTopics[0] = "changed"
	c.Insights.WeakTopics[0] = "changed"
	*c.NextQuestion = "mutated"

	assert.Equal(t, []string{"What is a map?"}, s.PastQuestions)
	assert.Equal(t, []string{"maps"}, s.TopicsCovered)
	assert.Equal(t, "maps", s.LastEvaluation.DetectedTopics[0])
	assert.Equal(t, "maps", s.Insights.WeakTopics[0])
	assert.Equal(t, "What is a map?", *s.NextQuestion)
}

func TestSession_MergeTopicsKeepsFirstSeenOrder(t *testing.T) {
	s := NewSession("s1", "c1", 3, DifficultyEasy)
	s.MergeTopics([]string{"go", "channels"})
	s.MergeTopics([]string{"channels", "go", "mutex", "mutex"})
	assert.Equal(t, []string{"go", "channels", "mutex"}, s.TopicsCovered)
	assert.Equal(t, "mutex", s.LastTopic())

	empty := NewSession("s2", "c1", 3, DifficultyEasy)
	assert.Equal(t, GeneralTopic, empty.LastTopic())
}

func TestSession_End(t *testing.T) {
	s := NewSession("s1", "c1", 3, DifficultyEasy)
	s.AskQuestion("q1")
	s.End()
	assert.True(t, s.Ended())
	assert.Nil(t, s.NextQuestion)
	assert.Equal(t, "q1", s.CurrentQuestion)
}

func TestEvaluation_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ev      Evaluation
		wantErr bool
	}{
		{"valid", Evaluation{CorrectnessScore: 0.7, DepthLevel: DepthGood, DetectedTopics: []string{"go"}}, false},
		{"score bounds inclusive", Evaluation{CorrectnessScore: 1, DepthLevel: DepthPoor}, false},
		{"score above one", Evaluation{CorrectnessScore: 1.2, DepthLevel: DepthGood}, true},
		{"negative score", Evaluation{CorrectnessScore: -0.1, DepthLevel: DepthGood}, true},
		{"nan score", Evaluation{CorrectnessScore: math.NaN(), DepthLevel: DepthGood}, true},
		{"unknown depth", Evaluation{CorrectnessScore: 0.5, DepthLevel: "excellent"}, true},
		{"blank topic", Evaluation{CorrectnessScore: 0.5, DepthLevel: DepthBasic, DetectedTopics: []string{" "}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrEvaluationSchema)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSession_ClonePreservesEmptyLists(t *testing.T) {
	s := NewSession("s1", "c1", 3, DifficultyEasy)
	s.LastEvaluation = &Evaluation{CorrectnessScore: 0.5, DepthLevel: DepthBasic, DetectedTopics: []string{}}
	s.Insights = &Insights{
		WeakTopics: []string{},
		Profile:    Profile{Strengths: []string{"go"}, Weaknesses: []string{}},
	}

	c := s.Clone()
	assert.Equal(t, s, c)
	assert.NotNil(t, c.Insights.WeakTopics)
	assert.NotNil(t, c.Insights.Profile.Weaknesses)
	assert.NotNil(t, c.LastEvaluation.DetectedTopics)

	raw, err := json.Marshal(c.Insights)
	require.NoError(t, err)
	assert.JSONEq(t, `{"weak_topics":[],"profile":{"strengths":["go"],"weaknesses":[],"total_interactions":0}}`, string(raw))

	var empty *Session
	assert.Nil(t, empty.Clone())
}

func TestEvaluation_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		depth DepthLevel
		want  DepthLevel
	}{
		{"upper", "GOOD", DepthGood},
		{"mixed with spaces", " Basic ", DepthBasic},
		{"canonical", DepthPoor, DepthPoor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Evaluation{CorrectnessScore: 0.5, DepthLevel: tt.depth, DetectedTopics: []string{"go"}}
			got, err := in.Normalize()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.DepthLevel)
			assert.Equal(t, tt.depth, in.DepthLevel)
		})
	}

	_, err := Evaluation{CorrectnessScore: 0.5, DepthLevel: "deep"}.Normalize()
	assert.ErrorIs(t, err, ErrEvaluationSchema)
}
