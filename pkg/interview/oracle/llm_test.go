package oracle

import (
	"context"
	"errors"
	"testing"

	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	reply   string
	err     error
	prompts []string
	options []llm.Options
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return f.Generate(ctx, history[len(history)-1].Content, opts...)
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.options = append(f.options, llm.ApplyOptions(llm.Options{}, opts...))
	return f.reply, f.err
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     interview.Evaluation
		wantErr  error
	}{
		{
			name:     "plain json",
			response: `{"correctness_score": 0.5, "depth_level": "basic", "follow_up_needed": true, "detected_topics": ["Python"]}`,
			want:     interview.Evaluation{CorrectnessScore: 0.5, DepthLevel: interview.DepthBasic, FollowUpNeeded: true, DetectedTopics: []string{"Python"}},
		},
		{
			name:     "wrapped in prose and fences",
			response: "Here you go:\n```json\n{\"correctness_score\": 1, \"depth_level\": \"GOOD\", \"follow_up_needed\": false, \"detected_topics\": [\" OOP \"]}\n```",
			want:     interview.Evaluation{CorrectnessScore: 1, DepthLevel: interview.DepthGood, DetectedTopics: []string{"OOP"}},
		},
		{
			name:     "empty topics allowed",
			response: `{"correctness_score": 0, "depth_level": "poor", "follow_up_needed": true, "detected_topics": []}`,
			want:     interview.Evaluation{CorrectnessScore: 0, DepthLevel: interview.DepthPoor, FollowUpNeeded: true, DetectedTopics: []string{}},
		},
		{
			name:     "no json",
			response: "The answer is decent.",
			wantErr:  interview.ErrEvaluationSchema,
		},
		{
			name:     "missing field",
			response: `{"correctness_score": 0.5, "depth_level": "basic", "detected_topics": []}`,
			wantErr:  interview.ErrEvaluationSchema,
		},
		{
			name:     "score out of range",
			response: `{"correctness_score": 7, "depth_level": "basic", "follow_up_needed": false, "detected_topics": []}`,
			wantErr:  interview.ErrEvaluationSchema,
		},
		{
			name:     "unknown depth",
			response: `{"correctness_score": 0.5, "depth_level": "deep", "follow_up_needed": false, "detected_topics": []}`,
			wantErr:  interview.ErrEvaluationSchema,
		},
		{
			name:     "wrong type",
			response: `{"correctness_score": "high", "depth_level": "basic", "follow_up_needed": false, "detected_topics": []}`,
			wantErr:  interview.ErrEvaluationSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvaluation(tt.response)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     interview.Outcome
		wantErr  bool
	}{
		{"next topic", `{"decision": "NEXT_TOPIC"}`, interview.Outcome{Decision: interview.DecisionNextTopic}, false},
		{"simpler follow-up", `{"decision": "ask_followup", "simpler": true}`, interview.Outcome{Decision: interview.DecisionAskFollowUp, Simpler: true}, false},
		{"simpler ignored off follow-up", `{"decision": "NEXT_TOPIC", "simpler": true}`, interview.Outcome{Decision: interview.DecisionNextTopic}, false},
		{"out of enum", `{"decision": "SKIP_QUESTION"}`, interview.Outcome{}, true},
		{"missing decision", `{"action": "NEXT_TOPIC"}`, interview.Outcome{}, true},
		{"garbage", `NEXT_TOPIC`, interview.Outcome{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecision(tt.response)
			if tt.wantErr {
				assert.ErrorIs(t, err, interview.ErrDecisionSchema)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCleanQuestion(t *testing.T) {
	q, err := CleanQuestion("\n  \"What is a closure in JavaScript?\"\nExplanation: ...")
	require.NoError(t, err)
	assert.Equal(t, "What is a closure in JavaScript?", q)

	q, err = CleanQuestion("- How does a hash map handle collisions?")
	require.NoError(t, err)
	assert.Equal(t, "How does a hash map handle collisions?", q)

	_, err = CleanQuestion("   \n\n")
	assert.ErrorIs(t, err, interview.ErrQuestionOracle)
}

func TestLLMEvaluator_SendsQuestionAndAnswer(t *testing.T) {
	p := &fakeProvider{reply: `{"correctness_score": 0.9, "depth_level": "good", "follow_up_needed": false, "detected_topics": ["Go"]}`}
	ev, err := NewLLMEvaluator(p).Evaluate(context.Background(), "What is a goroutine?", "A lightweight thread managed by the Go runtime")
	require.NoError(t, err)

	assert.Equal(t, 0.9, ev.CorrectnessScore)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "What is a goroutine?")
	assert.Contains(t, p.prompts[0], "lightweight thread")
	assert.True(t, p.options[0].JSON)
}

func TestLLMEvaluator_TransportFailure(t *testing.T) {
	p := &fakeProvider{err: errors.New("connection refused")}
	_, err := NewLLMEvaluator(p).Evaluate(context.Background(), "q", "a")
	assert.ErrorIs(t, err, interview.ErrOracleUnavailable)

	p = &fakeProvider{err: context.DeadlineExceeded}
	_, err = NewLLMEvaluator(p).Evaluate(context.Background(), "q", "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLLMQuestioner(t *testing.T) {
	t.Run("opening question", func(t *testing.T) {
		p := &fakeProvider{reply: "What is a variable?"}
		q, err := NewLLMQuestioner(p).NextQuestion(context.Background(), QuestionInput{Difficulty: interview.DifficultyEasy})
		require.NoError(t, err)
		assert.Equal(t, "What is a variable?", q)
		assert.Contains(t, p.prompts[0], "warm-up")
	})

	t.Run("simpler hint and context", func(t *testing.T) {
		p := &fakeProvider{reply: "What does a for loop do?"}
		_, err := NewLLMQuestioner(p).NextQuestion(context.Background(), QuestionInput{
			PastQuestions: []string{"What is recursion?"},
			Evaluation:    &interview.Evaluation{CorrectnessScore: 0.2, DepthLevel: interview.DepthPoor},
			TopicsCovered: []string{"recursion"},
			WeakTopics:    []string{"recursion"},
			Difficulty:    interview.DifficultyEasy,
			Simpler:       true,
		})
		require.NoError(t, err)
		assert.Contains(t, p.prompts[0], "simpler")
		assert.Contains(t, p.prompts[0], "What is recursion?")
	})

	t.Run("blank reply", func(t *testing.T) {
		p := &fakeProvider{reply: "  "}
		_, err := NewLLMQuestioner(p).NextQuestion(context.Background(), QuestionInput{})
		assert.ErrorIs(t, err, interview.ErrQuestionOracle)
	})
}

func TestRuleDecider(t *testing.T) {
	out, err := NewRuleDecider().Decide(context.Background(), interview.DecisionInput{
		Evaluation:      interview.Evaluation{CorrectnessScore: 1, DepthLevel: interview.DepthGood, FollowUpNeeded: true},
		ConfidenceScore: 0.9,
		Round:           2,
		MaxRounds:       5,
	})
	require.NoError(t, err)
	assert.Equal(t, interview.DecisionAskFollowUp, out.Decision)
}
