// Package oracle defines the external evaluation, decision and question
// collaborators consulted by the turn pipeline, plus LLM-backed and
// rule-based implementations.
package oracle

import (
	"context"
	"encoding/json"
	"strings"

	"ai-interviewer-be/pkg/interview"
)

// Evaluator scores one answer against the question it responds to.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (interview.Evaluation, error)
}

// Decider picks the next action for a turn that is below the round ceiling.
type Decider interface {
	Decide(ctx context.Context, in interview.DecisionInput) (interview.Outcome, error)
}

// QuestionInput is what the question oracle sees.
type QuestionInput struct {
	PastQuestions []string
	Evaluation    *interview.Evaluation
	TopicsCovered []string
	WeakTopics    []string
	Difficulty    interview.Difficulty
	Simpler       bool
}

// Questioner produces exactly one next question.
type Questioner interface {
	NextQuestion(ctx context.Context, in QuestionInput) (string, error)
}

// RuleDecider is the deterministic policy exposed as a Decider.
type RuleDecider struct{}

func NewRuleDecider() RuleDecider {
	return RuleDecider{}
}

func (RuleDecider) Decide(ctx context.Context, in interview.DecisionInput) (interview.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return interview.Outcome{}, err
	}
	return interview.Decide(in), nil
}

// extractJSON isolates the outermost JSON object in a model reply.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return response[startIdx : endIdx+1]
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
