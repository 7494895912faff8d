package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/llm"
)

// callLLM runs one generation and classifies transport failures.
func callLLM(ctx context.Context, provider llm.LLMProvider, prompt string, opts ...llm.Option) (string, error) {
	out, err := provider.Generate(ctx, prompt, opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", interview.ErrOracleUnavailable, err)
	}
	return out, nil
}

// LLMEvaluator asks a language model to grade an answer.
type LLMEvaluator struct {
	provider llm.LLMProvider
}

func NewLLMEvaluator(provider llm.LLMProvider) *LLMEvaluator {
	return &LLMEvaluator{provider: provider}
}

type rawEvaluation struct {
	CorrectnessScore *float64 `json:"correctness_score"`
	DepthLevel       *string  `json:"depth_level"`
	FollowUpNeeded   *bool    `json:"follow_up_needed"`
	DetectedTopics   []string `json:"detected_topics"`
}

func (e *LLMEvaluator) Evaluate(ctx context.Context, question, answer string) (interview.Evaluation, error) {
	prompt := fmt.Sprintf(evaluationPrompt, question, answer)
	out, err := callLLM(ctx, e.provider, prompt, llm.WithTemperature(0.1), llm.WithMaxTokens(300), llm.WithJSON())
	if err != nil {
		return interview.Evaluation{}, err
	}
	return ParseEvaluation(out)
}

// ParseEvaluation decodes a model reply into a validated Evaluation.
// Every field must be present; extra fields are ignored.
func ParseEvaluation(response string) (interview.Evaluation, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return interview.Evaluation{}, fmt.Errorf("%w: no JSON object in reply", interview.ErrEvaluationSchema)
	}

	var raw rawEvaluation
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return interview.Evaluation{}, fmt.Errorf("%w: %v", interview.ErrEvaluationSchema, err)
	}
	if raw.CorrectnessScore == nil || raw.DepthLevel == nil || raw.FollowUpNeeded == nil || raw.DetectedTopics == nil {
		return interview.Evaluation{}, fmt.Errorf("%w: missing required field", interview.ErrEvaluationSchema)
	}

	depth, err := interview.ParseDepthLevel(*raw.DepthLevel)
	if err != nil {
		return interview.Evaluation{}, err
	}

	topics := make([]string, 0, len(raw.DetectedTopics))
	for _, t := range raw.DetectedTopics {
		topics = append(topics, strings.TrimSpace(t))
	}

	ev := interview.Evaluation{
		CorrectnessScore: *raw.CorrectnessScore,
		DepthLevel:       depth,
		FollowUpNeeded:   *raw.FollowUpNeeded,
		DetectedTopics:   topics,
	}
	if err := ev.Validate(); err != nil {
		return interview.Evaluation{}, err
	}
	return ev, nil
}

// LLMDecider asks a language model for the next action.
type LLMDecider struct {
	provider llm.LLMProvider
}

func NewLLMDecider(provider llm.LLMProvider) *LLMDecider {
	return &LLMDecider{provider: provider}
}

type rawDecision struct {
	Decision *string `json:"decision"`
	Simpler  bool    `json:"simpler"`
}

func (d *LLMDecider) Decide(ctx context.Context, in interview.DecisionInput) (interview.Outcome, error) {
	prompt := fmt.Sprintf(decisionPrompt,
		toJSON(in.Evaluation),
		in.ConfidenceScore,
		in.EmotionState,
		toJSON(in.TopicsCovered),
		in.Round,
		in.MaxRounds,
	)
	out, err := callLLM(ctx, d.provider, prompt, llm.WithTemperature(0.1), llm.WithMaxTokens(100), llm.WithJSON())
	if err != nil {
		return interview.Outcome{}, err
	}
	return ParseDecision(out)
}

// ParseDecision decodes a model reply into one of the four actions.
func ParseDecision(response string) (interview.Outcome, error) {
	jsonContent := extractJSON(response)
	if jsonContent == "" {
		return interview.Outcome{}, fmt.Errorf("%w: no JSON object in reply", interview.ErrDecisionSchema)
	}

	var raw rawDecision
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return interview.Outcome{}, fmt.Errorf("%w: %v", interview.ErrDecisionSchema, err)
	}
	if raw.Decision == nil {
		return interview.Outcome{}, fmt.Errorf("%w: missing decision", interview.ErrDecisionSchema)
	}

	decision, err := interview.ParseDecision(*raw.Decision)
	if err != nil {
		return interview.Outcome{}, err
	}
	return interview.Outcome{
		Decision: decision,
		Simpler:  raw.Simpler && decision == interview.DecisionAskFollowUp,
	}, nil
}

// LLMQuestioner asks a language model for the next question.
type LLMQuestioner struct {
	provider llm.LLMProvider
}

func NewLLMQuestioner(provider llm.LLMProvider) *LLMQuestioner {
	return &LLMQuestioner{provider: provider}
}

func (q *LLMQuestioner) NextQuestion(ctx context.Context, in QuestionInput) (string, error) {
	var prompt string
	if len(in.PastQuestions) == 0 && in.Evaluation == nil {
		prompt = fmt.Sprintf(openingPrompt, in.Difficulty)
	} else {
		hint := ""
		if in.Simpler {
			hint = "- The candidate is struggling: make this question simpler and more approachable.\n"
		}
		summary := "none"
		if in.Evaluation != nil {
			summary = toJSON(in.Evaluation)
		}
		prompt = fmt.Sprintf(questionPrompt,
			hint,
			toJSON(in.PastQuestions),
			summary,
			toJSON(in.TopicsCovered),
			toJSON(in.WeakTopics),
			in.Difficulty,
		)
	}

	out, err := callLLM(ctx, q.provider, prompt, llm.WithTemperature(0.35), llm.WithMaxTokens(100))
	if err != nil {
		return "", err
	}
	return CleanQuestion(out)
}

// CleanQuestion keeps the first non-empty line of a reply, minus quotes and
// list markers.
func CleanQuestion(response string) (string, error) {
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*# ")
		line = strings.Trim(line, "\"'` ")
		if line != "" {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: empty question", interview.ErrQuestionOracle)
}
