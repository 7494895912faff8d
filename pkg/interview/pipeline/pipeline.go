package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/interview/oracle"
	"ai-interviewer-be/pkg/memory"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	module = "TurnPipeline"

	DefaultOracleTimeout = 30 * time.Second
)

// Answer is one candidate reply plus the optional affect signals.
type Answer struct {
	Text            string
	ConfidenceScore *float64
	EmotionState    string
}

// Result is what a turn hands back to the caller.
type Result struct {
	NextQuestion *string               `json:"next_question"`
	Status       interview.Status      `json:"status"`
	Round        int                   `json:"round"`
	Repeated     bool                  `json:"repeated,omitempty"`
	Decision     *interview.Decision   `json:"decision,omitempty"`
	Evaluation   *interview.Evaluation `json:"evaluation,omitempty"`
	WeakTopics   []string              `json:"weak_topics"`
	Profile      *interview.Profile    `json:"profile,omitempty"`
}

type Config struct {
	Evaluator       oracle.Evaluator
	Decider         oracle.Decider
	Questioner      oracle.Questioner
	Memory          *memory.Registry
	Logger          logger.ILogger
	OracleTimeout   time.Duration
	OpeningQuestion string
}

// Pipeline advances a session by one turn. It never touches the registry:
// it receives a private clone and returns the next state for the caller to
// commit.
type Pipeline struct {
	evaluator       oracle.Evaluator
	decider         oracle.Decider
	questioner      oracle.Questioner
	memory          *memory.Registry
	logger          logger.ILogger
	timeout         time.Duration
	openingQuestion string
	tracer          trace.Tracer
}

func New(cfg Config) *Pipeline {
	timeout := cfg.OracleTimeout
	if timeout <= 0 {
		timeout = DefaultOracleTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Pipeline{
		evaluator:       cfg.Evaluator,
		decider:         cfg.Decider,
		questioner:      cfg.Questioner,
		memory:          cfg.Memory,
		logger:          log,
		timeout:         timeout,
		openingQuestion: strings.TrimSpace(cfg.OpeningQuestion),
		tracer:          otel.Tracer("interview-pipeline"),
	}
}

// Open asks the first question of a fresh session.
func (p *Pipeline) Open(ctx context.Context, session *interview.Session) (*interview.Session, error) {
	next := session.Clone()
	if next.Ended() {
		return nil, interview.ErrSessionEnded
	}
	if next.CurrentQuestion != "" {
		return next, nil
	}

	question := p.openingQuestion
	if question == "" {
		var err error
		question, err = p.generate(ctx, oracle.QuestionInput{
			PastQuestions: next.PastQuestions,
			TopicsCovered: next.TopicsCovered,
			WeakTopics:    p.knownWeakTopics(next),
			Difficulty:    next.Difficulty,
		})
		if err != nil {
			return nil, err
		}
	}

	next.AskQuestion(question)
	next.UpdatedAt = time.Now()

	p.logger.Info(module, "Opening question asked", map[string]interface{}{
		"session_id": next.ID,
		"difficulty": next.Difficulty,
	})
	return next, nil
}

// Guard is checked right before the memory write. A non-nil error aborts
// the turn with nothing remembered.
type Guard func() error

// Step runs one turn against a snapshot of the session. On success it
// returns the next state; on failure the snapshot is left as it was and
// nothing is written to memory.
func (p *Pipeline) Step(ctx context.Context, session *interview.Session, answer Answer, guards ...Guard) (*interview.Session, *Result, error) {
	if session.Ended() {
		return nil, nil, interview.ErrSessionEnded
	}

	if interview.IsRepeatRequest(answer.Text) {
		p.logger.Debug(module, "Repeat requested", map[string]interface{}{
			"session_id": session.ID,
			"round":      session.Round,
		})
		current := session.CurrentQuestion
		return session, &Result{
			NextQuestion: &current,
			Status:       session.Status,
			Round:        session.Round,
			Repeated:     true,
			WeakTopics:   insightTopics(session.Insights),
		}, nil
	}

	if strings.TrimSpace(answer.Text) == "" {
		return nil, nil, interview.ErrEmptyAnswer
	}

	next := session.Clone()
	question := next.CurrentQuestion
	next.CandidateAnswer = answer.Text
	next.ConfidenceScore = confidenceOrDefault(answer.ConfidenceScore)
	next.EmotionState = emotionOrDefault(answer.EmotionState)

	// Evaluate
	evaluation, err := p.evaluate(ctx, next.ID, question, answer.Text)
	if err != nil {
		return nil, nil, p.fail(next, "evaluate", err)
	}
	next.MergeTopics(evaluation.DetectedTopics)
	next.Round++
	next.LastEvaluation = &evaluation

	// Decide
	outcome, err := p.decide(ctx, next.ID, interview.DecisionInput{
		Evaluation:      evaluation,
		ConfidenceScore: next.ConfidenceScore,
		EmotionState:    next.EmotionState,
		TopicsCovered:   next.TopicsCovered,
		Round:           next.Round,
		MaxRounds:       next.MaxRounds,
	})
	if err != nil {
		return nil, nil, p.fail(next, "decide", err)
	}
	decision := outcome.Decision
	next.LastDecision = &decision

	store, err := p.memory.For(next.ID, next.CandidateID)
	if err != nil {
		return nil, nil, p.fail(next, "memory", err)
	}

	// Generate or end
	switch decision {
	case interview.DecisionEndInterview:
		next.End()
	case interview.DecisionIncreaseDifficulty, interview.DecisionAskFollowUp, interview.DecisionNextTopic:
		if decision == interview.DecisionIncreaseDifficulty {
			next.Difficulty = next.Difficulty.Harder()
		}
		if outcome.Simpler {
			next.Difficulty = next.Difficulty.Simpler()
		}
		q, err := p.generate(ctx, oracle.QuestionInput{
			PastQuestions: next.PastQuestions,
			Evaluation:    next.LastEvaluation,
			TopicsCovered: next.TopicsCovered,
			WeakTopics:    store.WeakTopics(),
			Difficulty:    next.Difficulty,
			Simpler:       outcome.Simpler,
		})
		if err != nil {
			return nil, nil, p.fail(next, "generate", err)
		}
		next.AskQuestion(q)
	default:
		return nil, nil, p.fail(next, "decide", fmt.Errorf("%w: unhandled decision %q", interview.ErrDecisionSchema, decision))
	}

	// Remember
	for _, guard := range guards {
		if err := guard(); err != nil {
			return nil, nil, p.fail(next, "memory", err)
		}
	}
	if err := p.remember(ctx, store, next, question, answer.Text, evaluation); err != nil {
		return nil, nil, p.fail(next, "memory", err)
	}

	insights := store.Insights()
	next.Insights = &insights
	next.UpdatedAt = time.Now()

	p.logger.Info(module, "Turn completed", map[string]interface{}{
		"session_id":  next.ID,
		"round":       next.Round,
		"decision":    decision,
		"status":      next.Status,
		"difficulty":  next.Difficulty,
		"correctness": evaluation.CorrectnessScore,
	})

	profile := insights.Profile
	return next, &Result{
		NextQuestion: copyString(next.NextQuestion),
		Status:       next.Status,
		Round:        next.Round,
		Decision:     &decision,
		Evaluation:   &evaluation,
		WeakTopics:   insights.WeakTopics,
		Profile:      &profile,
	}, nil
}

func (p *Pipeline) evaluate(ctx context.Context, sessionID, question, answer string) (interview.Evaluation, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.evaluate", trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	ev, err := bounded(ctx, p.timeout, func(ctx context.Context) (interview.Evaluation, error) {
		return p.evaluator.Evaluate(ctx, question, answer)
	})
	if err == nil {
		ev, err = ev.Normalize()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return interview.Evaluation{}, err
	}
	span.SetAttributes(attribute.Float64("evaluation.correctness", ev.CorrectnessScore))
	return ev, nil
}

func (p *Pipeline) decide(ctx context.Context, sessionID string, in interview.DecisionInput) (interview.Outcome, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.decide", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("session.round", in.Round),
	))
	defer span.End()

	if in.RoundLimitReached() {
		span.SetAttributes(attribute.Bool("decision.override", true))
		return interview.Outcome{Decision: interview.DecisionEndInterview}, nil
	}

	out, err := bounded(ctx, p.timeout, func(ctx context.Context) (interview.Outcome, error) {
		return p.decider.Decide(ctx, in)
	})
	if err == nil {
		// Deciders outside this module may hand back anything.
		out.Decision, err = interview.ParseDecision(string(out.Decision))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return interview.Outcome{}, err
	}
	span.SetAttributes(attribute.String("decision", string(out.Decision)))
	return out, nil
}

func (p *Pipeline) generate(ctx context.Context, in oracle.QuestionInput) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.generate", trace.WithAttributes(attribute.String("difficulty", string(in.Difficulty))))
	defer span.End()

	q, err := bounded(ctx, p.timeout, func(ctx context.Context) (string, error) {
		return p.questioner.NextQuestion(ctx, in)
	})
	if err == nil && strings.TrimSpace(q) == "" {
		err = fmt.Errorf("%w: empty question", interview.ErrQuestionOracle)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return strings.TrimSpace(q), nil
}

// remember runs synchronously so a failed turn can never leave a record
// behind once the caller has given up.
func (p *Pipeline) remember(ctx context.Context, store *memory.Store, s *interview.Session, question, answer string, ev interview.Evaluation) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.memory", trace.WithAttributes(attribute.String("memory.store", store.Name())))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	rec, err := store.Store(ctx, memory.StoreInput{
		SessionID:   s.ID,
		CandidateID: s.CandidateID,
		Question:    question,
		Answer:      answer,
		Evaluation:  ev,
		Topic:       s.LastTopic(),
		Round:       s.Round,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("memory.ordinal", rec.Ordinal))
	return nil
}

func (p *Pipeline) knownWeakTopics(s *interview.Session) []string {
	if store, ok := p.memory.Lookup(s.ID, s.CandidateID); ok {
		return store.WeakTopics()
	}
	return nil
}

func (p *Pipeline) fail(s *interview.Session, stage string, err error) error {
	p.logger.Error(module, "Turn aborted", map[string]interface{}{
		"session_id": s.ID,
		"stage":      stage,
		"code":       interview.CodeOf(err),
		"error":      err.Error(),
	})
	return err
}

type callResult[T any] struct {
	value T
	err   error
}

// bounded runs fn with a deadline and stops waiting when it passes, even if
// fn ignores its context. A missed deadline becomes ErrOracleTimeout; a
// cancelled parent context is returned as is.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan callResult[T], 1)
	go func() {
		v, err := fn(callCtx)
		done <- callResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(r.err, context.DeadlineExceeded) && ctx.Err() == nil {
			return zero, fmt.Errorf("%w: %v", interview.ErrOracleTimeout, r.err)
		}
		return r.value, r.err
	case <-callCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w: no reply after %s", interview.ErrOracleTimeout, timeout)
	}
}

func confidenceOrDefault(c *float64) float64 {
	if c == nil {
		return interview.DefaultConfidence
	}
	switch {
	case *c < 0:
		return 0
	case *c > 1:
		return 1
	}
	return *c
}

func emotionOrDefault(e string) string {
	e = strings.TrimSpace(e)
	if e == "" {
		return interview.DefaultEmotion
	}
	return strings.ToLower(e)
}

func insightTopics(in *interview.Insights) []string {
	if in == nil {
		return []string{}
	}
	return append([]string{}, in.WeakTopics...)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
