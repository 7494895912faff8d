package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"ai-interviewer-be/internal/dto"
	"ai-interviewer-be/internal/pkg/logger"
	sessionstore "ai-interviewer-be/internal/repository/memory"
	"ai-interviewer-be/pkg/events"
	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/interview/pipeline"
	"ai-interviewer-be/pkg/memory"

	"github.com/google/uuid"
)

const interviewModule = "InterviewService"

type IInterviewService interface {
	// Start opens a session; fallbackCandidate is used when the request
	// names no candidate.
	Start(ctx context.Context, req *dto.StartInterviewRequest, fallbackCandidate string) (*dto.StartInterviewResponse, error)
	SubmitAnswer(ctx context.Context, sessionId string, req *dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error)
	Status(ctx context.Context, sessionId string) (*dto.InterviewStatusResponse, error)
	Summary(ctx context.Context, sessionId string) (*dto.InterviewSummaryResponse, error)
	Context(ctx context.Context, sessionId, query string, k int) (*dto.RelevantContextResponse, error)
	Active(ctx context.Context) ([]dto.ActiveInterviewResponse, error)
	Remove(ctx context.Context, sessionId string) error
}

// InterviewDefaults apply when a start request leaves a field empty.
type InterviewDefaults struct {
	MaxRounds  int
	Difficulty interview.Difficulty
	TopK       int
}

type interviewService struct {
	sessions  *sessionstore.SessionRepository
	pipeline  *pipeline.Pipeline
	memories  *memory.Registry
	publisher IPublisherService
	defaults  InterviewDefaults
	logger    logger.ILogger
}

func NewInterviewService(
	sessions *sessionstore.SessionRepository,
	turns *pipeline.Pipeline,
	memories *memory.Registry,
	publisher IPublisherService,
	defaults InterviewDefaults,
	log logger.ILogger,
) IInterviewService {
	if defaults.MaxRounds < 1 {
		defaults.MaxRounds = 5
	}
	if defaults.Difficulty == "" {
		defaults.Difficulty = interview.DifficultyEasy
	}
	if defaults.TopK < 1 {
		defaults.TopK = memory.DefaultTopK
	}
	return &interviewService{
		sessions:  sessions,
		pipeline:  turns,
		memories:  memories,
		publisher: publisher,
		defaults:  defaults,
		logger:    log,
	}
}

func (s *interviewService) Start(ctx context.Context, req *dto.StartInterviewRequest, fallbackCandidate string) (*dto.StartInterviewResponse, error) {
	candidateId := strings.TrimSpace(req.CandidateId)
	if candidateId == "" {
		candidateId = fallbackCandidate
	}
	if candidateId == "" {
		candidateId = uuid.NewString()
	}

	maxRounds := req.MaxRounds
	if maxRounds == 0 {
		maxRounds = s.defaults.MaxRounds
	}

	difficulty := s.defaults.Difficulty
	if req.Difficulty != "" {
		d, err := interview.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, err
		}
		difficulty = d
	}

	created, err := s.sessions.Create(candidateId, maxRounds, difficulty)
	if err != nil {
		return nil, err
	}

	lease, err := s.sessions.Lease(ctx, created.ID)
	if err != nil {
		s.sessions.Remove(created.ID)
		return nil, err
	}
	defer lease.Release()

	opened, err := s.pipeline.Open(ctx, lease.Session())
	if err != nil {
		s.sessions.Remove(created.ID)
		return nil, err
	}
	if err := lease.Commit(opened); err != nil {
		return nil, err
	}

	s.logger.Info(interviewModule, "Interview started", map[string]interface{}{
		"session_id":   opened.ID,
		"candidate_id": opened.CandidateID,
		"max_rounds":   opened.MaxRounds,
	})
	s.publish(ctx, s.sessionEvent(events.InterviewStarted, opened))

	return &dto.StartInterviewResponse{
		SessionId:   opened.ID,
		CandidateId: opened.CandidateID,
		Status:      opened.Status,
		MaxRounds:   opened.MaxRounds,
		Difficulty:  opened.Difficulty,
		Question:    opened.CurrentQuestion,
	}, nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, sessionId string, req *dto.SubmitAnswerRequest) (*dto.SubmitAnswerResponse, error) {
	lease, err := s.sessions.Lease(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	current := lease.Session()
	next, res, err := s.pipeline.Step(ctx, current, pipeline.Answer{
		Text:            req.Text,
		ConfidenceScore: req.ConfidenceScore,
		EmotionState:    req.EmotionState,
	}, lease.Valid)
	if err != nil {
		return nil, err
	}

	if !res.Repeated {
		if err := lease.Commit(next); err != nil {
			return nil, err
		}

		turn := s.sessionEvent(events.InterviewTurnCompleted, next)
		turn.Question = current.CurrentQuestion
		turn.Answer = req.Text
		turn.Topic = next.LastTopic()
		turn.Correctness = &res.Evaluation.CorrectnessScore
		turn.DepthLevel = string(res.Evaluation.DepthLevel)
		turn.Decision = string(*res.Decision)
		turn.NextQuestion = res.NextQuestion
		s.publish(ctx, turn)

		if next.Ended() {
			s.logger.Info(interviewModule, "Interview ended", map[string]interface{}{
				"session_id": next.ID,
				"round":      next.Round,
			})
			s.publish(ctx, s.sessionEvent(events.InterviewEnded, next))
		}
	}

	return &dto.SubmitAnswerResponse{
		NextQuestion: res.NextQuestion,
		Status:       res.Status,
		Round:        res.Round,
		Repeated:     res.Repeated,
		Decision:     res.Decision,
		Evaluation:   res.Evaluation,
		WeakTopics:   res.WeakTopics,
		Profile:      res.Profile,
	}, nil
}

func (s *interviewService) Status(ctx context.Context, sessionId string) (*dto.InterviewStatusResponse, error) {
	session, err := s.sessions.Get(sessionId)
	if err != nil {
		return nil, err
	}
	return &dto.InterviewStatusResponse{
		SessionId:       session.ID,
		Status:          session.Status,
		Round:           session.Round,
		MaxRounds:       session.MaxRounds,
		Difficulty:      session.Difficulty,
		CurrentQuestion: session.CurrentQuestion,
	}, nil
}

func (s *interviewService) insights(session *interview.Session) interview.Insights {
	if store, ok := s.memories.Lookup(session.ID, session.CandidateID); ok {
		return store.Insights()
	}
	return interview.Insights{
		WeakTopics: []string{},
		Profile:    interview.Profile{Strengths: []string{}, Weaknesses: []string{}},
	}
}

func (s *interviewService) Summary(ctx context.Context, sessionId string) (*dto.InterviewSummaryResponse, error) {
	session, err := s.sessions.Get(sessionId)
	if err != nil {
		return nil, err
	}

	in := s.insights(session)
	return &dto.InterviewSummaryResponse{
		SessionId:         session.ID,
		CandidateId:       session.CandidateID,
		Status:            session.Status,
		Strengths:         in.Profile.Strengths,
		Weaknesses:        in.Profile.Weaknesses,
		TotalRounds:       session.Round,
		TotalInteractions: in.Profile.TotalInteractions,
		TopicsCovered:     session.TopicsCovered,
		WeakTopics:        in.WeakTopics,
	}, nil
}

func (s *interviewService) Context(ctx context.Context, sessionId, query string, k int) (*dto.RelevantContextResponse, error) {
	session, err := s.sessions.Get(sessionId)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		query = session.CurrentQuestion
	}
	if k <= 0 {
		k = s.defaults.TopK
	}

	res := &dto.RelevantContextResponse{Query: query, Matches: []dto.ContextMatchDTO{}}
	store, ok := s.memories.Lookup(session.ID, session.CandidateID)
	if !ok {
		return res, nil
	}

	matches, err := store.QuerySimilar(ctx, query, k)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		res.Matches = append(res.Matches, dto.ContextMatchDTO{
			Question:         m.Record.Question,
			Answer:           m.Record.Answer,
			Topic:            m.Record.Topic,
			CorrectnessScore: m.Record.CorrectnessScore,
			Round:            m.Record.Round,
			Distance:         m.Distance,
		})
	}
	return res, nil
}

func (s *interviewService) Active(ctx context.Context) ([]dto.ActiveInterviewResponse, error) {
	sessions := s.sessions.Active()
	res := make([]dto.ActiveInterviewResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, dto.ActiveInterviewResponse{
			SessionId:   session.ID,
			CandidateId: session.CandidateID,
			Round:       session.Round,
			MaxRounds:   session.MaxRounds,
			CreatedAt:   session.CreatedAt,
		})
	}
	return res, nil
}

// Remove waits for any turn in flight, so a turn either commits before the
// session goes away or fails without touching memory.
func (s *interviewService) Remove(ctx context.Context, sessionId string) error {
	lease, err := s.sessions.Lease(ctx, sessionId)
	if errors.Is(err, interview.ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	defer lease.Release()

	session := lease.Session()
	s.sessions.Remove(sessionId)
	if err := s.memories.Drop(session.ID, session.CandidateID); err != nil {
		s.logger.Warn(interviewModule, "Failed to drop session memory", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}

	s.logger.Info(interviewModule, "Interview removed", map[string]interface{}{"session_id": sessionId})
	s.publish(ctx, s.sessionEvent(events.InterviewRemoved, session))
	return nil
}

func (s *interviewService) sessionEvent(eventType string, session *interview.Session) events.InterviewEvent {
	e := events.InterviewEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		SessionID:   session.ID,
		CandidateID: session.CandidateID,
		Status:      string(session.Status),
		Round:       session.Round,
		MaxRounds:   session.MaxRounds,
		Difficulty:  string(session.Difficulty),
		OccurredAt:  time.Now().UTC(),
	}
	if eventType == events.InterviewStarted {
		e.Question = session.CurrentQuestion
	}
	if eventType == events.InterviewTurnCompleted || eventType == events.InterviewEnded {
		in := s.insights(session)
		e.TopicsCovered = session.TopicsCovered
		e.Strengths = in.Profile.Strengths
		e.Weaknesses = in.Profile.Weaknesses
		e.TotalInteractions = in.Profile.TotalInteractions
	}
	return e
}

// publish is best effort: a lost event never fails the turn.
func (s *interviewService) publish(ctx context.Context, event events.InterviewEvent) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err == nil {
		err = s.publisher.Publish(ctx, payload)
	}
	if err != nil {
		s.logger.Warn(interviewModule, "Failed to publish event", map[string]interface{}{
			"type":       event.Type,
			"session_id": event.SessionID,
			"error":      err.Error(),
		})
	}
}
