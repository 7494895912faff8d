package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ai-interviewer-be/internal/entity"
	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/internal/repository/unitofwork"
	"ai-interviewer-be/pkg/embedding"
	"ai-interviewer-be/pkg/events"
	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/memory"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const consumerModule = "ConsumerService"

// EventForwarder ships events to an external bus (NATS in production).
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	forwarder  EventForwarder
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.Provider
	logger     logger.ILogger
	attempts   int
	backoff    time.Duration
}

// NewConsumerService drains the interview topic. forwarder and uowFactory are
// optional; a nil one skips that sink.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	forwarder EventForwarder,
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.Provider,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		forwarder:  forwarder,
		uowFactory: uowFactory,
		embedder:   embedder,
		logger:     log,
		attempts:   3,
		backoff:    200 * time.Millisecond,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: both sinks are best effort and retried in
// place, since the in-process bus would redeliver a nacked message at once.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event events.InterviewEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal message", map[string]interface{}{"uuid": msg.UUID, "error": err.Error()})
		return
	}

	if cs.forwarder != nil {
		if err := cs.retry(ctx, func() error { return cs.forwarder.Publish(ctx, event) }); err != nil {
			cs.logger.Warn(consumerModule, "Failed to forward event", map[string]interface{}{"type": event.Type, "error": err.Error()})
		}
	}

	if cs.uowFactory != nil {
		if err := cs.retry(ctx, func() error { return cs.archive(ctx, event) }); err != nil {
			cs.logger.Error(consumerModule, "Failed to archive event", map[string]interface{}{
				"type":       event.Type,
				"session_id": event.SessionID,
				"error":      err.Error(),
			})
			return
		}
	}

	cs.logger.Debug(consumerModule, "Event processed", map[string]interface{}{"type": event.Type, "session_id": event.SessionID})
}

func (cs *consumerService) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= cs.attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == cs.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cs.backoff * time.Duration(attempt)):
		}
	}
	return err
}

func (cs *consumerService) archive(ctx context.Context, event events.InterviewEvent) error {
	if event.Type == events.InterviewRemoved {
		return nil
	}

	sessionId, err := uuid.Parse(event.SessionID)
	if err != nil {
		return fmt.Errorf("session id %q is not a uuid: %w", event.SessionID, err)
	}

	var interaction *entity.InterviewInteraction
	if event.Type == events.InterviewTurnCompleted {
		interaction, err = cs.interaction(ctx, sessionId, event)
		if err != nil {
			return err
		}
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	session := &entity.InterviewSession{
		Id:                sessionId,
		CandidateId:       event.CandidateID,
		Status:            event.Status,
		Round:             event.Round,
		MaxRounds:         event.MaxRounds,
		Difficulty:        event.Difficulty,
		TopicsCovered:     event.TopicsCovered,
		Strengths:         event.Strengths,
		Weaknesses:        event.Weaknesses,
		TotalInteractions: event.TotalInteractions,
		CreatedAt:         event.OccurredAt,
	}
	if event.Status == string(interview.StatusEnded) {
		endedAt := event.OccurredAt
		session.EndedAt = &endedAt
	}
	if err := uow.InterviewSessionRepository().Upsert(ctx, session); err != nil {
		return err
	}

	if interaction != nil {
		if err := uow.InterviewInteractionRepository().Create(ctx, interaction); err != nil {
			return err
		}
	}

	return uow.Commit()
}

func (cs *consumerService) interaction(ctx context.Context, sessionId uuid.UUID, event events.InterviewEvent) (*entity.InterviewInteraction, error) {
	ev := interview.Evaluation{DepthLevel: interview.DepthLevel(event.DepthLevel)}
	if event.Correctness != nil {
		ev.CorrectnessScore = *event.Correctness
	}

	vec, err := cs.embedder.Generate(ctx, memory.Summarize(event.Question, event.Answer, ev))
	if err != nil {
		return nil, fmt.Errorf("embed interaction: %w", err)
	}

	return &entity.InterviewInteraction{
		Id:               uuid.New(),
		SessionId:        sessionId,
		CandidateId:      event.CandidateID,
		Round:            event.Round,
		Question:         event.Question,
		Answer:           event.Answer,
		Topic:            event.Topic,
		CorrectnessScore: ev.CorrectnessScore,
		DepthLevel:       event.DepthLevel,
		Decision:         event.Decision,
		Embedding:        vec,
		CreatedAt:        event.OccurredAt,
	}, nil
}
