package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"ai-interviewer-be/internal/dto"
	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/internal/pkg/serverutils"
	sessionstore "ai-interviewer-be/internal/repository/memory"
	"ai-interviewer-be/internal/service"
	internalWS "ai-interviewer-be/internal/websocket"
	"ai-interviewer-be/pkg/embedding"
	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/interview/oracle"
	"ai-interviewer-be/pkg/interview/pipeline"
	"ai-interviewer-be/pkg/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weakEvaluator struct{}

func (weakEvaluator) Evaluate(ctx context.Context, question, answer string) (interview.Evaluation, error) {
	return interview.Evaluation{
		CorrectnessScore: 0.3,
		DepthLevel:       interview.DepthPoor,
		DetectedTopics:   []string{"networking"},
	}, nil
}

type echoQuestioner struct{}

func (echoQuestioner) NextQuestion(ctx context.Context, in oracle.QuestionInput) (string, error) {
	return "Can you elaborate on TCP?", nil
}

func newHandler(t *testing.T, secret string) (*InterviewHandler, service.IInterviewService) {
	t.Helper()
	memories := memory.NewRegistry(memory.ScopeCandidate, embedding.NewHashProvider(32))
	svc := service.NewInterviewService(
		sessionstore.NewSessionRepository(time.Hour, time.Minute),
		pipeline.New(pipeline.Config{
			Evaluator:       weakEvaluator{},
			Decider:         oracle.NewRuleDecider(),
			Questioner:      echoQuestioner{},
			Memory:          memories,
			OracleTimeout:   time.Second,
			OpeningQuestion: "What happens during a TCP handshake?",
		}),
		memories,
		nil,
		service.InterviewDefaults{MaxRounds: 3},
		logger.NewNopLogger(),
	)
	hub := internalWS.NewHub(nil, logger.NewNopLogger())
	return NewInterviewHandler(svc, hub, secret, time.Second, logger.NewNopLogger()), svc
}

func decodeFrame(t *testing.T, raw []byte, payload interface{}) string {
	t.Helper()
	require.NotNil(t, raw)
	var f dto.WsFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	if payload != nil {
		require.NoError(t, json.Unmarshal(f.Payload, payload))
	}
	return f.Type
}

func answerFrame(text string) []byte {
	payload, _ := json.Marshal(dto.SubmitAnswerRequest{Text: text})
	data, _ := json.Marshal(dto.WsFrame{Type: dto.WsTypeAnswer, Payload: payload})
	return data
}

func TestHandleFrame_Errors(t *testing.T) {
	h, svc := newHandler(t, "")
	started, err := svc.Start(context.Background(), &dto.StartInterviewRequest{CandidateId: "alice"}, "")
	require.NoError(t, err)

	tests := []struct {
		name    string
		session string
		message []byte
		code    string
	}{
		{"not json", started.SessionId, []byte("hello"), CodeInvalidMessage},
		{"unknown type", started.SessionId, []byte(`{"type":"ping"}`), CodeInvalidMessage},
		{"bad payload", started.SessionId, []byte(`{"type":"answer","payload":"text"}`), CodeInvalidMessage},
		{"empty answer", started.SessionId, answerFrame("   "), "EMPTY_ANSWER"},
		{"missing payload", started.SessionId, []byte(`{"type":"answer"}`), "EMPTY_ANSWER"},
		{"confidence out of range", started.SessionId, []byte(`{"type":"answer","payload":{"text":"x","confidence_score":3}}`), serverutils.CodeValidation},
		{"unknown session", "nope", answerFrame("an answer"), "SESSION_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, broadcast := h.HandleFrame(context.Background(), tt.session, tt.message)
			assert.Nil(t, broadcast)

			var payload dto.WsErrorPayload
			assert.Equal(t, dto.WsTypeError, decodeFrame(t, reply, &payload))
			assert.Equal(t, tt.code, payload.Code)
		})
	}
}

func TestHandleFrame_Conversation(t *testing.T) {
	h, svc := newHandler(t, "")
	ctx := context.Background()
	started, err := svc.Start(ctx, &dto.StartInterviewRequest{CandidateId: "alice"}, "")
	require.NoError(t, err)

	// A repeat request only goes back to the asker.
	reply, broadcast := h.HandleFrame(ctx, started.SessionId, answerFrame("Could you repeat the question?"))
	assert.Nil(t, broadcast)
	var repeated dto.WsQuestionPayload
	assert.Equal(t, dto.WsTypeQuestion, decodeFrame(t, reply, &repeated))
	assert.True(t, repeated.Repeated)
	assert.Equal(t, "What happens during a TCP handshake?", repeated.Text)

	reply, broadcast = h.HandleFrame(ctx, started.SessionId, answerFrame("Packets are exchanged."))
	assert.Nil(t, reply)
	var q dto.WsQuestionPayload
	assert.Equal(t, dto.WsTypeQuestion, decodeFrame(t, broadcast, &q))
	assert.Equal(t, "Can you elaborate on TCP?", q.Text)
	assert.Equal(t, 2, q.Round)
	assert.Equal(t, []string{"networking"}, q.WeakTopics)

	reply, broadcast = h.HandleFrame(ctx, started.SessionId, answerFrame("SYN, SYN-ACK, ACK."))
	assert.Nil(t, reply)
	var end dto.WsInterviewEndPayload
	assert.Equal(t, dto.WsTypeInterviewEnd, decodeFrame(t, broadcast, &end))
	assert.Equal(t, 3, end.Round)
	assert.Equal(t, []string{"networking"}, end.Weaknesses)
	assert.Empty(t, end.Strengths)

	reply, _ = h.HandleFrame(ctx, started.SessionId, answerFrame("hello?"))
	var ended dto.WsErrorPayload
	assert.Equal(t, dto.WsTypeError, decodeFrame(t, reply, &ended))
	assert.Equal(t, "SESSION_ENDED", ended.Code)
}

func newApp(h *InterviewHandler) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	h.RegisterRoutes(app)
	return app
}

func TestServeWs_Handshake(t *testing.T) {
	guarded, _ := newHandler(t, "secret")
	resp, err := newApp(guarded).Test(httptest.NewRequest("GET", "/ws/interview/any", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	h, svc := newHandler(t, "")
	app := newApp(h)

	resp, err = app.Test(httptest.NewRequest("GET", "/ws/interview/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Plain HTTP against a live session asks for an upgrade.
	live, err := svc.Start(context.Background(), &dto.StartInterviewRequest{CandidateId: "bob"}, "")
	require.NoError(t, err)

	resp, err = app.Test(httptest.NewRequest("GET", "/ws/interview/"+live.SessionId, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
