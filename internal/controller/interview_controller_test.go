package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/internal/pkg/serverutils"
	sessionstore "ai-interviewer-be/internal/repository/memory"
	"ai-interviewer-be/internal/service"
	"ai-interviewer-be/pkg/embedding"
	"ai-interviewer-be/pkg/interview"
	"ai-interviewer-be/pkg/interview/oracle"
	"ai-interviewer-be/pkg/interview/pipeline"
	"ai-interviewer-be/pkg/memory"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEvaluator struct{}

func (fixedEvaluator) Evaluate(ctx context.Context, question, answer string) (interview.Evaluation, error) {
	return interview.Evaluation{
		CorrectnessScore: 0.9,
		DepthLevel:       interview.DepthGood,
		DetectedTopics:   []string{"databases"},
	}, nil
}

type fixedQuestioner struct{}

func (fixedQuestioner) NextQuestion(ctx context.Context, in oracle.QuestionInput) (string, error) {
	return "Explain an index at " + string(in.Difficulty) + " level.", nil
}

func newTestApp(t *testing.T, secret string) *fiber.App {
	t.Helper()
	memories := memory.NewRegistry(memory.ScopeCandidate, embedding.NewHashProvider(32))
	turns := pipeline.New(pipeline.Config{
		Evaluator:       fixedEvaluator{},
		Decider:         oracle.NewRuleDecider(),
		Questioner:      fixedQuestioner{},
		Memory:          memories,
		OracleTimeout:   time.Second,
		OpeningQuestion: "What is a primary key?",
	})
	svc := service.NewInterviewService(
		sessionstore.NewSessionRepository(time.Hour, time.Minute),
		turns,
		memories,
		nil,
		service.InterviewDefaults{MaxRounds: 5},
		logger.NewNopLogger(),
	)

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewInterviewController(svc, secret).RegisterRoutes(app.Group("/api"))
	return app
}

type envelope struct {
	Success   bool            `json:"success"`
	Code      int             `json:"code"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, path, body string, headers ...string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	return resp.StatusCode, env
}

func startInterview(t *testing.T, app *fiber.App, body string) string {
	t.Helper()
	status, env := call(t, app, http.MethodPost, "/api/interviews/start", body)
	require.Equal(t, fiber.StatusCreated, status, env.Message)

	var data struct {
		SessionId string `json:"session_id"`
		Question  string `json:"question"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "What is a primary key?", data.Question)
	return data.SessionId
}

func TestInterviewController_Flow(t *testing.T) {
	app := newTestApp(t, "")
	id := startInterview(t, app, `{"candidate_id":"alice","max_rounds":4}`)

	status, env := call(t, app, http.MethodPost, "/api/interviews/"+id+"/answer",
		`{"text":"A unique row identifier.","confidence_score":0.9,"emotion_state":"calm"}`)
	require.Equal(t, fiber.StatusOK, status, env.Message)

	var answer struct {
		NextQuestion *string `json:"next_question"`
		Status       string  `json:"status"`
		Round        int     `json:"round"`
		Decision     string  `json:"decision"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, "ongoing", answer.Status)
	assert.Equal(t, 2, answer.Round)
	assert.Equal(t, "INCREASE_DIFFICULTY", answer.Decision)
	require.NotNil(t, answer.NextQuestion)
	assert.Equal(t, "Explain an index at medium level.", *answer.NextQuestion)

	status, env = call(t, app, http.MethodGet, "/api/interviews/"+id+"/status", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), `"difficulty":"medium"`)

	status, env = call(t, app, http.MethodGet, "/api/interviews/"+id+"/summary", "")
	require.Equal(t, fiber.StatusOK, status)
	var summary struct {
		Strengths         []string `json:"strengths"`
		TotalInteractions int      `json:"total_interactions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, []string{"databases"}, summary.Strengths)
	assert.Equal(t, 1, summary.TotalInteractions)

	status, env = call(t, app, http.MethodGet, "/api/interviews/"+id+"/context?q=primary+key&k=2", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), "A unique row identifier.")

	status, env = call(t, app, http.MethodGet, "/api/interviews/active", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(env.Data), id)

	status, _ = call(t, app, http.MethodDelete, "/api/interviews/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = call(t, app, http.MethodDelete, "/api/interviews/"+id, "")
	assert.Equal(t, fiber.StatusOK, status)

	status, env = call(t, app, http.MethodGet, "/api/interviews/"+id+"/status", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "SESSION_NOT_FOUND", env.ErrorCode)
}

func TestInterviewController_Errors(t *testing.T) {
	app := newTestApp(t, "")
	id := startInterview(t, app, `{"candidate_id":"alice"}`)

	tests := []struct {
		name      string
		method    string
		path      string
		body      string
		status    int
		errorCode string
	}{
		{"duplicate candidate", http.MethodPost, "/api/interviews/start", `{"candidate_id":"alice"}`, 409, "DUPLICATE_SESSION"},
		{"bad difficulty", http.MethodPost, "/api/interviews/start", `{"candidate_id":"bob","difficulty":"insane"}`, 400, "VALIDATION_ERROR"},
		{"bad rounds", http.MethodPost, "/api/interviews/start", `{"candidate_id":"bob","max_rounds":-2}`, 400, "VALIDATION_ERROR"},
		{"malformed body", http.MethodPost, "/api/interviews/" + id + "/answer", `{"text":`, 400, "VALIDATION_ERROR"},
		{"empty answer", http.MethodPost, "/api/interviews/" + id + "/answer", `{"text":"  "}`, 400, "EMPTY_ANSWER"},
		{"confidence out of range", http.MethodPost, "/api/interviews/" + id + "/answer", `{"text":"x","confidence_score":1.5}`, 400, "VALIDATION_ERROR"},
		{"unknown session", http.MethodPost, "/api/interviews/nope/answer", `{"text":"x"}`, 404, "SESSION_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := call(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, env.Message)
			assert.Equal(t, tt.errorCode, env.ErrorCode)
			assert.False(t, env.Success)
		})
	}
}

func TestInterviewController_Auth(t *testing.T) {
	const secret = "s3cret"
	app := newTestApp(t, secret)

	status, _ := call(t, app, http.MethodGet, "/api/interviews/health", "")
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, http.MethodPost, "/api/interviews/start", `{}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-99",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)

	status, env := call(t, app, http.MethodPost, "/api/interviews/start", `{}`, "Authorization", "Bearer "+token)
	require.Equal(t, fiber.StatusCreated, status, env.Message)
	assert.Contains(t, string(env.Data), `"candidate_id":"user-99"`)
}
