package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-interviewer-be/internal/dto"
	"ai-interviewer-be/internal/pkg/logger"
	"ai-interviewer-be/internal/pkg/serverutils"
	"ai-interviewer-be/internal/service"
	internalWS "ai-interviewer-be/internal/websocket"
	"ai-interviewer-be/pkg/interview"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const (
	handlerModule = "InterviewHandler"

	CodeInvalidMessage = "INVALID_MESSAGE"
	CodeInternal       = "INTERNAL_ERROR"
)

// InterviewHandler runs interviews over a websocket. Answers from any
// connection advance the session; questions and the end frame are fanned out
// to every connection watching it.
type InterviewHandler struct {
	service     service.IInterviewService
	hub         *internalWS.Hub
	jwtSecret   string
	turnTimeout time.Duration
	logger      logger.ILogger
}

func NewInterviewHandler(service service.IInterviewService, hub *internalWS.Hub, jwtSecret string, turnTimeout time.Duration, log logger.ILogger) *InterviewHandler {
	if turnTimeout <= 0 {
		turnTimeout = 2 * time.Minute
	}
	return &InterviewHandler{
		service:     service,
		hub:         hub,
		jwtSecret:   jwtSecret,
		turnTimeout: turnTimeout,
		logger:      log,
	}
}

func (h *InterviewHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/interview/:id", h.ServeWs)
}

// ServeWs handles websocket requests from the peer.
func (h *InterviewHandler) ServeWs(c *fiber.Ctx) error {
	if h.jwtSecret != "" {
		// Priority 1: Query Param (Browser standard)
		tokenStr := c.Query("token")
		if tokenStr == "" {
			authHeader := c.Get("Authorization")
			if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
				tokenStr = authHeader[7:]
			}
		}
		if tokenStr == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Missing token (Query 'token' or Header 'Authorization')"))
		}
		if _, err := serverutils.ParseUserID(tokenStr, h.jwtSecret); err != nil {
			h.logger.Warn(handlerModule, "Invalid Token in WS Handshake", map[string]interface{}{"error": err.Error()})
			return c.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(fiber.StatusUnauthorized, "Invalid token"))
		}
	}

	sessionID := c.Params("id")
	status, err := h.service.Status(c.UserContext(), sessionID)
	if err != nil {
		return err
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	greeting := h.greeting(status)
	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info(handlerModule, "Starting WebSocket session", map[string]interface{}{"session_id": sessionID})
		internalWS.ServeWs(h.hub, conn, sessionID, greeting, h.onMessage)
		h.logger.Info(handlerModule, "WebSocket session ended", map[string]interface{}{"session_id": sessionID})
	})(c)
}

func (h *InterviewHandler) greeting(status *dto.InterviewStatusResponse) []byte {
	msg := "Connected to interview"
	if status.Status == interview.StatusEnded {
		msg = "Interview has already ended"
	}
	return frame(dto.WsTypeInfo, dto.WsInfoPayload{
		Message:  msg,
		Question: status.CurrentQuestion,
		Round:    status.Round,
	})
}

func (h *InterviewHandler) onMessage(client *internalWS.Client, message []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), h.turnTimeout)
	defer cancel()

	reply, broadcast := h.HandleFrame(ctx, client.SessionID, message)
	if reply != nil {
		h.hub.Reply(client, reply)
	}
	if broadcast != nil {
		h.hub.Publish(ctx, client.SessionID, broadcast)
	}
}

// HandleFrame processes one inbound frame. reply goes back to the sender
// only; broadcast goes to every watcher of the session.
func (h *InterviewHandler) HandleFrame(ctx context.Context, sessionID string, message []byte) (reply, broadcast []byte) {
	var in dto.WsFrame
	if err := json.Unmarshal(message, &in); err != nil {
		return errorFrame(CodeInvalidMessage, "Frame is not valid JSON"), nil
	}
	if in.Type != dto.WsTypeAnswer {
		return errorFrame(CodeInvalidMessage, "Unsupported message type: "+in.Type), nil
	}

	var req dto.SubmitAnswerRequest
	if len(in.Payload) > 0 {
		if err := json.Unmarshal(in.Payload, &req); err != nil {
			return errorFrame(CodeInvalidMessage, "Answer payload is malformed"), nil
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return errorFrame(serverutils.CodeValidation, err.Error()), nil
	}

	res, err := h.service.SubmitAnswer(ctx, sessionID, &req)
	if err != nil {
		code := interview.CodeOf(err)
		if code == "" {
			code = CodeInternal
			if errors.Is(err, context.DeadlineExceeded) {
				code = interview.ErrOracleTimeout.Code
			}
			h.logger.Error(handlerModule, "Turn failed", map[string]interface{}{"session_id": sessionID, "error": err.Error()})
		}
		return errorFrame(code, err.Error()), nil
	}

	if res.Status == interview.StatusEnded {
		end := dto.WsInterviewEndPayload{
			Message:    "Interview completed",
			Round:      res.Round,
			Strengths:  []string{},
			Weaknesses: []string{},
		}
		if res.Profile != nil {
			end.Strengths = res.Profile.Strengths
			end.Weaknesses = res.Profile.Weaknesses
		}
		return nil, frame(dto.WsTypeInterviewEnd, end)
	}

	q := dto.WsQuestionPayload{
		Round:      res.Round,
		Repeated:   res.Repeated,
		WeakTopics: res.WeakTopics,
	}
	if res.NextQuestion != nil {
		q.Text = *res.NextQuestion
	}
	if res.Repeated {
		return frame(dto.WsTypeQuestion, q), nil
	}
	return nil, frame(dto.WsTypeQuestion, q)
}

func frame(frameType string, payload interface{}) []byte {
	raw, _ := json.Marshal(payload)
	data, _ := json.Marshal(dto.WsFrame{Type: frameType, Payload: raw})
	return data
}

func errorFrame(code, message string) []byte {
	return frame(dto.WsTypeError, dto.WsErrorPayload{Code: code, Message: message})
}
