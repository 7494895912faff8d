package serverutils

import (
	"encoding/json"
	"errors"

	"ai-interviewer-be/pkg/interview"

	"github.com/gofiber/fiber/v2"
)

const CodeValidation = "VALIDATION_ERROR"

var statusByCode = map[string]int{
	interview.ErrSessionNotFound.Code:   fiber.StatusNotFound,
	interview.ErrSessionEnded.Code:      fiber.StatusConflict,
	interview.ErrDuplicateSession.Code:  fiber.StatusConflict,
	interview.ErrEmptyAnswer.Code:       fiber.StatusBadRequest,
	interview.ErrOracleTimeout.Code:     fiber.StatusGatewayTimeout,
	interview.ErrEvaluationSchema.Code:  fiber.StatusBadGateway,
	interview.ErrDecisionSchema.Code:    fiber.StatusBadGateway,
	interview.ErrQuestionOracle.Code:    fiber.StatusBadGateway,
	interview.ErrOracleUnavailable.Code: fiber.StatusBadGateway,
	interview.ErrMemoryIndex.Code:       fiber.StatusInternalServerError,
}

// MapError turns a handler error into an HTTP status and response body.
func MapError(err error) (int, BaseResponse[any]) {
	if code := interview.CodeOf(err); code != "" {
		status, ok := statusByCode[code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return status, CodedErrorResponse(status, code, err.Error())
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fiber.StatusBadRequest, CodedErrorResponse(fiber.StatusBadRequest, CodeValidation, err.Error())
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return fiber.StatusBadRequest, CodedErrorResponse(fiber.StatusBadRequest, CodeValidation, "malformed request body")
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, err.Error())
}

// ErrorHandlerMiddleware renders any error returned further down the chain.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, body := MapError(err)
		return ctx.Status(status).JSON(body)
	}
}
