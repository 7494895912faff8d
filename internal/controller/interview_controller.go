package controller

import (
	"ai-interviewer-be/internal/dto"
	"ai-interviewer-be/internal/pkg/serverutils"
	"ai-interviewer-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Answer(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
	Context(ctx *fiber.Ctx) error
	Active(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Health(ctx *fiber.Ctx) error
}

type interviewController struct {
	service   service.IInterviewService
	jwtSecret string
}

func NewInterviewController(service service.IInterviewService, jwtSecret string) IInterviewController {
	return &interviewController{service: service, jwtSecret: jwtSecret}
}

func (c *interviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/interviews")
	h.Get("/health", c.Health) // public

	h.Use(serverutils.NewJwtMiddleware(c.jwtSecret))
	h.Post("/start", c.Start)
	h.Get("/active", c.Active)
	h.Post("/:id/answer", c.Answer)
	h.Get("/:id/status", c.Status)
	h.Get("/:id/summary", c.Summary)
	h.Get("/:id/context", c.Context)
	h.Delete("/:id", c.Delete)
}

func userID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals("user_id").(string)
	return id
}

func (c *interviewController) Start(ctx *fiber.Ctx) error {
	var req dto.StartInterviewRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Start(ctx.UserContext(), &req, userID(ctx))
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Interview started", res))
}

func (c *interviewController) Answer(ctx *fiber.Ctx) error {
	var req dto.SubmitAnswerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SubmitAnswer(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Answer processed", res))
}

func (c *interviewController) Status(ctx *fiber.Ctx) error {
	res, err := c.service.Status(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get interview status", res))
}

func (c *interviewController) Summary(ctx *fiber.Ctx) error {
	res, err := c.service.Summary(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get interview summary", res))
}

func (c *interviewController) Context(ctx *fiber.Ctx) error {
	res, err := c.service.Context(ctx.UserContext(), ctx.Params("id"), ctx.Query("q"), ctx.QueryInt("k", 0))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get relevant context", res))
}

func (c *interviewController) Active(ctx *fiber.Ctx) error {
	res, err := c.service.Active(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get active interviews", res))
}

func (c *interviewController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Remove(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Interview removed", nil))
}

func (c *interviewController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{"status": "healthy"}))
}
