package controller

import (
	"ai-grammar-companion/internal/dto"
	"ai-grammar-companion/internal/model"
	"ai-grammar-companion/internal/pkg/serverutils"
	"ai-grammar-companion/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IGrammarController interface {
	RegisterRoutes(r fiber.Router)
	Check(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	Dismiss(ctx *fiber.Ctx) error
	Highlight(ctx *fiber.Ctx) error
	OpenViewer(ctx *fiber.Ctx) error
}

type grammarController struct {
	coordinator service.ICoordinatorService
}

func NewGrammarController(coordinator service.ICoordinatorService) IGrammarController {
	return &grammarController{
		coordinator: coordinator,
	}
}

func (c *grammarController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/grammar/v1")
	h.Post("check", c.Check)
	h.Get("history", c.History)
	h.Post("dismiss", c.Dismiss)
	h.Post("highlight", c.Highlight)
	h.Post("open-viewer", c.OpenViewer)
}

// Check accepts a one-shot grammar check. The response confirms the
// check was dispatched; the suggestion itself arrives over the page and
// viewer channels.
func (c *grammarController) Check(ctx *fiber.Ctx) error {
	var req dto.CheckGrammarRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	// UserContext, not the fasthttp request context: the check outlives
	// this handler and fasthttp recycles its contexts between requests.
	res := c.coordinator.HandleCheckRequest(ctx.UserContext(), model.CheckRequest{
		PageSessionID: req.PageSessionID,
		FieldID:       req.ElementID,
		Text:          req.Text,
	})

	return ctx.JSON(dto.CheckGrammarResponse{
		Accepted: res.Accepted,
		Reason:   res.Reason,
	})
}

func (c *grammarController) History(ctx *fiber.Ctx) error {
	pageSessionID := ctx.Query("pageSessionId", "")

	res := c.coordinator.RequestHistory(pageSessionID)

	return ctx.JSON(serverutils.SuccessResponse("Success fetch history", res))
}

func (c *grammarController) Dismiss(ctx *fiber.Ctx) error {
	var req dto.DismissRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	c.coordinator.DismissEntry(req.Timestamp, req.ElementID)

	return ctx.JSON(serverutils.SuccessResponse("Success dismiss entry", nil))
}

func (c *grammarController) OpenViewer(ctx *fiber.Ctx) error {
	var req dto.OpenViewerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	return ctx.JSON(dto.OpenViewerResponse{
		ViewerOpen: c.coordinator.IsPageObserved(req.PageSessionID),
	})
}

func (c *grammarController) Highlight(ctx *fiber.Ctx) error {
	var req dto.HighlightRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	c.coordinator.RequestHighlight(req.PageSessionID, req.ElementID)

	return ctx.JSON(serverutils.SuccessResponse("Success forward highlight", nil))
}
