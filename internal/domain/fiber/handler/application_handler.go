package handler

import (
	"context"
	"time"

	"github.com/fadilmartias/fasthire/internal/middleware"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/usecase"
	"github.com/fadilmartias/fasthire/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ApplicationService interface {
	Submit(ctx context.Context, applicationID uuid.UUID) (*usecase.SubmitReceipt, error)
}

type MatchingService interface {
	MatchingResult(ctx context.Context, applicationID uuid.UUID) (*model.MatchingRecord, error)
}

type ApplicationHandler struct {
	uc       ApplicationService
	matching MatchingService
}

func NewApplicationHandler(uc ApplicationService, matching MatchingService) *ApplicationHandler {
	return &ApplicationHandler{uc: uc, matching: matching}
}

func (h *ApplicationHandler) RegisterRoutes(app *fiber.App) {
	app.Post("/applications/:id/submit", middleware.RateLimiter(10, 10*time.Second), h.Submit)
	app.Get("/applications/:id/matching", h.Matching)
}

func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err, "")
	}

	receipt, err := h.uc.Submit(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to submit application")
	}

	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Code:    fiber.StatusAccepted,
		Message: "Application submitted, scoring in progress",
		Data:    receipt,
	})
}

func (h *ApplicationHandler) Matching(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err, "")
	}

	rec, err := h.matching.MatchingResult(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to load matching result")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get matching result",
		Data:    rec,
	})
}
