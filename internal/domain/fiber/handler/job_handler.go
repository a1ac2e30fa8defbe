package handler

import (
	"context"
	"encoding/json"

	"github.com/fadilmartias/fasthire/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type KeywordService interface {
	ParseJobKeywords(ctx context.Context, jobID uuid.UUID) (map[string]json.RawMessage, error)
	ProfileForJob(ctx context.Context, jobID uuid.UUID) (map[string][]json.RawMessage, error)
}

type JobHandler struct {
	uc KeywordService
}

func NewJobHandler(uc KeywordService) *JobHandler {
	return &JobHandler{uc: uc}
}

func (h *JobHandler) RegisterRoutes(app *fiber.App) {
	jobs := app.Group("/jobs")
	jobs.Post("/:id/keywords", h.ParseKeywords)
	jobs.Get("/:id/keywords", h.Profile)
}

func (h *JobHandler) ParseKeywords(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err, "")
	}

	categories, err := h.uc.ParseJobKeywords(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to parse job keywords")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Job keywords stored",
		Data:    categories,
	})
}

func (h *JobHandler) Profile(c *fiber.Ctx) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return writeError(c, err, "")
	}

	profile, err := h.uc.ProfileForJob(c.UserContext(), id)
	if err != nil {
		return writeError(c, err, "failed to load job keywords")
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get job keywords",
		Data:    profile,
	})
}
