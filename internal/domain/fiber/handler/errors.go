package handler

import (
	"errors"

	"github.com/fadilmartias/fasthire/internal/dto"
	"github.com/fadilmartias/fasthire/internal/usecase"
	"github.com/fadilmartias/fasthire/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// writeError renders err with the status its kind maps to. fallback is the
// message used for unexpected failures.
func writeError(c *fiber.Ctx, err error, fallback string) error {
	var (
		conflict *usecase.ConflictError
		invalid  *dto.ValidationError
	)
	switch {
	case errors.As(err, &invalid):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: "invalid request",
			Details: invalid.Fields,
		}, err)
	case errors.As(err, &conflict):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusConflict,
			Message: conflict.Error(),
			Details: fiber.Map{
				"template_name":  conflict.TemplateName,
				"sent_at":        conflict.SentAt,
				"application_id": conflict.ApplicationID,
			},
		}, err)
	case errors.Is(err, usecase.ErrApplicationNotFound),
		errors.Is(err, usecase.ErrTemplateNotFound),
		errors.Is(err, usecase.ErrJobNotFound),
		errors.Is(err, usecase.ErrMatchingNotFound):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusNotFound,
			Message: err.Error(),
		}, err)
	case errors.Is(err, usecase.ErrInvalidCV), errors.Is(err, usecase.ErrRecipientMissing):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadRequest,
			Message: err.Error(),
		}, err)
	case errors.Is(err, usecase.ErrParserFailed):
		return util.ErrorResponse(c, util.ErrorResponseFormat{
			Code:    fiber.StatusBadGateway,
			Message: "job description parser unavailable",
		}, err)
	}
	return util.ErrorResponse(c, util.ErrorResponseFormat{Message: fallback}, err)
}

func uuidParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, &dto.ValidationError{Fields: map[string]string{name: "must be a valid UUID"}}
	}
	return id, nil
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return &dto.ValidationError{Fields: map[string]string{"body": "must be valid JSON"}}
	}
	return dto.Validate(out)
}
