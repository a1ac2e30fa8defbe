package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/fadilmartias/fasthire/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	defaultScalarRequirement = json.RawMessage(`{"requirement_type":"nice_to_have","value":""}`)
	defaultListRequirement   = json.RawMessage(`[]`)
)

type KeywordUsecase struct {
	jobs     JobRepository
	keywords JDKeywordRepository
	parser   service.JDParserInterface
	logger   *zap.Logger
}

func NewKeywordUsecase(jobs JobRepository, keywords JDKeywordRepository, parser service.JDParserInterface, log *zap.Logger) *KeywordUsecase {
	return &KeywordUsecase{jobs: jobs, keywords: keywords, parser: parser, logger: logger.WithFields(log)}
}

// ParseJobKeywords parses the job posting and replaces its keyword profile.
// Every category of the taxonomy is stored, missing ones with a default.
func (uc *KeywordUsecase) ParseJobKeywords(ctx context.Context, jobID uuid.UUID) (map[string]json.RawMessage, error) {
	job, err := uc.jobs.FindJobByID(ctx, jobID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, err
	}

	parsed, err := uc.parser.ParseJD(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParserFailed, err)
	}

	categories := withDefaultCategories(parsed)
	if err := uc.keywords.ReplaceForJob(ctx, jobID, categories); err != nil {
		return nil, fmt.Errorf("save job keywords: %w", err)
	}
	uc.logger.Info("job keywords stored",
		zap.String(logger.FieldJobID, jobID.String()),
		zap.Int("parsed", len(parsed)))
	return categories, nil
}

func (uc *KeywordUsecase) ProfileForJob(ctx context.Context, jobID uuid.UUID) (map[string][]json.RawMessage, error) {
	return uc.keywords.Profile(ctx, jobID)
}

func withDefaultCategories(parsed map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(model.KeywordTaxonomy))
	for _, name := range model.KeywordTaxonomy {
		if v, ok := parsed[name]; ok && len(v) > 0 && string(v) != "null" {
			out[name] = v
			continue
		}
		switch name {
		case "role_job", "experience_years":
			out[name] = defaultScalarRequirement
		default:
			out[name] = defaultListRequirement
		}
	}
	return out
}
