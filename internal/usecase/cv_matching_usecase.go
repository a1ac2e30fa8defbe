package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/fadilmartias/fasthire/internal/queue"
	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/fadilmartias/fasthire/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CVMatchingPayload struct {
	ApplicationID uuid.UUID `json:"application_id"`
	JobID         uuid.UUID `json:"job_id"`
	CVFile        string    `json:"cv_file"`
}

// CVMatchingUsecase scores a CV against its job and stores the outcome. It
// never retries on its own; the queue owns attempts and backoff.
type CVMatchingUsecase struct {
	matching MatchingRepository
	keywords JDKeywordRepository
	scorer   service.ScorerServiceInterface
	logger   *zap.Logger
}

func NewCVMatchingUsecase(matching MatchingRepository, keywords JDKeywordRepository, scorer service.ScorerServiceInterface, log *zap.Logger) *CVMatchingUsecase {
	return &CVMatchingUsecase{
		matching: matching,
		keywords: keywords,
		scorer:   scorer,
		logger:   logger.WithFields(log),
	}
}

// MatchingResult returns the stored scorer output with its keyword categories.
func (uc *CVMatchingUsecase) MatchingResult(ctx context.Context, applicationID uuid.UUID) (*model.MatchingRecord, error) {
	rec, err := uc.matching.FindByApplicationID(ctx, applicationID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMatchingNotFound, applicationID)
	}
	return rec, err
}

// Handle is the CV matching queue handler.
func (uc *CVMatchingUsecase) Handle(ctx context.Context, job *queue.Job[CVMatchingPayload]) error {
	p := job.Payload
	log := logger.WithFields(uc.logger,
		zap.String(logger.FieldQueueJobID, job.ID.String()),
		zap.String(logger.FieldApplicationID, p.ApplicationID.String()),
		zap.String(logger.FieldJobID, p.JobID.String()),
		zap.Int(logger.FieldAttempt, job.Attempt))

	profile, err := uc.keywords.Profile(ctx, p.JobID)
	if err != nil {
		log.Warn("job keywords unavailable, scoring with empty profile", zap.Error(err))
		profile = nil
	}
	if len(profile) == 0 {
		log.Info("no job keywords found, scoring with empty profile")
	}

	res, err := uc.scorer.Score(ctx, service.ScoreRequest{
		JobID:   p.JobID.String(),
		CVFile:  p.CVFile,
		Profile: profile,
	})
	if err != nil {
		if !service.IsRetryable(err) {
			return queue.Permanent(err)
		}
		return err
	}

	if err := uc.persist(ctx, log, p.ApplicationID, res); err != nil {
		return err
	}
	log.Info("cv scored", zap.Float64("matching_score", res.Scores.Matching), zap.Int("categories", len(res.Keywords)))
	return nil
}

func (uc *CVMatchingUsecase) persist(ctx context.Context, log *zap.Logger, applicationID uuid.UUID, res *service.ScoreResult) error {
	return uc.matching.WithinTx(ctx, func(w repository.MatchingWriter) error {
		rec, err := w.ReplaceRecord(applicationID, res.RawText)
		if err != nil {
			return err
		}
		scores := res.Scores
		scores.Status = model.ScoringScored
		if err := w.UpdateScores(applicationID, scores); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return queue.Permanent(fmt.Errorf("%w: %s", ErrApplicationNotFound, applicationID))
			}
			return fmt.Errorf("update scores: %w", err)
		}

		for _, name := range sortedKeys(res.Keywords) {
			if err := w.SaveCategory(rec.ID, name, res.Keywords[name]); err != nil {
				log.Warn("keyword category skipped", zap.String("category", name), zap.Error(err))
			}
		}
		return nil
	})
}

// OnExhausted writes the fallback record once scoring gave up. It never
// fails the caller; there is nothing left to retry.
func (uc *CVMatchingUsecase) OnExhausted(ctx context.Context, job *queue.Job[CVMatchingPayload], cause error) {
	p := job.Payload
	log := logger.WithFields(uc.logger,
		zap.String(logger.FieldQueueJobID, job.ID.String()),
		zap.String(logger.FieldApplicationID, p.ApplicationID.String()))

	feedback := "Error processing CV"
	if cause != nil {
		feedback = "Error processing CV: " + logger.Truncate(cause.Error(), 500)
	}

	err := uc.matching.WithinTx(ctx, func(w repository.MatchingWriter) error {
		if _, err := w.ReplaceRecord(p.ApplicationID, model.FallbackExtractedText); err != nil {
			return err
		}
		return w.UpdateScores(p.ApplicationID, model.ScoreUpdate{
			Status:   model.ScoringFallback,
			Feedback: feedback,
		})
	})
	if err != nil {
		log.Error("fallback matching record not written", zap.Error(err))
		return
	}
	log.Warn("cv scoring exhausted, fallback record written", zap.NamedError("cause", cause))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
