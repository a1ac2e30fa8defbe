package usecase

import (
	"context"
	"fmt"

	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/fadilmartias/fasthire/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SyncError struct {
	ApplicantID uuid.UUID `json:"applicant_id"`
	JobID       uuid.UUID `json:"job_id"`
	Error       string    `json:"error"`
}

// SyncResult counts visited pairs in Processed and changed applications in Updated.
type SyncResult struct {
	Processed int         `json:"processed"`
	Updated   int         `json:"updated"`
	Errors    []SyncError `json:"errors"`
}

type ReconciliationUsecase struct {
	apps    ApplicationRepository
	checker *deliveryChecker
	logger  *zap.Logger
}

func NewReconciliationUsecase(apps ApplicationRepository, logs MailLogRepository, log *zap.Logger) *ReconciliationUsecase {
	return &ReconciliationUsecase{
		apps:    apps,
		checker: &deliveryChecker{apps: apps, logs: logs},
		logger:  logger.WithFields(log),
	}
}

// SyncDeliveryFlags recomputes every pair's delivery flag from the mail log
// alone and rewrites the applications whose flag differs.
func (uc *ReconciliationUsecase) SyncDeliveryFlags(ctx context.Context) (*SyncResult, error) {
	apps, err := uc.apps.ListDeliveryState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}

	res := &SyncResult{Errors: []SyncError{}}
	for _, group := range groupByPair(apps) {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Processed++

		first := group[0]
		updated, err := uc.syncGroup(ctx, group)
		if err != nil {
			uc.logger.Error("delivery flag sync failed",
				zap.String(logger.FieldApplicantID, first.ApplicantID.String()),
				zap.String(logger.FieldJobID, first.JobID.String()),
				zap.Error(err))
			res.Errors = append(res.Errors, SyncError{ApplicantID: first.ApplicantID, JobID: first.JobID, Error: err.Error()})
			continue
		}
		res.Updated += updated
	}

	uc.logger.Info("delivery flags synced",
		zap.Int("processed", res.Processed),
		zap.Int("updated", res.Updated),
		zap.Int("errors", len(res.Errors)))
	return res, nil
}

func (uc *ReconciliationUsecase) syncGroup(ctx context.Context, group []model.Application) (int, error) {
	status, err := uc.checker.checkSiblings(ctx, group, false)
	if err != nil {
		return 0, err
	}

	var drifted []uuid.UUID
	for _, a := range group {
		if a.Notified != status.Received {
			drifted = append(drifted, a.ID)
		}
	}
	if len(drifted) == 0 {
		return 0, nil
	}
	n, err := uc.apps.SetNotified(ctx, drifted, status.Received)
	if err != nil {
		return 0, fmt.Errorf("update delivery flags: %w", err)
	}
	return int(n), nil
}

func groupByPair(apps []model.Application) [][]model.Application {
	index := make(map[pairKey]int)
	var groups [][]model.Application
	for _, a := range apps {
		key := pairKey{a.ApplicantID, a.JobID}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], a)
	}
	return groups
}
