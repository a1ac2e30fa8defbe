package main

import (
	"encoding/json"
	"os"

	"github.com/fadilmartias/fasthire/internal/repository"
	"github.com/fadilmartias/fasthire/internal/usecase"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-email-flags",
		Short: "Reconcile application delivery flags with the mail log once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := ConnectDB(zlog)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if err := migrate(cmd.Context(), db, zlog); err != nil {
				return err
			}

			// only the repositories are needed; mail and scoring stay unconfigured
			reconciliation := usecase.NewReconciliationUsecase(
				repository.NewApplicationRepository(db),
				repository.NewMailLogRepository(db),
				zlog,
			)
			result, err := reconciliation.SyncDeliveryFlags(cmd.Context())
			if err != nil {
				return err
			}
			zlog.Info("delivery flags synchronised",
				zap.Int("processed", result.Processed),
				zap.Int("updated", result.Updated),
				zap.Int("errors", len(result.Errors)))

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}
