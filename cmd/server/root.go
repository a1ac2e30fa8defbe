package main

import (
	"log"

	"github.com/fadilmartias/fasthire/internal/config"
	"github.com/fadilmartias/fasthire/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// zlog is built once flags are parsed, before any subcommand runs.
var zlog = zap.NewNop()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "fasthire",
		Short:        "Applicant tracking backend: CV scoring and applicant notifications",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := godotenv.Load(); err != nil {
				log.Println("Could not load .env file")
			}

			v := config.Env()
			if err := v.BindPFlag("LOG_DEBUG", cmd.Root().PersistentFlags().Lookup("debug")); err != nil {
				return err
			}
			if err := v.BindPFlag("LOG_JSON", cmd.Root().PersistentFlags().Lookup("json")); err != nil {
				return err
			}

			l, err := logger.New(v.GetBool("LOG_JSON"), v.GetBool("LOG_DEBUG"))
			if err != nil {
				return err
			}
			zlog = l.With(zap.String("app", config.LoadAppConfig().Name))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zlog.Sync()
		},
	}

	root.PersistentFlags().Bool("debug", false, "enable debug logging")
	root.PersistentFlags().Bool("json", false, "emit logs as JSON")

	root.AddCommand(newServeCmd(), newWorkerCmd(), newSyncCmd())
	return root
}
