package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/roomescape-reservation/internal/config"
	"github.com/iliyamo/roomescape-reservation/internal/logger"
)

const serviceName = "roomescape"

// app is filled by the root command's PersistentPreRunE before any
// subcommand runs.
type app struct {
	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "roomescape",
		Short:        "Room escape reservation service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logger.New(serviceName, cfg.Env, cfg.LogLevel)
			return nil
		},
	}
	root.AddCommand(newServeCmd(a), newMigrateCmd(a), newConsumeCmd(a))
	return root
}
