package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"elaview/internal/infra/config"
	"elaview/internal/infra/obs"
)

// Set through -ldflags at build time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

type rootOptions struct {
	envFiles []string
}

func NewRoot() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "elaview",
		Short:         "Elaview booking availability service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "dotenv files loaded before reading the environment (default .env)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newSeedCmd(opts))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, obs.NewLogger(cfg.Env), nil
}
