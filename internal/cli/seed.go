package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load spaces and bookings from a fixtures file into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.FixturesPath
			}
			if path == "" {
				return errors.New("seed: no fixtures file given (use --file or FIXTURES_PATH)")
			}
			store, err := openStorage(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close(cmd.Context())
			return loadFixtures(cmd.Context(), store.factory, path, logger)
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "fixtures JSON file")
	return cmd
}
