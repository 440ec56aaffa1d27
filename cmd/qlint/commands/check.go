package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qlint/engine"
	"github.com/teranos/qlint/errors"
	"github.com/teranos/qlint/logger"
)

func newCheckCmd() *cobra.Command {
	var serverVersion string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check server plugins against the minimum supported versions",
		Long: `Query the configured server for its installed plugins and compare them
with the minimum versions qlint supports.

The server version decides how plugins are listed: servers from 5.2 on are
asked through /api/plugins/installed, older ones through the plugin index.
Pass --server-version to skip asking the server for it.

Exits non-zero when any plugin is below its minimum.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync(env.log)

			e, err := engine.New(engine.Options{Config: env.cfg}, env.log)
			if err != nil {
				return err
			}

			res, err := e.CheckCompatibility(cmd.Context(), serverVersion)
			if err != nil {
				return err
			}
			if !res.OK {
				return errors.NewUnsupportedServerError(res.Message)
			}

			fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprint(res.Message))
			return nil
		},
	}

	cmd.Flags().StringVar(&serverVersion, "server-version", "", "Server version to validate against (default: ask the server)")
	return cmd
}
