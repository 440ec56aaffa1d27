// Package commands implements the qlint command line.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/qlint/am"
	"github.com/teranos/qlint/logger"
)

// NewRootCmd builds the qlint command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qlint",
		Short: "qlint - bootstrap and inspect code-analysis runs",
		Long: `qlint - bootstrap and inspect code-analysis runs.

qlint checks that the plugins installed on an analysis server are recent
enough, resolves the rules active for a project from local storage, and
runs the analysis extensions contributed by its plugins.

Examples:
  qlint check                      # Validate server plugin versions
  qlint rules --project my-app     # Show the active rules of a project
  qlint storage import rules.toml  # Populate local storage
  qlint am show                    # Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	root.AddCommand(
		newCheckCmd(),
		newRulesCmd(),
		newStorageCmd(),
		newAmCmd(),
		newVersionCmd(),
	)
	return root
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg *am.Config
	log *zap.SugaredLogger
}

// loadEnv loads the configuration and builds the diagnostics sink from the
// verbosity flag and log.json.
func loadEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, err
	}

	verbosity, _ := cmd.Flags().GetCount("verbose")
	log, err := logger.New(logger.Options{JSON: cfg.Log.JSON, Verbosity: verbosity})
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}
