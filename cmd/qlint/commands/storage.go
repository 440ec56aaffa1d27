package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/storage"
)

func newStorageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage local rule and profile storage",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Import rules, quality profiles and project bindings from a TOML file",
		Long: `Import a TOML fixture into local storage.

The file holds [[rules]], [[profiles]], [[active_rules]] and [[projects]]
tables. Existing entries with the same keys are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync(env.log)

			s, err := storage.Open(env.cfg.StoragePath(), env.log)
			if err != nil {
				return err
			}
			defer s.Close()

			sum, err := storage.ImportTOML(s, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf(
				"Imported %d rules, %d profiles, %d active rules, %d projects into %s",
				sum.Rules, sum.Profiles, sum.ActiveRules, sum.Projects, env.cfg.StoragePath()))
			return nil
		},
	})
	return cmd
}
