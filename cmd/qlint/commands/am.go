package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/qlint/am"
	"github.com/teranos/qlint/errors"
)

func newAmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "am",
		Short: "Manage qlint configuration",
		Long: `Manage qlint configuration ("am" as in "I am").

Configuration is merged from, lowest to highest precedence:
  - built-in defaults
  - /etc/qlint/config.toml
  - ~/.qlint/config.toml
  - the nearest qlint.toml above the working directory
  - QLINT_* environment variables (e.g. QLINT_SERVER_URL)`,
	}
	cmd.AddCommand(newAmInitCmd(), newAmShowCmd())
	return cmd
}

func newAmInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file",
		Long: `Write the default configuration to path (default: ~/.qlint/config.toml).

An existing file is only replaced with --force; the previous content is kept
as path.back1 (older copies rotate to .back2 and .back3).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				home, err := os.UserHomeDir()
				if err != nil {
					return errors.Wrap(err, "failed to locate home directory")
				}
				path = filepath.Join(home, ".qlint", "config.toml")
			}

			if err := am.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprintf("Wrote default configuration to %s", path))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing file (keeping a backup)")
	return cmd
}

func newAmShowCmd() *cobra.Command {
	var (
		format  string
		sources bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the effective configuration after merging every source.

With --sources each setting is listed with the file or environment
variable it came from. The server token is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sources {
				return showSources(cmd)
			}

			cfg, err := am.Load()
			if err != nil {
				return err
			}
			if cfg.Server.Token != "" {
				cfg.Server.Token = "********"
			}

			out, err := marshalConfig(cfg, format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml, json or yaml")
	cmd.Flags().BoolVar(&sources, "sources", false, "Show where each setting comes from")
	return cmd
}

func marshalConfig(cfg *am.Config, format string) (string, error) {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "toml":
		data, err = toml.Marshal(cfg)
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	case "yaml", "yml":
		data, err = yaml.Marshal(cfg)
	default:
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "unknown format %q", format),
			"Use one of: toml, json, yaml.")
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to encode configuration as %s", format)
	}
	return string(data), nil
}

func showSources(cmd *cobra.Command) error {
	settings, err := am.Introspect(am.DefaultLocations())
	if err != nil {
		return err
	}

	data := pterm.TableData{{"Setting", "Value", "Source", "From"}}
	for _, s := range settings {
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), table)
	return nil
}
