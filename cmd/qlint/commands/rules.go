package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/qlint/am"
	"github.com/teranos/qlint/analysis"
	"github.com/teranos/qlint/engine"
	"github.com/teranos/qlint/logger"
	"github.com/teranos/qlint/rules"
)

func newRulesCmd() *cobra.Command {
	var (
		project    string
		languages  []string
		standalone bool
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the active rules of a project",
		Long: `Bootstrap an analysis on local storage and print the rules it would run.

Without --project (or analysis.project_key) the default quality profile of
each language is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync(env.log)

			if cmd.Flags().Changed("project") {
				env.cfg.Analysis.ProjectKey = project
			}
			if len(languages) > 0 {
				env.cfg.Analysis.Languages = languages
			}
			if standalone {
				env.cfg.Analysis.Mode = am.ModeStandalone
			}

			e, err := engine.New(engine.Options{Config: env.cfg}, env.log)
			if err != nil {
				return err
			}
			if err := e.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() {
				if err := e.Stop(); err != nil {
					env.log.Warnw("Failed to stop engine", logger.FieldError, err)
				}
			}()

			baseDir, err := os.Getwd()
			if err != nil {
				return err
			}
			acfg, err := e.NewAnalysisConfiguration(baseDir)
			if err != nil {
				return err
			}
			report, err := e.Analyze(cmd.Context(), acfg, nil)
			if err != nil {
				return err
			}
			return printRules(cmd, report)
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project key (default: analysis.project_key)")
	cmd.Flags().StringSliceVar(&languages, "language", nil, "Restrict to these languages (repeatable)")
	cmd.Flags().BoolVar(&standalone, "standalone", false, "Skip the server compatibility check")
	return cmd
}

func printRules(cmd *cobra.Command, report *analysis.Report) error {
	out := cmd.OutOrStdout()

	if report.ActiveRules.Len() == 0 {
		fmt.Fprintln(out, pterm.Warning.Sprint("No active rules"))
		return nil
	}

	data := pterm.TableData{{"Rule", "Name", "Language", "Severity", "Params"}}
	for _, r := range report.ActiveRules.FindAll() {
		data = append(data, []string{r.Key().String(), r.Name(), r.Language(), r.Severity(), formatParams(r)})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, table)
	fmt.Fprintf(out, "%d active rules, languages: %s\n", report.ActiveRules.Len(), strings.Join(report.Languages, ", "))
	return nil
}

func formatParams(r *rules.ActiveRule) string {
	params := r.Params()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, " ")
}
