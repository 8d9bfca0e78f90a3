package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"patchimport/config"
	"patchimport/preflight"
)

var checkJSON bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the environment can run imports",
	Long: `Run the readiness checks: Go runtime, upload directory writable, SQLite database
reachable, spreadsheet support and project root readable.

The command fails when any check fails.`,
	Example: `
  # Human readable report
  patchimport check

  # JSON report, same shape as GET /api/checks
  patchimport check --json
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		opts := preflight.Options{UploadDir: cfg.Storage.UploadDir, DBPath: cfg.Storage.DBPath}
		if root, err := os.Getwd(); err == nil {
			opts.ProjectRoot = root
		}
		if store, err := openStore(cfg); err == nil {
			defer store.Close()
			opts.DB = store
		}

		report := preflight.Run(opts)
		if err := printReport(cmd.OutOrStdout(), report, checkJSON); err != nil {
			return err
		}
		if !report.OK {
			return fmt.Errorf("readiness checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON")
}

func printReport(w io.Writer, report preflight.Report, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	for _, check := range report.Checks {
		mark := "ok"
		if !check.OK {
			mark = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", mark, check.Name, check.Message); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Go %s on %s/%s\n", report.Env["go_version"], report.Env["os"], report.Env["arch"])
	return err
}
