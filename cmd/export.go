package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"patchimport/config"
)

var (
	exportFormat   string
	exportOutput   string
	exportUploadID string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the stored records of an upload to JSON/CSV/Excel",
	Long: `Export the normalized records of one stored upload.

CSV and Excel exports use the report's own column headers in canonical order, so the
exported file can be imported again. The output format can be selected explicitly via
--format or inferred from the --output extension.`,
	Example: `
  # Export records to JSON
  patchimport export --upload 2025-11-10_09-05-07 --output ./patches.json

  # Export records to Excel
  patchimport export --upload 2025-11-10_09-05-07 --output ./patches.xlsx

  # Force CSV independent of extension
  patchimport export --upload 2025-11-10_09-05-07 --format csv --output ./patches.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		id := strings.TrimSpace(exportUploadID)
		if _, err := newUploadService(cfg, store).Get(id); err != nil {
			return err
		}
		records, err := store.ListRecords(id)
		if err != nil {
			return err
		}

		if err := writeRecordsFile(exportOutput, exportFormat, records); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Export completed. Records: %d, Upload: %s, File: %s\n", len(records), id, exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportUploadID, "upload", "u", "", "Upload ID to export")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: json|csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")

	_ = exportCmd.MarkFlagRequired("upload")
	_ = exportCmd.MarkFlagRequired("output")
}
