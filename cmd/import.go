package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"patchimport/config"
	"patchimport/importer"
	"patchimport/output"
)

var (
	importInputs  []string
	importPersist bool
	importOutput  string
	importFormat  string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Normalize CSV/XLSX patch reports into JSON records",
	Long: `Read patch report files, resolve the known column headers, coerce typed fields and
emit one JSON record per data row.

Without --persist the records of all inputs are written as one JSON array to stdout,
or to --output (JSON, CSV or Excel, inferred from the extension). An unsupported or
unreadable input aborts the run before anything is written.

With --persist every input is stored as an upload: the raw file is copied to the
upload directory and the records are saved in the SQLite database.`,
	Example: `
  # Print records as JSON
  patchimport import -i ./PatchReport.csv

  # Combine two reports into one Excel file
  patchimport import -i ./a.csv -i ./b.xlsx --output ./patches.xlsx

  # Store uploads in SQLite
  patchimport import -i ./PatchReport.xlsx --persist --db ./storage/patchimport.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		if importPersist {
			return persistImports(cmd, cfg, importInputs)
		}

		records, err := importRecords(importInputs, importFormat)
		if err != nil {
			return err
		}
		if strings.TrimSpace(importOutput) == "" {
			return writeRecordsJSON(cmd.OutOrStdout(), records)
		}
		return writeRecordsFile(importOutput, "", records)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file path (repeatable)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|xlsx (optional, inferred from extension when omitted)")
	importCmd.Flags().BoolVar(&importPersist, "persist", false, "Store inputs as uploads in the SQLite database")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Write records to this file instead of stdout (.json, .csv, .xlsx)")

	_ = importCmd.MarkFlagRequired("input")
}

// importRecords normalizes every input and concatenates the records. Any
// fatal input error aborts the whole run.
func importRecords(inputs []string, format string) ([]importer.Record, error) {
	records := make([]importer.Record, 0, 256)
	for _, input := range inputs {
		var (
			result *importer.Result
			err    error
		)
		if strings.TrimSpace(format) == "" {
			result, err = importer.Import(input, "")
		} else {
			result, err = importFileAs(input, importer.Format(format))
		}
		if err != nil {
			return nil, fmt.Errorf("import %s: %w", input, err)
		}

		logger.Debug("input normalized",
			zap.String("file", input),
			zap.Int("rows_read", result.RowsRead),
			zap.Int("rows_dropped", result.RowsDropped),
			zap.Int("records", len(result.Records)),
		)
		records = append(records, result.Records...)
	}
	return records, nil
}

func importFileAs(path string, format importer.Format) (*importer.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", importer.ErrUnreadableSource, path, err)
	}
	defer file.Close()
	return importer.ImportReader(file, format)
}

func persistImports(cmd *cobra.Command, cfg *config.Config, inputs []string) error {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	service := newUploadService(cfg, store)
	for _, input := range inputs {
		file, err := os.Open(input)
		if err != nil {
			return fmt.Errorf("open %s: %w", input, err)
		}
		item, err := service.Accept(cmd.Context(), filepath.Base(input), file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("import %s: %w", input, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Import completed. Upload: %s, File: %s, Rows read: %d, Rows dropped: %d, Records: %d\n",
			item.ID,
			item.OriginalName,
			item.RowsRead,
			item.RowsDropped,
			item.RecordCount,
		)
	}
	return nil
}

func writeRecordsJSON(w io.Writer, records []importer.Record) error {
	if records == nil {
		records = []importer.Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// writeRecordsFile writes records to path in format, or in the format implied
// by the extension when format is empty.
func writeRecordsFile(path, format string, records []importer.Record) error {
	if strings.TrimSpace(format) == "" {
		detected, err := output.FormatFromPath(path)
		if err != nil {
			return err
		}
		format = detected
	}

	writer, err := output.WriterForFormat(format)
	if err != nil {
		return err
	}
	if err := writer.Write(path, records); err != nil {
		return err
	}
	logger.Info("records written", zap.String("file", path), zap.String("format", format), zap.Int("records", len(records)))
	return nil
}
