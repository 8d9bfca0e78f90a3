package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"patchimport/importer"
)

// CSVWriter writes one row per record under the report's header names.
// With BOM set the file starts with a UTF-8 byte order mark so spreadsheet
// tools detect the encoding.
type CSVWriter struct {
	BOM bool
}

func (w *CSVWriter) Write(path string, records []importer.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	var sink io.Writer = file
	var encoder *transform.Writer
	if w.BOM {
		encoder = transform.NewWriter(file, unicode.UTF8BOM.NewEncoder())
		sink = encoder
	}

	if err := writeCSV(sink, records); err != nil {
		return err
	}
	if encoder != nil {
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("flush csv encoder: %w", err)
		}
	}
	return file.Close()
}

func writeCSV(sink io.Writer, records []importer.Record) error {
	writer := csv.NewWriter(sink)
	fields, headers := columns()
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	row := make([]string, len(fields))
	for _, record := range records {
		for col, field := range fields {
			value, _ := record.Get(field)
			row[col] = value.String()
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
