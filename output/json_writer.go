package output

import (
	"encoding/json"
	"fmt"
	"os"

	"patchimport/importer"
)

// JSONWriter writes records as an indented JSON array.
type JSONWriter struct{}

func (w *JSONWriter) Write(path string, records []importer.Record) error {
	if records == nil {
		records = []importer.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json output %s: %w", path, err)
	}
	return nil
}
