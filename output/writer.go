package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"patchimport/importer"
)

type Writer interface {
	Write(path string, records []importer.Record) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "json":
		return &JSONWriter{}, nil
	case "csv":
		return &CSVWriter{BOM: true}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatFromPath derives the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := normalizeFormat(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "json", "csv", "xlsx":
		return ext, nil
	default:
		return "", fmt.Errorf("cannot infer output format from %q (use .json, .csv or .xlsx)", path)
	}
}

// columns are written with the report's own header text so exports can be
// imported again.
func columns() ([]importer.FieldName, []string) {
	fields := importer.Fields()
	headers := make([]string, len(fields))
	for i, field := range fields {
		headers[i] = importer.HeaderFor(field)
	}
	return fields, headers
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
