package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Format is a supported source kind.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrUnreadableSource  = errors.New("unreadable source")
)

// Reader decodes a source into a header row and data rows.
type Reader interface {
	Decode(r io.Reader) (Table, error)
}

// SupportedFormats lists the source kinds the importer can decode.
func SupportedFormats() []Format {
	return []Format{FormatCSV, FormatXLSX}
}

func unsupportedFormat(got string) error {
	names := make([]string, 0, len(SupportedFormats()))
	for _, format := range SupportedFormats() {
		names = append(names, "."+string(format))
	}
	return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, got, strings.Join(names, ", "))
}

func ReaderForFormat(format Format) (Reader, error) {
	switch Format(normalizeFormat(string(format))) {
	case FormatCSV:
		return &CSVReader{}, nil
	case FormatXLSX:
		return &ExcelReader{}, nil
	default:
		return nil, unsupportedFormat(fmt.Sprintf("%q", format))
	}
}

// FormatFromName infers the source kind from a file name's extension.
func FormatFromName(name string) (Format, error) {
	extension := Format(normalizeFormat(strings.TrimPrefix(filepath.Ext(name), ".")))
	if slices.Contains(SupportedFormats(), extension) {
		return extension, nil
	}
	return "", unsupportedFormat("." + string(extension))
}

// ReadFile opens path and decodes it with reader.
func ReadFile(reader Reader, path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("%w: open %s: %w", ErrUnreadableSource, path, err)
	}
	defer file.Close()

	table, err := reader.Decode(file)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %s: %w", ErrUnreadableSource, path, err)
	}
	return table, nil
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
