package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Result is the outcome of one import.
type Result struct {
	Format      Format
	RowsRead    int
	RowsDropped int
	Records     []Record
}

// Import reads the report at path. The source kind is taken from
// originalName when set, otherwise from path.
func Import(path, originalName string) (*Result, error) {
	name := originalName
	if strings.TrimSpace(name) == "" {
		name = filepath.Base(path)
	}

	format, err := FormatFromName(name)
	if err != nil {
		return nil, err
	}
	reader, err := ReaderForFormat(format)
	if err != nil {
		return nil, err
	}

	table, err := ReadFile(reader, path)
	if err != nil {
		return nil, err
	}
	return normalizeTable(format, table), nil
}

// ImportReader decodes source as format and normalizes it.
func ImportReader(source io.Reader, format Format) (*Result, error) {
	reader, err := ReaderForFormat(format)
	if err != nil {
		return nil, err
	}

	table, err := reader.Decode(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableSource, err)
	}
	return normalizeTable(Format(normalizeFormat(string(format))), table), nil
}

func normalizeTable(format Format, table Table) *Result {
	records := Normalize(table)
	return &Result{
		Format:      format,
		RowsRead:    len(table.Rows),
		RowsDropped: len(table.Rows) - len(records),
		Records:     records,
	}
}
