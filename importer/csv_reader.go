package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVReader decodes comma separated reports. A UTF-8 byte-order mark is
// dropped and UTF-16 exports with a BOM are transcoded to UTF-8.
type CSVReader struct{}

func (r *CSVReader) Decode(source io.Reader) (Table, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	reader := csv.NewReader(transform.NewReader(source, decoder))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}

	rows := make([][]Cell, 0, 128)
	rowNumber := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv row %d: %w", rowNumber+1, err)
		}
		rowNumber++

		cells := make([]Cell, len(row))
		for i, value := range row {
			cells[i] = TextCell(value)
		}
		rows = append(rows, cells)
	}

	return Table{Header: headers, Rows: rows}, nil
}
