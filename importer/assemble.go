package importer

// Assemble casts every data row against the resolved headers and keeps the
// rows that carry at least one non-empty value, in input order.
func Assemble(resolution HeaderResolution, rows [][]Cell) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		record, ok := assembleRow(resolution, row)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records
}

func assembleRow(resolution HeaderResolution, row []Cell) (Record, bool) {
	// Trailing blank lines decode as a single empty cell.
	if len(row) == 1 && row[0].Blank() {
		return Record{}, false
	}

	fields := make([]Field, 0, resolution.Resolved())
	for col := range resolution {
		name, ok := resolution.Field(col)
		if !ok {
			continue
		}

		var cell Cell
		if col < len(row) {
			cell = row[col]
		}
		fields = append(fields, Field{Name: name, Value: Cast(name, cell)})
	}

	record := NewRecord(fields...)
	if !record.HasData() {
		return Record{}, false
	}
	return record, true
}

// Normalize resolves the table's header row and assembles its data rows.
func Normalize(table Table) []Record {
	return Assemble(ResolveHeaders(table.Header), table.Rows)
}
