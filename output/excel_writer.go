package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"patchimport/importer"
)

const excelColumnWidth = 20

// ExcelWriter streams records into the first worksheet with a frozen, bold
// header row. Null values leave their cell empty.
type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, records []importer.Record) error {
	file := excelize.NewFile()
	defer file.Close()

	fields, headers := columns()

	headerStyle, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create excel header style: %w", err)
	}

	stream, err := file.NewStreamWriter(file.GetSheetName(0))
	if err != nil {
		return fmt.Errorf("open excel stream: %w", err)
	}
	if err := stream.SetColWidth(1, len(fields), excelColumnWidth); err != nil {
		return fmt.Errorf("set excel column width: %w", err)
	}
	if err := stream.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze excel header: %w", err)
	}

	headerRow := make([]any, len(headers))
	for col, header := range headers {
		headerRow[col] = excelize.Cell{StyleID: headerStyle, Value: header}
	}
	if err := stream.SetRow("A1", headerRow); err != nil {
		return fmt.Errorf("write excel headers: %w", err)
	}

	for i, record := range records {
		row := make([]any, len(fields))
		for col, field := range fields {
			if value, ok := record.Get(field); ok {
				row[col] = value.Interface()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := stream.SetRow(cell, row); err != nil {
			return fmt.Errorf("write excel row %d: %w", i+2, err)
		}
	}

	if err := stream.Flush(); err != nil {
		return fmt.Errorf("flush excel stream: %w", err)
	}
	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}
