package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExcelReader decodes the first worksheet of an XLSX workbook. Cells with a
// date number format are returned as native time cells.
type ExcelReader struct{}

func (r *ExcelReader) Decode(source io.Reader) (Table, error) {
	file, err := excelize.OpenReader(source)
	if err != nil {
		return Table{}, fmt.Errorf("open excel workbook: %w", err)
	}
	defer file.Close()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return Table{}, fmt.Errorf("excel workbook has no sheets")
	}

	rows, err := file.GetRows(sheetName)
	if err != nil {
		return Table{}, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return Table{}, nil
	}

	dates := newDateStyleCache(file)
	data := make([][]Cell, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNumber := i + 2
		cells := make([]Cell, len(row))
		for col, text := range row {
			cells[col] = TextCell(text)
			if strings.TrimSpace(text) == "" {
				continue
			}
			if value, ok := dates.cellTime(sheetName, col+1, rowNumber); ok {
				cells[col] = TimeCell(value, text)
			}
		}
		data = append(data, cells)
	}

	return Table{Header: rows[0], Rows: data}, nil
}

// dateStyleCache remembers which style IDs carry a date number format and
// which date system the workbook counts serials in.
type dateStyleCache struct {
	file     *excelize.File
	styles   map[int]bool
	date1904 bool
}

func newDateStyleCache(file *excelize.File) *dateStyleCache {
	cache := &dateStyleCache{file: file, styles: make(map[int]bool)}
	if props, err := file.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		cache.date1904 = *props.Date1904
	}
	return cache
}

func (c *dateStyleCache) cellTime(sheet string, col, row int) (time.Time, bool) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return time.Time{}, false
	}
	styleID, err := c.file.GetCellStyle(sheet, cell)
	if err != nil || !c.isDateStyle(styleID) {
		return time.Time{}, false
	}

	raw, err := c.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return time.Time{}, false
	}
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	value, err := excelize.ExcelDateToTime(serial, c.date1904)
	if err != nil {
		return time.Time{}, false
	}
	return value.Round(time.Second), true
}

func (c *dateStyleCache) isDateStyle(styleID int) bool {
	if styleID <= 0 {
		return false
	}
	if known, ok := c.styles[styleID]; ok {
		return known
	}

	isDate := false
	if style, err := c.file.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	c.styles[styleID] = isDate
	return isDate
}

// isDateNumFmt reports whether a built-in number format renders a date.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "ydh")
}
