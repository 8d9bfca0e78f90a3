package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"patchimport/importer"
)

func sampleRecords() []importer.Record {
	table := importer.Table{
		Header: []string{"Computer Name", "Patch ID", "Release Date", "Deployed Date", "Remarks"},
		Rows: importer.TextRows([][]string{
			{"PC1", "1,050", "Nov 5, 2025", "Nov 9, 2025 11:14 PM", "needs reboot"},
			{"PC2", "", "someday", "", ""},
		}),
	}
	return importer.Normalize(table)
}

func recordsJSON(t *testing.T, records []importer.Record) string {
	t.Helper()
	data, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal records: %v", err)
	}
	return string(data)
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	for _, format := range []string{"json", "CSV", " xlsx ", "excel"} {
		if _, err := WriterForFormat(format); err != nil {
			t.Fatalf("expected writer for %q: %v", format, err)
		}
	}
	if _, err := WriterForFormat("pdf"); err == nil {
		t.Fatalf("expected error for pdf")
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"out/records.json": "json",
		"records.CSV":      "csv",
		"records.xlsx":     "xlsx",
		"records":          "",
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		if want == "" {
			if err == nil {
				t.Fatalf("expected error for %q", path)
			}
			continue
		}
		if err != nil || got != want {
			t.Fatalf("FormatFromPath(%q) = %q, %v; want %q", path, got, err, want)
		}
	}
}

func TestJSONWriter_WritesOrderedArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.json")
	if err := (&JSONWriter{}).Write(path, sampleRecords()); err != nil {
		t.Fatalf("write json: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var restored []importer.Record
	if err := json.Unmarshal(raw, &restored); err != nil {
		t.Fatalf("decode written json: %v", err)
	}
	if diff := cmp.Diff(recordsJSON(t, sampleRecords()), recordsJSON(t, restored)); diff != "" {
		t.Fatalf("written records differ (-want +got):\n%s", diff)
	}
}

func TestJSONWriter_EmptyIsArray(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.json")
	if err := (&JSONWriter{}).Write(path, nil); err != nil {
		t.Fatalf("write json: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if string(raw) != "[]\n" {
		t.Fatalf("expected empty array, got %q", raw)
	}
}

func TestCSVWriter_OutputCanBeImportedAgain(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.csv")
	if err := (&CSVWriter{}).Write(path, sampleRecords()); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	result, err := importer.Import(path, "")
	if err != nil {
		t.Fatalf("import written csv: %v", err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(result.Records))
	}

	first, _ := result.Records[0].Get(importer.FieldDeployedDate)
	if first.Text != "2025-11-09T23:14:00" || first.Outcome != importer.OutcomeParsed {
		t.Fatalf("unexpected deployed date after reimport: %+v", first)
	}
	second, _ := result.Records[1].Get(importer.FieldReleaseDate)
	if second.Text != "someday" || second.Outcome != importer.OutcomeRawFallback {
		t.Fatalf("unexpected fallback release date after reimport: %+v", second)
	}
}

func TestCSVWriter_BOM(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, withBOM := range []bool{true, false} {
		path := filepath.Join(dir, "records.csv")
		if err := (&CSVWriter{BOM: withBOM}).Write(path, sampleRecords()); err != nil {
			t.Fatalf("write csv: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read csv: %v", err)
		}
		if got := strings.HasPrefix(string(data), "\ufeffComputer Name,"); got != withBOM {
			t.Fatalf("BOM=%v: unexpected file start %q", withBOM, data[:20])
		}
		if !withBOM && !strings.HasPrefix(string(data), "Computer Name,") {
			t.Fatalf("unexpected file start %q", data[:20])
		}

		result, err := importer.Import(path, "")
		if err != nil {
			t.Fatalf("BOM=%v: import written csv: %v", withBOM, err)
		}
		name, _ := result.Records[0].Get(importer.FieldComputerName)
		if name.Text != "PC1" {
			t.Fatalf("BOM=%v: unexpected computer name %q", withBOM, name.Text)
		}
	}
}

func TestExcelWriter_WritesHeadersAndTypedValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "records.xlsx")
	if err := (&ExcelWriter{}).Write(path, sampleRecords()); err != nil {
		t.Fatalf("write excel: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open excel: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Computer Name" || rows[0][4] != "Patch ID" {
		t.Fatalf("unexpected header row: %v", rows[0])
	}
	if rows[1][4] != "1050" {
		t.Fatalf("unexpected patch id cell %q", rows[1][4])
	}

	panes, err := file.GetPanes(file.GetSheetName(0))
	if err != nil {
		t.Fatalf("read panes: %v", err)
	}
	if !panes.Freeze || panes.YSplit != 1 {
		t.Fatalf("expected frozen header row, got %+v", panes)
	}

	result, err := importer.Import(path, "")
	if err != nil {
		t.Fatalf("import written workbook: %v", err)
	}
	patchID, _ := result.Records[0].Get(importer.FieldPatchID)
	if patchID.Int != 1050 {
		t.Fatalf("unexpected patch id after reimport: %v", patchID.Interface())
	}
}
