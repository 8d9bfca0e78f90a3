package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"patchimport/importer"
)

func writeTempReport(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp report: %v", err)
	}
	return path
}

func TestImportRecords_ConcatenatesInputs(t *testing.T) {
	first := writeTempReport(t, "a.csv", "Computer Name,Patch ID\nPC1,\"1,050\"\n")
	second := writeTempReport(t, "b.csv", "Computer Name,Patch ID\nPC2,2040\n,\n")

	records, err := importRecords([]string{first, second}, "")
	if err != nil {
		t.Fatalf("import records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	var out bytes.Buffer
	if err := writeRecordsJSON(&out, records); err != nil {
		t.Fatalf("write json: %v", err)
	}
	text := out.String()
	for _, want := range []string{`"computer_name": "PC1"`, `"patch_id": 1050`, `"computer_name": "PC2"`, `"patch_id": 2040`} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %s in output:\n%s", want, text)
		}
	}
}

func TestImportRecords_FormatOverride(t *testing.T) {
	path := writeTempReport(t, "report.dat", "Computer Name\nPC1\n")

	records, err := importRecords([]string{path}, "csv")
	if err != nil {
		t.Fatalf("import with explicit format: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestImportRecords_UnsupportedInputAbortsRun(t *testing.T) {
	good := writeTempReport(t, "a.csv", "Computer Name\nPC1\n")
	bad := writeTempReport(t, "notes.txt", "Computer Name\nPC1\n")

	records, err := importRecords([]string{good, bad}, "")
	if !errors.Is(err, importer.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if records != nil {
		t.Fatalf("expected no records on failure, got %d", len(records))
	}
}

func TestImportFileAs_MissingFile(t *testing.T) {
	_, err := importFileAs(filepath.Join(t.TempDir(), "missing.csv"), importer.FormatCSV)
	if !errors.Is(err, importer.ErrUnreadableSource) {
		t.Fatalf("expected unreadable source error, got %v", err)
	}
}

func TestWriteRecordsJSON_EmptyIsArray(t *testing.T) {
	var out bytes.Buffer
	if err := writeRecordsJSON(&out, nil); err != nil {
		t.Fatalf("write json: %v", err)
	}
	if out.String() != "[]\n" {
		t.Fatalf("expected empty array, got %q", out.String())
	}
}

func TestWriteRecordsFile_InfersFormat(t *testing.T) {
	source := writeTempReport(t, "a.csv", "Computer Name,Patch ID\nPC1,1050\n")
	records, err := importRecords([]string{source}, "")
	if err != nil {
		t.Fatalf("import records: %v", err)
	}

	target := filepath.Join(t.TempDir(), "out.csv")
	if err := writeRecordsFile(target, "", records); err != nil {
		t.Fatalf("write records file: %v", err)
	}

	again, err := importRecords([]string{target}, "")
	if err != nil {
		t.Fatalf("re-import written file: %v", err)
	}
	if len(again) != 1 {
		t.Fatalf("expected 1 record after re-import, got %d", len(again))
	}
	patchID, _ := again[0].Get(importer.FieldPatchID)
	if patchID.Int != 1050 {
		t.Fatalf("unexpected patch id after re-import: %v", patchID.Interface())
	}
}

func TestWriteRecordsFile_UnknownExtension(t *testing.T) {
	if err := writeRecordsFile(filepath.Join(t.TempDir(), "out.txt"), "", nil); err == nil {
		t.Fatalf("expected error for unknown output extension")
	}
}
