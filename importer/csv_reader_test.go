package importer

import (
	"encoding/binary"
	"strings"
	"testing"
)

func TestCSVReader_DecodesQuotedRows(t *testing.T) {
	t.Parallel()

	content := "Computer Name,Patch Description,Size\n" +
		"PC1,\"Security update, cumulative\",\"1,234 KB\"\n" +
		"PC2,\"multi\nline\",\n"

	table, err := (&CSVReader{}).Decode(strings.NewReader(content))
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if len(table.Header) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(table.Header))
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
	if got := table.Rows[0][1].Text; got != "Security update, cumulative" {
		t.Fatalf("unexpected quoted cell %q", got)
	}
	if got := table.Rows[1][1].Text; got != "multi\nline" {
		t.Fatalf("unexpected multi-line cell %q", got)
	}
}

func TestCSVReader_StripsUTF8BOM(t *testing.T) {
	t.Parallel()

	content := "\xEF\xBB\xBFComputer Name,Domain\nPC1,corp\n"
	table, err := (&CSVReader{}).Decode(strings.NewReader(content))
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if table.Header[0] != "Computer Name" {
		t.Fatalf("expected BOM to be removed, got %q", table.Header[0])
	}
}

func TestCSVReader_TranscodesUTF16(t *testing.T) {
	t.Parallel()

	content := "Computer Name,Remarks\nPC1,Größe ok\n"
	buf := []byte{0xFF, 0xFE}
	for _, r := range content {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(r))
		buf = append(buf, b[:]...)
	}

	table, err := (&CSVReader{}).Decode(strings.NewReader(string(buf)))
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if table.Header[0] != "Computer Name" {
		t.Fatalf("unexpected header %q", table.Header[0])
	}
	if got := table.Rows[0][1].Text; got != "Größe ok" {
		t.Fatalf("unexpected transcoded cell %q", got)
	}
}

func TestCSVReader_EmptySource(t *testing.T) {
	t.Parallel()

	table, err := (&CSVReader{}).Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode empty csv: %v", err)
	}
	if len(table.Header) != 0 || len(table.Rows) != 0 {
		t.Fatalf("expected empty table, got %+v", table)
	}
}

func TestCSVReader_RaggedRows(t *testing.T) {
	t.Parallel()

	content := "Computer Name,Domain,Severity\nPC1\nPC2,corp,Low,extra\n"
	table, err := (&CSVReader{}).Decode(strings.NewReader(content))
	if err != nil {
		t.Fatalf("decode csv: %v", err)
	}
	if len(table.Rows[0]) != 1 || len(table.Rows[1]) != 4 {
		t.Fatalf("expected ragged rows to be kept as-is, got %d and %d cells", len(table.Rows[0]), len(table.Rows[1]))
	}
}
