package importer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveHeaders(t *testing.T) {
	t.Parallel()

	got := ResolveHeaders([]string{"\ufeffComputer Name", " Patch ID ", "Unknown", "patch id", "Release Date"})
	want := HeaderResolution{FieldComputerName, FieldPatchID, "", "", FieldReleaseDate}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected resolution (-want +got):\n%s", diff)
	}
	if got.Resolved() != 3 {
		t.Fatalf("expected 3 resolved columns, got %d", got.Resolved())
	}
	if _, ok := got.Field(2); ok {
		t.Fatalf("expected unknown header to stay unresolved")
	}
	if _, ok := got.Field(10); ok {
		t.Fatalf("expected out of range column to stay unresolved")
	}
}

func TestResolveHeaders_StableAcrossColumnOrder(t *testing.T) {
	t.Parallel()

	forward := []string{"Computer Name", "Severity", "KB Number"}
	reversed := []string{"KB Number", "Severity", "Computer Name"}

	a := ResolveHeaders(forward)
	b := ResolveHeaders(reversed)
	for i := range forward {
		j := len(reversed) - 1 - i
		if a[i] != b[j] {
			t.Fatalf("header %q resolved to %q and %q", forward[i], a[i], b[j])
		}
	}
}

func TestResolveHeaders_OnlyFirstHeaderLosesBOM(t *testing.T) {
	t.Parallel()

	got := ResolveHeaders([]string{"Domain", "\ufeffSeverity"})
	if got[0] != FieldDomain {
		t.Fatalf("expected domain, got %q", got[0])
	}
	if got[1] != "" {
		t.Fatalf("expected BOM inside a later header to block the match, got %q", got[1])
	}
}

func TestSchema_EveryHeaderRoundTrips(t *testing.T) {
	t.Parallel()

	fields := Fields()
	if len(fields) != 20 {
		t.Fatalf("expected 20 report fields, got %d", len(fields))
	}
	for _, field := range fields {
		header := HeaderFor(field)
		if resolved := ResolveHeaders([]string{header}); resolved[0] != field {
			t.Fatalf("header %q resolved to %q, want %q", header, resolved[0], field)
		}
	}
}
