package importer

import "strings"

const byteOrderMark = "\ufeff"

// HeaderResolution holds one canonical field per source column. An empty
// FieldName marks a column whose header is not part of the report schema.
type HeaderResolution []FieldName

// Field returns the field resolved for column col.
func (h HeaderResolution) Field(col int) (FieldName, bool) {
	if col < 0 || col >= len(h) || h[col] == "" {
		return "", false
	}
	return h[col], true
}

// Resolved counts the columns that map to a field.
func (h HeaderResolution) Resolved() int {
	count := 0
	for _, field := range h {
		if field != "" {
			count++
		}
	}
	return count
}

// ResolveHeaders maps the raw header row to canonical fields. Headers are
// trimmed and must otherwise match the mapping exactly.
func ResolveHeaders(headers []string) HeaderResolution {
	out := make(HeaderResolution, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, byteOrderMark)
		}
		out[i] = fieldByHeader[strings.TrimSpace(header)]
	}
	return out
}
