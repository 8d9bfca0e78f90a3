package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Cell is one raw value of a decoded table. Spreadsheet cells formatted as
// dates also carry their native time.
type Cell struct {
	Text    string
	Time    time.Time
	HasTime bool
}

func TextCell(text string) Cell {
	return Cell{Text: text}
}

func TimeCell(value time.Time, text string) Cell {
	return Cell{Text: text, Time: value, HasTime: true}
}

// Blank reports whether the cell holds nothing but whitespace.
func (c Cell) Blank() bool {
	return !c.HasTime && strings.TrimSpace(c.Text) == ""
}

// Table is a decoded source: the header row followed by data rows.
type Table struct {
	Header []string
	Rows   [][]Cell
}

// TextRows builds data rows from plain strings.
func TextRows(rows [][]string) [][]Cell {
	out := make([][]Cell, len(rows))
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, value := range row {
			cells[j] = TextCell(value)
		}
		out[i] = cells
	}
	return out
}

// Outcome tells how a Value was produced.
type Outcome uint8

const (
	// OutcomeAbsent is an empty cell; the value serialises as null.
	OutcomeAbsent Outcome = iota
	// OutcomeParsed is a value coerced to its field kind.
	OutcomeParsed
	// OutcomeRawFallback is trimmed source text kept because no accepted
	// date pattern matched.
	OutcomeRawFallback
)

// Value is a typed cell value.
type Value struct {
	Outcome Outcome
	Kind    Kind
	Text    string
	Int     int64
}

func nullValue(kind Kind) Value {
	return Value{Outcome: OutcomeAbsent, Kind: kind}
}

// IsNull reports whether the value serialises as null.
func (v Value) IsNull() bool {
	return v.Outcome == OutcomeAbsent
}

// Empty reports whether the value is null or an empty string.
func (v Value) Empty() bool {
	if v.Outcome == OutcomeAbsent {
		return true
	}
	if v.Kind == KindInteger && v.Outcome == OutcomeParsed {
		return false
	}
	return v.Text == ""
}

// Interface returns nil, an int64 or a string.
func (v Value) Interface() any {
	switch {
	case v.Outcome == OutcomeAbsent:
		return nil
	case v.Kind == KindInteger && v.Outcome == OutcomeParsed:
		return v.Int
	default:
		return v.Text
	}
}

// String renders the value as it would appear in a text export.
func (v Value) String() string {
	switch value := v.Interface().(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return value.(string)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Field is one named value inside a Record.
type Field struct {
	Name  FieldName
	Value Value
}

// Record is one normalized row. Fields keep source column order.
type Record struct {
	fields []Field
}

// NewRecord builds a record from fields. A repeated name keeps its first
// position and takes the last value.
func NewRecord(fields ...Field) Record {
	out := make([]Field, 0, len(fields))
	index := make(map[FieldName]int, len(fields))
	for _, field := range fields {
		if i, ok := index[field.Name]; ok {
			out[i].Value = field.Value
			continue
		}
		index[field.Name] = len(out)
		out = append(out, field)
	}
	return Record{fields: out}
}

func (r Record) Len() int {
	return len(r.fields)
}

// Get returns the value stored for name.
func (r Record) Get(name FieldName) (Value, bool) {
	for _, field := range r.fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return Value{}, false
}

// Fields returns a copy of the record's fields.
func (r Record) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// HasData reports whether any value is neither null nor an empty string.
func (r Record) HasData() bool {
	for _, field := range r.fields {
		if !field.Value.Empty() {
			return true
		}
	}
	return false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(field.Name))
		if err != nil {
			return nil, err
		}
		value, err := field.Value.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshal field %s: %w", field.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a stored record. Values are typed from the field's
// kind; a date that was stored as passthrough text comes back as parsed text.
func (r *Record) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	token, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("read record: %w", err)
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	fields := make([]Field, 0, 16)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return fmt.Errorf("read record key: %w", err)
		}
		name := FieldName(token.(string))
		kind := KindOf(name)

		token, err = decoder.Token()
		if err != nil {
			return fmt.Errorf("read record value %s: %w", name, err)
		}

		value := nullValue(kind)
		switch raw := token.(type) {
		case nil:
		case json.Number:
			parsed, err := raw.Int64()
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			value = Value{Outcome: OutcomeParsed, Kind: KindInteger, Int: parsed}
		case string:
			value = Value{Outcome: OutcomeParsed, Kind: kind, Text: raw}
		default:
			return fmt.Errorf("field %s: unsupported JSON value %v", name, raw)
		}
		fields = append(fields, Field{Name: name, Value: value})
	}

	if _, err := decoder.Token(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	*r = NewRecord(fields...)
	return nil
}
