package protocol

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v2"
)

// Record is a row of a SQL query result, mapping discovered column names to
// string values. Fields retain the column order of the query's result metadata.
// Columns which were SQL NULL are not present.
type Record struct {
	Fields []Field
}

// Field is a single column value of a Record.
type Field struct {
	Column string
	Value  string
}

// Set appends a column value to the Record.
func (r *Record) Set(column, value string) {
	r.Fields = append(r.Fields, Field{Column: column, Value: value})
}

// Get returns the value of the column, and whether it's present.
func (r Record) Get(column string) (string, bool) {
	for _, f := range r.Fields {
		if f.Column == column {
			return f.Value, true
		}
	}
	return "", false
}

// MarshalJSON encodes the Record as a JSON object having keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, f := range r.Fields {
		if i != 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, f.Column); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, f.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the Record as an ordered YAML mapping.
func (r Record) MarshalYAML() (interface{}, error) {
	var out = make(yaml.MapSlice, 0, len(r.Fields))
	for _, f := range r.Fields {
		out = append(out, yaml.MapItem{Key: f.Column, Value: f.Value})
	}
	return out, nil
}

// RecordSet is the structured result of a SQL query: records in the row
// order of the query's result cursor.
type RecordSet struct {
	Data []Record `json:"data"`
}

// Columns returns the union of record columns, in order of first appearance.
func (rs RecordSet) Columns() []string {
	var out []string
	var seen = make(map[string]struct{})

	for _, r := range rs.Data {
		for _, f := range r.Fields {
			if _, ok := seen[f.Column]; !ok {
				seen[f.Column] = struct{}{}
				out = append(out, f.Column)
			}
		}
	}
	return out
}

// MarshalJSON encodes the RecordSet as {"data":[...]}. An empty RecordSet
// encodes as {"data":[]}.
func (rs RecordSet) MarshalJSON() ([]byte, error) {
	var data = rs.Data
	if data == nil {
		data = []Record{}
	}
	return json.Marshal(struct {
		Data []Record `json:"data"`
	}{data})
}

// String returns the JSON encoding of the RecordSet.
func (rs RecordSet) String() string {
	var b, err = rs.MarshalJSON()
	if err != nil {
		panic(err) // Strings and slices always encode.
	}
	return string(b)
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var b, err = json.Marshal(s)
	if err == nil {
		_, _ = buf.Write(b)
	}
	return err
}
