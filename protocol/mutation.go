package protocol

import (
	"bytes"
	"sort"
)

// Column addresses a single column of a row by family and qualifier.
type Column struct {
	Family    string `yaml:"family"`
	Qualifier string `yaml:"qualifier"`
}

// Validate returns an error if the Column is not well-formed.
func (c Column) Validate() error {
	if err := ValidateFamily(c.Family); err != nil {
		return ExtendContext(err, "Family")
	}
	return nil
}

// Cell is a value of a row column.
type Cell struct {
	Family    string `yaml:"family"`
	Qualifier string `yaml:"qualifier"`
	Value     []byte `yaml:"value"`
}

// Validate returns an error if the Cell is not well-formed.
func (c Cell) Validate() error {
	if err := ValidateFamily(c.Family); err != nil {
		return ExtendContext(err, "Family")
	}
	return nil
}

// Put inserts or updates cells of a single row.
type Put struct {
	Row   []byte
	Cells []Cell
}

// NewPut returns an empty Put of the row key.
func NewPut(row string) Put { return Put{Row: []byte(row)} }

// Add a cell to the Put, returning the Put for chaining.
func (p Put) Add(family, qualifier string, value []byte) Put {
	p.Cells = append(p.Cells, Cell{Family: family, Qualifier: qualifier, Value: value})
	return p
}

// Validate returns an error if the Put is not well-formed.
func (p Put) Validate() error {
	if err := validateRow(p.Row); err != nil {
		return ExtendContext(err, "Row")
	} else if len(p.Cells) == 0 {
		return NewValidationError("expected at least one cell")
	}
	for i, c := range p.Cells {
		if err := c.Validate(); err != nil {
			return ExtendContext(err, "Cells[%d]", i)
		}
	}
	return nil
}

// Delete removes cells of a single row. If neither Families nor Columns are
// set, the entire row is deleted.
type Delete struct {
	Row      []byte
	Families []string
	Columns  []Column
}

// NewDelete returns a Delete of the entire row.
func NewDelete(row string) Delete { return Delete{Row: []byte(row)} }

// Validate returns an error if the Delete is not well-formed.
func (d Delete) Validate() error {
	if err := validateRow(d.Row); err != nil {
		return ExtendContext(err, "Row")
	}
	return validateSelection(d.Families, d.Columns)
}

// Matches returns whether the Delete removes the column.
func (d Delete) Matches(family, qualifier string) bool {
	return selects(d.Families, d.Columns, family, qualifier)
}

// Get reads cells of a single row. If neither Families nor Columns are set,
// all cells of the row are read.
type Get struct {
	Row      []byte
	Families []string
	Columns  []Column
}

// NewGet returns a Get of all cells of the row.
func NewGet(row string) Get { return Get{Row: []byte(row)} }

// Validate returns an error if the Get is not well-formed.
func (g Get) Validate() error {
	if err := validateRow(g.Row); err != nil {
		return ExtendContext(err, "Row")
	}
	return validateSelection(g.Families, g.Columns)
}

// Matches returns whether the Get selects the column.
func (g Get) Matches(family, qualifier string) bool {
	return selects(g.Families, g.Columns, family, qualifier)
}

// Scan reads rows having keys in the range [StartRow, StopRow). An empty
// StartRow begins at the first row of the table, and an empty StopRow ends
// after its last row.
type Scan struct {
	StartRow []byte
	StopRow  []byte
	Families []string
	// Limit of rows returned. If zero, all rows of the range are returned.
	Limit int
}

// NewScanRange returns a Scan of all cells of rows in [start, stop).
func NewScanRange(start, stop string) Scan {
	return Scan{StartRow: []byte(start), StopRow: []byte(stop)}
}

// Validate returns an error if the Scan is not well-formed.
func (s Scan) Validate() error {
	if len(s.StopRow) != 0 && bytes.Compare(s.StartRow, s.StopRow) > 0 {
		return NewValidationError("invalid range (StartRow %q > StopRow %q)", s.StartRow, s.StopRow)
	} else if s.Limit < 0 {
		return NewValidationError("invalid Limit (%d; expected >= 0)", s.Limit)
	}
	return validateSelection(s.Families, nil)
}

// Contains returns whether the row key falls within the Scan's range.
func (s Scan) Contains(row []byte) bool {
	if bytes.Compare(row, s.StartRow) < 0 {
		return false
	}
	return len(s.StopRow) == 0 || bytes.Compare(row, s.StopRow) < 0
}

// Matches returns whether the Scan selects the column.
func (s Scan) Matches(family, qualifier string) bool {
	return selects(s.Families, nil, family, qualifier)
}

// Result is the read state of a single row. A Result having no Cells
// represents a row which doesn't exist, or has no selected cells.
type Result struct {
	Row   []byte
	Cells []Cell
}

// Empty returns true if the Result has no cells.
func (r Result) Empty() bool { return len(r.Cells) == 0 }

// Value returns the value of the column, or nil if the Result doesn't include it.
func (r Result) Value(family, qualifier string) []byte {
	for _, c := range r.Cells {
		if c.Family == family && c.Qualifier == qualifier {
			return c.Value
		}
	}
	return nil
}

// SortCells orders Cells on (Family, Qualifier).
func (r Result) SortCells() {
	sort.Slice(r.Cells, func(i, j int) bool {
		if r.Cells[i].Family != r.Cells[j].Family {
			return r.Cells[i].Family < r.Cells[j].Family
		}
		return r.Cells[i].Qualifier < r.Cells[j].Qualifier
	})
}

func validateRow(row []byte) error {
	if l := len(row); l == 0 || l > maxRowKeyLen {
		return NewValidationError("invalid length (%d; expected 1 <= length <= %d)", l, maxRowKeyLen)
	}
	return nil
}

func validateSelection(families []string, columns []Column) error {
	for i, f := range families {
		if err := ValidateFamily(f); err != nil {
			return ExtendContext(err, "Families[%d]", i)
		}
	}
	for i, c := range columns {
		if err := c.Validate(); err != nil {
			return ExtendContext(err, "Columns[%d]", i)
		}
	}
	return nil
}

func selects(families []string, columns []Column, family, qualifier string) bool {
	if len(families) == 0 && len(columns) == 0 {
		return true
	}
	for _, f := range families {
		if f == family {
			return true
		}
	}
	for _, c := range columns {
		if c.Family == family && c.Qualifier == qualifier {
			return true
		}
	}
	return false
}
