package protocol

import (
	"regexp"
	"strings"
)

// DefaultNamespace is the namespace of a TableName having no explicit one.
const DefaultNamespace = "default"

// TableName names a table, optionally qualified by a namespace as
// "namespace:qualifier". A TableName without a namespace is in DefaultNamespace.
type TableName string

// Namespace returns the namespace component of the TableName.
func (n TableName) Namespace() string {
	if ind := strings.IndexByte(string(n), ':'); ind != -1 {
		return string(n[:ind])
	}
	return DefaultNamespace
}

// Qualifier returns the TableName with its namespace component removed.
func (n TableName) Qualifier() string {
	if ind := strings.IndexByte(string(n), ':'); ind != -1 {
		return string(n[ind+1:])
	}
	return string(n)
}

// Validate returns an error if the TableName is not well-formed.
func (n TableName) Validate() error {
	if ind := strings.IndexByte(string(n), ':'); ind != -1 {
		if err := ValidateToken(string(n[:ind]), namespaceSymbols, 1, maxTableNameLen); err != nil {
			return ExtendContext(err, "Namespace")
		}
	}
	var q = n.Qualifier()
	if err := ValidateToken(q, tableSymbols, 1, maxTableNameLen); err != nil {
		return err
	} else if q[0] == '.' || q[0] == '-' {
		return NewValidationError("cannot begin with '%c' (%s)", q[0], q)
	}
	return nil
}

// String returns the TableName as a string.
func (n TableName) String() string { return string(n) }

// ColumnFamily describes a column family of a table.
type ColumnFamily struct {
	// Name of the family.
	Name string `yaml:"name"`
	// MaxVersions retained of each cell. If zero, the collaborator's default is used.
	MaxVersions int `yaml:"max_versions,omitempty"`
}

// Validate returns an error if the ColumnFamily is not well-formed.
func (f ColumnFamily) Validate() error {
	if err := ValidateFamily(f.Name); err != nil {
		return ExtendContext(err, "Name")
	} else if f.MaxVersions < 0 {
		return NewValidationError("invalid MaxVersions (%d; expected >= 0)", f.MaxVersions)
	}
	return nil
}

// ValidateFamily returns an error if |name| is not a well-formed family name.
func ValidateFamily(name string) error {
	if err := ValidateToken(name, familySymbols, 1, maxFamilyNameLen); err != nil {
		return err
	} else if name[0] == '.' {
		return NewValidationError("cannot begin with '.' (%s)", name)
	}
	return nil
}

// TableDescriptor describes a table and its column families.
type TableDescriptor struct {
	Name     TableName      `yaml:"name"`
	Families []ColumnFamily `yaml:"families"`
}

// NewTableDescriptor returns a TableDescriptor of the table having the named families.
func NewTableDescriptor(name TableName, families ...string) TableDescriptor {
	var d = TableDescriptor{Name: name}
	for _, f := range families {
		d.Families = append(d.Families, ColumnFamily{Name: f})
	}
	return d
}

// Validate returns an error if the TableDescriptor is not well-formed.
func (d TableDescriptor) Validate() error {
	if err := d.Name.Validate(); err != nil {
		return ExtendContext(err, "Name")
	} else if len(d.Families) == 0 {
		return NewValidationError("expected at least one column family")
	}
	var seen = make(map[string]struct{}, len(d.Families))

	for i, f := range d.Families {
		if err := f.Validate(); err != nil {
			return ExtendContext(err, "Families[%d]", i)
		} else if _, ok := seen[f.Name]; ok {
			return ExtendContext(NewValidationError("duplicate family (%s)", f.Name), "Families[%d]", i)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Family returns the named ColumnFamily of the descriptor, and whether it exists.
func (d TableDescriptor) Family(name string) (ColumnFamily, bool) {
	for _, f := range d.Families {
		if f.Name == name {
			return f, true
		}
	}
	return ColumnFamily{}, false
}

// CompileTablePattern compiles a regular expression which table names must
// match in their entirety, as "user" matches table "user" but not
// "user_events".
func CompileTablePattern(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}
