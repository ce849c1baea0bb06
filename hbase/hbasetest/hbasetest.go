// Package hbasetest provides an in-memory hbase.ConnectionFactory which
// records the connections and handles it issues, the calls made of them,
// and the sizes of submitted batches. Failures may be injected at each.
package hbasetest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.ebuer.dev/hbase/conf"
	"go.ebuer.dev/hbase/hbase"
	pb "go.ebuer.dev/hbase/protocol"
)

// Counts of connections and handles opened and closed by a Factory.
type Counts struct {
	ConnectionsOpened, ConnectionsClosed int
	AdminsOpened, AdminsClosed           int
	TablesOpened, TablesClosed           int
	ScannersOpened, ScannersClosed       int
}

// Balanced returns whether every opened connection and handle was closed.
func (c Counts) Balanced() bool {
	return c.ConnectionsOpened == c.ConnectionsClosed &&
		c.AdminsOpened == c.AdminsClosed &&
		c.TablesOpened == c.TablesClosed &&
		c.ScannersOpened == c.ScannersClosed
}

// Factory is an in-memory hbase.ConnectionFactory. Its exported error fields
// inject failures, and should be set before the Factory is used.
type Factory struct {
	// OpenErr fails Open.
	OpenErr error
	// AdminErr and TableErr fail derivation of Admin and Table handles.
	AdminErr, TableErr error
	// CloseErr fails Close of connections and handles. They're counted as
	// closed regardless.
	CloseErr error
	// Fail, if set, is called with a description of each Admin or Table
	// call (eg "PutBatch user") before it's applied. A returned error fails
	// the call.
	Fail func(call string) error

	mu       sync.Mutex
	tables   map[pb.TableName]*table
	counts   Counts
	calls    []string
	configs  []conf.Configuration
	putSizes []int
	delSizes []int
	getSizes []int
}

type table struct {
	families map[string]struct{}
	disabled bool
	rows     map[string]map[pb.Column][]byte
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{tables: make(map[pb.TableName]*table)}
}

var _ hbase.ConnectionFactory = (*Factory)(nil)

// Open implements hbase.ConnectionFactory.
func (f *Factory) Open(_ context.Context, cfg conf.Configuration) (hbase.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.configs = append(f.configs, cfg.Copy())
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	f.counts.ConnectionsOpened++
	return &connection{f: f}, nil
}

// Counts returns current Counts of the Factory.
func (f *Factory) Counts() Counts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts
}

// Calls returns descriptions of Admin and Table calls, in order.
func (f *Factory) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Configurations returns the Configuration of each Open, in order.
func (f *Factory) Configurations() []conf.Configuration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]conf.Configuration(nil), f.configs...)
}

// PutBatchSizes returns the length of each PutBatch, in order.
func (f *Factory) PutBatchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.putSizes...)
}

// DeleteBatchSizes returns the length of each DeleteBatch, in order.
func (f *Factory) DeleteBatchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.delSizes...)
}

// GetBatchSizes returns the length of each GetBatch, in order.
func (f *Factory) GetBatchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.getSizes...)
}

// call records |desc| and runs the Fail hook. f.mu must be held.
func (f *Factory) call(format string, args ...interface{}) error {
	var desc = fmt.Sprintf(format, args...)
	f.calls = append(f.calls, desc)

	if f.Fail != nil {
		return f.Fail(desc)
	}
	return nil
}

// lookup returns the enabled table. f.mu must be held.
func (f *Factory) lookup(name pb.TableName) (*table, error) {
	if t, ok := f.tables[name]; !ok {
		return nil, errors.Errorf("table not found (%s)", name)
	} else if t.disabled {
		return nil, errors.Errorf("table is disabled (%s)", name)
	} else {
		return t, nil
	}
}

type connection struct{ f *Factory }

func (c *connection) Admin() (hbase.Admin, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()

	if c.f.AdminErr != nil {
		return nil, c.f.AdminErr
	}
	c.f.counts.AdminsOpened++
	return &admin{f: c.f}, nil
}

func (c *connection) Table(name pb.TableName) (hbase.Table, error) {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()

	if c.f.TableErr != nil {
		return nil, c.f.TableErr
	}
	c.f.counts.TablesOpened++
	return &tableHandle{f: c.f, name: name}, nil
}

func (c *connection) Close() error {
	c.f.mu.Lock()
	defer c.f.mu.Unlock()

	c.f.counts.ConnectionsClosed++
	return c.f.CloseErr
}

type admin struct{ f *Factory }

func (a *admin) CreateTable(_ context.Context, desc pb.TableDescriptor) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("CreateTable %s", desc.Name); err != nil {
		return err
	} else if _, ok := a.f.tables[desc.Name]; ok {
		return errors.Errorf("table exists (%s)", desc.Name)
	}
	var t = &table{
		families: make(map[string]struct{}),
		rows:     make(map[string]map[pb.Column][]byte),
	}
	for _, fam := range desc.Families {
		t.families[fam.Name] = struct{}{}
	}
	a.f.tables[desc.Name] = t
	return nil
}

func (a *admin) DisableTable(_ context.Context, name pb.TableName) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("DisableTable %s", name); err != nil {
		return err
	}
	var t, err = a.f.lookup(name)
	if err != nil {
		return err
	}
	t.disabled = true
	return nil
}

func (a *admin) DeleteTable(_ context.Context, name pb.TableName) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("DeleteTable %s", name); err != nil {
		return err
	} else if t, ok := a.f.tables[name]; !ok {
		return errors.Errorf("table not found (%s)", name)
	} else if !t.disabled {
		return errors.Errorf("table is not disabled (%s)", name)
	}
	delete(a.f.tables, name)
	return nil
}

func (a *admin) TableExists(_ context.Context, name pb.TableName) (bool, error) {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("TableExists %s", name); err != nil {
		return false, err
	}
	var _, ok = a.f.tables[name]
	return ok, nil
}

func (a *admin) ListTableNames(_ context.Context, pattern string) ([]pb.TableName, error) {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("ListTableNames %s", pattern); err != nil {
		return nil, err
	}
	var re, err = pb.CompileTablePattern(pattern)
	if err != nil {
		return nil, err
	}
	var out []pb.TableName
	for name := range a.f.tables {
		if pattern == "" || re.MatchString(string(name)) {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (a *admin) AddColumnFamily(_ context.Context, name pb.TableName, family pb.ColumnFamily) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("AddColumnFamily %s %s", name, family.Name); err != nil {
		return err
	}
	var t, err = a.f.lookup(name)
	if err != nil {
		return err
	} else if _, ok := t.families[family.Name]; ok {
		return errors.Errorf("family exists (%s)", family.Name)
	}
	t.families[family.Name] = struct{}{}
	return nil
}

func (a *admin) DeleteColumnFamily(_ context.Context, name pb.TableName, family string) error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	if err := a.f.call("DeleteColumnFamily %s %s", name, family); err != nil {
		return err
	}
	var t, err = a.f.lookup(name)
	if err != nil {
		return err
	} else if _, ok := t.families[family]; !ok {
		return errors.Errorf("family not found (%s)", family)
	}
	delete(t.families, family)

	for _, cells := range t.rows {
		for col := range cells {
			if col.Family == family {
				delete(cells, col)
			}
		}
	}
	return nil
}

func (a *admin) Close() error {
	a.f.mu.Lock()
	defer a.f.mu.Unlock()

	a.f.counts.AdminsClosed++
	return a.f.CloseErr
}

type tableHandle struct {
	f    *Factory
	name pb.TableName
}

func (t *tableHandle) Name() pb.TableName { return t.name }

func (t *tableHandle) Put(_ context.Context, put pb.Put) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	if err := t.f.call("Put %s", t.name); err != nil {
		return err
	}
	return t.apply([]pb.Put{put}, nil)
}

func (t *tableHandle) PutBatch(_ context.Context, puts []pb.Put) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	t.f.putSizes = append(t.f.putSizes, len(puts))
	if err := t.f.call("PutBatch %s", t.name); err != nil {
		return err
	}
	return t.apply(puts, nil)
}

func (t *tableHandle) Delete(_ context.Context, del pb.Delete) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	if err := t.f.call("Delete %s", t.name); err != nil {
		return err
	}
	return t.apply(nil, []pb.Delete{del})
}

func (t *tableHandle) DeleteBatch(_ context.Context, dels []pb.Delete) error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	t.f.delSizes = append(t.f.delSizes, len(dels))
	if err := t.f.call("DeleteBatch %s", t.name); err != nil {
		return err
	}
	return t.apply(nil, dels)
}

// apply Puts and Deletes. Mutations are checked before any are applied,
// so a failed batch has no effect. t.f.mu must be held.
func (t *tableHandle) apply(puts []pb.Put, dels []pb.Delete) error {
	var tbl, err = t.f.lookup(t.name)
	if err != nil {
		return err
	}
	for _, p := range puts {
		for _, c := range p.Cells {
			if _, ok := tbl.families[c.Family]; !ok {
				return errors.Errorf("family not found (%s)", c.Family)
			}
		}
	}
	for _, p := range puts {
		var cells = tbl.rows[string(p.Row)]
		if cells == nil {
			cells = make(map[pb.Column][]byte)
			tbl.rows[string(p.Row)] = cells
		}
		for _, c := range p.Cells {
			cells[pb.Column{Family: c.Family, Qualifier: c.Qualifier}] = append([]byte(nil), c.Value...)
		}
	}
	for _, d := range dels {
		var cells = tbl.rows[string(d.Row)]
		for col := range cells {
			if d.Matches(col.Family, col.Qualifier) {
				delete(cells, col)
			}
		}
		if len(cells) == 0 {
			delete(tbl.rows, string(d.Row))
		}
	}
	return nil
}

func (t *tableHandle) Get(_ context.Context, get pb.Get) (pb.Result, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	if err := t.f.call("Get %s", t.name); err != nil {
		return pb.Result{}, err
	}
	var tbl, err = t.f.lookup(t.name)
	if err != nil {
		return pb.Result{}, err
	}
	return read(tbl, get.Row, get.Matches), nil
}

func (t *tableHandle) GetBatch(_ context.Context, gets []pb.Get) ([]pb.Result, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	t.f.getSizes = append(t.f.getSizes, len(gets))
	if err := t.f.call("GetBatch %s", t.name); err != nil {
		return nil, err
	}
	var tbl, err = t.f.lookup(t.name)
	if err != nil {
		return nil, err
	}
	var out = make([]pb.Result, len(gets))
	for i, g := range gets {
		out[i] = read(tbl, g.Row, g.Matches)
	}
	return out, nil
}

func (t *tableHandle) Scan(_ context.Context, scan pb.Scan) (hbase.ResultScanner, error) {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	if err := t.f.call("Scan %s", t.name); err != nil {
		return nil, err
	}
	var tbl, err = t.f.lookup(t.name)
	if err != nil {
		return nil, err
	}
	var keys []string
	for k := range tbl.rows {
		if scan.Contains([]byte(k)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var s = &scanner{f: t.f}
	for _, k := range keys {
		if scan.Limit != 0 && len(s.results) == scan.Limit {
			break
		}
		if r := read(tbl, []byte(k), scan.Matches); !r.Empty() {
			s.results = append(s.results, r)
		}
	}
	t.f.counts.ScannersOpened++
	return s, nil
}

func (t *tableHandle) Close() error {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()

	t.f.counts.TablesClosed++
	return t.f.CloseErr
}

func read(tbl *table, row []byte, matches func(family, qualifier string) bool) pb.Result {
	var r = pb.Result{Row: append([]byte(nil), row...)}
	for col, value := range tbl.rows[string(row)] {
		if matches(col.Family, col.Qualifier) {
			r.Cells = append(r.Cells, pb.Cell{
				Family:    col.Family,
				Qualifier: col.Qualifier,
				Value:     append([]byte(nil), value...),
			})
		}
	}
	r.SortCells()
	return r
}

type scanner struct {
	f       *Factory
	results []pb.Result
}

func (s *scanner) Next() (*pb.Result, error) {
	if len(s.results) == 0 {
		return nil, io.EOF
	}
	var r = s.results[0]
	s.results = s.results[1:]
	return &r, nil
}

func (s *scanner) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()

	s.f.counts.ScannersClosed++
	return s.f.CloseErr
}
