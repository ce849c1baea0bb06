package hbase

import (
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"go.ebuer.dev/hbase/batch"
	"go.ebuer.dev/hbase/conf"
	"go.ebuer.dev/hbase/metrics"
	pb "go.ebuer.dev/hbase/protocol"
)

// Client runs table administration and row operations as scoped actions
// over Connections of its ConnectionFactory. A Client holds no connections
// between calls, and is safe for concurrent use.
type Client struct {
	holder  *conf.Holder
	factory ConnectionFactory
}

// NewClient returns a Client which opens Connections of |factory| using the
// merged Configuration of |holder|.
func NewClient(holder *conf.Holder, factory ConnectionFactory) *Client {
	return &Client{holder: holder, factory: factory}
}

// Config returns the Holder of the Client's Configuration.
func (c *Client) Config() *conf.Holder { return c.holder }

// CreateTable creates |table| having the named column families. It doesn't
// check whether the table exists: callers wanting that should ExistsTable.
func (c *Client) CreateTable(ctx context.Context, table pb.TableName, families ...string) error {
	var desc = pb.NewTableDescriptor(table, families...)
	if err := desc.Validate(); err != nil {
		return invalid("CreateTable", err)
	}
	return doAdmin(ctx, c, "CreateTable", func(admin Admin) error {
		return errors.WithMessagef(admin.CreateTable(ctx, desc), "creating table %s", table)
	})
}

// DropTable disables and then deletes each of |tables|, in order. The first
// failure aborts the remaining tables.
func (c *Client) DropTable(ctx context.Context, tables ...pb.TableName) error {
	for i, t := range tables {
		if err := t.Validate(); err != nil {
			return invalid("DropTable", pb.ExtendContext(err, "Tables[%d]", i))
		}
	}
	return doAdmin(ctx, c, "DropTable", func(admin Admin) error {
		for _, t := range tables {
			if err := admin.DisableTable(ctx, t); err != nil {
				return errors.WithMessagef(err, "disabling table %s", t)
			} else if err = admin.DeleteTable(ctx, t); err != nil {
				return errors.WithMessagef(err, "deleting table %s", t)
			}
		}
		return nil
	})
}

// ExistsTable returns whether |table| exists.
func (c *Client) ExistsTable(ctx context.Context, table pb.TableName) (bool, error) {
	if err := table.Validate(); err != nil {
		return false, invalid("ExistsTable", pb.ExtendContext(err, "Table"))
	}
	return ExecuteAdminAction(ctx, c, "ExistsTable", func(admin Admin) (bool, error) {
		var ok, err = admin.TableExists(ctx, table)
		return ok, errors.WithMessagef(err, "checking table %s", table)
	})
}

// ListTables returns names of tables which match the regular expression
// |pattern| in their entirety. A blank |pattern| lists all tables.
func (c *Client) ListTables(ctx context.Context, pattern string) ([]pb.TableName, error) {
	if strings.TrimSpace(pattern) == "" {
		pattern = ""
	} else if _, err := pb.CompileTablePattern(pattern); err != nil {
		return nil, invalid("ListTables", pb.NewValidationError("invalid pattern (%s): %s", pattern, err))
	}
	return ExecuteAdminAction(ctx, c, "ListTables", func(admin Admin) ([]pb.TableName, error) {
		var names, err = admin.ListTableNames(ctx, pattern)
		return names, errors.WithMessage(err, "listing tables")
	})
}

// AddColumnFamily adds each of |families| to |table|, in order.
func (c *Client) AddColumnFamily(ctx context.Context, table pb.TableName, families ...string) error {
	if err := validateFamilies(table, families); err != nil {
		return invalid("AddColumnFamily", err)
	}
	return doAdmin(ctx, c, "AddColumnFamily", func(admin Admin) error {
		for _, f := range families {
			if err := admin.AddColumnFamily(ctx, table, pb.ColumnFamily{Name: f}); err != nil {
				return errors.WithMessagef(err, "adding family %s to table %s", f, table)
			}
		}
		return nil
	})
}

// DeleteColumnFamily removes each of |families| from |table|, in order.
func (c *Client) DeleteColumnFamily(ctx context.Context, table pb.TableName, families ...string) error {
	if err := validateFamilies(table, families); err != nil {
		return invalid("DeleteColumnFamily", err)
	}
	return doAdmin(ctx, c, "DeleteColumnFamily", func(admin Admin) error {
		for _, f := range families {
			if err := admin.DeleteColumnFamily(ctx, table, f); err != nil {
				return errors.WithMessagef(err, "deleting family %s of table %s", f, table)
			}
		}
		return nil
	})
}

// PutRow applies a single Put to |table|.
func (c *Client) PutRow(ctx context.Context, table pb.TableName, put pb.Put) error {
	if err := put.Validate(); err != nil {
		return invalid("PutRow", pb.ExtendContext(err, "Put"))
	}
	return doTable(ctx, c, "PutRow", table, func(tbl Table) error {
		return tbl.Put(ctx, put)
	})
}

// PutRows applies |puts| to |table| in chunks of batch.MutationChunkSize,
// each submitted after the last completes. If a chunk fails, the remaining
// chunks are not submitted and the failure is returned. Earlier chunks may
// have been applied.
func (c *Client) PutRows(ctx context.Context, table pb.TableName, puts []pb.Put) error {
	for i, p := range puts {
		if err := p.Validate(); err != nil {
			return invalid("PutRows", pb.ExtendContext(err, "Puts[%d]", i))
		}
	}
	return doTable(ctx, c, "PutRows", table, func(tbl Table) error {
		return batch.ApplyInChunks(puts, batch.MutationChunkSize, func(chunk []pb.Put) error {
			return tbl.PutBatch(ctx, chunk)
		})
	})
}

// DeleteRow applies a single Delete to |table|.
func (c *Client) DeleteRow(ctx context.Context, table pb.TableName, del pb.Delete) error {
	if err := del.Validate(); err != nil {
		return invalid("DeleteRow", pb.ExtendContext(err, "Delete"))
	}
	return doTable(ctx, c, "DeleteRow", table, func(tbl Table) error {
		return tbl.Delete(ctx, del)
	})
}

// DeleteRows applies |dels| to |table| in chunks of batch.MutationChunkSize,
// with the failure semantics of PutRows.
func (c *Client) DeleteRows(ctx context.Context, table pb.TableName, dels []pb.Delete) error {
	for i, d := range dels {
		if err := d.Validate(); err != nil {
			return invalid("DeleteRows", pb.ExtendContext(err, "Deletes[%d]", i))
		}
	}
	return doTable(ctx, c, "DeleteRows", table, func(tbl Table) error {
		return batch.ApplyInChunks(dels, batch.MutationChunkSize, func(chunk []pb.Delete) error {
			return tbl.DeleteBatch(ctx, chunk)
		})
	})
}

// GetRow returns all cells of row |row| of |table|.
func (c *Client) GetRow(ctx context.Context, table pb.TableName, row string) (pb.Result, error) {
	return c.get(ctx, "GetRow", table, pb.NewGet(row))
}

// Get returns the cells of |table| selected by |get|.
func (c *Client) Get(ctx context.Context, table pb.TableName, get pb.Get) (pb.Result, error) {
	return c.get(ctx, "Get", table, get)
}

func (c *Client) get(ctx context.Context, op string, table pb.TableName, get pb.Get) (pb.Result, error) {
	if err := get.Validate(); err != nil {
		return pb.Result{}, invalid(op, pb.ExtendContext(err, "Get"))
	}
	return ExecuteTableAction(ctx, c, op, table, func(tbl Table) (pb.Result, error) {
		return tbl.Get(ctx, get)
	})
}

// GetRows returns a Result for each of |gets|, in order, as a single
// multi-get of |table|.
func (c *Client) GetRows(ctx context.Context, table pb.TableName, gets []pb.Get) ([]pb.Result, error) {
	for i, g := range gets {
		if err := g.Validate(); err != nil {
			return nil, invalid("GetRows", pb.ExtendContext(err, "Gets[%d]", i))
		}
	}
	return ExecuteTableAction(ctx, c, "GetRows", table, func(tbl Table) ([]pb.Result, error) {
		return tbl.GetBatch(ctx, gets)
	})
}

// GetRowRange returns rows of |table| having keys in [start, stop).
func (c *Client) GetRowRange(ctx context.Context, table pb.TableName, start, stop string) ([]pb.Result, error) {
	return c.scan(ctx, "GetRowRange", table, pb.NewScanRange(start, stop))
}

// ScanRows returns rows of |table| selected by |scan|. All rows are read
// before the Table handle is released.
func (c *Client) ScanRows(ctx context.Context, table pb.TableName, scan pb.Scan) ([]pb.Result, error) {
	return c.scan(ctx, "ScanRows", table, scan)
}

func (c *Client) scan(ctx context.Context, op string, table pb.TableName, scan pb.Scan) ([]pb.Result, error) {
	if err := scan.Validate(); err != nil {
		return nil, invalid(op, pb.ExtendContext(err, "Scan"))
	}
	return ExecuteTableAction(ctx, c, op, table, func(tbl Table) ([]pb.Result, error) {
		var rs, err = tbl.Scan(ctx, scan)
		if err != nil {
			return nil, err
		}
		defer release(rs, op, metrics.TableKind)

		var out []pb.Result
		for {
			var r, err = rs.Next()
			if err == io.EOF {
				return out, nil
			} else if err != nil {
				return nil, errors.WithMessagef(err, "scanning (after %d rows)", len(out))
			} else if r == nil {
				return nil, errors.Errorf("scanner returned no result (after %d rows)", len(out))
			}
			out = append(out, *r)
		}
	})
}

func doAdmin(ctx context.Context, c *Client, op string, fn func(Admin) error) error {
	var _, err = ExecuteAdminAction(ctx, c, op, func(admin Admin) (struct{}, error) {
		return struct{}{}, fn(admin)
	})
	return err
}

func doTable(ctx context.Context, c *Client, op string, table pb.TableName, fn func(Table) error) error {
	var _, err = ExecuteTableAction(ctx, c, op, table, func(tbl Table) (struct{}, error) {
		return struct{}{}, fn(tbl)
	})
	return err
}

func validateFamilies(table pb.TableName, families []string) error {
	if err := table.Validate(); err != nil {
		return pb.ExtendContext(err, "Table")
	} else if len(families) == 0 {
		return pb.NewValidationError("expected at least one column family")
	}
	for i, f := range families {
		if err := pb.ValidateFamily(f); err != nil {
			return pb.ExtendContext(err, "Families[%d]", i)
		}
	}
	return nil
}

func invalid(op string, err error) error {
	return pb.NewError(op, pb.ErrOperation, err)
}
