// Package hbase is a client of HBase-compatible column stores. Client
// operations each run as a scoped action: a fresh Connection is opened, an
// Admin or Table handle derived from it, the action run, and the handle and
// Connection released, regardless of how the action completes. Nothing
// acquired by an operation outlives it.
//
// The store itself is reached through the ConnectionFactory, Connection,
// Admin, and Table interfaces. Package hbase/local provides an embedded
// implementation of them.
package hbase

import (
	"context"

	"go.ebuer.dev/hbase/conf"
	pb "go.ebuer.dev/hbase/protocol"
)

// ConnectionFactory opens Connections of a Configuration.
type ConnectionFactory interface {
	Open(ctx context.Context, cfg conf.Configuration) (Connection, error)
}

// Connection is an open connection to the store, from which Admin and Table
// handles are derived. Handles must be closed before their Connection.
type Connection interface {
	// Admin returns a new Admin handle of the Connection.
	Admin() (Admin, error)
	// Table returns a new Table handle of the named table. The table is not
	// required to exist: operations of the handle fail if it doesn't.
	Table(name pb.TableName) (Table, error)
	// Close the Connection.
	Close() error
}

// Admin is a handle for table and column family administration.
type Admin interface {
	CreateTable(ctx context.Context, desc pb.TableDescriptor) error
	// DisableTable takes the table offline. A table must be disabled before
	// it may be deleted.
	DisableTable(ctx context.Context, table pb.TableName) error
	DeleteTable(ctx context.Context, table pb.TableName) error
	TableExists(ctx context.Context, table pb.TableName) (bool, error)
	// ListTableNames returns names of tables which match the regular
	// expression |pattern| in their entirety (see
	// protocol.CompileTablePattern), in sorted order. An empty |pattern|
	// matches all tables.
	ListTableNames(ctx context.Context, pattern string) ([]pb.TableName, error)
	AddColumnFamily(ctx context.Context, table pb.TableName, family pb.ColumnFamily) error
	DeleteColumnFamily(ctx context.Context, table pb.TableName, family string) error
	Close() error
}

// Table is a handle for reading and writing rows of a single table.
type Table interface {
	Name() pb.TableName
	Put(ctx context.Context, put pb.Put) error
	// PutBatch applies all Puts as a single submission.
	PutBatch(ctx context.Context, puts []pb.Put) error
	Delete(ctx context.Context, del pb.Delete) error
	// DeleteBatch applies all Deletes as a single submission.
	DeleteBatch(ctx context.Context, dels []pb.Delete) error
	// Get returns the selected cells of the row. A row which doesn't exist
	// returns an empty Result.
	Get(ctx context.Context, get pb.Get) (pb.Result, error)
	// GetBatch returns a Result for each Get, in order.
	GetBatch(ctx context.Context, gets []pb.Get) ([]pb.Result, error)
	// Scan returns a ResultScanner over rows of the Scan's range. The
	// ResultScanner must be closed, and before the Table is.
	Scan(ctx context.Context, scan pb.Scan) (ResultScanner, error)
	Close() error
}

// ResultScanner iterates over Results of a Scan, in row key order.
type ResultScanner interface {
	// Next returns the next Result, or io.EOF if none remain.
	Next() (*pb.Result, error)
	Close() error
}
