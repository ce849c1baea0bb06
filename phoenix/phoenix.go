// Package phoenix runs SQL statements against Apache Phoenix. Phoenix
// drivers offer no connect timeout, so connections are opened on a shared
// async.Pool and awaited for a bounded time by an Acquirer. A connection
// which arrives after its caller gave up is closed when it does.
package phoenix

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"go.ebuer.dev/hbase/async"
)

const (
	// DefaultConnectTimeout bounds the wait for a connection to open.
	DefaultConnectTimeout = 30 * time.Second
	// DefaultDriver is the database/sql driver of the Phoenix query server.
	DefaultDriver = "avatica"
	// DefaultQueryServerPort is the port of the Phoenix query server.
	DefaultQueryServerPort = 8765
)

// Dialer opens connections. Open may block indefinitely.
type Dialer interface {
	Open(url string) (Conn, error)
}

// Conn is an open connection. Statements are not visible to other
// connections until committed.
type Conn interface {
	// Query runs a statement and returns its rows.
	Query(ctx context.Context, sql string) (Rows, error)
	// Exec runs a statement which returns no rows.
	Exec(ctx context.Context, sql string) error
	// AddBatch adds a statement to the current batch.
	AddBatch(sql string)
	// ExecuteBatch runs and then clears the statements of the current batch.
	ExecuteBatch(ctx context.Context) error
	// Commit statements run since the last Commit.
	Commit() error
	// Close the Conn, discarding uncommitted statements.
	Close() error
}

// Rows is a cursor over the result of a query. *sql.Rows is a Rows.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// URL returns the URL of the Phoenix query server at |host| and |port|.
func URL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port))
}

var defaultPool struct {
	once sync.Once
	pool *async.Pool
}

// DefaultPool returns the process-wide async.Pool of DefaultPoolConfig,
// building it on first use.
func DefaultPool() *async.Pool {
	defaultPool.once.Do(func() {
		var err error
		if defaultPool.pool, err = async.NewPool(async.DefaultPoolConfig()); err != nil {
			panic(err.Error()) // DefaultPoolConfig always validates.
		}
	})
	return defaultPool.pool
}
