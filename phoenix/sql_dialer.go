package phoenix

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

// SQLDialer is a Dialer of a database/sql driver. Each Conn it opens holds a
// dedicated *sql.DB having a single connection, and runs its statements
// within a transaction begun on first use.
type SQLDialer struct {
	driver string
}

// NewSQLDialer returns a SQLDialer of the named, registered database/sql
// driver. If |driver| is empty, DefaultDriver is used.
func NewSQLDialer(driver string) *SQLDialer {
	if driver == "" {
		driver = DefaultDriver
	}
	return &SQLDialer{driver: driver}
}

// Driver returns the database/sql driver name of the SQLDialer.
func (d *SQLDialer) Driver() string { return d.driver }

// Open implements Dialer. It blocks until the connection is established.
func (d *SQLDialer) Open(url string) (Conn, error) {
	var db, err = sql.Open(d.driver, url)
	if err != nil {
		return nil, errors.WithMessagef(err, "opening %s database", d.driver)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(context.Background())
	if err != nil {
		_ = db.Close()
		return nil, errors.WithMessagef(err, "connecting to %s database", d.driver)
	}
	return &sqlConn{db: db, conn: conn}, nil
}

type sqlConn struct {
	db      *sql.DB
	conn    *sql.Conn
	tx      *sql.Tx
	pending []string
}

// txn returns the current transaction, beginning one if required. It's
// bound to the Background context so that it outlives any single statement.
func (c *sqlConn) txn() (*sql.Tx, error) {
	if c.tx == nil {
		var tx, err = c.conn.BeginTx(context.Background(), nil)
		if err != nil {
			return nil, errors.WithMessage(err, "beginning transaction")
		}
		c.tx = tx
	}
	return c.tx, nil
}

func (c *sqlConn) Query(ctx context.Context, query string) (Rows, error) {
	var tx, err = c.txn()
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *sqlConn) Exec(ctx context.Context, stmt string) error {
	var tx, err = c.txn()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, stmt)
	return err
}

func (c *sqlConn) AddBatch(stmt string) { c.pending = append(c.pending, stmt) }

func (c *sqlConn) ExecuteBatch(ctx context.Context) error {
	var pending = c.pending
	c.pending = nil

	for i, stmt := range pending {
		if err := c.Exec(ctx, stmt); err != nil {
			return errors.WithMessagef(err, "batch statement %d", i)
		}
	}
	return nil
}

func (c *sqlConn) Commit() error {
	if c.tx == nil {
		return nil
	}
	var tx = c.tx
	c.tx = nil
	return tx.Commit()
}

func (c *sqlConn) Close() error {
	var firstErr error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil {
			firstErr = errors.WithMessage(err, "rolling back")
		}
		c.tx = nil
	}
	if err := c.conn.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
