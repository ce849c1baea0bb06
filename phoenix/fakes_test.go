package phoenix

import (
	"context"
	"database/sql"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// fakeDialer opens fakeConns. If |gate| is non-nil, Open blocks until it's
// closed or sent an error.
type fakeDialer struct {
	gate chan error
	err  error
	// nilConn, if set, makes Open return neither a Conn nor an error.
	nilConn bool
	seed    func(*fakeConn)
	conns   chan *fakeConn
	urls    chan string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(chan *fakeConn, 16), urls: make(chan string, 16)}
}

func (d *fakeDialer) Open(url string) (Conn, error) {
	d.urls <- url

	if d.gate != nil {
		if err := <-d.gate; err != nil {
			return nil, err
		}
	}
	if d.err != nil {
		return nil, d.err
	} else if d.nilConn {
		return nil, nil
	}
	var c = &fakeConn{}
	if d.seed != nil {
		d.seed(c)
	}
	d.conns <- c
	return c, nil
}

type fakeConn struct {
	mu       sync.Mutex
	pending  []string
	batches  [][]string
	execs    []string
	commits  int
	closed   bool
	closeErr error

	// Fail, if set, fails ExecuteBatch or Exec when it returns an error.
	fail func(stmt string) error
	// rows returned by Query, as column names and row values.
	cols   []string
	values [][]any
}

func (c *fakeConn) Query(_ context.Context, query string) (Rows, error) {
	if c.fail != nil {
		if err := c.fail(query); err != nil {
			return nil, err
		}
	}
	return &fakeRows{cols: c.cols, values: c.values, index: -1}, nil
}

func (c *fakeConn) Exec(_ context.Context, stmt string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail != nil {
		if err := c.fail(stmt); err != nil {
			return err
		}
	}
	c.execs = append(c.execs, stmt)
	return nil
}

func (c *fakeConn) AddBatch(stmt string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, stmt)
}

func (c *fakeConn) ExecuteBatch(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pending = c.pending
	c.pending = nil
	c.batches = append(c.batches, pending)

	if c.fail != nil {
		for _, s := range pending {
			if err := c.fail(s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *fakeConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commits++
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("already closed")
	}
	c.closed = true
	return c.closeErr
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) batchSizes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []int
	for _, b := range c.batches {
		out = append(out, len(b))
	}
	return out
}

type fakeRows struct {
	cols   []string
	values [][]any
	index  int
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Next() bool                 { r.index++; return r.index < len(r.values) }
func (r *fakeRows) Err() error                 { return nil }
func (r *fakeRows) Close() error               { return nil }

func (r *fakeRows) Scan(dest ...any) error {
	if r.index >= len(r.values) {
		return io.EOF
	}
	for i, d := range dest {
		if err := d.(*sql.NullString).Scan(r.values[r.index][i]); err != nil {
			return err
		}
	}
	return nil
}
