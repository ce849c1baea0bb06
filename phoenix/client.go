package phoenix

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/batch"
	"go.ebuer.dev/hbase/metrics"
	pb "go.ebuer.dev/hbase/protocol"
)

// Client runs SQL statements over Conns of its Acquirer. Each operation
// acquires its own Conn, and closes it before returning.
type Client struct {
	acquirer *Acquirer
	url      string
}

// NewClient returns a Client of Conns of |url|.
func NewClient(acquirer *Acquirer, url string) *Client {
	return &Client{acquirer: acquirer, url: url}
}

// URL returns the connection URL of the Client.
func (c *Client) URL() string { return c.url }

// ExecQuerySQL runs query |sql| and returns its rows as a JSON document
// {"data":[{"column":"value",...},...]}. Rows are in cursor order, and keys
// of each row are in column order. Columns which are SQL NULL are omitted.
func (c *Client) ExecQuerySQL(ctx context.Context, sql string) (string, error) {
	var rs, err = c.query(ctx, "ExecQuerySQL", sql)
	if err != nil {
		return "", err
	}
	b, err := rs.MarshalJSON()
	if err != nil {
		return "", pb.NewError("ExecQuerySQL", pb.ErrOperation, err)
	}
	return string(b), nil
}

// QuerySQL runs query |sql| and returns its rows.
func (c *Client) QuerySQL(ctx context.Context, sql string) (pb.RecordSet, error) {
	return c.query(ctx, "QuerySQL", sql)
}

func (c *Client) query(ctx context.Context, op, query string) (pb.RecordSet, error) {
	var out pb.RecordSet

	if err := validateStatement(query); err != nil {
		return out, pb.NewError(op, pb.ErrOperation, err)
	}
	var err = c.withConn(ctx, op, func(conn Conn) error {
		var rows, err = conn.Query(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return errors.WithMessage(err, "reading columns")
		}
		var values = make([]sql.NullString, len(cols))
		var dest = make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}

		for rows.Next() {
			if err = rows.Scan(dest...); err != nil {
				return errors.WithMessagef(err, "scanning row %d", len(out.Data))
			}
			var rec pb.Record
			for i, col := range cols {
				if values[i].Valid {
					rec.Set(col, values[i].String)
				}
			}
			out.Data = append(out.Data, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return pb.RecordSet{}, err
	}
	return out, nil
}

// ExecBatchSQL runs |stmts| as batches of batch.StatementChunkSize, in
// order, and then commits. If a batch fails, the remaining batches are not
// run and nothing is committed.
func (c *Client) ExecBatchSQL(ctx context.Context, stmts []string) error {
	if err := validateStatements(stmts); err != nil {
		return pb.NewError("ExecBatchSQL", pb.ErrOperation, err)
	}
	return c.withConn(ctx, "ExecBatchSQL", func(conn Conn) error {
		var err = batch.ApplyInChunks(stmts, batch.StatementChunkSize, func(chunk []string) error {
			for _, s := range chunk {
				conn.AddBatch(s)
			}
			return conn.ExecuteBatch(ctx)
		})
		if err != nil {
			return err
		}
		return errors.WithMessage(conn.Commit(), "committing")
	})
}

// ExecSQL runs each of |stmts| individually, in order, and then commits.
// If a statement fails, the remaining statements are not run and nothing is
// committed.
func (c *Client) ExecSQL(ctx context.Context, stmts ...string) error {
	if err := validateStatements(stmts); err != nil {
		return pb.NewError("ExecSQL", pb.ErrOperation, err)
	}
	return c.withConn(ctx, "ExecSQL", func(conn Conn) error {
		var index int
		var err = batch.ApplyInChunks(stmts, batch.StatementChunkSize, func(chunk []string) error {
			for _, s := range chunk {
				if err := conn.Exec(ctx, s); err != nil {
					return errors.WithMessagef(err, "statement %d", index)
				}
				index++
			}
			return nil
		})
		if err != nil {
			return err
		}
		return errors.WithMessage(conn.Commit(), "committing")
	})
}

// withConn acquires a Conn, runs |fn| with it, and closes the Conn.
func (c *Client) withConn(ctx context.Context, op string, fn func(Conn) error) (err error) {
	var status = metrics.Fail
	defer func(started time.Time) {
		metrics.ActionsTotal.WithLabelValues(metrics.SQLKind, op, status).Inc()
		metrics.ActionDurationSeconds.WithLabelValues(metrics.SQLKind, op).Observe(time.Since(started).Seconds())
	}(time.Now())

	conn, err := c.acquirer.Acquire(ctx, c.url)
	if err != nil {
		return errors.WithMessage(err, op)
	}
	metrics.ConnectionsOpenedTotal.WithLabelValues(metrics.SQLKind).Inc()
	defer release(conn, op)

	if err = fn(conn); err != nil {
		return pb.NewError(op, pb.ErrOperation, err)
	}
	status = metrics.Ok
	return nil
}

func release(conn Conn, op string) {
	metrics.ConnectionsClosedTotal.WithLabelValues(metrics.SQLKind).Inc()

	if err := conn.Close(); err != nil {
		metrics.ReleaseFailuresTotal.WithLabelValues(metrics.SQLKind).Inc()

		log.WithFields(log.Fields{
			"op":  op,
			"err": pb.NewError(op, pb.ErrRelease, err),
		}).Warn("failed to release connection")
	}
}

func validateStatement(s string) error {
	if strings.TrimSpace(s) == "" {
		return pb.NewValidationError("expected non-empty statement")
	}
	return nil
}

func validateStatements(stmts []string) error {
	for i, s := range stmts {
		if err := validateStatement(s); err != nil {
			return pb.ExtendContext(err, "Statements[%d]", i)
		}
	}
	return nil
}
