package hbase

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/metrics"
	pb "go.ebuer.dev/hbase/protocol"
)

// AdminAction is run with an Admin handle which is valid only for the
// duration of the call.
type AdminAction[T any] func(Admin) (T, error)

// TableAction is run with a Table handle which is valid only for the duration
// of the call.
type TableAction[T any] func(Table) (T, error)

// ExecuteAdminAction opens a Connection of the Client, derives an Admin handle,
// and runs |action| with it. The Admin and then the Connection are released
// before returning, including where |action| fails or panics.
//
// A failure to open the Connection or derive the handle is returned as an
// ErrConnect *protocol.Error of |op|, and |action| is not run. A failure of
// |action| is returned as an ErrOperation *protocol.Error. Release failures
// are logged, and are not returned.
func ExecuteAdminAction[T any](ctx context.Context, c *Client, op string, action AdminAction[T]) (out T, err error) {
	var status = metrics.Fail
	defer track(metrics.AdminKind, op, time.Now(), &status)

	conn, err := c.open(ctx, op, metrics.AdminKind)
	if err != nil {
		return out, err
	}
	defer releaseConnection(conn, op, metrics.AdminKind)

	admin, err := conn.Admin()
	if err != nil {
		return out, pb.NewError(op, pb.ErrConnect, errors.WithMessage(err, "deriving admin handle"))
	}
	defer release(admin, op, metrics.AdminKind)

	if out, err = action(admin); err != nil {
		return out, pb.NewError(op, pb.ErrOperation, err)
	}
	status = metrics.Ok
	return out, nil
}

// ExecuteTableAction opens a Connection of the Client, derives a Table handle
// of |table|, and runs |action| with it. It otherwise behaves as does
// ExecuteAdminAction. An invalid |table| fails with ErrOperation before a
// Connection is opened.
func ExecuteTableAction[T any](ctx context.Context, c *Client, op string, table pb.TableName, action TableAction[T]) (out T, err error) {
	var status = metrics.Fail
	defer track(metrics.TableKind, op, time.Now(), &status)

	if err = table.Validate(); err != nil {
		return out, pb.NewError(op, pb.ErrOperation, pb.ExtendContext(err, "Table"))
	}

	conn, err := c.open(ctx, op, metrics.TableKind)
	if err != nil {
		return out, err
	}
	defer releaseConnection(conn, op, metrics.TableKind)

	tbl, err := conn.Table(table)
	if err != nil {
		return out, pb.NewError(op, pb.ErrConnect, errors.WithMessagef(err, "deriving table handle (%s)", table))
	}
	defer release(tbl, op, metrics.TableKind)

	if out, err = action(tbl); err != nil {
		return out, pb.NewError(op, pb.ErrOperation, err)
	}
	status = metrics.Ok
	return out, nil
}

func (c *Client) open(ctx context.Context, op, kind string) (Connection, error) {
	var conn, err = c.factory.Open(ctx, c.holder.Configuration())
	if err != nil {
		return nil, pb.NewError(op, pb.ErrConnect, errors.WithMessage(err, "opening connection"))
	}
	metrics.ConnectionsOpenedTotal.WithLabelValues(kind).Inc()
	return conn, nil
}

func releaseConnection(conn Connection, op, kind string) {
	release(conn, op, kind)
	metrics.ConnectionsClosedTotal.WithLabelValues(kind).Inc()
}

func release(h io.Closer, op, kind string) {
	if err := h.Close(); err != nil {
		metrics.ReleaseFailuresTotal.WithLabelValues(kind).Inc()

		log.WithFields(log.Fields{
			"op":   op,
			"kind": kind,
			"err":  pb.NewError(op, pb.ErrRelease, err),
		}).Warn("failed to release handle")
	}
}

func track(kind, op string, started time.Time, status *string) {
	metrics.ActionsTotal.WithLabelValues(kind, op, *status).Inc()
	metrics.ActionDurationSeconds.WithLabelValues(kind, op).Observe(time.Since(started).Seconds())
}
