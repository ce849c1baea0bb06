package phoenix

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/async"
	"go.ebuer.dev/hbase/metrics"
	pb "go.ebuer.dev/hbase/protocol"
)

var errNilConn = errors.New("dialer returned neither a connection nor an error")

// Acquirer opens Conns of its Dialer on an async.Pool, and waits for them
// for at most its timeout.
type Acquirer struct {
	dialer  Dialer
	pool    *async.Pool
	timeout time.Duration
}

// NewAcquirer returns an Acquirer of the Dialer and Pool. If |timeout| is
// not positive, DefaultConnectTimeout is used.
func NewAcquirer(dialer Dialer, pool *async.Pool, timeout time.Duration) *Acquirer {
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &Acquirer{dialer: dialer, pool: pool, timeout: timeout}
}

// Timeout returns the connect timeout of the Acquirer.
func (a *Acquirer) Timeout() time.Duration { return a.timeout }

// Acquire a Conn of |url|. If the Conn doesn't open before the timeout
// elapses or |ctx| is done, an ErrTimeout *protocol.Error is returned. The
// open continues in the background, and its Conn is closed once it arrives.
// A failure to open is returned as an ErrConnect *protocol.Error.
func (a *Acquirer) Acquire(ctx context.Context, url string) (Conn, error) {
	var started = time.Now()
	var future = async.Submit(a.pool, func() (Conn, error) { return a.dialer.Open(url) })

	var conn, err = future.Wait(ctx, a.timeout)
	metrics.AcquireDurationSeconds.Observe(time.Since(started).Seconds())

	if err == nil && conn == nil {
		err = errNilConn
	}
	if err == nil {
		metrics.AcquiresTotal.WithLabelValues(metrics.Ok).Inc()
		return conn, nil
	} else if err == async.ErrDeadline || err == ctx.Err() {
		metrics.AcquiresTotal.WithLabelValues(metrics.Timeout).Inc()
		future.Detach(func(conn Conn, err error) { closeLate(url, started, conn, err) })

		log.WithFields(log.Fields{
			"url":     url,
			"timeout": a.timeout,
			"err":     err,
		}).Warn("timed out acquiring connection")

		return nil, pb.NewError("Acquire", pb.ErrTimeout,
			errors.WithMessagef(err, "connecting to %s (timeout %s)", url, a.timeout))
	}

	metrics.AcquiresTotal.WithLabelValues(metrics.Fail).Inc()
	return nil, pb.NewError("Acquire", pb.ErrConnect, errors.WithMessagef(err, "connecting to %s", url))
}

// closeLate closes a Conn which opened after its Acquire timed out.
func closeLate(url string, started time.Time, conn Conn, err error) {
	var fields = log.Fields{"url": url, "elapsed": time.Since(started)}

	if err != nil {
		fields["err"] = err
		log.WithFields(fields).Warn("connection failed after acquire timed out")
		return
	}
	metrics.LateConnectionsClosedTotal.Inc()

	if err = conn.Close(); err != nil {
		fields["err"] = pb.NewError("Acquire", pb.ErrRelease, err)
		log.WithFields(fields).Warn("failed to close connection which opened after acquire timed out")
		return
	}
	log.WithFields(fields).Info("closed connection which opened after acquire timed out")
}
