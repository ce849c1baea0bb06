package phoenix

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	pb "go.ebuer.dev/hbase/protocol"
)

func TestSQLDialerQueryScenario(t *testing.T) {
	var ctx = context.Background()
	var client = newSQLClientFixture(t)

	require.NoError(t, client.ExecSQL(ctx,
		"CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)",
		"INSERT INTO t VALUES (1, 'a')",
		"INSERT INTO t VALUES (2, 'b')",
	))
	var out, err = client.ExecQuerySQL(ctx, "SELECT id, name FROM t ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, `{"data":[{"id":"1","name":"a"},{"id":"2","name":"b"}]}`, out)

	// NULL columns are omitted from their record.
	require.NoError(t, client.ExecSQL(ctx, "INSERT INTO t VALUES (3, NULL)"))
	out, err = client.ExecQuerySQL(ctx, "SELECT id, name FROM t WHERE id = 3")
	require.NoError(t, err)
	require.Equal(t, `{"data":[{"id":"3"}]}`, out)
}

func TestSQLDialerBatchesCommitAtomically(t *testing.T) {
	var ctx = context.Background()
	var client = newSQLClientFixture(t)

	require.NoError(t, client.ExecSQL(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)"))

	var stmts []string
	for i := 0; i != 3000; i++ {
		stmts = append(stmts, fmt.Sprintf("INSERT INTO t VALUES (%d)", i))
	}
	require.NoError(t, client.ExecBatchSQL(ctx, stmts))

	var out, err = client.ExecQuerySQL(ctx, "SELECT COUNT(*) AS n FROM t")
	require.NoError(t, err)
	require.Equal(t, `{"data":[{"n":"3000"}]}`, out)

	// A failed statement discards statements which preceded it.
	err = client.ExecSQL(ctx, "INSERT INTO t VALUES (5000)", "INSERT INTO missing VALUES (1)")
	require.True(t, errors.Is(err, pb.ErrOperation))
	require.Contains(t, err.Error(), "statement 1: no such table: missing")

	err = client.ExecBatchSQL(ctx, []string{"INSERT INTO t VALUES (5001)", "INSERT INTO t VALUES (0)"})
	require.Contains(t, err.Error(), "batch statement 1: UNIQUE constraint failed")

	out, err = client.ExecQuerySQL(ctx, "SELECT COUNT(*) AS n FROM t")
	require.NoError(t, err)
	require.Equal(t, `{"data":[{"n":"3000"}]}`, out)
}

func TestSQLDialerOpenFailure(t *testing.T) {
	var dialer = NewSQLDialer("not-a-driver")
	require.Equal(t, "not-a-driver", dialer.Driver())
	require.Equal(t, DefaultDriver, NewSQLDialer("").Driver())

	var _, err = dialer.Open("url")
	require.EqualError(t, err, `opening not-a-driver database: sql: unknown driver "not-a-driver" (forgotten import?)`)
}

func newSQLClientFixture(t *testing.T) *Client {
	var url = filepath.Join(t.TempDir(), "phoenix.db")
	return NewClient(NewAcquirer(NewSQLDialer("sqlite3"), newPoolFixture(t), 0), url)
}
