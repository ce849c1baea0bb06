package mainboilerplate

import (
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
	"go.ebuer.dev/hbase/conf"
)

func TestHBaseConfigParsingAndOverrides(t *testing.T) {
	var cfg struct {
		HBase HBaseConfig `group:"HBase" namespace:"hbase" env-namespace:"HBASE"`
	}
	var parser = flags.NewParser(&cfg, flags.Default)
	var _, err = parser.ParseArgs([]string{
		"--hbase.quorum", "zk-1,zk-2",
		"--hbase.set", "hbase.rpc.timeout=1000",
		"--hbase.set", conf.QuorumKey + "=zk-3",
		"--hbase.local-dir", "/tmp/hbase",
	})
	require.NoError(t, err)

	var merged = cfg.HBase.Holder().Configuration()
	require.Equal(t, "zk-3", merged.GetOr(conf.QuorumKey, ""))
	require.Equal(t, "2181", merged.GetOr(conf.ClientPortKey, ""))
	require.Equal(t, "1000", merged.GetOr("hbase.rpc.timeout", ""))
	require.Equal(t, "/tmp/hbase", merged.GetOr(conf.LocalDirKey, ""))

	_, err = parser.ParseArgs([]string{"--hbase.set", "missing-separator"})
	require.Error(t, err)
}

func TestPhoenixConfigURL(t *testing.T) {
	var cfg struct {
		Phoenix PhoenixConfig `group:"Phoenix" namespace:"phoenix" env-namespace:"PHOENIX"`
	}
	var parser = flags.NewParser(&cfg, flags.Default)
	var _, err = parser.ParseArgs([]string{"--phoenix.host", "pqs", "--phoenix.connect-timeout", "5s"})
	require.NoError(t, err)

	require.Equal(t, "avatica", cfg.Phoenix.Driver)
	require.Equal(t, "http://pqs:8765", cfg.Phoenix.ConnURL())
	require.Equal(t, "5s", cfg.Phoenix.ConnectTimeout.String())

	cfg.Phoenix.URL = "http://other:1234?serialization=protobuf"
	require.Equal(t, cfg.Phoenix.URL, cfg.Phoenix.ConnURL())

	var client = cfg.Phoenix.MustClient(nil)
	require.Equal(t, cfg.Phoenix.URL, client.URL())
}
