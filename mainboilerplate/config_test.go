package mainboilerplate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/require"
)

func TestConfigPaths(t *testing.T) {
	t.Setenv("HOME", "/home/alice")
	t.Setenv("UserProfile", "")

	require.Equal(t, []string{
		"hbasectl.ini",
		"/home/alice/.config/hbase/hbasectl.ini",
	}, ConfigPaths("hbasectl.ini"))
}

func TestParseFirstINI(t *testing.T) {
	var dir = t.TempDir()
	var first, second = filepath.Join(dir, "first.ini"), filepath.Join(dir, "second.ini")

	require.NoError(t, os.WriteFile(first, []byte("[HBase]\nhbase.quorum = zk-first\n"), 0600))
	require.NoError(t, os.WriteFile(second, []byte("[HBase]\nhbase.quorum = zk-second\n"), 0600))

	var cfg struct {
		HBase HBaseConfig `group:"HBase" namespace:"hbase" env-namespace:"HBASE"`
	}
	var parser = flags.NewParser(&cfg, flags.IgnoreUnknown)
	var ini = flags.NewIniParser(parser)

	// Missing files are skipped, and only the first existing file is parsed.
	require.NoError(t, parseFirstINI(ini, []string{filepath.Join(dir, "missing.ini"), first, second}))
	require.Equal(t, "zk-first", cfg.HBase.Quorum)

	// It's not an error if no file exists.
	require.NoError(t, parseFirstINI(ini, []string{filepath.Join(dir, "missing.ini")}))
}
