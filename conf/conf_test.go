package conf

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigurationDefaultsAndCopy(t *testing.T) {
	var c = NewConfiguration()
	require.Equal(t, "localhost", c.GetOr(QuorumKey, "unset"))
	require.Equal(t, "unset", c.GetOr(LocalDirKey, "unset"))
	require.Equal(t, []string{ClientPortKey, QuorumKey, ZNodeParentKey}, c.Keys())

	var cp = c.Copy()
	cp.Set(QuorumKey, "other")
	var v, _ = c.Get(QuorumKey)
	require.Equal(t, "localhost", v, "copy is independent")

	var zero Configuration
	_, ok := zero.Get(QuorumKey)
	require.False(t, ok)
	zero.Set("k", "v") // Zero value is usable.
	require.Equal(t, "v", zero.GetOr("k", ""))
}

func TestHolderAppliesOverridesInOrder(t *testing.T) {
	var h = NewHolder(NewConfiguration(),
		KeyValue{QuorumKey, "192.168.48.133:2181"},
		KeyValue{ClientPortKey, "2181"},
		KeyValue{MasterKey, "192.168.48.133:2181"},
		KeyValue{ClientPortKey, "2182"},
	)
	var c = h.Configuration()

	require.Equal(t, "192.168.48.133:2181", c.GetOr(QuorumKey, ""))
	require.Equal(t, "2182", c.GetOr(ClientPortKey, ""), "last override wins")
	require.Equal(t, "/hbase", c.GetOr(ZNodeParentKey, ""), "base value retained")

	// Merging happens on each read, and reads don't alias.
	c.Set(QuorumKey, "mutated")
	require.Equal(t, "192.168.48.133:2181", h.Configuration().GetOr(QuorumKey, ""))
	require.Len(t, h.Overrides(), 4)
}

func TestHolderIsolatedFromCallerMutation(t *testing.T) {
	var base = NewConfiguration()
	var overrides = []KeyValue{{"a", "1"}}
	var h = NewHolder(base, overrides...)

	base.Set("a", "base")
	overrides[0].Value = "changed"
	require.Equal(t, "1", h.Configuration().GetOr("a", ""))
}

func TestMergedConfigurationReflectsLastOverride(t *testing.T) {
	var rnd = rand.New(rand.NewSource(42))

	for round := 0; round != 50; round++ {
		var overrides []KeyValue
		var expect = make(map[string]string)

		for i := rnd.Intn(20); i != 0; i-- {
			var kv = KeyValue{
				Key:   fmt.Sprintf("key.%d", rnd.Intn(5)),
				Value: fmt.Sprintf("value.%d", rnd.Int()),
			}
			overrides = append(overrides, kv)
			expect[kv.Key] = kv.Value
		}
		var c = NewHolder(NewConfiguration(), overrides...).Configuration()

		for k, v := range expect {
			require.Equal(t, v, c.GetOr(k, ""))
		}
	}
}

func TestParseKeyValueCases(t *testing.T) {
	var cases = []struct {
		in     string
		expect KeyValue
		err    string
	}{
		{"hbase.master=host:2181", KeyValue{"hbase.master", "host:2181"}, ""},
		{" spaced = value", KeyValue{"spaced", " value"}, ""},
		{"empty=", KeyValue{"empty", ""}, ""},
		{"eq=a=b", KeyValue{"eq", "a=b"}, ""},
		{"no-separator", KeyValue{}, `expected key=value ("no-separator")`},
		{"=value", KeyValue{}, `expected a non-empty key ("=value")`},
	}
	for _, tc := range cases {
		var kv KeyValue
		var err = kv.UnmarshalFlag(tc.in)

		if tc.err != "" {
			require.EqualError(t, err, tc.err)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tc.expect, kv)

		out, _ := kv.MarshalFlag()
		require.Equal(t, tc.expect.Key+"="+tc.expect.Value, out)
	}
}
