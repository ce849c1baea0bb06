// Package conf holds client configuration of the column-store: a base driver
// Configuration, onto which an ordered sequence of key/value overrides is
// merged each time the configuration is read.
//
// Clients read the merged Configuration once per connection, and hand it to
// their connection factory verbatim:
//
//	var holder = conf.NewHolder(conf.NewConfiguration(),
//	    conf.KeyValue{Key: conf.QuorumKey, Value: "192.168.48.133:2181"},
//	    conf.KeyValue{Key: conf.ClientPortKey, Value: "2181"},
//	)
//	var cfg = holder.Configuration()
package conf

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Well-known configuration keys.
const (
	// QuorumKey is the ZooKeeper quorum through which the cluster is located.
	QuorumKey = "hbase.zookeeper.quorum"
	// ClientPortKey is the ZooKeeper client port.
	ClientPortKey = "hbase.zookeeper.property.clientPort"
	// ZNodeParentKey is the root ZNode of the cluster.
	ZNodeParentKey = "zookeeper.znode.parent"
	// MasterKey is the address of the cluster master.
	MasterKey = "hbase.master"
	// LocalDirKey is the data directory of an embedded, local column store.
	// If empty, the local store is held in memory.
	LocalDirKey = "hbase.local.dir"
)

// Configuration is a set of driver configuration keys and values.
// Its zero value is an empty Configuration, ready for use.
type Configuration struct {
	values map[string]string
}

// NewConfiguration returns a base Configuration populated with driver defaults.
func NewConfiguration() Configuration {
	var c Configuration
	c.Set(QuorumKey, "localhost")
	c.Set(ClientPortKey, "2181")
	c.Set(ZNodeParentKey, "/hbase")
	return c
}

// Set the key to the value, replacing any previous value.
func (c *Configuration) Set(key, value string) {
	if c.values == nil {
		c.values = make(map[string]string)
	}
	c.values[key] = value
}

// Get returns the value of the key, and whether it's set.
func (c Configuration) Get(key string) (string, bool) {
	var v, ok = c.values[key]
	return v, ok
}

// GetOr returns the value of the key, or |def| if the key is not set.
func (c Configuration) GetOr(key, def string) string {
	if v, ok := c.values[key]; ok {
		return v
	}
	return def
}

// Keys returns the set keys of the Configuration, in sorted order.
func (c Configuration) Keys() []string {
	var out = make([]string, 0, len(c.values))
	for k := range c.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Copy returns a deep copy of the Configuration.
func (c Configuration) Copy() Configuration {
	var out = Configuration{values: make(map[string]string, len(c.values))}
	for k, v := range c.values {
		out.values[k] = v
	}
	return out
}

// KeyValue is a single configuration override. It implements the
// go-flags Marshaler and Unmarshaler interfaces as "key=value".
type KeyValue struct {
	Key   string
	Value string
}

// ParseKeyValue parses a "key=value" override. The value may be empty,
// and may itself contain '='.
func ParseKeyValue(s string) (KeyValue, error) {
	var ind = strings.IndexByte(s, '=')
	if ind == -1 {
		return KeyValue{}, errors.Errorf("expected key=value (%q)", s)
	}
	var kv = KeyValue{Key: strings.TrimSpace(s[:ind]), Value: s[ind+1:]}
	if kv.Key == "" {
		return KeyValue{}, errors.Errorf("expected a non-empty key (%q)", s)
	}
	return kv, nil
}

// String returns the KeyValue as "key=value".
func (kv KeyValue) String() string { return kv.Key + "=" + kv.Value }

// MarshalFlag implements go-flags' Marshaler.
func (kv KeyValue) MarshalFlag() (string, error) { return kv.String(), nil }

// UnmarshalFlag implements go-flags' Unmarshaler.
func (kv *KeyValue) UnmarshalFlag(value string) (err error) {
	*kv, err = ParseKeyValue(value)
	return err
}

// Holder merges ordered KeyValue overrides onto a base Configuration.
// A Holder is immutable, and is safe for concurrent use.
type Holder struct {
	base      Configuration
	overrides []KeyValue
}

// NewHolder returns a Holder of the base Configuration and overrides.
// Both are copied, and later modifications by the caller have no effect.
func NewHolder(base Configuration, overrides ...KeyValue) *Holder {
	return &Holder{
		base:      base.Copy(),
		overrides: append([]KeyValue(nil), overrides...),
	}
}

// Configuration returns a new Configuration of the base with each override
// applied in order. Where an override key repeats, the last value wins.
func (h *Holder) Configuration() Configuration {
	var out = h.base.Copy()
	for _, kv := range h.overrides {
		out.Set(kv.Key, kv.Value)
	}
	return out
}

// Overrides returns a copy of the Holder's ordered overrides.
func (h *Holder) Overrides() []KeyValue {
	return append([]KeyValue(nil), h.overrides...)
}
