package mainboilerplate

import (
	"time"

	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/async"
	"go.ebuer.dev/hbase/conf"
	"go.ebuer.dev/hbase/hbase"
	"go.ebuer.dev/hbase/hbase/local"
	"go.ebuer.dev/hbase/phoenix"
)

// HBaseConfig configures the client of an HBase cluster.
type HBaseConfig struct {
	Quorum   string          `long:"quorum" env:"QUORUM" default:"localhost" description:"ZooKeeper quorum of the cluster"`
	Port     string          `long:"port" env:"PORT" default:"2181" description:"ZooKeeper client port of the cluster"`
	Set      []conf.KeyValue `long:"set" env:"SET" env-delim:"," description:"Configuration override as key=value. May be repeated, and the last value of a key wins"`
	LocalDir string          `long:"local-dir" env:"LOCAL_DIR" description:"Database directory of the embedded store. If empty, the store is held in memory"`
}

// Holder returns a conf.Holder of the HBaseConfig. Overrides of Set apply
// after Quorum, Port, and LocalDir.
func (c HBaseConfig) Holder() *conf.Holder {
	var base = conf.NewConfiguration()
	base.Set(conf.QuorumKey, c.Quorum)
	base.Set(conf.ClientPortKey, c.Port)

	if c.LocalDir != "" {
		base.Set(conf.LocalDirKey, c.LocalDir)
	}
	return conf.NewHolder(base, c.Set...)
}

// MustClient returns an hbase.Client of the HBaseConfig, and a closure which
// releases its resources.
func (c HBaseConfig) MustClient() (*hbase.Client, func()) {
	var factory = local.NewFactory()
	var holder = c.Holder()

	log.WithFields(log.Fields{
		"quorum":    c.Quorum,
		"localDir":  c.LocalDir,
		"overrides": len(c.Set),
	}).Debug("building hbase client")

	return hbase.NewClient(holder, factory), func() {
		Must(factory.Close(), "failed to close local store")
	}
}

// PhoenixConfig configures the client of a Phoenix query server.
type PhoenixConfig struct {
	Driver         string        `long:"driver" env:"DRIVER" default:"avatica" description:"database/sql driver of connections"`
	URL            string        `long:"url" env:"URL" description:"Connection URL. If empty, a URL of Host and Port is used"`
	Host           string        `long:"host" env:"HOST" default:"localhost" description:"Host of the query server"`
	Port           int           `long:"port" env:"PORT" default:"8765" description:"Port of the query server"`
	ConnectTimeout time.Duration `long:"connect-timeout" env:"CONNECT_TIMEOUT" default:"30s" description:"Timeout for a connection to open"`
}

// ConnURL returns the connection URL of the PhoenixConfig.
func (c PhoenixConfig) ConnURL() string {
	if c.URL != "" {
		return c.URL
	}
	return phoenix.URL(c.Host, c.Port)
}

// MustClient returns a phoenix.Client of the PhoenixConfig which acquires
// connections on |pool|.
func (c PhoenixConfig) MustClient(pool *async.Pool) *phoenix.Client {
	if pool == nil {
		pool = phoenix.DefaultPool()
	}
	var acquirer = phoenix.NewAcquirer(phoenix.NewSQLDialer(c.Driver), pool, c.ConnectTimeout)
	return phoenix.NewClient(acquirer, c.ConnURL())
}
