// Package local implements the hbase collaborator interfaces over an embedded
// Pebble database. Tables, column families, and cells are stored under
// order-preserving keys, so that rows of a table scan in key order. A Store
// of an empty directory is held in memory.
package local

import (
	"context"
	"regexp"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.ebuer.dev/hbase/conf"
	"go.ebuer.dev/hbase/hbase"
	pb "go.ebuer.dev/hbase/protocol"
	"gopkg.in/yaml.v2"
)

// patternCacheSize is the number of compiled ListTableNames patterns retained.
const patternCacheSize = 64

// Store is a column store backed by a Pebble database.
type Store struct {
	db  *pebble.DB
	dir string

	// schemaMu is held for writing by table and family administration, and
	// for reading by row operations.
	schemaMu sync.RWMutex
	patterns *lru.Cache
}

// tableMeta is the persisted state of a table.
type tableMeta struct {
	Descriptor pb.TableDescriptor `yaml:"descriptor"`
	Disabled   bool               `yaml:"disabled,omitempty"`
}

// OpenStore opens a Store of database directory |dir|, which is created if
// it doesn't exist. If |dir| is empty, the Store is held in memory.
func OpenStore(dir string) (*Store, error) {
	var opts = &pebble.Options{}
	if dir == "" {
		opts.FS = vfs.NewMem()
	}
	var db, err = pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.WithMessagef(err, "opening pebble database %q", dir)
	}
	patterns, err := lru.New(patternCacheSize)
	if err != nil {
		panic(err.Error()) // Only errors on size <= 0.
	}

	log.WithField("dir", dir).Debug("opened local store")
	return &Store{db: db, dir: dir, patterns: patterns}, nil
}

// Dir returns the database directory of the Store, or "" if it's in memory.
func (s *Store) Dir() string { return s.dir }

// Close the Store. Connections of the Store must not be used thereafter.
func (s *Store) Close() error {
	return s.db.Close()
}

// Connect returns a new Connection of the Store.
func (s *Store) Connect() hbase.Connection {
	return &connection{store: s}
}

// loadMeta returns the tableMeta of |table|, and whether it exists.
func (s *Store) loadMeta(r pebble.Reader, table pb.TableName) (tableMeta, bool, error) {
	var meta tableMeta

	var b, closer, err = r.Get(metaKey(table))
	if errors.Is(err, pebble.ErrNotFound) {
		return meta, false, nil
	} else if err != nil {
		return meta, false, errors.WithMessagef(err, "reading table %s", table)
	}
	defer closer.Close()

	if err = yaml.Unmarshal(b, &meta); err != nil {
		return meta, false, errors.WithMessagef(err, "decoding table %s", table)
	}
	return meta, true, nil
}

// enabledMeta returns the tableMeta of |table|, which must exist and be enabled.
func (s *Store) enabledMeta(table pb.TableName) (tableMeta, error) {
	var meta, ok, err = s.loadMeta(s.db, table)
	if err != nil {
		return meta, err
	} else if !ok {
		return meta, errors.Errorf("table not found (%s)", table)
	} else if meta.Disabled {
		return meta, errors.Errorf("table is disabled (%s)", table)
	}
	return meta, nil
}

func (s *Store) storeMeta(w pebble.Writer, meta tableMeta) error {
	var b, err = yaml.Marshal(meta)
	if err != nil {
		return errors.WithMessagef(err, "encoding table %s", meta.Descriptor.Name)
	}
	return w.Set(metaKey(meta.Descriptor.Name), b, nil)
}

// compile returns the compiled, full-match table pattern of |pattern|.
func (s *Store) compile(pattern string) (*regexp.Regexp, error) {
	if v, ok := s.patterns.Get(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	var re, err = pb.CompileTablePattern(pattern)
	if err != nil {
		return nil, err
	}
	s.patterns.Add(pattern, re)
	return re, nil
}

// Factory is an hbase.ConnectionFactory of Stores. The Store of a
// Configuration is named by its conf.LocalDirKey: Stores are opened on first
// use, and are shared by all Connections of the same directory.
type Factory struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewFactory returns an empty Factory.
func NewFactory() *Factory {
	return &Factory{stores: make(map[string]*Store)}
}

var _ hbase.ConnectionFactory = (*Factory)(nil)

// Open implements hbase.ConnectionFactory.
func (f *Factory) Open(ctx context.Context, cfg conf.Configuration) (hbase.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var dir = cfg.GetOr(conf.LocalDirKey, "")

	f.mu.Lock()
	defer f.mu.Unlock()

	if s, ok := f.stores[dir]; ok {
		return s.Connect(), nil
	}
	var s, err = OpenStore(dir)
	if err != nil {
		return nil, err
	}
	f.stores[dir] = s
	return s.Connect(), nil
}

// Close all Stores of the Factory.
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var firstErr error
	for dir, s := range f.stores {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = errors.WithMessagef(err, "closing store %q", dir)
		}
		delete(f.stores, dir)
	}
	return firstErr
}
