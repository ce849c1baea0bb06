package local

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"go.ebuer.dev/hbase/hbase"
	pb "go.ebuer.dev/hbase/protocol"
	"gopkg.in/yaml.v2"
)

var errClosed = errors.New("handle is closed")

// closable is embedded by handles which fail once closed.
type closable struct{ closed atomic.Bool }

func (c *closable) check() error {
	if c.closed.Load() {
		return errClosed
	}
	return nil
}

func (c *closable) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return errors.WithMessage(errClosed, "closing twice")
	}
	return nil
}

type connection struct {
	closable
	store *Store
}

func (c *connection) Admin() (hbase.Admin, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return &admin{store: c.store}, nil
}

func (c *connection) Table(name pb.TableName) (hbase.Table, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return &table{store: c.store, name: name}, nil
}

type admin struct {
	closable
	store *Store
}

func (a *admin) CreateTable(_ context.Context, desc pb.TableDescriptor) error {
	if err := a.check(); err != nil {
		return err
	} else if err = desc.Validate(); err != nil {
		return err
	}
	a.store.schemaMu.Lock()
	defer a.store.schemaMu.Unlock()

	if _, ok, err := a.store.loadMeta(a.store.db, desc.Name); err != nil {
		return err
	} else if ok {
		return errors.Errorf("table exists (%s)", desc.Name)
	}
	return a.store.storeMeta(a.store.db, tableMeta{Descriptor: desc})
}

func (a *admin) DisableTable(_ context.Context, name pb.TableName) error {
	return a.update(name, func(meta *tableMeta, _ *pebble.Batch) error {
		if meta.Disabled {
			return errors.Errorf("table is disabled (%s)", name)
		}
		meta.Disabled = true
		return nil
	})
}

func (a *admin) DeleteTable(_ context.Context, name pb.TableName) error {
	if err := a.check(); err != nil {
		return err
	}
	a.store.schemaMu.Lock()
	defer a.store.schemaMu.Unlock()

	if meta, ok, err := a.store.loadMeta(a.store.db, name); err != nil {
		return err
	} else if !ok {
		return errors.Errorf("table not found (%s)", name)
	} else if !meta.Disabled {
		return errors.Errorf("table is not disabled (%s)", name)
	}

	var b = a.store.db.NewBatch()
	defer b.Close()

	var prefix = cellPrefix(name)
	if err := b.DeleteRange(prefix, prefixEnd(prefix), nil); err != nil {
		return err
	} else if err = b.Delete(metaKey(name), nil); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (a *admin) TableExists(_ context.Context, name pb.TableName) (bool, error) {
	if err := a.check(); err != nil {
		return false, err
	}
	a.store.schemaMu.RLock()
	defer a.store.schemaMu.RUnlock()

	var _, ok, err = a.store.loadMeta(a.store.db, name)
	return ok, err
}

func (a *admin) ListTableNames(_ context.Context, pattern string) ([]pb.TableName, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	var re, err = a.store.compile(pattern)
	if err != nil {
		return nil, err
	}
	a.store.schemaMu.RLock()
	defer a.store.schemaMu.RUnlock()

	var prefix = metaPrefix()
	it, err := a.store.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []pb.TableName
	for it.First(); it.Valid(); it.Next() {
		var meta tableMeta
		if err = yaml.Unmarshal(it.Value(), &meta); err != nil {
			return nil, err
		}
		if pattern == "" || re.MatchString(string(meta.Descriptor.Name)) {
			out = append(out, meta.Descriptor.Name)
		}
	}
	return out, it.Error()
}

func (a *admin) AddColumnFamily(_ context.Context, name pb.TableName, family pb.ColumnFamily) error {
	if err := family.Validate(); err != nil {
		return err
	}
	return a.update(name, func(meta *tableMeta, _ *pebble.Batch) error {
		if _, ok := meta.Descriptor.Family(family.Name); ok {
			return errors.Errorf("family exists (%s)", family.Name)
		}
		meta.Descriptor.Families = append(meta.Descriptor.Families, family)
		return nil
	})
}

func (a *admin) DeleteColumnFamily(_ context.Context, name pb.TableName, family string) error {
	return a.update(name, func(meta *tableMeta, b *pebble.Batch) error {
		var families []pb.ColumnFamily
		for _, f := range meta.Descriptor.Families {
			if f.Name != family {
				families = append(families, f)
			}
		}
		if len(families) == len(meta.Descriptor.Families) {
			return errors.Errorf("family not found (%s)", family)
		} else if len(families) == 0 {
			return errors.Errorf("cannot delete the only family (%s)", family)
		}
		meta.Descriptor.Families = families

		return deleteCells(a.store.db, b, name, func(f, _ string) bool { return f == family })
	})
}

// update applies |fn| to the tableMeta of existing table |name|, and commits
// the modified tableMeta with mutations |fn| adds to the Batch.
func (a *admin) update(name pb.TableName, fn func(*tableMeta, *pebble.Batch) error) error {
	if err := a.check(); err != nil {
		return err
	}
	a.store.schemaMu.Lock()
	defer a.store.schemaMu.Unlock()

	var meta, ok, err = a.store.loadMeta(a.store.db, name)
	if err != nil {
		return err
	} else if !ok {
		return errors.Errorf("table not found (%s)", name)
	}

	var b = a.store.db.NewBatch()
	defer b.Close()

	if err = fn(&meta, b); err != nil {
		return err
	} else if err = a.store.storeMeta(b, meta); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}
