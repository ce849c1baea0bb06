package local

import (
	"bytes"
	"context"
	"io"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"go.ebuer.dev/hbase/hbase"
	pb "go.ebuer.dev/hbase/protocol"
)

type table struct {
	closable
	store *Store
	name  pb.TableName
}

func (t *table) Name() pb.TableName { return t.name }

func (t *table) Put(ctx context.Context, put pb.Put) error {
	return t.PutBatch(ctx, []pb.Put{put})
}

func (t *table) PutBatch(_ context.Context, puts []pb.Put) error {
	return t.mutate(func(meta tableMeta, b *pebble.Batch) error {
		for _, p := range puts {
			for _, c := range p.Cells {
				if _, ok := meta.Descriptor.Family(c.Family); !ok {
					return errors.Errorf("family not found (%s)", c.Family)
				} else if err := b.Set(cellKey(t.name, p.Row, c.Family, c.Qualifier), c.Value, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (t *table) Delete(ctx context.Context, del pb.Delete) error {
	return t.DeleteBatch(ctx, []pb.Delete{del})
}

func (t *table) DeleteBatch(_ context.Context, dels []pb.Delete) error {
	return t.mutate(func(_ tableMeta, b *pebble.Batch) error {
		for _, d := range dels {
			var prefix = rowPrefix(t.name, d.Row)

			if len(d.Families) == 0 && len(d.Columns) == 0 {
				if err := b.DeleteRange(prefix, prefixEnd(prefix), nil); err != nil {
					return err
				}
			} else if err := deleteRowCells(t.store.db, b, t.name, prefix, d.Matches); err != nil {
				return err
			}
		}
		return nil
	})
}

// mutate applies the mutations |fn| adds to a Batch as a single commit.
// The Batch is not applied if |fn| fails.
func (t *table) mutate(fn func(tableMeta, *pebble.Batch) error) error {
	if err := t.check(); err != nil {
		return err
	}
	t.store.schemaMu.RLock()
	defer t.store.schemaMu.RUnlock()

	var meta, err = t.store.enabledMeta(t.name)
	if err != nil {
		return err
	}
	var b = t.store.db.NewBatch()
	defer b.Close()

	if err = fn(meta, b); err != nil {
		return err
	}
	return b.Commit(pebble.Sync)
}

func (t *table) Get(ctx context.Context, get pb.Get) (pb.Result, error) {
	var rs, err = t.GetBatch(ctx, []pb.Get{get})
	if err != nil {
		return pb.Result{}, err
	}
	return rs[0], nil
}

// GetBatch reads all Gets from a consistent snapshot.
func (t *table) GetBatch(_ context.Context, gets []pb.Get) ([]pb.Result, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	t.store.schemaMu.RLock()
	defer t.store.schemaMu.RUnlock()

	if _, err := t.store.enabledMeta(t.name); err != nil {
		return nil, err
	}
	var snap = t.store.db.NewSnapshot()
	defer snap.Close()

	var out = make([]pb.Result, len(gets))
	for i, g := range gets {
		var r, err = readRow(snap, t.name, g.Row, g.Matches)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (t *table) Scan(_ context.Context, scan pb.Scan) (hbase.ResultScanner, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	t.store.schemaMu.RLock()
	defer t.store.schemaMu.RUnlock()

	if _, err := t.store.enabledMeta(t.name); err != nil {
		return nil, err
	}
	var prefix = cellPrefix(t.name)
	var opts = &pebble.IterOptions{
		LowerBound: rowPrefix(t.name, scan.StartRow),
		UpperBound: prefixEnd(prefix),
	}
	if len(scan.StopRow) != 0 {
		opts.UpperBound = rowPrefix(t.name, scan.StopRow)
	}
	var it, err = t.store.db.NewIter(opts)
	if err != nil {
		return nil, err
	}
	it.First()

	return &scanner{it: it, prefix: prefix, scan: scan}, nil
}

// scanner groups cells of an Iterator into Results of successive rows.
type scanner struct {
	it     *pebble.Iterator
	prefix []byte
	scan   pb.Scan
	count  int
	closed bool
}

func (s *scanner) Next() (*pb.Result, error) {
	for {
		if s.closed {
			return nil, errClosed
		} else if s.scan.Limit != 0 && s.count == s.scan.Limit {
			return nil, io.EOF
		} else if !s.it.Valid() {
			if err := s.it.Error(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}

		var r pb.Result
		for ; s.it.Valid(); s.it.Next() {
			var row, family, qualifier, err = decodeCellKey(s.prefix, s.it.Key())
			if err != nil {
				return nil, err
			} else if r.Row == nil {
				r.Row = row
			} else if !bytes.Equal(r.Row, row) {
				break
			}
			if s.scan.Matches(family, qualifier) {
				r.Cells = append(r.Cells, pb.Cell{
					Family:    family,
					Qualifier: qualifier,
					Value:     append([]byte(nil), s.it.Value()...),
				})
			}
		}
		if !r.Empty() {
			s.count++
			return &r, nil
		}
	}
}

func (s *scanner) Close() error {
	if s.closed {
		return errors.WithMessage(errClosed, "closing twice")
	}
	s.closed = true
	return s.it.Close()
}

// readRow returns cells of |row| selected by |matches|.
func readRow(r pebble.Reader, table pb.TableName, row []byte, matches func(family, qualifier string) bool) (pb.Result, error) {
	var prefix = rowPrefix(table, row)
	var out = pb.Result{Row: append([]byte(nil), row...)}

	var err = iterate(r, prefix, func(key, value []byte) error {
		var _, family, qualifier, err = decodeCellKey(cellPrefix(table), key)
		if err != nil {
			return err
		} else if matches(family, qualifier) {
			out.Cells = append(out.Cells, pb.Cell{
				Family:    family,
				Qualifier: qualifier,
				Value:     append([]byte(nil), value...),
			})
		}
		return nil
	})
	return out, err
}

// deleteCells adds deletions of cells of |table| selected by |matches| to |b|.
func deleteCells(r pebble.Reader, b *pebble.Batch, table pb.TableName, matches func(family, qualifier string) bool) error {
	return deleteRowCells(r, b, table, cellPrefix(table), matches)
}

// deleteRowCells adds deletions of cells under |prefix| which are selected
// by |matches| to |b|. |prefix| is the cellPrefix or a rowPrefix of |table|.
func deleteRowCells(r pebble.Reader, b *pebble.Batch, table pb.TableName, prefix []byte, matches func(family, qualifier string) bool) error {
	var tablePrefix = cellPrefix(table)

	return iterate(r, prefix, func(key, _ []byte) error {
		var _, family, qualifier, err = decodeCellKey(tablePrefix, key)
		if err != nil {
			return err
		} else if matches(family, qualifier) {
			return b.Delete(key, nil)
		}
		return nil
	})
}

// iterate invokes |fn| with each key and value having |prefix|. Arguments
// of |fn| are valid only for the duration of the call.
func iterate(r pebble.Reader, prefix []byte, fn func(key, value []byte) error) error {
	var it, err = r.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixEnd(prefix),
	})
	if err != nil {
		return err
	}
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		if err = fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}
