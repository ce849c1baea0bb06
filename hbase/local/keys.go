package local

import (
	"strings"

	"github.com/jgraettinger/cockroach-encoding/encoding"
	"github.com/pkg/errors"
	pb "go.ebuer.dev/hbase/protocol"
)

// Keys are order-preserving encodings of tuples:
//
//	(null, "table", name)                          => YAML tableMeta
//	(null, "cell", name, row, family, qualifier)   => cell value
//
// Cells of a table are contiguous and ordered on (row, family, qualifier).

func metaPrefix() []byte {
	var b = encoding.EncodeNullAscending(nil)
	return encoding.EncodeStringAscending(b, "table")
}

func metaKey(table pb.TableName) []byte {
	return encoding.EncodeStringAscending(metaPrefix(), string(table))
}

func cellPrefix(table pb.TableName) []byte {
	var b = encoding.EncodeNullAscending(nil)
	b = encoding.EncodeStringAscending(b, "cell")
	return encoding.EncodeStringAscending(b, string(table))
}

func rowPrefix(table pb.TableName, row []byte) []byte {
	return encoding.EncodeBytesAscending(cellPrefix(table), row)
}

func cellKey(table pb.TableName, row []byte, family, qualifier string) []byte {
	var b = rowPrefix(table, row)
	b = encoding.EncodeStringAscending(b, family)
	return encoding.EncodeStringAscending(b, qualifier)
}

// decodeCellKey decodes the row, family, and qualifier of a key having
// the cellPrefix of its table. The returned row doesn't alias |key|.
func decodeCellKey(prefix, key []byte) (row []byte, family, qualifier string, err error) {
	var b = key[len(prefix):]

	if b, row, err = encoding.DecodeBytesAscending(b, nil); err != nil {
		return nil, "", "", errors.WithMessage(err, "decoding row")
	} else if b, family, err = encoding.DecodeUnsafeStringAscending(b, nil); err != nil {
		return nil, "", "", errors.WithMessage(err, "decoding family")
	} else if _, qualifier, err = encoding.DecodeUnsafeStringAscending(b, nil); err != nil {
		return nil, "", "", errors.WithMessage(err, "decoding qualifier")
	}
	return append([]byte(nil), row...), strings.Clone(family), strings.Clone(qualifier), nil
}

// prefixEnd returns the smallest key greater than all keys prefixed by |b|.
func prefixEnd(b []byte) []byte {
	var end = append([]byte(nil), b...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i]++; end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // All 0xff: unbounded.
}
