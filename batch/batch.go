// Package batch partitions large ordered sequences of mutations or statements
// into fixed-size chunks, which are submitted in order so that no single
// request to the column-store exceeds a comfortable size.
package batch

import (
	"fmt"

	"go.ebuer.dev/hbase/metrics"
)

const (
	// MutationChunkSize is the maximum number of row mutations (Puts or
	// Deletes) submitted in a single request.
	MutationChunkSize = 2048
	// StatementChunkSize is the maximum number of SQL statements accumulated
	// into a driver batch before it's flushed.
	StatementChunkSize = 1024
)

// ApplyInChunks partitions |items| into consecutive chunks of at most |size|
// items and invokes |submit| with each, in order. Chunk boundaries are
// deterministic: the first |size| items, then the next |size|, and so on, with
// a final and possibly shorter chunk. Items are neither reordered nor
// de-duplicated. The next chunk is not submitted until |submit| returns for the
// current one, and the first error returned by |submit| aborts the remaining
// chunks and is returned. An empty |items| results in no submissions.
//
// |submit| must not retain its chunk, which aliases |items|.
func ApplyInChunks[T any](items []T, size int, submit func(chunk []T) error) error {
	if size < 1 {
		panic(fmt.Sprintf("invalid chunk size (%d; expected >= 1)", size))
	}
	for len(items) != 0 {
		var n = min(size, len(items))

		if err := submit(items[:n:n]); err != nil {
			return err
		}
		metrics.BatchChunksTotal.Inc()
		metrics.BatchItemsTotal.Add(float64(n))

		items = items[n:]
	}
	return nil
}

// Count returns the number of chunks ApplyInChunks submits for |length| items.
func Count(length, size int) int {
	return (length + size - 1) / size
}
