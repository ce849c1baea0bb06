// Package protocol defines the column-store datamodel, validation behaviors,
// and the failure taxonomy which are shared by the HBase and Phoenix clients.
//
// Datamodel types (TableName, ColumnFamily, TableDescriptor, Put, Delete, Get,
// Scan, Cell, Result) are plain Go values which collaborators interpret. Each
// implements the Validator interface, and clients validate all operands before
// opening any connection, so collaborators may assume well-formed input.
//
// Every failure surfaced by a client is an *Error carrying the operation name,
// one of the kinds ErrConnect, ErrTimeout, ErrOperation or ErrRelease, and the
// underlying cause. Use errors.Is against a kind to classify a failure:
//
//	if _, err := client.GetRow(ctx, "user", "rk_001"); errors.Is(err, protocol.ErrConnect) {
//	    // The cluster was unreachable. No action was attempted.
//	}
//
// By convention, this package is imported as `pb`.
package protocol
