// Package store implements the one remote-store operation the core
// pipeline requires:
//
//	put_protobuf_cells_with_retry(table, rows, use_timestamp_as_version)
//
// RemoteStore is the interface the buffered client (package bigtable) talks
// to. Production code uses Bigtable; tests and the operator CLI's dry-run
// command use an in-memory Fake.
package store

import (
	"context"
	"errors"
)

// Row is one (row key, already-encoded message) pair to write.
type Row struct {
	Key   string
	Value []byte
}

// ErrWrite is wrapped around any error returned by the underlying RPC
// after its internal retry/backoff has been exhausted. The core pipeline
// treats it as terminal for that call.
var ErrWrite = errors.New("store: write failed")

// RemoteStore is the single remote-store operation the pipeline requires,
// plus connection teardown.
type RemoteStore interface {
	// PutCellsWithRetry writes rows to table, returning the number of bytes
	// actually written to the wire. If useTimestampAsVersion is true, the
	// write uses the call time as the Bigtable cell timestamp/version, so
	// each rewrite of a row key adds a cell version (used for "slot", whose
	// row is rewritten on every status transition); otherwise a fixed
	// sentinel timestamp is used so repeated writes to the same row key do
	// not multiply cell versions (used for "account", whose rows are
	// rewritten per pubkey, and for "account_history", "block", "tx").
	PutCellsWithRetry(ctx context.Context, table string, rows []Row, useTimestampAsVersion bool) (writtenBytes int, err error)

	// Close releases the underlying connection.
	Close() error
}
