package store

import (
	"context"
	"sync"
)

// Fake is an in-memory RemoteStore used by tests and the operator CLI's
// dry-run command. It is safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[string][]byte
	calls  []FakeCall

	// FailNext, if set, makes the next N PutCellsWithRetry calls return Err.
	FailNext int
	Err      error
}

// FakeCall records one PutCellsWithRetry invocation for assertions.
type FakeCall struct {
	Table                 string
	Rows                  []Row
	UseTimestampAsVersion bool
}

// NewFake returns an empty Fake store.
func NewFake() *Fake {
	return &Fake{tables: make(map[string]map[string][]byte)}
}

// PutCellsWithRetry implements RemoteStore.
func (f *Fake) PutCellsWithRetry(_ context.Context, table string, rows []Row, useTimestampAsVersion bool) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailNext > 0 {
		f.FailNext--
		err := f.Err
		if err == nil {
			err = ErrWrite
		}
		return 0, err
	}

	f.calls = append(f.calls, FakeCall{Table: table, Rows: append([]Row(nil), rows...), UseTimestampAsVersion: useTimestampAsVersion})

	t, ok := f.tables[table]
	if !ok {
		t = make(map[string][]byte)
		f.tables[table] = t
	}
	written := 0
	for _, r := range rows {
		t[r.Key] = append([]byte(nil), r.Value...)
		written += len(r.Value)
	}
	return written, nil
}

// Close implements RemoteStore.
func (f *Fake) Close() error { return nil }

// Calls returns every recorded PutCellsWithRetry call, in order.
func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FakeCall(nil), f.calls...)
}

// Get returns the raw value written to table/key, if any.
func (f *Fake) Get(table, key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tables[table]
	if !ok {
		return nil, false
	}
	v, ok := t[key]
	return v, ok
}

// RowCount returns how many distinct row keys exist in table.
func (f *Fake) RowCount(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}
