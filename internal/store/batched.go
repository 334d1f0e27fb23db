package store

import (
	"fmt"
	"sync"

	"github.com/jward/lintel/internal/analysis"
)

// BatchedStore buffers one unit's results in memory using fake (negative)
// IDs. It is also an analysis.Sink, so a dispatcher can report straight into
// it; a single writer later flushes it with Store.CommitBatch.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
type BatchedStore struct {
	fileID int64
	mu     sync.Mutex

	Diagnostics []Diagnostic
	Faults      []Fault

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time checks.
var (
	_ DataStore     = (*BatchedStore)(nil)
	_ analysis.Sink = (*BatchedStore)(nil)
)

// NewBatchedStore creates a BatchedStore for the already-recorded file
// fileID.
func NewBatchedStore(fileID int64) *BatchedStore {
	return &BatchedStore{
		fileID:     fileID,
		nextFakeID: -1,
	}
}

// FileID is the file every buffered row belongs to.
func (b *BatchedStore) FileID() int64 { return b.fileID }

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertDiagnostic(d *Diagnostic) (int64, error) {
	if d.FileID != b.fileID {
		return 0, fmt.Errorf("batched store: diagnostic for file %d in batch for file %d", d.FileID, b.fileID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Diagnostics = append(b.Diagnostics, *d)
	return fakeID, nil
}

func (b *BatchedStore) InsertFault(f *Fault) (int64, error) {
	if f.FileID != b.fileID {
		return 0, fmt.Errorf("batched store: fault for file %d in batch for file %d", f.FileID, b.fileID)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	f.ID = fakeID
	b.Faults = append(b.Faults, *f)
	return fakeID, nil
}

// Accept buffers an accepted diagnostic.
func (b *BatchedStore) Accept(d analysis.Diagnostic) {
	row := FromDiagnostic(b.fileID, d)
	_, _ = b.InsertDiagnostic(&row)
}

// AcceptFault buffers an isolated rule fault. It has the shape of
// analysis.FaultHandler.
func (b *BatchedStore) AcceptFault(f analysis.RuleFault) {
	row := FromFault(b.fileID, f)
	_, _ = b.InsertFault(&row)
}

// Len returns the number of buffered diagnostics.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Diagnostics)
}
