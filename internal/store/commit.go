package store

import (
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction, replacing whatever was previously recorded
// for the batch's file. Fake (negative) IDs are remapped to real IDs and
// written back into the batch.
//
// Insert order respects FK dependencies:
//  1. Diagnostics, then their secondary locations
//  2. Rule faults
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteFileDataTx(tx, batch.fileID); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	fakeToReal := make(map[int64]int64, len(batch.Diagnostics)+len(batch.Faults))

	for i := range batch.Diagnostics {
		d := &batch.Diagnostics[i]
		realID, err := insertDiagnosticTx(tx, d)
		if err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		fakeToReal[d.ID] = realID
	}

	for i := range batch.Faults {
		f := &batch.Faults[i]
		realID, err := insertFaultTx(tx, f)
		if err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		fakeToReal[f.ID] = realID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	for i := range batch.Diagnostics {
		d := &batch.Diagnostics[i]
		d.ID = fakeToReal[d.ID]
		for j := range d.Locations {
			d.Locations[j].DiagnosticID = d.ID
		}
	}
	for i := range batch.Faults {
		batch.Faults[i].ID = fakeToReal[batch.Faults[i].ID]
	}
	return nil
}
