package store

// DataStore is the write surface used while analyzing a unit. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// analysis) implement this interface.
type DataStore interface {
	InsertDiagnostic(d *Diagnostic) (int64, error)
	InsertFault(f *Fault) (int64, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
