//go:build sqlite

package storage

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

// DefaultStoreKind reports the backend used when no explicit kind is
// configured.
func DefaultStoreKind() string {
	return "sqlite"
}
