package ledger

import "errors"

// Entry is one key/value pair returned by a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the ledger contract seen by the state layer: point reads and writes,
// ordered prefix scans, and the per-key change history. Prefix scans return
// entries in ascending byte order of their keys; History returns past values
// newest-first.
type KV interface {
	Get(key string) (value []byte, ok bool, err error)
	Put(key string, value []byte) error
	ScanByPrefix(prefix string) ([]Entry, error)
	History(key string) ([][]byte, error)
}

// ErrReadOnly is returned by Put on a read-only view.
var ErrReadOnly = errors.New("ledger: read-only view")
