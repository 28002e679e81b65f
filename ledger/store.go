package ledger

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
	"sync"

	"pharmanet/storage"
)

// Row prefixes inside the backing database. State rows hold the latest value,
// counter rows hold the per-key version count, history rows hold one entry per
// committed version keyed so that ascending iteration yields newest-first.
var (
	statePrefix   = []byte("s/")
	counterPrefix = []byte("c/")
	historyPrefix = []byte("h/")
)

// Store keeps the current value and the full change history for every ledger
// key on top of a storage.Database. All writes of one Update call land in a
// single atomic batch, so a failed operation leaves no partial state behind.
// Update calls run one at a time: the write lock covers both the transaction
// body and its commit, so every read-then-write check inside a transaction
// observes a settled store and the per-key version counters never collide.
type Store struct {
	writeMu sync.Mutex
	db      storage.Database
}

// NewStore wraps the supplied database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func stateRow(key string) []byte {
	return append(append([]byte(nil), statePrefix...), key...)
}

func counterRow(key string) []byte {
	return append(append([]byte(nil), counterPrefix...), key...)
}

// historyRow length-prefixes the ledger key so one key's history range can
// never bleed into another's, then appends the bitwise-inverted sequence so
// newer versions sort first.
func historyRow(key string, seq uint64) []byte {
	row := historyRange(key)
	var suffix [8]byte
	binary.BigEndian.PutUint64(suffix[:], ^seq)
	return append(row, suffix[:]...)
}

func historyRange(key string) []byte {
	row := append([]byte(nil), historyPrefix...)
	row = binary.AppendUvarint(row, uint64(len(key)))
	return append(row, key...)
}

func (s *Store) get(key string) ([]byte, bool, error) {
	return s.db.Get(stateRow(key))
}

func (s *Store) scanByPrefix(prefix string) ([]Entry, error) {
	var entries []Entry
	err := s.db.Iterate(stateRow(prefix), func(key, value []byte) bool {
		entries = append(entries, Entry{
			Key:   string(key[len(statePrefix):]),
			Value: value,
		})
		return true
	})
	return entries, err
}

func (s *Store) history(key string) ([][]byte, error) {
	var values [][]byte
	err := s.db.Iterate(historyRange(key), func(_, value []byte) bool {
		values = append(values, value)
		return true
	})
	return values, err
}

func (s *Store) version(key string) (uint64, error) {
	raw, ok, err := s.db.Get(counterRow(key))
	if err != nil {
		return 0, err
	}
	if !ok || len(raw) != 8 {
		return 0, nil
	}
	return binary.BigEndian.Uint64(raw), nil
}

// View runs fn against a read-only snapshot of the store.
func (s *Store) View(fn func(KV) error) error {
	return fn(&view{store: s})
}

// Update runs fn against a staged transaction. Writes become visible to reads
// inside fn immediately but reach the database only if fn returns nil, at
// which point every write (state, counter, history) commits in one batch.
// Concurrent Update calls serialize on the store's write lock, so fn never
// races another transaction's validation or commit.
func (s *Store) Update(fn func(KV) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	txn := &txn{store: s, staged: make(map[string][]byte)}
	if err := fn(txn); err != nil {
		return err
	}
	return txn.commit()
}

type view struct {
	store *Store
}

func (v *view) Get(key string) ([]byte, bool, error) { return v.store.get(key) }

func (v *view) Put(string, []byte) error { return ErrReadOnly }

func (v *view) ScanByPrefix(prefix string) ([]Entry, error) { return v.store.scanByPrefix(prefix) }

func (v *view) History(key string) ([][]byte, error) { return v.store.history(key) }

type txn struct {
	store  *Store
	staged map[string][]byte
}

func (t *txn) Get(key string) ([]byte, bool, error) {
	if value, ok := t.staged[key]; ok {
		return append([]byte(nil), value...), true, nil
	}
	return t.store.get(key)
}

func (t *txn) Put(key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("ledger: empty key")
	}
	t.staged[key] = append([]byte(nil), value...)
	return nil
}

func (t *txn) ScanByPrefix(prefix string) ([]Entry, error) {
	committed, err := t.store.scanByPrefix(prefix)
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]byte, len(committed)+len(t.staged))
	for _, entry := range committed {
		merged[entry.Key] = entry.Value
	}
	for key, value := range t.staged {
		if strings.HasPrefix(key, prefix) {
			merged[key] = value
		}
	}
	keys := make([]string, 0, len(merged))
	for key := range merged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entries = append(entries, Entry{Key: key, Value: merged[key]})
	}
	return entries, nil
}

// History reflects committed versions only; staged writes join the feed once
// the enclosing transaction commits.
func (t *txn) History(key string) ([][]byte, error) {
	return t.store.history(key)
}

func (t *txn) commit() error {
	if len(t.staged) == 0 {
		return nil
	}
	keys := make([]string, 0, len(t.staged))
	for key := range t.staged {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	batch := new(storage.Batch)
	for _, key := range keys {
		seq, err := t.store.version(key)
		if err != nil {
			return err
		}
		seq++
		value := t.staged[key]
		batch.Put(stateRow(key), value)
		batch.Put(historyRow(key, seq), value)
		var counter [8]byte
		binary.BigEndian.PutUint64(counter[:], seq)
		batch.Put(counterRow(key), counter[:])
	}
	return t.store.db.Write(batch)
}
