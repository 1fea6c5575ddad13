package kv

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBEngine is the goleveldb-backed implementation of Engine. It holds
// a single *leveldb.DB reference behind a RWMutex the way the teacher's
// Storage struct guards its *sql.DB: reads take RLock, writes (batch apply,
// CAS) take Lock.
type LevelDBEngine struct {
	mu sync.RWMutex
	db *leveldb.DB
}

// OpenLevelDB opens (creating if absent) a goleveldb database at path.
func OpenLevelDB(path string) (*LevelDBEngine, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("kv: opening leveldb at %s: %w", path, err)
	}
	return &LevelDBEngine{db: db}, nil
}

// OpenMemory opens a goleveldb database backed entirely by memory, with no
// file footprint. Used by store package tests that want real LSM/iterator
// semantics without a temp directory.
func OpenMemory() (*LevelDBEngine, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("kv: opening in-memory leveldb: %w", err)
	}
	return &LevelDBEngine{db: db}, nil
}

func (e *LevelDBEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("kv: closing leveldb: %w", err)
	}
	return nil
}

func (e *LevelDBEngine) Get(_ context.Context, key []byte) ([]byte, bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, err := e.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv: get %q: %w", key, err)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (e *LevelDBEngine) Put(_ context.Context, key, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("kv: put %q: %w", key, err)
	}
	return nil
}

func (e *LevelDBEngine) Delete(_ context.Context, key []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.db.Delete(key, nil); err != nil {
		return fmt.Errorf("kv: delete %q: %w", key, err)
	}
	return nil
}

func (e *LevelDBEngine) PrefixIterator(_ context.Context, prefix []byte) (Iterator, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	it := e.db.NewIterator(util.BytesPrefix(prefix), nil)
	return &levelDBIterator{it: it}, nil
}

// RangeIterator builds a util.Range from lower/upper. goleveldb's Range.Start
// is always inclusive and Range.Limit always exclusive, so an exclusive
// lower bound or an inclusive upper bound is expressed by extending the key
// with a trailing 0x00 byte (the smallest possible successor in byte-lex
// order), rather than by skipping entries after the fact.
func (e *LevelDBEngine) RangeIterator(_ context.Context, lower, upper Bound) (Iterator, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r := &util.Range{}
	if lower.Key != nil {
		if lower.Exclusive {
			r.Start = successor(lower.Key)
		} else {
			r.Start = lower.Key
		}
	}
	if upper.Key != nil {
		if upper.Exclusive {
			r.Limit = upper.Key
		} else {
			r.Limit = successor(upper.Key)
		}
	}

	it := e.db.NewIterator(r, nil)
	return &levelDBIterator{it: it}, nil
}

// successor returns the smallest byte string strictly greater than key
// under lexicographic order, by appending a zero byte.
func successor(key []byte) []byte {
	out := make([]byte, len(key)+1)
	copy(out, key)
	return out
}

type levelDBIterator struct {
	it    iterator.Iterator
	begun bool
}

func (l *levelDBIterator) Next() bool {
	if !l.begun {
		l.begun = true
		return l.it.First()
	}
	return l.it.Next()
}

func (l *levelDBIterator) Entry() Entry {
	k := l.it.Key()
	v := l.it.Value()
	key := make([]byte, len(k))
	copy(key, k)
	val := make([]byte, len(v))
	copy(val, v)
	return Entry{Key: key, Value: val}
}

func (l *levelDBIterator) Err() error {
	return l.it.Error()
}

func (l *levelDBIterator) Close() error {
	l.it.Release()
	return nil
}

// leveldbBatch adapts *leveldb.Batch to the Batch interface.
type leveldbBatch struct {
	b   *leveldb.Batch
	len int
}

func (e *LevelDBEngine) NewBatch() Batch {
	return &leveldbBatch{b: new(leveldb.Batch)}
}

func (bt *leveldbBatch) Put(key, value []byte) {
	bt.b.Put(key, value)
	bt.len++
}

func (bt *leveldbBatch) Delete(key []byte) {
	bt.b.Delete(key)
	bt.len++
}

func (bt *leveldbBatch) Len() int {
	return bt.len
}

func (e *LevelDBEngine) Apply(_ context.Context, batch Batch) error {
	lb, ok := batch.(*leveldbBatch)
	if !ok {
		return fmt.Errorf("kv: apply: batch not created by this engine")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.db.Write(lb.b, nil); err != nil {
		return fmt.Errorf("kv: apply batch: %w", err)
	}
	return nil
}

// CompareAndSwap is emulated with a goleveldb transaction: read-compare-
// write/discard under the engine's write lock, since goleveldb has no
// native CAS primitive.
func (e *LevelDBEngine) CompareAndSwap(_ context.Context, key []byte, expected, newValue []byte) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.OpenTransaction()
	if err != nil {
		return false, fmt.Errorf("kv: cas %q: opening transaction: %w", key, err)
	}

	current, err := tx.Get(key, nil)
	if err != nil && err != leveldb.ErrNotFound {
		tx.Discard()
		return false, fmt.Errorf("kv: cas %q: reading current value: %w", key, err)
	}

	var match bool
	switch {
	case expected == nil && (err == leveldb.ErrNotFound):
		match = true
	case expected != nil && err == nil:
		match = bytes.Equal(current, expected)
	default:
		match = false
	}

	if !match {
		tx.Discard()
		return false, nil
	}

	if err := tx.Put(key, newValue, nil); err != nil {
		tx.Discard()
		return false, fmt.Errorf("kv: cas %q: writing new value: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("kv: cas %q: committing transaction: %w", key, err)
	}
	return true, nil
}
