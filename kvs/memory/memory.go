// Package memory implements an in-process kvs.Store, grounded on
// original_source/frid/kvs/basic.py's MemoryValueStore: a dict of
// namespace-path -> (lock, data) shared across every substore of the same
// root, so substores partition the same backing map instead of each
// holding an independent copy.
package memory

import (
	"context"
	"strings"
	"sync"

	"frid"
	"frid/kvs"
)

type partition struct {
	mu   sync.RWMutex
	data map[string]frid.Value
}

// root is the shared state behind every Store sharing one origin New
// call, keyed by the tab-joined namespace path (mirroring
// MemoryValueStore.StorageType's dict[tuple[str,...], ...] key).
type root struct {
	mu         sync.Mutex
	partitions map[string]*partition
}

func (r *root) partitionFor(names []string) *partition {
	key := strings.Join(names, "\t")
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.partitions[key]
	if !ok {
		p = &partition{data: make(map[string]frid.Value)}
		r.partitions[key] = p
	}
	return p
}

// Store is a kvs.Store backed by an in-process map. The zero value is not
// usable; construct with New.
type Store struct {
	*kvs.SimpleStore
}

// New returns a fresh, independently-backed memory Store.
func New() *Store {
	r := &root{partitions: make(map[string]*partition)}
	return newWithRoot(r, nil)
}

func newWithRoot(r *root, names []string) *Store {
	p := r.partitionFor(names)
	b := &backend{partition: p}
	var s *Store
	s = &Store{}
	s.SimpleStore = kvs.NewSimpleStore(b, func(more ...string) kvs.Store {
		return newWithRoot(r, append(append([]string{}, names...), more...))
	})
	return s
}

type backend struct {
	partition *partition
}

func (b *backend) Get(_ context.Context, key string) (frid.Opt, error) {
	b.partition.mu.RLock()
	defer b.partition.mu.RUnlock()
	v, ok := b.partition.data[key]
	if !ok {
		return frid.OptMissing(), nil
	}
	return frid.OptValue(v), nil
}

func (b *backend) Put(_ context.Context, key string, val frid.Value) error {
	b.partition.mu.Lock()
	defer b.partition.mu.Unlock()
	b.partition.data[key] = val
	return nil
}

func (b *backend) Del(_ context.Context, key string) (bool, error) {
	b.partition.mu.Lock()
	defer b.partition.mu.Unlock()
	_, ok := b.partition.data[key]
	delete(b.partition.data, key)
	return ok, nil
}

// GetBulk reads every key under a single RLock, giving callers a
// consistent snapshot with respect to concurrent writers instead of the
// per-key locking kvs.SimpleStore's default GetBulk loop would do,
// mirroring ValueStore.get_bulk taking the store's lock once for the
// whole batch in original_source/frid/kvs/store.py.
func (b *backend) GetBulk(_ context.Context, keys []string) ([]frid.Opt, error) {
	b.partition.mu.RLock()
	defer b.partition.mu.RUnlock()
	out := make([]frid.Opt, len(keys))
	for i, k := range keys {
		if v, ok := b.partition.data[k]; ok {
			out[i] = frid.OptValue(v)
		} else {
			out[i] = frid.OptMissing()
		}
	}
	return out, nil
}

func (b *backend) RMW(
	_ context.Context, key string,
	mod func(cur frid.Opt) (next frid.Opt, result any),
) (any, error) {
	b.partition.mu.Lock()
	defer b.partition.mu.Unlock()
	cur, existed := b.partition.data[key]
	var curOpt frid.Opt
	if existed {
		curOpt = frid.OptValue(cur)
	} else {
		curOpt = frid.OptMissing()
	}
	next, result := mod(curOpt)
	if next.IsBeing() {
		if next.Being().IsMissing() && existed {
			delete(b.partition.data, key)
		}
		// Present (or Missing-but-never-existed) leaves the store as is.
		return result, nil
	}
	b.partition.data[key] = next.Value()
	return result, nil
}
