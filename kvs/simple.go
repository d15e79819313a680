package kvs

import (
	"context"
	"sync"

	"frid"
)

// Backend is the minimal set of whole-value operations a concrete store
// (memory, file, sqlstore, remote) must provide; SimpleStore builds the
// full Store contract — selectors, put flags, bulk ops — on top of it.
// Mirrors SimpleValueStore's abstract _get/_put/_rmw/_del quartet from
// original_source/frid/kvs/basic.py.
type Backend interface {
	// Get returns the whole value at key, or IsMissing() if absent.
	Get(ctx context.Context, key string) (frid.Opt, error)
	// Put writes val as the whole value at key.
	Put(ctx context.Context, key string, val frid.Value) error
	// RMW performs a read-modify-write: mod receives the current value
	// (IsMissing() if absent) and returns the value to store (IsPresent()
	// to leave unchanged, IsMissing() to delete) plus an arbitrary result
	// passed back to the caller.
	RMW(ctx context.Context, key string, mod func(cur frid.Opt) (next frid.Opt, result any)) (any, error)
	// Del removes key, returning whether it was present.
	Del(ctx context.Context, key string) (bool, error)
}

// Locker may be implemented by a Backend that already has a natural
// mutual-exclusion primitive to offer callers of Store.GetLock: the file
// backend's O_EXCL rename-lock, the Redis backend's SETNX lock.
// SimpleStore.GetLock uses it when present; backends without one (memory,
// sqlstore) fall back to SimpleStore's own in-process named-mutex registry,
// which is all a single-process map or a DB connection under its own
// transaction isolation needs.
type Locker interface {
	Lock(ctx context.Context, name string) (Lock, error)
}

// BulkGetter may be implemented by a Backend that can read a whole batch
// of keys under one lock instead of one lock per key, the way
// ValueStore.get_bulk in original_source/frid/kvs/store.py takes the
// store's lock once for the whole batch. SimpleStore.GetBulk uses it when
// present so a concurrent PutFrid can never interleave between two keys of
// the same GetBulk call.
type BulkGetter interface {
	GetBulk(ctx context.Context, keys []string) ([]frid.Opt, error)
}

// SimpleStore implements Store on top of a Backend, the way
// SimpleValueStore implements ValueStore on top of the _get/_put/_rmw/_del
// quartet: selector application, put-flag handling (including KEEP_BOTH
// via Merge), and bulk operations are all generic here.
type SimpleStore struct {
	Backend    Backend
	substoreFn func(names ...string) Store

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewSimpleStore wraps backend, using substoreFn to construct the Store
// returned by Substore (each concrete backend knows how to namespace
// itself: a new map partition, a nested directory, a table row filter).
func NewSimpleStore(backend Backend, substoreFn func(names ...string) Store) *SimpleStore {
	return &SimpleStore{Backend: backend, substoreFn: substoreFn}
}

func (s *SimpleStore) Substore(names ...string) Store {
	return s.substoreFn(names...)
}

// GetLock acquires name's lock, delegating to the backend's own lock
// primitive when it implements Locker, or else a local mutex scoped to
// this SimpleStore instance.
func (s *SimpleStore) GetLock(ctx context.Context, name string) (Lock, error) {
	if l, ok := s.Backend.(Locker); ok {
		return l.Lock(ctx, name)
	}
	return s.localLock(name), nil
}

func (s *SimpleStore) localLock(name string) Lock {
	s.lockMu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	m, ok := s.locks[name]
	if !ok {
		m = &sync.Mutex{}
		s.locks[name] = m
	}
	s.lockMu.Unlock()
	m.Lock()
	return &localLock{mu: m}
}

type localLock struct{ mu *sync.Mutex }

func (l *localLock) Unlock() error {
	l.mu.Unlock()
	return nil
}

func (s *SimpleStore) GetMeta(ctx context.Context, keys []Key) (map[string]frid.TypeSize, error) {
	out := make(map[string]frid.TypeSize, len(keys))
	for _, k := range keys {
		v, err := s.Backend.Get(ctx, k.String())
		if err != nil {
			return nil, err
		}
		if v.IsBeing() {
			continue
		}
		out[k.String()] = frid.ValueTypeSize(v.Value())
	}
	return out, nil
}

func (s *SimpleStore) GetFrid(ctx context.Context, key Key, sel Sel) (frid.Opt, error) {
	v, err := s.Backend.Get(ctx, key.String())
	if err != nil || v.IsBeing() {
		return v, err
	}
	return ApplySel(v.Value(), sel), nil
}

func (s *SimpleStore) PutFrid(ctx context.Context, key Key, val frid.Value, flags PutFlag) (bool, error) {
	if flags == Unchecked {
		if err := s.Backend.Put(ctx, key.String(), val); err != nil {
			return false, err
		}
		return true, nil
	}
	result, err := s.Backend.RMW(ctx, key.String(), func(cur frid.Opt) (frid.Opt, any) {
		if cur.IsMissing() {
			if flags.Has(NoCreate) {
				return frid.OptMissing(), false
			}
			return frid.OptValue(val), true
		}
		if flags.Has(NoChange) {
			return frid.OptPresent(), false
		}
		if flags.Has(KeepBoth) {
			return frid.OptValue(Merge(cur.Value(), val)), true
		}
		return frid.OptValue(val), true
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (s *SimpleStore) DelFrid(ctx context.Context, key Key, sel Sel) (bool, error) {
	if sel.Kind == SelNone {
		return s.Backend.Del(ctx, key.String())
	}
	result, err := s.Backend.RMW(ctx, key.String(), func(cur frid.Opt) (frid.Opt, any) {
		if cur.IsMissing() {
			return frid.OptMissing(), 0
		}
		updated, removed := ApplyDelSel(cur.Value(), sel)
		return frid.OptValue(updated), removed
	})
	if err != nil {
		return false, err
	}
	return result.(int) > 0, nil
}

// GetBulk reads every key as one consistent snapshot when the backend
// implements BulkGetter (so the whole batch is read under a single lock,
// per spec.md's "get_bulk ... under a lock"); otherwise it falls back to
// one GetFrid call per key, which offers no such cross-key atomicity.
func (s *SimpleStore) GetBulk(ctx context.Context, keys []Key) ([]frid.Opt, error) {
	if bg, ok := s.Backend.(BulkGetter); ok {
		strs := make([]string, len(keys))
		for i, k := range keys {
			strs[i] = k.String()
		}
		return bg.GetBulk(ctx, strs)
	}
	out := make([]frid.Opt, len(keys))
	for i, k := range keys {
		v, err := s.GetFrid(ctx, k, Sel{})
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *SimpleStore) PutBulk(ctx context.Context, pairs []KV, flags PutFlag) (int, error) {
	if flags.Has(Atomicity) {
		keys := make([]Key, len(pairs))
		for i, p := range pairs {
			keys[i] = p.Key
		}
		existing, err := s.GetMeta(ctx, keys)
		if err != nil {
			return 0, err
		}
		if !CheckAtomic(flags, keys, existing) {
			return 0, nil
		}
	}
	count := 0
	for _, p := range pairs {
		changed, err := s.PutFrid(ctx, p.Key, p.Val, flags)
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}
	return count, nil
}

func (s *SimpleStore) DelBulk(ctx context.Context, keys []Key) (int, error) {
	count := 0
	for _, k := range keys {
		changed, err := s.DelFrid(ctx, k, Sel{})
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}
	return count, nil
}
