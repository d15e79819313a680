// Package kvs defines the pluggable value-store engine of spec.md §7: a
// Store contract plus the selector and put-flag vocabulary shared by every
// backend (memory, file, sqlstore, remote). Grounded on
// original_source/frid/kvs/store.py's ValueStore.
//
// The Python original splits every operation into a sync and an async
// twin (get_frid/aget_frid, ...), bridged by AsyncToSyncStoreMixin and
// SyncToAsyncStoreMixin so a backend written for one flavor works as the
// other. Go has no colored-function problem: a context.Context parameter
// on every Store method gives the same cancellation/timeout behavior a
// caller would get from the async path, without a second interface or a
// bridging mixin. That collapse is recorded as an Open Question decision
// in DESIGN.md.
package kvs

import (
	"context"
	"strings"

	"frid"
	"frid/strops"
)

// keyEscape escapes a tab (the Key.String join separator) and the escape
// lead byte itself within a single key segment, and hex-escapes every other
// rune that is not printable ASCII (control characters and non-ASCII text
// alike), so a segment that happens to contain a literal tab can never be
// mistaken for a segment boundary —
// mirroring SimpleValueStore._key's escaping of tuple-key components in
// original_source/frid/kvs/store.py.
var keyEscape = strops.New("\\\\\tt", "")

// Key addresses a value in a Store: either a single string, or a path of
// segments for a nested substore-style key (joined with a tab, matching
// SimpleValueStore._key's escaping convention for tuple keys).
type Key []string

// NewKey builds a Key from one or more path segments.
func NewKey(parts ...string) Key { return Key(parts) }

// String renders the key the way a backend should use it on disk/in a
// column: a single segment escaped as-is, multiple segments escaped then
// tab-joined. Escaping guarantees the tab bytes present in the rendered
// string are exactly the segment separators, never part of a segment's
// own content.
func (k Key) String() string {
	if len(k) == 1 {
		return keyEscape.Encode(k[0], "")
	}
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = keyEscape.Encode(s, "")
	}
	return strings.Join(parts, "\t")
}

// ParseKeyString recovers the n segments of a Key from its String() form,
// the inverse of String: split on the (now unambiguous) raw tab bytes, then
// un-escape each segment.
func ParseKeyString(s string, n int) (Key, error) {
	var raw []string
	if n <= 1 {
		raw = []string{s}
	} else {
		raw = strings.SplitN(s, "\t", n)
	}
	out := make(Key, len(raw))
	for i, seg := range raw {
		dec, err := keyEscape.DecodeAll(seg)
		if err != nil {
			return nil, err
		}
		out[i] = dec
	}
	return out, nil
}

// PutFlag mirrors VSPutFlag's bit values exactly so wire-compatible
// configuration (e.g. a CLI flag parsed from an integer) round-trips.
type PutFlag uint8

const (
	Unchecked PutFlag = 0    // skip all checks; plain overwrite
	KeepBoth  PutFlag = 0x10 // merge old and new via Merge instead of replacing
	NoChange  PutFlag = 0x20 // fail if the key already has a value
	NoCreate  PutFlag = 0x40 // fail if the key has no value yet
	Atomicity PutFlag = 0x80 // bulk put: all-or-nothing
)

func (f PutFlag) Has(bit PutFlag) bool { return f&bit != 0 }

// Sel selects part of a stored Array or Mapping value, mirroring
// VStoreSel. The zero Sel (Kind SelNone) selects the whole value.
type Sel struct {
	Kind SelKind

	// SelIndex
	Index int
	// SelRange: half-open [Start,End), negative values count from the end
	// the way a Python slice/tuple selector does (_fix_indexes). Also used
	// by SelStride as the slice's start/stop before step is applied.
	Start, End int
	// SelStride's step; 0 is treated as 1. Negative steps walk from Start
	// down to (but not including) End, except that End 0 runs through
	// index 0 inclusive; otherwise this mirrors Python's native slice
	// stepping in original_source/frid/kvs/basic.py's _get_seq_sel, which
	// just hands the slice object to the sequence's own __getitem__.
	Step int
	// SelKey
	Key string
	// SelKeySet
	Keys []string
}

type SelKind int

const (
	SelNone SelKind = iota
	SelIndex
	SelRange
	SelStride
	SelKey
	SelKeySet
)

func SelByIndex(i int) Sel                 { return Sel{Kind: SelIndex, Index: i} }
func SelByRange(start, end int) Sel        { return Sel{Kind: SelRange, Start: start, End: end} }
func SelByStride(start, end, step int) Sel { return Sel{Kind: SelStride, Start: start, End: end, Step: step} }
func SelByKey(k string) Sel                { return Sel{Kind: SelKey, Key: k} }
func SelByKeySet(ks []string) Sel          { return Sel{Kind: SelKeySet, Keys: ks} }

// Lock is the scoped mutual-exclusion handle returned by Store.GetLock,
// mirroring original_source/frid/kvs/store.py's get_lock. Unlock releases
// it; callers typically defer it immediately after a successful GetLock.
type Lock interface {
	Unlock() error
}

// Store is the contract every backend (memory, file, sqlstore, remote)
// implements. All methods take a context.Context for cancellation; a
// backend that has no use for it (memory) simply ignores it.
type Store interface {
	// Substore returns a Store rooted under the given path of names,
	// e.g. a nested namespace within the same backing storage.
	Substore(names ...string) Store

	// GetLock acquires a named mutual-exclusion lock scoped to this store,
	// blocking until it is held. name identifies which lock; callers that
	// want one lock per store should pass the same name every time.
	GetLock(ctx context.Context, name string) (Lock, error)

	// GetMeta returns size/kind metadata for each key that exists.
	GetMeta(ctx context.Context, keys []Key) (map[string]frid.TypeSize, error)

	// GetFrid returns the value at key, or IsMissing() on the returned
	// Opt if key (or, with sel set, the selected portion) doesn't exist.
	GetFrid(ctx context.Context, key Key, sel Sel) (frid.Opt, error)

	// PutFrid stores val at key under the given flags, returning whether
	// the store was actually changed.
	PutFrid(ctx context.Context, key Key, val frid.Value, flags PutFlag) (bool, error)

	// DelFrid removes key (sel == zero value) or the selected portion of
	// it, returning whether the store was changed.
	DelFrid(ctx context.Context, key Key, sel Sel) (bool, error)

	// GetBulk and PutBulk/DelBulk operate over several keys, with
	// PutBulk honoring Atomicity: a NO_CREATE/NO_CHANGE precondition is
	// checked against the whole batch's GetMeta before any writes occur.
	GetBulk(ctx context.Context, keys []Key) ([]frid.Opt, error)
	PutBulk(ctx context.Context, pairs []KV, flags PutFlag) (int, error)
	DelBulk(ctx context.Context, keys []Key) (int, error)
}

// KV is one key/value pair, used by PutBulk.
type KV struct {
	Key Key
	Val frid.Value
}

// CheckAtomic reports whether a bulk put's NO_CREATE/NO_CHANGE
// precondition is satisfiable given the current existence of the keys
// involved, mirroring ValueStore._check_atomic. existing (a GetMeta result
// over keys) is supplied by the caller so this helper has no store
// dependency of its own.
func CheckAtomic(flags PutFlag, keys []Key, existing map[string]frid.TypeSize) bool {
	if !flags.Has(Atomicity) || (!flags.Has(NoCreate) && !flags.Has(NoChange)) {
		return true
	}
	count := 0
	for _, k := range keys {
		if _, ok := existing[k.String()]; ok {
			count++
		}
	}
	if flags.Has(NoCreate) {
		return count >= len(keys)
	}
	if flags.Has(NoChange) {
		return count <= 0
	}
	return true
}
