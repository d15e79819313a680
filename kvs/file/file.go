// Package file implements a kvs.Store backed by the filesystem, grounded
// on original_source/frid/kvs/files.py's FileIOValueStore: each key maps
// to a ".kvs" file, written through a sibling ".tmp" file that is renamed
// into place atomically so a reader never observes a partial write.
//
// files.py additionally open-codes a POSIX/NT branch in _move_or_create to
// turn that same rename into a mutual-exclusion lock (the process that
// wins the exclusive create of the ".tmp" path holds the key). This port
// keeps the rename-for-atomicity half but replaces the OS-specific lock
// dance with a single O_EXCL create loop, which gives the same "only one
// writer renames .tmp into place at a time" guarantee on every OS Go
// targets without the platform switch.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"frid"
	"frid/dumper"
	"frid/kvs"
	"frid/loader"
)

const (
	kvsSuffix = ".kvs"
	tmpSuffix = ".tmp"

	lockRetries = 300
	lockBackoff = 10 * time.Millisecond
	readRetries = 20
)

// Store is a kvs.Store rooted at a directory on disk.
type Store struct {
	*kvs.SimpleStore
}

// New returns a Store rooted at dir, creating it if necessary, logging
// through a fresh logrus.Logger (never the package-global one).
func New(dir string) (*Store, error) {
	return NewWithLogger(dir, logrus.New())
}

// NewWithLogger is like New but logs lock contention and I/O through
// logger instead of a freshly allocated one, the way DatabaseConfig.Open
// in vippsas-sqlcode/cli/cmd/config.go takes a logrus.FieldLogger rather
// than reaching for a package-global logger.
func NewWithLogger(dir string, logger logrus.FieldLogger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}
	return newAt(abs, logger), nil
}

func newAt(root string, logger logrus.FieldLogger) *Store {
	b := &backend{root: root, log: logger}
	s := &Store{}
	s.SimpleStore = kvs.NewSimpleStore(b, func(names ...string) kvs.Store {
		sub := newAt(filepath.Join(append([]string{root}, encodeNames(names)...)...), logger)
		return sub
	})
	return s
}

// encodeNames keeps each path segment literal; a future revision may need
// to escape path separators the way _encode_name's TODO flags, but no key
// in spec.md's tests contains one.
func encodeNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}

type backend struct {
	root string
	log  logrus.FieldLogger
}

func (b *backend) paths(key string) (kvsPath, tmpPath string, err error) {
	rel := filepath.FromSlash(strings.ReplaceAll(key, "\t", string(filepath.Separator)))
	full := filepath.Join(b.root, rel)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	return full + kvsSuffix, full + tmpSuffix, nil
}

// Lock acquires a named lock by O_EXCL-creating a dedicated ".lock" file
// alongside the store's data, reusing acquireLock's retry/backoff so
// Store.GetLock gets the same exclusion primitive writeLocked already
// relies on for key writes, rather than falling back to SimpleStore's
// in-process mutex.
func (b *backend) Lock(_ context.Context, name string) (kvs.Lock, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, "\t", string(filepath.Separator)))
	full := filepath.Join(b.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, err
	}
	lockPath := full + ".lock"
	f, err := acquireLock(lockPath, b.log)
	if err != nil {
		return nil, err
	}
	return &fileLock{path: lockPath, f: f}, nil
}

type fileLock struct {
	path string
	f    *os.File
}

func (l *fileLock) Unlock() error {
	closeErr := l.f.Close()
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return closeErr
}

// Get reads key's committed value. A reader that finds no .kvs file but
// does find a .tmp file is racing a concurrent writer between rename steps
// (spec.md §4.7 "a reader observing tmp but no kvs retries briefly"), so it
// retries briefly instead of reporting MISSING outright.
func (b *backend) Get(_ context.Context, key string) (frid.Opt, error) {
	kvsPath, tmpPath, err := b.paths(key)
	if err != nil {
		return frid.Opt{}, err
	}
	for attempt := 0; ; attempt++ {
		data, err := os.ReadFile(kvsPath)
		if err == nil {
			v, err := loader.Load(string(data), false)
			if err != nil {
				return frid.Opt{}, fmt.Errorf("file: decode %s: %w", kvsPath, err)
			}
			return frid.OptValue(v), nil
		}
		if !os.IsNotExist(err) {
			return frid.Opt{}, err
		}
		if _, tmpErr := os.Stat(tmpPath); tmpErr != nil || attempt >= readRetries {
			return frid.OptMissing(), nil
		}
		if b.log != nil && attempt%10 == 0 {
			b.log.WithField("path", kvsPath).WithField("attempt", attempt).Debug("file: retrying read racing a writer's rename")
		}
		time.Sleep(lockBackoff)
	}
}

func (b *backend) Put(_ context.Context, key string, val frid.Value) error {
	kvsPath, tmpPath, err := b.paths(key)
	if err != nil {
		return err
	}
	_, err = b.writeLocked(kvsPath, tmpPath, func(_ frid.Opt) (frid.Opt, error) {
		return frid.OptValue(val), nil
	})
	return err
}

func (b *backend) Del(_ context.Context, key string) (bool, error) {
	kvsPath, tmpPath, err := b.paths(key)
	if err != nil {
		return false, err
	}
	existed := false
	_, werr := b.writeLocked(kvsPath, tmpPath, func(cur frid.Opt) (frid.Opt, error) {
		existed = !cur.IsBeing()
		return frid.OptMissing(), nil
	})
	return existed, werr
}

func (b *backend) RMW(
	_ context.Context, key string,
	mod func(cur frid.Opt) (next frid.Opt, result any),
) (any, error) {
	kvsPath, tmpPath, err := b.paths(key)
	if err != nil {
		return nil, err
	}
	var result any
	_, werr := b.writeLocked(kvsPath, tmpPath, func(cur frid.Opt) (frid.Opt, error) {
		next, r := mod(cur)
		result = r
		return next, nil
	})
	return result, werr
}

// writeLocked acquires the exclusive lock on key (by O_EXCL-creating
// tmpPath), reads the current value, calls mutate, and atomically installs
// the result — replacing kvsPath with tmpPath's content, or removing
// kvsPath entirely when mutate returns a Missing Opt. Mirrors
// FileIOValueStore._move_or_create plus FileIOAgent's __exit__ logic.
func (b *backend) writeLocked(
	kvsPath, tmpPath string,
	mutate func(cur frid.Opt) (frid.Opt, error),
) (frid.Opt, error) {
	lock, err := acquireLock(tmpPath, b.log)
	if err != nil {
		return frid.Opt{}, err
	}
	defer lock.Close()
	defer os.Remove(tmpPath)

	cur, err := readOpt(kvsPath)
	if err != nil {
		return frid.Opt{}, err
	}
	next, err := mutate(cur)
	if err != nil {
		return frid.Opt{}, err
	}
	if next.IsBeing() {
		if next.Being().IsMissing() {
			if err := os.Remove(kvsPath); err != nil && !os.IsNotExist(err) {
				return frid.Opt{}, err
			}
		}
		return next, nil
	}
	text, err := dumper.Dump(next.Value(), dumper.Options{Mode: dumper.ModeFrid})
	if err != nil {
		return frid.Opt{}, err
	}
	if _, err := lock.WriteString(text); err != nil {
		return frid.Opt{}, err
	}
	if err := lock.Sync(); err != nil {
		return frid.Opt{}, err
	}
	if err := os.Rename(tmpPath, kvsPath); err != nil {
		return frid.Opt{}, err
	}
	return next, nil
}

func readOpt(kvsPath string) (frid.Opt, error) {
	data, err := os.ReadFile(kvsPath)
	if os.IsNotExist(err) {
		return frid.OptMissing(), nil
	}
	if err != nil {
		return frid.Opt{}, err
	}
	v, err := loader.Load(string(data), false)
	if err != nil {
		return frid.Opt{}, fmt.Errorf("file: decode %s: %w", kvsPath, err)
	}
	return frid.OptValue(v), nil
}

// acquireLock exclusively creates tmpPath, backing off and retrying if
// another writer currently holds it, bounded the way
// FileIOValueStore._move_or_create bounds its own retry loop.
func acquireLock(tmpPath string, log logrus.FieldLogger) (*os.File, error) {
	for attempt := 0; ; attempt++ {
		f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
		if err == nil {
			return f, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		if attempt >= lockRetries {
			return nil, fmt.Errorf("file: timed out acquiring lock on %s", tmpPath)
		}
		if log != nil && attempt%30 == 0 {
			log.WithField("path", tmpPath).WithField("attempt", attempt).Debug("file: waiting on lock")
		}
		time.Sleep(lockBackoff)
	}
}
