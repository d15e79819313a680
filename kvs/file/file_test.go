package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frid"
	"frid/kvs"
)

func TestFilePutGet(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	changed, err := s.PutFrid(ctx, kvs.NewKey("a"), frid.Text("hello"), kvs.Unchecked)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("a"), kvs.Sel{})
	require.NoError(t, err)
	require.False(t, v.IsBeing())
	assert.Equal(t, "hello", v.Value().Text())
}

func TestFileGetMissing(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, kvs.NewKey("nope"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestFileDel(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.PutFrid(ctx, kvs.NewKey("a"), frid.Int(1), kvs.Unchecked)
	require.NoError(t, err)

	changed, err := s.DelFrid(ctx, kvs.NewKey("a"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("a"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())

	changed, err = s.DelFrid(ctx, kvs.NewKey("a"), kvs.Sel{})
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFileNoCreateFailsOnMissing(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	changed, err := s.PutFrid(ctx, kvs.NewKey("x"), frid.Int(1), kvs.NoCreate)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFileNestedKeyCreatesDirectories(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	key := kvs.NewKey("group", "item")
	_, err = s.PutFrid(ctx, key, frid.Int(5), kvs.Unchecked)
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, key, kvs.Sel{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Value().Int())
}

func TestFileSubstoreIsolatesDirectory(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	sub := s.Substore("ns")

	_, err = sub.PutFrid(ctx, kvs.NewKey("x"), frid.Int(3), kvs.Unchecked)
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())

	v, err = sub.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Value().Int())
}

func TestFileRoundTripsMapping(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	m := frid.NewMapping()
	m.Set("name", frid.Text("frid"))
	m.Set("count", frid.Int(3))
	_, err = s.PutFrid(ctx, kvs.NewKey("cfg"), frid.Map(m), kvs.Unchecked)
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, kvs.NewKey("cfg"), kvs.Sel{})
	require.NoError(t, err)
	name, ok := v.Value().Mapping().Get("name")
	require.True(t, ok)
	assert.Equal(t, "frid", name.Text())
}

func TestFileGetLockExcludesConcurrentHolder(t *testing.T) {
	ctx := context.Background()
	s, err := New(t.TempDir())
	require.NoError(t, err)

	l1, err := s.GetLock(ctx, "mylock")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		l2, err := s.GetLock(ctx, "mylock")
		require.NoError(t, err)
		close(acquired)
		require.NoError(t, l2.Unlock())
	}()

	select {
	case <-acquired:
		t.Fatal("second GetLock acquired the lock while the first still held it")
	default:
	}

	require.NoError(t, l1.Unlock())
	<-acquired
}
