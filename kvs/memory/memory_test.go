package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frid"
	"frid/kvs"
)

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	changed, err := s.PutFrid(ctx, kvs.NewKey("a"), frid.Int(42), kvs.Unchecked)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("a"), kvs.Sel{})
	require.NoError(t, err)
	require.False(t, v.IsBeing())
	assert.Equal(t, int64(42), v.Value().Int())
}

func TestMemoryGetMissing(t *testing.T) {
	ctx := context.Background()
	s := New()

	v, err := s.GetFrid(ctx, kvs.NewKey("nope"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestMemoryNoCreateFailsOnMissing(t *testing.T) {
	ctx := context.Background()
	s := New()

	changed, err := s.PutFrid(ctx, kvs.NewKey("x"), frid.Int(1), kvs.NoCreate)
	require.NoError(t, err)
	assert.False(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestMemoryNoChangeFailsWhenPresent(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.PutFrid(ctx, kvs.NewKey("x"), frid.Int(1), kvs.Unchecked)
	require.NoError(t, err)

	changed, err := s.PutFrid(ctx, kvs.NewKey("x"), frid.Int(2), kvs.NoChange)
	require.NoError(t, err)
	assert.False(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Value().Int())
}

func TestMemoryKeepBothMergesMappings(t *testing.T) {
	ctx := context.Background()
	s := New()

	m1 := frid.NewMapping()
	m1.Set("a", frid.Int(1))
	_, err := s.PutFrid(ctx, kvs.NewKey("m"), frid.Map(m1), kvs.Unchecked)
	require.NoError(t, err)

	m2 := frid.NewMapping()
	m2.Set("b", frid.Int(2))
	changed, err := s.PutFrid(ctx, kvs.NewKey("m"), frid.Map(m2), kvs.KeepBoth)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("m"), kvs.Sel{})
	require.NoError(t, err)
	a, ok := v.Value().Mapping().Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), a.Int())
	b, ok := v.Value().Mapping().Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), b.Int())
}

func TestMemoryDelFrid(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.PutFrid(ctx, kvs.NewKey("x"), frid.Int(1), kvs.Unchecked)
	require.NoError(t, err)

	changed, err := s.DelFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestMemoryDelFridWithSelector(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := frid.NewMapping()
	m.Set("a", frid.Int(1))
	m.Set("b", frid.Int(2))
	_, err := s.PutFrid(ctx, kvs.NewKey("m"), frid.Map(m), kvs.Unchecked)
	require.NoError(t, err)

	changed, err := s.DelFrid(ctx, kvs.NewKey("m"), kvs.SelByKey("a"))
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("m"), kvs.Sel{})
	require.NoError(t, err)
	_, ok := v.Value().Mapping().Get("a")
	assert.False(t, ok)
	b, ok := v.Value().Mapping().Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), b.Int())
}

func TestMemorySubstoreIsolatesKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	sub := s.Substore("ns1")

	_, err := sub.PutFrid(ctx, kvs.NewKey("x"), frid.Int(7), kvs.Unchecked)
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())

	v, err = sub.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Value().Int())
}

func TestMemorySubstoreSameRootSharesPartition(t *testing.T) {
	ctx := context.Background()
	s := New()
	subA := s.Substore("ns1")
	subB := s.Substore("ns1")

	_, err := subA.PutFrid(ctx, kvs.NewKey("x"), frid.Int(9), kvs.Unchecked)
	require.NoError(t, err)

	v, err := subB.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.Equal(t, int64(9), v.Value().Int())
}

func TestMemoryBulkOps(t *testing.T) {
	ctx := context.Background()
	s := New()

	n, err := s.PutBulk(ctx, []kvs.KV{
		{Key: kvs.NewKey("a"), Val: frid.Int(1)},
		{Key: kvs.NewKey("b"), Val: frid.Int(2)},
	}, kvs.Unchecked)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	vals, err := s.GetBulk(ctx, []kvs.Key{kvs.NewKey("a"), kvs.NewKey("b"), kvs.NewKey("c")})
	require.NoError(t, err)
	require.Len(t, vals, 3)
	assert.Equal(t, int64(1), vals[0].Value().Int())
	assert.Equal(t, int64(2), vals[1].Value().Int())
	assert.True(t, vals[2].IsMissing())

	deleted, err := s.DelBulk(ctx, []kvs.Key{kvs.NewKey("a"), kvs.NewKey("c")})
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestMemoryPutBulkAtomicityFailsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.PutFrid(ctx, kvs.NewKey("a"), frid.Int(1), kvs.Unchecked)
	require.NoError(t, err)

	n, err := s.PutBulk(ctx, []kvs.KV{
		{Key: kvs.NewKey("a"), Val: frid.Int(99)},
		{Key: kvs.NewKey("fresh"), Val: frid.Int(2)},
	}, kvs.NoCreate|kvs.Atomicity)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	v, err := s.GetFrid(ctx, kvs.NewKey("fresh"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestMemoryGetMeta(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.PutFrid(ctx, kvs.NewKey("a"), frid.Text("hello"), kvs.Unchecked)
	require.NoError(t, err)

	meta, err := s.GetMeta(ctx, []kvs.Key{kvs.NewKey("a"), kvs.NewKey("missing")})
	require.NoError(t, err)
	_, ok := meta["a"]
	assert.True(t, ok)
	_, ok = meta["missing"]
	assert.False(t, ok)
}
