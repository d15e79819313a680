package proxy

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frid"
	"frid/kvs"
	"frid/kvs/memory"
)

func TestProxyPutGet(t *testing.T) {
	ctx := context.Background()
	p := New(memory.New())
	defer p.Close()

	changed, err := p.PutFrid(ctx, kvs.NewKey("k"), frid.Text("v"), kvs.Unchecked)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := p.GetFrid(ctx, kvs.NewKey("k"), kvs.Sel{})
	require.NoError(t, err)
	require.False(t, v.IsBeing())
	assert.Equal(t, "v", v.Value().Text())
}

func TestProxySerializesConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	p := New(memory.New())
	defer p.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := p.PutFrid(ctx, kvs.NewKey("counter"), frid.Int(int64(i)), kvs.Unchecked)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	v, err := p.GetFrid(ctx, kvs.NewKey("counter"), kvs.Sel{})
	require.NoError(t, err)
	require.False(t, v.IsBeing())
	assert.Equal(t, frid.KindInt, v.Value().Kind())
}

func TestProxySubstoreIsolates(t *testing.T) {
	ctx := context.Background()
	p := New(memory.New())
	defer p.Close()

	sub := p.Substore("ns")
	subProxy := sub.(*Store)
	defer subProxy.Close()

	_, err := subProxy.PutFrid(ctx, kvs.NewKey("x"), frid.Int(1), kvs.Unchecked)
	require.NoError(t, err)

	v, err := p.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestProxyGetLockRoundTrips(t *testing.T) {
	ctx := context.Background()
	p := New(memory.New())
	defer p.Close()

	l, err := p.GetLock(ctx, "mylock")
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}
