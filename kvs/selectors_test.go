package kvs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frid"
	"frid/kvs"
	"frid/kvs/memory"
)

func arrayOfInts(vals ...int64) frid.Value {
	out := make([]frid.Value, len(vals))
	for i, v := range vals {
		out[i] = frid.Int(v)
	}
	return frid.Array(out)
}

func TestApplySelStrideForwardStep(t *testing.T) {
	val := arrayOfInts(0, 1, 2, 3, 4, 5)
	opt := kvs.ApplySel(val, kvs.SelByStride(1, 0, 2))
	require.False(t, opt.IsBeing())
	assert.Equal(t, arrayOfInts(1, 3, 5), opt.Value())
}

func TestApplySelStrideNegativeStep(t *testing.T) {
	val := arrayOfInts(0, 1, 2, 3, 4, 5)
	// start=5, stop=0 (through index 0), step=-2 -> indexes 5, 3, 1
	opt := kvs.ApplySel(val, kvs.SelByStride(5, 0, -2))
	require.False(t, opt.IsBeing())
	assert.Equal(t, arrayOfInts(5, 3, 1), opt.Value())
}

func TestApplySelStrideNegativeIndexes(t *testing.T) {
	val := arrayOfInts(0, 1, 2, 3, 4, 5)
	// last element down through the first, every other one: indexes 5, 3, 1
	opt := kvs.ApplySel(val, kvs.SelByStride(-1, 0, -2))
	require.False(t, opt.IsBeing())
	assert.Equal(t, arrayOfInts(5, 3, 1), opt.Value())
}

func TestApplyDelSelStrideRemovesEveryOther(t *testing.T) {
	val := arrayOfInts(0, 1, 2, 3, 4, 5)
	out, removed := kvs.ApplyDelSel(val, kvs.SelByStride(0, 0, 2))
	assert.Equal(t, 3, removed)
	assert.Equal(t, arrayOfInts(1, 3, 5), out)
}

func TestApplySelStrideOnText(t *testing.T) {
	opt := kvs.ApplySel(frid.Text("abcdef"), kvs.SelByStride(0, 0, 2))
	require.False(t, opt.IsBeing())
	assert.Equal(t, frid.Text("ace"), opt.Value())
}

func TestGetLockExcludesConcurrentHolder(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	l1, err := s.GetLock(ctx, "mylock")
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		l2, err := s.GetLock(ctx, "mylock")
		require.NoError(t, err)
		close(acquired)
		_ = l2.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second GetLock acquired the lock while the first still held it")
	default:
	}

	require.NoError(t, l1.Unlock())
	<-acquired
}
