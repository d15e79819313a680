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

func TestGetTextReturnsAltOnMissing(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	v, err := kvs.GetText(ctx, s, kvs.NewKey("nope"), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "fallback", v)
}

func TestGetTextRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.PutFrid(ctx, kvs.NewKey("greeting"), frid.Text("hi"), kvs.Unchecked)
	require.NoError(t, err)

	v, err := kvs.GetText(ctx, s, kvs.NewKey("greeting"), "")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
}

func TestGetTextMismatchReturnsTypeMismatchError(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	_, err := s.PutFrid(ctx, kvs.NewKey("n"), frid.Int(7), kvs.Unchecked)
	require.NoError(t, err)

	_, err = kvs.GetText(ctx, s, kvs.NewKey("n"), "")
	require.Error(t, err)
	var mismatch *frid.TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestGetDictRoundTrips(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	m := frid.NewMapping()
	m.Set("a", frid.Int(1))
	_, err := s.PutFrid(ctx, kvs.NewKey("obj"), frid.Map(m), kvs.Unchecked)
	require.NoError(t, err)

	got, err := kvs.GetDict(ctx, s, kvs.NewKey("obj"), kvs.Sel{}, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	v, ok := got.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Int())
}
