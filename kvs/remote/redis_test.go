package remote

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"frid"
	"frid/kvs"
)

func setupRedisStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	s := New(Options{Redis: redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())}})
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisPutGetScalar(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

	changed, err := s.PutFrid(ctx, kvs.NewKey("greeting"), frid.Text("hello"), kvs.Unchecked)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("greeting"), kvs.Sel{})
	require.NoError(t, err)
	require.False(t, v.IsBeing())
	assert.Equal(t, "hello", v.Value().Text())
}

func TestRedisPutGetArrayAsNativeList(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

	arr := frid.Array([]frid.Value{frid.Int(1), frid.Int(2), frid.Int(3)})
	_, err := s.PutFrid(ctx, kvs.NewKey("nums"), arr, kvs.Unchecked)
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, kvs.NewKey("nums"), kvs.Sel{})
	require.NoError(t, err)
	require.Equal(t, frid.KindArray, v.Value().Kind())
	assert.Len(t, v.Value().Array(), 3)
}

func TestRedisPutGetMappingAsNativeHash(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

	m := frid.NewMapping()
	m.Set("a", frid.Int(1))
	m.Set("b", frid.Text("two"))
	_, err := s.PutFrid(ctx, kvs.NewKey("obj"), frid.Map(m), kvs.Unchecked)
	require.NoError(t, err)

	v, err := s.GetFrid(ctx, kvs.NewKey("obj"), kvs.Sel{})
	require.NoError(t, err)
	require.Equal(t, frid.KindMapping, v.Value().Kind())
	a, ok := v.Value().Mapping().Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), a.Int())
}

func TestRedisDelFrid(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

	_, err := s.PutFrid(ctx, kvs.NewKey("x"), frid.Int(9), kvs.Unchecked)
	require.NoError(t, err)

	changed, err := s.DelFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("x"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}

func TestRedisKeepBothMergesMappings(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

	m1 := frid.NewMapping()
	m1.Set("a", frid.Int(1))
	_, err := s.PutFrid(ctx, kvs.NewKey("merged"), frid.Map(m1), kvs.Unchecked)
	require.NoError(t, err)

	m2 := frid.NewMapping()
	m2.Set("b", frid.Int(2))
	changed, err := s.PutFrid(ctx, kvs.NewKey("merged"), frid.Map(m2), kvs.KeepBoth)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("merged"), kvs.Sel{})
	require.NoError(t, err)
	a, ok := v.Value().Mapping().Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), a.Int())
	b, ok := v.Value().Mapping().Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(2), b.Int())
}

func TestRedisGetLockExcludesConcurrentHolder(t *testing.T) {
	ctx := context.Background()
	s := setupRedisStore(t)

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
