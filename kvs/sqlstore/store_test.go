package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"frid"
	"frid/kvs"
)

const testDDL = `CREATE TABLE kv_store (
	store_key VARCHAR(128) PRIMARY KEY,
	name VARCHAR(255),
	count_val INT,
	frid_blob TEXT
)`

func setupMySQLStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("frid_kvs"),
		tcmysql.WithUsername("root"),
		tcmysql.WithPassword("fridpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	s, err := Open(Config{
		DSN:     dsn,
		Dialect: MySQL,
		DDL:     testDDL,
		Projection: ProjectionConfig{
			ValFields: []string{"name", "count_val"},
			FridField: Field("frid_blob"),
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	db := s.SimpleStore.Backend.(*backend).db
	_, err = db.ExecContext(ctx, testDDL)
	require.NoError(t, err)

	return s
}

func TestSQLStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := setupMySQLStore(t)

	m := frid.NewMapping()
	m.Set("name", frid.Text("widget"))
	m.Set("count_val", frid.Int(7))
	changed, err := s.PutFrid(ctx, kvs.NewKey("w1"), frid.Map(m), kvs.Unchecked)
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("w1"), kvs.Sel{})
	require.NoError(t, err)
	require.False(t, v.IsBeing())
	name, ok := v.Value().Mapping().Get("name")
	require.True(t, ok)
	assert.Equal(t, "widget", name.Text())
}

func TestSQLStoreNoCreateOnMissing(t *testing.T) {
	ctx := context.Background()
	s := setupMySQLStore(t)

	changed, err := s.PutFrid(ctx, kvs.NewKey("missing"), frid.Int(1), kvs.NoCreate)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestSQLStoreDelFrid(t *testing.T) {
	ctx := context.Background()
	s := setupMySQLStore(t)

	_, err := s.PutFrid(ctx, kvs.NewKey("w2"), frid.Text("gone-soon"), kvs.Unchecked)
	require.NoError(t, err)

	changed, err := s.DelFrid(ctx, kvs.NewKey("w2"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, changed)

	v, err := s.GetFrid(ctx, kvs.NewKey("w2"), kvs.Sel{})
	require.NoError(t, err)
	assert.True(t, v.IsMissing())
}
