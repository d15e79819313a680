package config

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frid"
)

func TestDecodeValidConfig(t *testing.T) {
	doc := `
[stores.cache]
backend = "memory"

[stores.spool]
backend = "file"
dsn = "/var/lib/frid/spool"
`
	f, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "memory", f.Stores["cache"].Backend)
	assert.Equal(t, "/var/lib/frid/spool", f.Stores["spool"].DSN)
}

func TestDecodeMissingBackendFails(t *testing.T) {
	doc := `
[stores.broken]
dsn = "whatever"
`
	_, err := Decode(strings.NewReader(doc))
	require.Error(t, err)
	var cfgErr *frid.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "backend", cfgErr.Field)
}

func TestDecodeUnknownBackendFails(t *testing.T) {
	doc := `
[stores.broken]
backend = "carrier-pigeon"
`
	_, err := Decode(strings.NewReader(doc))
	require.Error(t, err)
}

func TestDecodeSQLStoreRequiresDSNAndDDL(t *testing.T) {
	doc := `
[stores.sql]
backend = "mysql"
`
	_, err := Decode(strings.NewReader(doc))
	require.Error(t, err)
	var cfgErr *frid.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "dsn", cfgErr.Field)
}

func TestOpenMemoryStore(t *testing.T) {
	st := Store{Backend: "memory"}
	s, err := st.Open(logrus.New())
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestOpenFileStore(t *testing.T) {
	st := Store{Backend: "file", DSN: t.TempDir()}
	s, err := st.Open(logrus.New())
	require.NoError(t, err)
	require.NotNil(t, s)
}
