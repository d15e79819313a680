// Package config loads a fridctl store configuration file: a TOML
// document naming one or more stores (backend kind, DSN, column
// projection knobs), the way internal/parser/toml/parser.go decodes a
// smf schema file into a typed Go struct with one toml.NewDecoder call.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	redisdriver "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"frid"
	"frid/kvs"
	"frid/kvs/file"
	"frid/kvs/memory"
	"frid/kvs/remote"
	"frid/kvs/sqlstore"
)

// File is the top-level document: a map from store name to its
// definition, e.g. [stores.cache] / [stores.catalog].
type File struct {
	Stores map[string]Store `toml:"stores"`
}

// Store describes one named store's backend and, for the SQL backend, the
// column projection knobs _SqlBaseStore.__init__ accepts.
type Store struct {
	Backend string `toml:"backend"` // "memory" | "file" | "mysql" | "postgres" | "redis"
	DSN     string `toml:"dsn"`     // file path, SQL DSN, or Redis address, depending on Backend
	DDL     string `toml:"ddl"`     // CREATE TABLE statement, sqlstore only

	KeyFields []string `toml:"key_fields"`
	ValFields []string `toml:"val_fields"`
	FridField string   `toml:"frid_field"`
	TextField string   `toml:"text_field"`
	BlobField string   `toml:"blob_field"`
}

// Open constructs the kvs.Store this Store entry describes, the way
// DatabaseConfig.Open in vippsas-sqlcode/cli/cmd/config.go turns a decoded
// config entry into a live connection, threading logger into whichever
// backend touches I/O (logger is never stored in a package-global).
func (st Store) Open(logger logrus.FieldLogger) (kvs.Store, error) {
	switch st.Backend {
	case "memory":
		return memory.New(), nil
	case "file":
		return file.NewWithLogger(st.DSN, logger)
	case "mysql", "postgres":
		dialect := sqlstore.MySQL
		if st.Backend == "postgres" {
			dialect = sqlstore.Postgres
		}
		return sqlstore.Open(sqlstore.Config{
			DSN:     st.DSN,
			Dialect: dialect,
			DDL:     st.DDL,
			Logger:  logger,
			Projection: sqlstore.ProjectionConfig{
				KeyFields: st.KeyFields,
				ValFields: st.ValFields,
				FridField: fieldSpec(st.FridField),
				TextField: fieldSpec(st.TextField),
				BlobField: fieldSpec(st.BlobField),
			},
		})
	case "redis":
		return remote.New(remote.Options{
			Redis:  redisOptions(st.DSN),
			Logger: logger,
		}), nil
	default:
		return nil, frid.NewConfigError("store", st.Backend, "backend", fmt.Sprintf("unknown backend %q", st.Backend))
	}
}

func redisOptions(addr string) redisdriver.Options {
	return redisdriver.Options{Addr: addr}
}

func fieldSpec(name string) sqlstore.FieldSpec {
	if name == "" {
		return sqlstore.FieldSpec{}
	}
	return sqlstore.Field(name)
}

// Load reads and decodes path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads a File from r and validates it.
func Decode(r io.Reader) (*File, error) {
	var doc File
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks every store definition, mirroring the small, struct-
// based validation internal/core/validation.go performs on a decoded
// schema: each problem is reported as a *frid.ConfigError naming the
// offending field, and — like Database.Validate and Table.Validate —
// Validate returns on the first one found rather than accumulating.
func (f *File) Validate() error {
	for name, st := range f.Stores {
		switch st.Backend {
		case "":
			return frid.NewConfigError("store", name, "backend", "backend is required")
		case "memory":
			// no further fields required
		case "file":
			if st.DSN == "" {
				return frid.NewConfigError("store", name, "dsn", "dsn (root directory) is required for the file backend")
			}
		case "mysql", "postgres":
			if st.DSN == "" {
				return frid.NewConfigError("store", name, "dsn", "dsn is required for a SQL backend")
			}
			if st.DDL == "" {
				return frid.NewConfigError("store", name, "ddl", "ddl (CREATE TABLE statement) is required for a SQL backend")
			}
		case "redis":
			if st.DSN == "" {
				return frid.NewConfigError("store", name, "dsn", "dsn (host:port) is required for the redis backend")
			}
		default:
			return frid.NewConfigError("store", name, "backend", fmt.Sprintf("unknown backend %q", st.Backend))
		}
	}
	return nil
}
