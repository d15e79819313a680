package sqlstore

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect names the wire protocol a Store's *sql.DB speaks, since
// database/sql's driver name and placeholder syntax both vary by engine
// (dbsql.py sidesteps this entirely — SQLAlchemy's Engine abstracts it).
type Dialect int

const (
	MySQL Dialect = iota
	Postgres
)

// DriverName is the database/sql driver name sql.Open expects.
func (d Dialect) DriverName() string {
	switch d {
	case Postgres:
		return "pgx"
	default:
		return "mysql"
	}
}

// Placeholder renders the i'th (1-based) bind parameter in this dialect's
// syntax: "?" repeated for MySQL, "$1", "$2", ... for Postgres.
func (d Dialect) Placeholder(i int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}
