package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"frid"
	"frid/dumper"
	"frid/kvs"
	"frid/loader"
)

// Config opens a Store: a DSN, dialect, the CREATE TABLE statement that
// describes the target table, and the column-discovery knobs dbsql.py
// accepts at __init__ time.
type Config struct {
	DSN        string
	Dialect    Dialect
	DDL        string
	Projection ProjectionConfig
	RowFilter  map[string]any // extra WHERE equality conditions, mirrors row_filter

	// Logger receives connection and row-mutation diagnostics. A fresh
	// logrus.Logger is used when nil, the way DatabaseConfig.Open in
	// vippsas-sqlcode/cli/cmd/config.go takes a logrus.FieldLogger instead
	// of reaching for a package-global logger.
	Logger logrus.FieldLogger
}

// Store is a kvs.Store backed by a SQL table.
type Store struct {
	*kvs.SimpleStore
}

// Open parses cfg.DDL, resolves the column projection, and opens the
// database connection.
func Open(cfg Config) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	schema, err := ParseCreateTable(cfg.DDL)
	if err != nil {
		return nil, err
	}
	proj, err := BuildProjection(schema, cfg.Projection)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Dialect.DriverName(), cfg.DSN)
	if err != nil {
		return nil, err
	}
	log.WithField("table", schema.Table).WithField("dialect", cfg.Dialect).Debug("sqlstore: opened connection")
	b := &backend{
		db:      db,
		dialect: cfg.Dialect,
		table:   schema.Table,
		proj:    proj,
		filter:  cfg.RowFilter,
		log:     log,
	}
	s := &Store{}
	s.SimpleStore = kvs.NewSimpleStore(b, func(names ...string) kvs.Store {
		sub := *b
		sub.filter = mergeFilter(cfg.RowFilter, names, proj.KeyColumns)
		subStore := &Store{}
		subStore.SimpleStore = kvs.NewSimpleStore(&sub, subStore.Substore)
		return subStore
	})
	return s, nil
}

// mergeFilter folds substore path segments into additional row-filter
// equality conditions against the leading key columns, the nearest SQL
// analogue of a namespaced substore when rows already live in one table.
func mergeFilter(base map[string]any, names []string, keyColumns []string) map[string]any {
	out := map[string]any{}
	for k, v := range base {
		out[k] = v
	}
	for i, n := range names {
		if i < len(keyColumns) {
			out[keyColumns[i]] = n
		}
	}
	return out
}

// Close releases the underlying *sql.DB.
func (s *Store) Close() error {
	return s.SimpleStore.Backend.(*backend).db.Close()
}

type backend struct {
	db      *sql.DB
	dialect Dialect
	table   string
	proj    *Projection
	filter  map[string]any
	log     logrus.FieldLogger
}

func (b *backend) keyClause(key string, argStart int) (string, []any) {
	parts := splitKey(key, len(b.proj.KeyColumns))
	var conds []string
	var args []any
	n := argStart
	for i, col := range b.proj.KeyColumns {
		conds = append(conds, fmt.Sprintf("%s = %s", col, b.dialect.Placeholder(n)))
		args = append(args, parts[i])
		n++
	}
	for col, v := range b.filter {
		conds = append(conds, fmt.Sprintf("%s = %s", col, b.dialect.Placeholder(n)))
		args = append(args, v)
		n++
	}
	return strings.Join(conds, " AND "), args
}

// splitKey divides a kvs.Key.String() back into its per-column parts via
// kvs.ParseKeyString, the inverse of kvs.Key.String() including its
// tab-escaping.
func splitKey(key string, n int) []string {
	parsed, err := kvs.ParseKeyString(key, n)
	if err != nil {
		// Falls back to the raw split: a malformed escape here means the
		// key was never produced by kvs.Key.String(), not a reason to fail
		// an otherwise well-formed query.
		if n <= 1 {
			return []string{key}
		}
		return strings.SplitN(key, "\t", n)
	}
	return []string(parsed)
}

func (b *backend) selectRowSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE ", strings.Join(b.proj.SelectOrder, ", "), b.table)
}

func (b *backend) Get(ctx context.Context, key string) (frid.Opt, error) {
	where, args := b.keyClause(key, 1)
	row := b.db.QueryRowContext(ctx, b.selectRowSQL()+where, args...)
	val, err := b.scanRow(row)
	if err == sql.ErrNoRows {
		return frid.OptMissing(), nil
	}
	if err != nil {
		return frid.Opt{}, err
	}
	return frid.OptValue(val), nil
}

func (b *backend) scanRow(row *sql.Row) (frid.Value, error) {
	dest := make([]any, len(b.proj.SelectOrder))
	ptrs := make([]any, len(dest))
	for i := range dest {
		ptrs[i] = &dest[i]
	}
	if err := row.Scan(ptrs...); err != nil {
		return frid.Value{}, err
	}
	return b.assembleValue(dest), nil
}

// assembleValue mirrors _extract_row_value: a non-null text or blob
// catch-all column short-circuits as that value's own type; otherwise the
// value columns are folded into a Mapping. A frid column that decodes to a
// Mapping is merged over those columns; any other decoded frid value is
// returned as is.
func (b *backend) assembleValue(row []any) frid.Value {
	out := frid.NewMapping()
	var fridVal *frid.Value
	for i, col := range b.proj.SelectOrder {
		v := row[i]
		if v == nil {
			continue
		}
		switch col {
		case b.proj.TextColumn:
			if s, ok := v.(string); ok {
				return frid.Text(s)
			}
			if bs, ok := v.([]byte); ok {
				return frid.Text(string(bs))
			}
			continue
		case b.proj.BlobColumn:
			if bs, ok := v.([]byte); ok {
				return frid.Blob(bs)
			}
			continue
		case b.proj.FridColumn:
			var s string
			if str, ok := v.(string); ok {
				s = str
			} else if bs, ok := v.([]byte); ok {
				s = string(bs)
			}
			if s != "" {
				parsed, err := loader.Load(s, false)
				if err == nil {
					fridVal = &parsed
				}
			}
			continue
		default:
			out.Set(col, sqlToFrid(v))
		}
	}
	if fridVal != nil {
		if fridVal.Kind() == frid.KindMapping {
			for _, k := range fridVal.Mapping().Keys() {
				fv, _ := fridVal.Mapping().Get(k)
				out.Set(k, fv)
			}
		} else {
			return *fridVal
		}
	}
	return frid.Map(out)
}

func sqlToFrid(v any) frid.Value {
	switch x := v.(type) {
	case int64:
		return frid.Int(x)
	case float64:
		return frid.Real(x)
	case bool:
		return frid.Bool(x)
	case string:
		return frid.Text(x)
	case []byte:
		return frid.Text(string(x))
	default:
		return frid.Text(fmt.Sprint(x))
	}
}

// valToColumns mirrors _val_to_dict: a Text/Blob val goes to its
// dedicated column when one is configured; a Mapping spreads matching
// field names across the value columns, with the remainder (and any
// non-Mapping/Text/Blob val) falling back to the frid catch-all column.
func (b *backend) valToColumns(val frid.Value) (map[string]any, error) {
	out := map[string]any{}
	if val.Kind() == frid.KindText && b.proj.TextColumn != "" {
		out[b.proj.TextColumn] = val.Text()
		return out, nil
	}
	if val.Kind() == frid.KindBlob && b.proj.BlobColumn != "" {
		out[b.proj.BlobColumn] = val.Blob()
		return out, nil
	}
	remainder := frid.NewMapping()
	if val.Kind() == frid.KindMapping {
		claimed := map[string]bool{}
		for _, k := range val.Mapping().Keys() {
			v, _ := val.Mapping().Get(k)
			isValCol := false
			for _, vc := range b.proj.ValColumns {
				if vc == k {
					isValCol = true
					break
				}
			}
			if isValCol {
				out[k] = fridToSQL(v)
				claimed[k] = true
			} else {
				remainder.Set(k, v)
			}
		}
		if remainder.Len() == 0 {
			return out, nil
		}
	} else {
		remainder = nil
	}
	if b.proj.FridColumn == "" {
		return nil, fmt.Errorf("sqlstore: no column configured to store value of kind %s", val.Kind())
	}
	toDump := val
	if remainder != nil {
		toDump = frid.Map(remainder)
	}
	text, err := dumper.Dump(toDump, dumper.Options{Mode: dumper.ModeFrid})
	if err != nil {
		return nil, err
	}
	out[b.proj.FridColumn] = text
	return out, nil
}

func fridToSQL(v frid.Value) any {
	switch v.Kind() {
	case frid.KindInt:
		return v.Int()
	case frid.KindReal:
		return v.Real()
	case frid.KindBool:
		return v.Bool()
	case frid.KindText:
		return v.Text()
	case frid.KindBlob:
		return v.Blob()
	default:
		text, err := dumper.Dump(v, dumper.Options{Mode: dumper.ModeFrid})
		if err != nil {
			return nil
		}
		return text
	}
}

func (b *backend) Put(ctx context.Context, key string, val frid.Value) error {
	_, err := b.upsert(ctx, key, val)
	return err
}

func (b *backend) Del(ctx context.Context, key string) (bool, error) {
	where, args := b.keyClause(key, 1)
	res, err := b.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s", b.table, where), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// upsert performs an unconditional insert-or-replace: the Unchecked put
// path's Backend.Put never needs NO_CREATE/NO_CHANGE/KEEP_BOTH semantics,
// since SimpleStore.PutFrid only reaches Put when flags is Unchecked —
// every flagged put instead goes through RMW below, the Go-idiomatic
// analogue of dbsql.py's try-insert, catch-and-fall-back-to-update dance
// (Go avoids using error handling as control flow for an expected, common
// case like "row already exists").
func (b *backend) upsert(ctx context.Context, key string, val frid.Value) (bool, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	where, args := b.keyClause(key, 1)
	row := tx.QueryRowContext(ctx, b.selectRowSQL()+where, args...)
	_, scanErr := b.scanRow(row)
	exists := scanErr != sql.ErrNoRows
	if scanErr != nil && scanErr != sql.ErrNoRows {
		return false, scanErr
	}

	cols, err := b.valToColumns(val)
	if err != nil {
		return false, err
	}
	if exists {
		if b.log != nil {
			b.log.WithField("table", b.table).WithField("key", key).Debug("sqlstore: updating existing row")
		}
		if err := b.updateKeyed(ctx, tx, key, cols); err != nil {
			return false, err
		}
	} else {
		if b.log != nil {
			b.log.WithField("table", b.table).WithField("key", key).Debug("sqlstore: inserting new row")
		}
		if err := b.insertKeyed(ctx, tx, key, cols); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}

func (b *backend) insertKeyed(ctx context.Context, tx *sql.Tx, key string, cols map[string]any) error {
	parts := splitKey(key, len(b.proj.KeyColumns))
	names := append([]string{}, b.proj.KeyColumns...)
	values := make([]any, 0, len(cols)+len(parts))
	for _, p := range parts {
		values = append(values, p)
	}
	for col, v := range b.filter {
		names = append(names, col)
		values = append(values, v)
	}
	for col, v := range cols {
		names = append(names, col)
		values = append(values, v)
	}
	placeholders := make([]string, len(values))
	for i := range placeholders {
		placeholders[i] = b.dialect.Placeholder(i + 1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	_, err := tx.ExecContext(ctx, stmt, values...)
	return err
}

func (b *backend) updateKeyed(ctx context.Context, tx *sql.Tx, key string, cols map[string]any) error {
	setParts := make([]string, 0, len(cols))
	values := make([]any, 0, len(cols))
	n := 1
	for col, v := range cols {
		setParts = append(setParts, fmt.Sprintf("%s = %s", col, b.dialect.Placeholder(n)))
		values = append(values, v)
		n++
	}
	where, whereArgs := b.keyClause(key, n)
	values = append(values, whereArgs...)
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s", b.table, strings.Join(setParts, ", "), where)
	_, err := tx.ExecContext(ctx, stmt, values...)
	return err
}

// RMW implements the read-modify-write quartet via the same transaction
// shape upsert uses: read the current row, let mod decide the outcome,
// then insert/update/delete to match.
func (b *backend) RMW(
	ctx context.Context, key string,
	mod func(cur frid.Opt) (next frid.Opt, result any),
) (any, error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	where, args := b.keyClause(key, 1)
	row := tx.QueryRowContext(ctx, b.selectRowSQL()+where, args...)
	existing, scanErr := b.scanRow(row)
	exists := scanErr != sql.ErrNoRows
	if scanErr != nil && scanErr != sql.ErrNoRows {
		return nil, scanErr
	}
	var cur frid.Opt
	if exists {
		cur = frid.OptValue(existing)
	} else {
		cur = frid.OptMissing()
	}
	next, result := mod(cur)

	if next.IsBeing() {
		if next.Being().IsMissing() && exists {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE %s", b.table, where), args...); err != nil {
				return nil, err
			}
		}
		return result, tx.Commit()
	}
	cols, err := b.valToColumns(next.Value())
	if err != nil {
		return nil, err
	}
	if exists {
		if err := b.updateKeyed(ctx, tx, key, cols); err != nil {
			return nil, err
		}
	} else {
		if err := b.insertKeyed(ctx, tx, key, cols); err != nil {
			return nil, err
		}
	}
	return result, tx.Commit()
}
