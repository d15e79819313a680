package sqlstore

import "fmt"

// FieldSpec selects a column by name, or requests auto-discovery of one
// column of a matching kind. Mirrors dbsql.py's str|bool field arguments
// (a string names the column; True asks _find_column to discover one).
type FieldSpec struct {
	Name string
	Auto bool
}

// Field names an explicit column.
func Field(name string) FieldSpec { return FieldSpec{Name: name} }

// AutoField asks Projection to discover the column itself.
func AutoField() FieldSpec { return FieldSpec{Auto: true} }

// ProjectionConfig is the set of knobs _SqlBaseStore.__init__ accepts to
// steer column discovery.
type ProjectionConfig struct {
	KeyFields  []string // explicit key columns; empty means "use the primary key"
	ValFields  []string // explicit value columns; empty means "all non-key, non-catch-all columns"
	FridField  FieldSpec
	TextField  FieldSpec
	BlobField  FieldSpec
}

// Projection is the resolved column partition a Store uses to read and
// write rows, mirroring the instance state _SqlBaseStore.__init__ builds:
// key columns, an optional frid/text/blob catch-all column, and the plain
// value columns spread across the rest of a mapping.
type Projection struct {
	KeyColumns  []string
	ValColumns  []string
	FridColumn  string
	TextColumn  string
	BlobColumn  string
	SelectOrder []string // FridColumn, TextColumn, BlobColumn (if set), then ValColumns — the column order a SELECT lists values in
}

// BuildProjection resolves a ProjectionConfig against schema, mirroring
// _find_key_columns/_find_val_columns/_find_column.
func BuildProjection(schema *Schema, cfg ProjectionConfig) (*Projection, error) {
	p := &Projection{}

	if len(cfg.KeyFields) > 0 {
		p.KeyColumns = append([]string{}, cfg.KeyFields...)
	} else {
		p.KeyColumns = schema.PrimaryKey()
	}
	if len(p.KeyColumns) == 0 {
		return nil, fmt.Errorf("sqlstore: no key columns resolved for table %s", schema.Table)
	}

	if cfg.FridField.Name != "" {
		p.FridColumn = cfg.FridField.Name
	} else if cfg.FridField.Auto {
		col, err := findColumn(schema, ColText, p.KeyColumns, nil)
		if err != nil {
			return nil, err
		}
		p.FridColumn = col
	}
	exclude := map[string]bool{}
	if p.FridColumn != "" {
		exclude[p.FridColumn] = true
	}

	if cfg.TextField.Name != "" {
		if p.FridColumn != "" {
			return nil, fmt.Errorf("sqlstore: frid_field and text_field cannot both be set")
		}
		p.TextColumn = cfg.TextField.Name
	} else if cfg.TextField.Auto {
		col, err := findColumn(schema, ColText, p.KeyColumns, exclude)
		if err != nil {
			return nil, err
		}
		p.TextColumn = col
	}
	if p.TextColumn != "" {
		exclude[p.TextColumn] = true
	}

	if cfg.BlobField.Name != "" {
		p.BlobColumn = cfg.BlobField.Name
	} else if cfg.BlobField.Auto {
		col, err := findColumn(schema, ColBlob, p.KeyColumns, exclude)
		if err != nil {
			return nil, err
		}
		p.BlobColumn = col
	}
	if p.BlobColumn != "" {
		exclude[p.BlobColumn] = true
	}

	if len(cfg.ValFields) > 0 {
		p.ValColumns = append([]string{}, cfg.ValFields...)
	} else {
		keySet := map[string]bool{}
		for _, k := range p.KeyColumns {
			keySet[k] = true
		}
		for _, c := range schema.Columns {
			if keySet[c.Name] || exclude[c.Name] {
				continue
			}
			p.ValColumns = append(p.ValColumns, c.Name)
		}
	}

	for _, c := range []string{p.FridColumn, p.TextColumn, p.BlobColumn} {
		if c != "" {
			p.SelectOrder = append(p.SelectOrder, c)
		}
	}
	p.SelectOrder = append(p.SelectOrder, p.ValColumns...)
	if len(p.SelectOrder) == 0 {
		return nil, fmt.Errorf("sqlstore: no value columns resolved for table %s", schema.Table)
	}
	return p, nil
}

// findColumn mirrors _SqlBaseStore._find_column: pick a non-key column of
// the requested kind not already claimed, preferring a column with no
// default (required) over one with a default (optional), and rejecting
// ambiguity within either tier.
func findColumn(schema *Schema, kind ColKind, keyColumns []string, exclude map[string]bool) (string, error) {
	keySet := map[string]bool{}
	for _, k := range keyColumns {
		keySet[k] = true
	}
	var required, optional []string
	for _, c := range schema.Columns {
		if keySet[c.Name] || c.IsPrimaryKey || (exclude != nil && exclude[c.Name]) {
			continue
		}
		if c.Kind != kind {
			continue
		}
		if c.HasDefault {
			optional = append(optional, c.Name)
		} else {
			required = append(required, c.Name)
		}
	}
	if len(required) >= 2 {
		return "", fmt.Errorf("sqlstore: too many non-key columns without default: %v", required)
	}
	if len(required) == 1 {
		return required[0], nil
	}
	if len(optional) >= 2 {
		return "", fmt.Errorf("sqlstore: too many non-key columns: %v", optional)
	}
	if len(optional) == 1 {
		return optional[0], nil
	}
	return "", fmt.Errorf("sqlstore: no column of the requested kind found")
}
