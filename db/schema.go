package db

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Column describes a single column in a table.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Default    *string
}

// ForeignKey describes one column of a foreign key constraint.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Table holds what the schema description shows for one table.
type Table struct {
	Name        string
	Columns     []Column
	ForeignKeys []ForeignKey
	Sample      *QueryResult
}

// DescribeSchema returns a textual description of every table in the
// connected database: a CREATE TABLE block per table followed by a few
// sample rows. Tables are ordered by name; nothing is cached, so the
// text always reflects the live catalog.
func (d *DB) DescribeSchema(ctx context.Context) (string, error) {
	tables, err := d.Tables(ctx)
	if err != nil {
		return "", err
	}
	blocks := make([]string, 0, len(tables))
	for _, t := range tables {
		blocks = append(blocks, formatTable(t, d.dialect.quote))
	}
	return strings.Join(blocks, "\n\n"), nil
}

// Tables reads the catalog of the connected database.
func (d *DB) Tables(ctx context.Context) ([]Table, error) {
	names, err := d.dialect.tables(ctx, d.conn)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		t := Table{Name: name}
		if t.Columns, err = d.dialect.columns(ctx, d.conn, name); err != nil {
			return nil, err
		}
		if t.ForeignKeys, err = d.dialect.foreignKeys(ctx, d.conn, name); err != nil {
			return nil, err
		}
		if d.sampleRows > 0 {
			q := fmt.Sprintf("SELECT * FROM %s LIMIT %d", d.dialect.quote(name), d.sampleRows)
			// Tables we can't read (e.g. missing permissions) go without samples
			if sample, err := d.executeQuery(ctx, q); err == nil {
				t.Sample = sample
			}
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func formatTable(t Table, quote func(string) string) string {
	var defs []string
	var pk []string
	for _, c := range t.Columns {
		def := "\t" + quote(c.Name)
		if c.Type != "" {
			def += " " + c.Type
		}
		if !c.Nullable {
			def += " NOT NULL"
		}
		if c.Default != nil {
			def += " DEFAULT " + defaultLiteral(*c.Default, c.Type)
		}
		defs = append(defs, def)
		if c.PrimaryKey {
			pk = append(pk, quote(c.Name))
		}
	}
	if len(pk) > 0 {
		defs = append(defs, "\tPRIMARY KEY ("+strings.Join(pk, ", ")+")")
	}
	for _, fk := range t.ForeignKeys {
		ref := quote(fk.RefTable)
		if fk.RefColumn != "" {
			ref += " (" + quote(fk.RefColumn) + ")"
		}
		defs = append(defs, fmt.Sprintf("\tFOREIGN KEY (%s) REFERENCES %s", quote(fk.Column), ref))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "CREATE TABLE %s (\n%s\n)", quote(t.Name), strings.Join(defs, ",\n"))

	if t.Sample != nil {
		fmt.Fprintf(&sb, "\n\n/*\n%d rows from %s table:\n", len(t.Sample.Rows), t.Name)
		sb.WriteString(strings.Join(t.Sample.Columns, "\t"))
		for _, row := range t.Sample.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = cell(v)
			}
			sb.WriteString("\n" + strings.Join(cells, "\t"))
		}
		sb.WriteString("\n*/")
	}
	return sb.String()
}

var (
	reNumber      = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?$`)
	reDefaultExpr = regexp.MustCompile(`(?i)^(null|true|false|current_timestamp|current_date|current_time|localtime|localtimestamp)$`)
)

// defaultLiteral renders a catalog column default as SQL. PostgreSQL and
// SQLite report defaults as SQL text already; MySQL reports string
// defaults bare, so those get quoted here.
func defaultLiteral(v, colType string) string {
	switch {
	case strings.HasPrefix(v, "'"), strings.Contains(v, "("):
		return v
	case reDefaultExpr.MatchString(v):
		return v
	case reNumber.MatchString(v) && !isCharType(colType):
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func isCharType(t string) bool {
	t = strings.ToLower(t)
	for _, k := range []string{"char", "text", "enum", "set", "json"} {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}
