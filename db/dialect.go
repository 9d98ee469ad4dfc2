package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/sqlscan"

	"github.com/DachengChen/chatdb/config"
)

// dialect holds what differs between the supported databases: driver
// name, identifier quoting and the catalog queries. Every catalog query
// returns the same column aliases so rows scan into the same structs.
type dialect struct {
	display   string
	driver    string
	quoteChar string

	tablesSQL      string
	columnsSQL     string
	foreignKeysSQL string
}

var dialects = map[string]dialect{
	config.DriverMySQL: {
		display:   "MySQL",
		driver:    "mysql",
		quoteChar: "`",
		tablesSQL: `
			SELECT table_name AS name
			FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		columnsSQL: `
			SELECT column_name AS name,
			       column_type AS col_type,
			       is_nullable AS nullable,
			       column_key AS col_key,
			       column_default AS col_default
			FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY ordinal_position`,
		foreignKeysSQL: `
			SELECT column_name AS col,
			       referenced_table_name AS ref_table,
			       referenced_column_name AS ref_col
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ?
			  AND referenced_table_name IS NOT NULL
			ORDER BY constraint_name, ordinal_position`,
	},
	config.DriverPostgres: {
		display:   "PostgreSQL",
		driver:    "pgx",
		quoteChar: `"`,
		tablesSQL: `
			SELECT table_name::text AS name
			FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`,
		columnsSQL: `
			SELECT c.column_name::text AS name,
			       c.data_type::text AS col_type,
			       c.is_nullable::text AS nullable,
			       CASE WHEN pk.column_name IS NULL THEN '' ELSE 'PRI' END AS col_key,
			       c.column_default::text AS col_default
			FROM information_schema.columns c
			LEFT JOIN (
				SELECT kcu.column_name
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON tc.constraint_name = kcu.constraint_name
				 AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = current_schema()
				  AND tc.table_name = $1
			) pk ON pk.column_name = c.column_name
			WHERE c.table_schema = current_schema() AND c.table_name = $1
			ORDER BY c.ordinal_position`,
		foreignKeysSQL: `
			SELECT kcu.column_name::text AS col,
			       ccu.table_name::text AS ref_table,
			       ccu.column_name::text AS ref_col
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON tc.constraint_name = kcu.constraint_name
			 AND tc.table_schema = kcu.table_schema
			JOIN information_schema.constraint_column_usage ccu
			  ON ccu.constraint_name = tc.constraint_name
			 AND ccu.table_schema = tc.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY'
			  AND tc.table_schema = current_schema()
			  AND tc.table_name = $1
			ORDER BY kcu.ordinal_position`,
	},
	config.DriverSQLite: {
		display:   "SQLite",
		driver:    "sqlite",
		quoteChar: `"`,
		tablesSQL: `
			SELECT name
			FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		columnsSQL: `
			SELECT name,
			       type AS col_type,
			       CASE WHEN "notnull" = 1 THEN 'NO' ELSE 'YES' END AS nullable,
			       CASE WHEN pk > 0 THEN 'PRI' ELSE '' END AS col_key,
			       dflt_value AS col_default
			FROM pragma_table_info(?)
			ORDER BY cid`,
		foreignKeysSQL: `
			SELECT "from" AS col,
			       "table" AS ref_table,
			       "to" AS ref_col
			FROM pragma_foreign_key_list(?)
			ORDER BY id, seq`,
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
	return d, nil
}

func (d dialect) name() string       { return d.display }
func (d dialect) driverName() string { return d.driver }

// quote wraps an identifier in the dialect's quote character, doubling
// any embedded quote.
func (d dialect) quote(ident string) string {
	return d.quoteChar + strings.ReplaceAll(ident, d.quoteChar, d.quoteChar+d.quoteChar) + d.quoteChar
}

type columnRow struct {
	Name     string  `db:"name"`
	Type     string  `db:"col_type"`
	Nullable string  `db:"nullable"`
	Key      string  `db:"col_key"`
	Default  *string `db:"col_default"`
}

type foreignKeyRow struct {
	Column    string  `db:"col"`
	RefTable  string  `db:"ref_table"`
	RefColumn *string `db:"ref_col"`
}

func (d dialect) tables(ctx context.Context, q sqlscan.Querier) ([]string, error) {
	var names []string
	if err := sqlscan.Select(ctx, q, &names, d.tablesSQL); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return names, nil
}

func (d dialect) columns(ctx context.Context, q sqlscan.Querier, table string) ([]Column, error) {
	var rows []columnRow
	if err := sqlscan.Select(ctx, q, &rows, d.columnsSQL, table); err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	cols := make([]Column, len(rows))
	for i, r := range rows {
		cols[i] = Column{
			Name:       r.Name,
			Type:       r.Type,
			Nullable:   strings.EqualFold(r.Nullable, "YES"),
			PrimaryKey: r.Key == "PRI",
			Default:    r.Default,
		}
	}
	return cols, nil
}

func (d dialect) foreignKeys(ctx context.Context, q sqlscan.Querier, table string) ([]ForeignKey, error) {
	var rows []foreignKeyRow
	if err := sqlscan.Select(ctx, q, &rows, d.foreignKeysSQL, table); err != nil {
		return nil, fmt.Errorf("foreign keys of %s: %w", table, err)
	}
	fks := make([]ForeignKey, len(rows))
	for i, r := range rows {
		fks[i] = ForeignKey{Column: r.Column, RefTable: r.RefTable}
		if r.RefColumn != nil {
			fks[i].RefColumn = *r.RefColumn
		}
	}
	return fks, nil
}
