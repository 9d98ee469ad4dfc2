package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QueryResult holds the output of one executed statement.
// Row values are driver values after normalisation: nil for NULL,
// strings for text, numbers for numeric columns.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// numeric is a number the driver delivered as text (MySQL's text
// protocol, DECIMAL columns). It renders without quotes.
type numeric string

// Execute runs query exactly as given and collects every row.
// Statements that return no rows yield an empty result.
func (d *DB) Execute(ctx context.Context, query string) (*QueryResult, error) {
	return d.executeQuery(ctx, query)
}

// executeQuery is the internal workhorse for running SQL and collecting results.
func (d *DB) executeQuery(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	result := &QueryResult{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range values {
			values[i] = normalize(v, types[i])
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func normalize(v any, ct *sql.ColumnType) any {
	var s string
	switch x := v.(type) {
	case []byte:
		s = string(x)
	case string:
		s = x
	default:
		return v
	}
	if ct != nil && isNumericType(ct.DatabaseTypeName()) {
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			return numeric(s)
		}
	}
	return s
}

func isNumericType(name string) bool {
	name = strings.TrimPrefix(strings.ToUpper(name), "UNSIGNED ")
	switch name {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"INT2", "INT4", "INT8", "DECIMAL", "NUMERIC", "FLOAT", "FLOAT4",
		"FLOAT8", "DOUBLE", "REAL", "YEAR":
		return true
	}
	return false
}

// String renders the rows as a list of tuples: [(10,)] for one value,
// [('PT. ABC',), ('PT. XYZ',)] for text, None for NULL and [] for no
// rows. This is the text handed to the response prompt.
func (r *QueryResult) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if r != nil {
		for i, row := range r.Rows {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			for j, v := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(literal(v))
			}
			if len(row) == 1 {
				sb.WriteByte(',')
			}
			sb.WriteByte(')')
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

// literal renders one value the way it appears inside a result tuple.
func literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case numeric:
		return string(x)
	case string:
		return quoteText(x)
	case []byte:
		return quoteText(string(x))
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return quoteText(x.Format(time.DateTime))
	default:
		return fmt.Sprint(x)
	}
}

// quoteText single-quotes s, switching to double quotes when s contains
// a single quote but no double quote.
func quoteText(s string) string {
	s = strings.NewReplacer("\\", `\\`, "\n", `\n`, "\t", `\t`).Replace(s)
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// cell renders one value for the sample-row block of a schema
// description.
func cell(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		s = "None"
	case numeric:
		s = string(x)
	case string:
		s = x
	case time.Time:
		s = x.Format(time.DateTime)
	default:
		s = literal(x)
	}
	s = strings.NewReplacer("\n", " ", "\t", " ").Replace(s)
	if r := []rune(s); len(r) > maxCellRunes {
		s = string(r[:maxCellRunes]) + "..."
	}
	return s
}

const maxCellRunes = 100
