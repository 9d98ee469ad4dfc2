package tui

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

// highlightSQL colours a SQL statement for a 256-colour terminal. It
// falls back to the plain text if the lexer fails.
func highlightSQL(sql string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, sql, "sql", "terminal256", "monokai"); err != nil {
		return sql
	}
	return strings.TrimRight(b.String(), "\n")
}
