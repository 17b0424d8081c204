package db

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tphummel/server_inventory/internal/models"
)

// dialect captures the few places SQLite and PostgreSQL SQL differ.
type dialect int

const (
	sqliteDialect dialect = iota
	postgresDialect
)

func (d dialect) String() string {
	if d == postgresDialect {
		return "postgres"
	}
	return "sqlite"
}

// placeholder returns the bind marker for the n-th (1-based) argument.
func (d dialect) placeholder(n int) string {
	if d == postgresDialect {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// lower folds expr to lower case for the case-insensitive search. SQLite's
// built-in LOWER only folds ASCII, so that dialect uses unicode_lower.
func (d dialect) lower(expr string) string {
	if d == postgresDialect {
		return "LOWER(" + expr + ")"
	}
	return unicodeLowerFunc + "(" + expr + ")"
}

// quote wraps an identifier taken from one of the closed column lists in
// models. It must never be given user input.
func quote(ident string) string {
	return `"` + ident + `"`
}

func columnList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

// binder accumulates query arguments and hands back their placeholders.
type binder struct {
	d    dialect
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.placeholder(len(b.args))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// where renders the shared predicate of the count and list statements.
func (b *binder) where(q models.ListQuery) string {
	var preds []string
	if q.Search != "" {
		pattern := "%" + likeEscaper.Replace(q.Search) + "%"
		ors := make([]string, 0, len(models.SearchColumns))
		for _, col := range models.SearchColumns {
			ors = append(ors, fmt.Sprintf(`%s LIKE %s ESCAPE '\'`, b.d.lower(quote(col)), b.d.lower(b.bind(pattern))))
		}
		preds = append(preds, "("+strings.Join(ors, " OR ")+")")
	}
	for _, f := range models.FilterColumns {
		if v, ok := q.Filters[f.Column]; ok {
			preds = append(preds, fmt.Sprintf("%s = %s", quote(f.Column), b.bind(v)))
		}
	}
	if len(preds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(preds, " AND ")
}

func (d dialect) countQuery(q models.ListQuery) (string, []any) {
	b := &binder{d: d}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, b.where(q))
	return query, b.args
}

func (d dialect) listQuery(q models.ListQuery) (string, []any) {
	sortCol := q.SortBy
	if !models.SortColumns[sortCol] {
		sortCol = models.DefaultSortBy
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	b := &binder{d: d}
	where := b.where(q)
	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s %s, %s ASC LIMIT %s OFFSET %s",
		columnList(models.SummaryColumns), table, where,
		quote(sortCol), dir, quote("id"),
		b.bind(q.Limit), b.bind(q.Offset()))
	return query, b.args
}

func (d dialect) insertQuery(f models.Fields) (string, []any) {
	b := &binder{d: d}
	marks := make([]string, len(f.Values))
	for i, v := range f.Values {
		marks[i] = b.bind(v)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		table, columnList(f.Columns), strings.Join(marks, ", "), columnList(models.Columns))
	return query, b.args
}

func (d dialect) updateQuery(id string, f models.Fields) (string, []any) {
	b := &binder{d: d}
	sets := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		sets[i] = fmt.Sprintf("%s = %s", quote(c), b.bind(f.Values[i]))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s RETURNING %s",
		table, strings.Join(sets, ", "), quote("id"), b.bind(id), columnList(models.Columns))
	return query, b.args
}
