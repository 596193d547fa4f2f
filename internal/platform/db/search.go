package db

import (
	"fmt"
	"strings"
)

// SearchQuery builds the paired COUNT and page queries behind list
// endpoints. Clauses are ANDed; placeholders are numbered as they are added.
type SearchQuery struct {
	from    string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// NewSearchQuery starts a query over from, which may include joins.
func NewSearchQuery(from, cols string) *SearchQuery {
	return &SearchQuery{from: from, cols: cols, idx: 1}
}

// Add appends a clause whose "?" markers are replaced, in order, by the
// next parameter indexes.
func (q *SearchQuery) Add(clause string, args ...interface{}) {
	var b strings.Builder
	for _, r := range clause {
		if r == '?' {
			fmt.Fprintf(&b, "$%d", q.idx)
			q.idx++
			continue
		}
		b.WriteRune(r)
	}
	q.where += " AND " + b.String()
	q.args = append(q.args, args...)
}

// AddEquals adds column = value.
func (q *SearchQuery) AddEquals(column string, value interface{}) {
	q.Add(column+" = ?", value)
}

// AddContains adds a case-insensitive substring match of term against any
// of columns. A blank term adds nothing.
func (q *SearchQuery) AddContains(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, q.idx)
	}
	q.where += " AND (" + strings.Join(parts, " OR ") + ")"
	q.args = append(q.args, ContainsPattern(term))
	q.idx++
}

// AddRange adds column >= from and column <= to for whichever bound is set.
func (q *SearchQuery) AddRange(column, from, to, cast string) {
	if from != "" {
		q.Add(column+" >= ?"+cast, from)
	}
	if to != "" {
		q.Add(column+" <= ?"+cast, to)
	}
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *SearchQuery) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

func (q *SearchQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.from, q.where)
}

// Args returns the search args without limit and offset.
func (q *SearchQuery) Args() []interface{} {
	return q.args
}

// DataSQL returns the page query with ORDER BY and LIMIT/OFFSET.
func (q *SearchQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.from, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the search args followed by limit and offset.
func (q *SearchQuery) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// ListSQL returns the unpaged query, for bounded result sets.
func (q *SearchQuery) ListSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.from, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	return sql
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern wraps term for ILIKE substring matching with LIKE
// metacharacters escaped.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
