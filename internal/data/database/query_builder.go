// Package database builds parameterized list queries with sanitized identifiers.
package database

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal              ConditionType = "="
	NotEqual           ConditionType = "!="
	GreaterThan        ConditionType = ">"
	LessThan           ConditionType = "<"
	LessThanOrEqual    ConditionType = "<="
	GreaterThanOrEqual ConditionType = ">="
	ILike              ConditionType = "ILIKE"
	In                 ConditionType = "IN"
	Custom             ConditionType = "CUSTOM"

	unset = -1
)

var placeholderRE = regexp.MustCompile(`\$(\d+)`)

type Condition struct {
	Field    string
	Type     ConditionType
	Value    any
	rawQuery string
}

// WhereCond compares a column against a single bound value, or a slice for In.
func WhereCond(field string, condType ConditionType, value any) Condition {
	if condType == Custom {
		//nolint:forbidigo // custom conditions must carry raw SQL via WhereRawCond.
		panic("use WhereRawCond for Custom conditions")
	}
	return Condition{Field: field, Type: condType, Value: value}
}

// WhereRawCond embeds raw SQL numbered from $1; placeholders are renumbered to fit the query.
// The SQL itself is not sanitized.
func WhereRawCond(rawQuery string, params ...any) Condition {
	return Condition{Type: Custom, rawQuery: rawQuery, Value: params}
}

type orderTerm struct {
	column string
	dir    string
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	CountOnly  bool
	Conditions []Condition
	Order      []orderTerm
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{Table: table, Limit: unset, Offset: unset}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) { o.Columns = cols }
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) { o.Conditions = append(o.Conditions, cond) }
}

// WithOrderBy appends an ordering term. Repeated calls add tie-breakers.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Order = append(o.Order, orderTerm{column: column, dir: strings.ToUpper(direction)})
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// WithCountOnly selects COUNT(*) and ignores ordering and pagination.
func WithCountOnly() ListQueryOption {
	return func(o *ListQueryOptions) { o.CountOnly = true }
}

func sanitizeIdentifier(ident string) string {
	return pgx.Identifier(strings.Split(ident, ".")).Sanitize()
}

// BuildListQuery renders options as SQL and its bound arguments.
//
//	query, args := BuildListQuery(NewListQueryOptions("subscriptions",
//		WithColumns("id", "email"),
//		WithCondition(WhereCond("status", Equal, "confirmed")),
//		WithOrderBy("subscribed_at", "ASC"),
//		WithLimit(10),
//	))
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var q strings.Builder
	q.WriteString(buildSelectClause(options))
	q.WriteString(" FROM ")
	q.WriteString(sanitizeIdentifier(options.Table))

	where, args, next := buildWhereClause(options.Conditions, 1)
	if where != "" {
		q.WriteString(" ")
		q.WriteString(where)
	}
	if options.CountOnly {
		return q.String(), args
	}

	if len(options.Order) > 0 {
		terms := make([]string, 0, len(options.Order))
		for _, t := range options.Order {
			term := sanitizeIdentifier(t.column)
			if t.dir == "ASC" || t.dir == "DESC" {
				term += " " + t.dir
			}
			terms = append(terms, term)
		}
		q.WriteString(" ORDER BY ")
		q.WriteString(strings.Join(terms, ", "))
	}
	if options.Limit != unset {
		fmt.Fprintf(&q, " LIMIT $%d", next)
		args = append(args, options.Limit)
		next++
	}
	if options.Offset != unset {
		fmt.Fprintf(&q, " OFFSET $%d", next)
		args = append(args, options.Offset)
	}
	return q.String(), args
}

func buildSelectClause(options *ListQueryOptions) string {
	if options.CountOnly {
		return "SELECT COUNT(*)"
	}
	if len(options.Columns) == 0 {
		return "SELECT *"
	}
	cols := make([]string, len(options.Columns))
	for i, c := range options.Columns {
		cols[i] = sanitizeIdentifier(c)
	}
	return "SELECT " + strings.Join(cols, ", ")
}

func buildWhereClause(conds []Condition, start int) (string, []any, int) {
	parts := make([]string, 0, len(conds))
	args := []any{}
	next := start
	for _, cond := range conds {
		sqlPart, condArgs, n := processCondition(cond, next)
		if sqlPart == "" {
			continue
		}
		parts = append(parts, sqlPart)
		args = append(args, condArgs...)
		next = n
	}
	if len(parts) == 0 {
		return "", args, next
	}
	return "WHERE " + strings.Join(parts, " AND "), args, next
}

func processCondition(cond Condition, next int) (string, []any, int) {
	switch cond.Type {
	case Custom:
		return handleCustomCondition(cond, next)
	case In:
		if cond.Field == "" {
			return "", nil, next
		}
		return handleInCondition(cond, next)
	case Equal, NotEqual, GreaterThan, LessThan, LessThanOrEqual, GreaterThanOrEqual, ILike:
		if cond.Field == "" {
			return "", nil, next
		}
		return fmt.Sprintf("%s %s $%d", sanitizeIdentifier(cond.Field), cond.Type, next), []any{cond.Value}, next + 1
	}
	return "", nil, next
}

func handleInCondition(cond Condition, next int) (string, []any, int) {
	rv := reflect.ValueOf(cond.Value)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return "", nil, next
	}
	placeholders := make([]string, rv.Len())
	args := make([]any, rv.Len())
	for i := range rv.Len() {
		placeholders[i] = fmt.Sprintf("$%d", next)
		args[i] = rv.Index(i).Interface()
		next++
	}
	return fmt.Sprintf("%s IN (%s)", sanitizeIdentifier(cond.Field), strings.Join(placeholders, ", ")), args, next
}

func handleCustomCondition(cond Condition, next int) (string, []any, int) {
	if cond.rawQuery == "" {
		return "", nil, next
	}
	params, _ := cond.Value.([]any)
	var args []any
	renumbered := make(map[int]int)
	out := placeholderRE.ReplaceAllStringFunc(cond.rawQuery, func(m string) string {
		n, err := strconv.Atoi(m[1:])
		if err != nil || n < 1 || n > len(params) {
			return m
		}
		if _, ok := renumbered[n]; !ok {
			renumbered[n] = next
			args = append(args, params[n-1])
			next++
		}
		return fmt.Sprintf("$%d", renumbered[n])
	})
	return out, args, next
}
