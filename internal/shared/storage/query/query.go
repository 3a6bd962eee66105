// Package query holds the selection criteria passed from handlers down to repositories.
package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SortField names the timestamp a listing is ordered by.
type SortField string

const (
	SortDate      SortField = "date"
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
)

// ParseSortField maps a query-string value to a SortField. Snake case is accepted too.
func ParseSortField(raw string) (SortField, bool) {
	switch strings.TrimSpace(raw) {
	case "date":
		return SortDate, true
	case "createdAt", "created_at":
		return SortCreatedAt, true
	case "updatedAt", "updated_at":
		return SortUpdatedAt, true
	default:
		return "", false
	}
}

// Filter is an equality match on filterable fields. Empty matches everything.
type Filter map[string]string

// Options is the full selection passed to GetAll.
type Options struct {
	Filter Filter
	// Limit caps the result count; 0 means no cap.
	Limit int
	Skip  int
	Sort  SortField
}

// Window returns the [start, end) slice bounds of a page over n items.
func (o Options) Window(n int) (int, int) {
	start := o.Skip
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if o.Limit > 0 && start+o.Limit < end {
		end = start + o.Limit
	}
	return start, end
}

// FieldKind says how a filter value is parsed.
type FieldKind uint8

const (
	Text FieldKind = iota
	Bool
)

// Field maps a filter key onto a storage column.
type Field struct {
	Column string
	Kind   FieldKind
}

// Schema is the set of filterable fields of one entity.
type Schema map[string]Field

// Condition is one parsed filter term.
type Condition struct {
	Key    string
	Column string
	Value  any
}

// Conditions validates f against the schema and returns its terms in key order.
func (s Schema) Conditions(f Filter) ([]Condition, error) {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Condition, 0, len(keys))
	for _, k := range keys {
		field, ok := s[k]
		if !ok {
			return nil, fmt.Errorf("unknown filter field %q", k)
		}
		raw := strings.TrimSpace(f[k])
		var value any = raw
		if field.Kind == Bool {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("filter field %q expects a boolean", k)
			}
			value = b
		}
		out = append(out, Condition{Key: k, Column: field.Column, Value: value})
	}
	return out, nil
}

// Where renders conditions as a SQL WHERE clause with positional args starting at $1.
func Where(conds []Condition) (string, []any) {
	if len(conds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for i, c := range conds {
		parts = append(parts, fmt.Sprintf("%s = $%d", c.Column, i+1))
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args
}
