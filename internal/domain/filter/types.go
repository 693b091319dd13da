// Package filter describes list filters passed from the API to repositories.
package filter

import (
	"fmt"
	"strings"
)

// ComparisonType is the kind of comparison a filter applies.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	LessOrEqual    ComparisonType = "lte"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	Contains       ComparisonType = "contains" // ILIKE %value%
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Valid reports whether c is a known comparison.
func (c ComparisonType) Valid() bool {
	switch c {
	case Equal, NotEqual, LessOrEqual, GreaterOrEqual, InList, Contains, IsNull, IsNotNull:
		return true
	}
	return false
}

// Item is one filter row.
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Parse reads "field:op:value" expressions as passed in ?filter= query
// parameters. A missing operator means eq.
func Parse(exprs []string) ([]Item, error) {
	items := make([]Item, 0, len(exprs))
	for _, expr := range exprs {
		parts := strings.SplitN(expr, ":", 3)
		switch len(parts) {
		case 2:
			items = append(items, Item{Field: parts[0], Operator: Equal, Value: parts[1]})
		case 3:
			op := ComparisonType(parts[1])
			if !op.Valid() {
				return nil, fmt.Errorf("unknown filter operator %q", parts[1])
			}
			var value any = parts[2]
			if op == InList {
				value = strings.Split(parts[2], ",")
			}
			items = append(items, Item{Field: parts[0], Operator: op, Value: value})
		default:
			return nil, fmt.Errorf("malformed filter %q", expr)
		}
	}
	return items, nil
}
