// Package catalog_repo provides PostgreSQL implementations for the catalog:
// products, customers and suppliers.
package catalog_repo

import (
	"fmt"

	"github.com/Masterminds/squirrel"

	"posledger/internal/domain/catalog"
	"posledger/internal/domain/filter"
)

// listTable builds device-scoped list queries over one table.
type listTable struct {
	tableName  string
	selectCols []string
	orderBy    string
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// listQuery selects the device's rows matching q, paged.
func (t listTable) listQuery(deviceID string, q catalog.ListQuery) (squirrel.SelectBuilder, error) {
	sb := builder().
		Select(t.selectCols...).
		From(t.tableName).
		Where(squirrel.Eq{"device_id": deviceID})

	sb, err := t.applyFilters(sb, q.Filters)
	if err != nil {
		return sb, err
	}

	sb = sb.OrderBy(t.orderBy)
	if q.Limit > 0 {
		sb = sb.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		sb = sb.Offset(uint64(q.Offset))
	}
	return sb, nil
}

// applyFilters adds WHERE clauses for filters. Only selected columns may be
// filtered on.
func (t listTable) applyFilters(q squirrel.SelectBuilder, filters []filter.Item) (squirrel.SelectBuilder, error) {
	validCols := make(map[string]bool, len(t.selectCols))
	for _, col := range t.selectCols {
		validCols[col] = true
	}
	delete(validCols, "device_id")

	for _, item := range filters {
		if !validCols[item.Field] {
			return q, fmt.Errorf("invalid filter column: %s", item.Field)
		}

		switch item.Operator {
		case filter.Equal, filter.InList:
			q = q.Where(squirrel.Eq{item.Field: item.Value})
		case filter.NotEqual:
			q = q.Where(squirrel.NotEq{item.Field: item.Value})
		case filter.LessOrEqual:
			q = q.Where(squirrel.LtOrEq{item.Field: item.Value})
		case filter.GreaterOrEqual:
			q = q.Where(squirrel.GtOrEq{item.Field: item.Value})
		case filter.IsNull:
			q = q.Where(squirrel.Eq{item.Field: nil})
		case filter.IsNotNull:
			q = q.Where(squirrel.NotEq{item.Field: nil})
		case filter.Contains:
			q = q.Where(squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)})
		default:
			return q, fmt.Errorf("unsupported filter operator: %s", item.Operator)
		}
	}
	return q, nil
}
