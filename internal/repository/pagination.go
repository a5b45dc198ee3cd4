package repository

import (
	"context"
	"fmt"

	"evinventory/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Count returns the number of rows the dataset would select, ignoring any
// order, limit or offset already applied.
func Count(ctx context.Context, ds *goqu.SelectDataset) (int, error) {
	var total int
	_, err := ds.ClearOrder().ClearLimit().ClearOffset().
		Select(goqu.COUNT(goqu.Star())).
		Executor().ScanValContext(ctx, &total)
	if err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return total, nil
}

// Page orders the dataset by the column mapped from p.SortBy and applies
// limit and offset. p must already be normalized.
func Page(ds *goqu.SelectDataset, p models.Pagination, sortColumns map[string]string) *goqu.SelectDataset {
	column, ok := sortColumns[p.SortBy]
	if !ok {
		column = p.SortBy
	}

	var order exp.OrderedExpression
	if p.SortOrder == models.SortAsc {
		order = goqu.I(column).Asc()
	} else {
		order = goqu.I(column).Desc()
	}

	return ds.Order(order).Limit(uint(p.Limit)).Offset(uint(p.Offset()))
}
