// RetroVue - Linear Broadcast Scheduling and Playout Automation
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/slbailey/retrovue

package database

import (
	"context"
	"database/sql"
	"strings"
)

// queryBuilder helps construct SQL queries with filters.
type queryBuilder struct {
	baseQuery string
	args      []interface{}
	filters   []string
}

// newQueryBuilder creates a new query builder with a base query.
func newQueryBuilder(baseQuery string) *queryBuilder {
	return &queryBuilder{
		baseQuery: baseQuery,
		args:      make([]interface{}, 0, 8),
		filters:   make([]string, 0, 4),
	}
}

// addStandardFilters applies PlaylogEventFilter's channel and date-range
// conditions onto the builder, for queries that want to compose them with
// further ad hoc filters via addFilter.
func (qb *queryBuilder) addStandardFilters(filter PlaylogEventFilter) *queryBuilder {
	cond, args := filter.buildFilterConditions()
	if cond != "" {
		qb.filters = append(qb.filters, strings.TrimPrefix(cond, " AND "))
		qb.args = append(qb.args, args...)
	}
	return qb
}

// addFilter adds a custom filter condition.
func (qb *queryBuilder) addFilter(condition string, args ...interface{}) {
	qb.filters = append(qb.filters, condition)
	qb.args = append(qb.args, args...)
}

// addLimit adds a LIMIT clause argument (does not use the filters slice;
// callers must include "LIMIT ?" in the suffix passed to build).
func (qb *queryBuilder) addLimit(limit int) *queryBuilder {
	qb.args = append(qb.args, limit)
	return qb
}

// build constructs the final query and returns it with args.
func (qb *queryBuilder) build(suffix string) (string, []interface{}) {
	query := qb.baseQuery
	if len(qb.filters) > 0 {
		query += " AND " + strings.Join(qb.filters, " AND ")
	}
	if suffix != "" {
		query += " " + suffix
	}
	return query, qb.args
}

// scanFunc scans a single row into a result type.
type scanFunc[T any] func(*sql.Rows) (T, error)

// queryAndScan executes a query and scans all rows using the provided scan function.
func queryAndScan[T any](ctx context.Context, db *sql.DB, query string, args []interface{}, scan scanFunc[T]) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
