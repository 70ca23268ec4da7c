package option

import (
	"strings"

	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type sortBy struct {
	expr string
}

func (o sortBy) Apply(db *gorm.DB) *gorm.DB {
	if o.expr == "" {
		return db
	}
	return db.Order(o.expr)
}

// WithSortBy applies an ORDER BY expression built by WithQuerySortBy.
func WithSortBy(expr string) QueryOption {
	return sortBy{expr: expr}
}

type limit struct {
	n int
}

func (o limit) Apply(db *gorm.DB) *gorm.DB {
	if o.n <= 0 {
		return db
	}
	return db.Limit(o.n)
}

func WithLimit(n int) QueryOption {
	return limit{n: n}
}

// WithQuerySortBy validates a user-supplied sort column against a
// whitelist and normalizes the direction. Unknown columns fall back to
// created_at so a query string can never inject arbitrary SQL.
func WithQuerySortBy(column, order string, allowed map[string]bool) string {
	if !allowed[column] {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(order, "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}
