package option

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/medbill/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryFunc func(db *gorm.DB) *gorm.DB

func (f queryFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// QuerySortBy describes a client supplied ordering restricted to Allow.
type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// WithQuerySortBy builds a QuerySortBy from raw query parameters.
func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		SortBy:  strings.ToLower(strings.TrimSpace(sortBy)),
		OrderBy: strings.ToLower(strings.TrimSpace(orderBy)),
		Allow:   allow,
	}
}

// WithSortBy orders by the requested column when allowed, else by id descending.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		column := sort.SortBy
		if column == "" || !sort.Allow[column] {
			return db.Order("id DESC")
		}
		direction := "DESC"
		if sort.OrderBy == "asc" {
			direction = "ASC"
		}
		return db.Order(column + " " + direction).Order("id DESC")
	})
}

// ApplyPagination applies keyset pagination on id. One extra row is fetched so
// callers can tell whether another page exists.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if token := strings.TrimSpace(p.PageToken); token != "" {
			if cursor, err := pagination.DecodeCursor(token); err == nil {
				if id, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
					db = db.Where("id < ?", id)
				}
			}
		}
		return db.Limit(p.Limit() + 1)
	})
}

// Equal adds an equality predicate when value is non-empty.
func Equal(column, value string) QueryOption {
	return queryFunc(func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(value) == "" {
			return db
		}
		return db.Where(column+" = ?", strings.TrimSpace(value))
	})
}
