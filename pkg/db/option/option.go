// Package option holds composable query modifiers for the generic repository.
package option

import (
	"time"

	"gorm.io/gorm"
)

// QueryOption mutates a query before it runs.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type applyFunc func(db *gorm.DB) *gorm.DB

func (f applyFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// ApplyLimit caps the number of rows. Non-positive limits are ignored.
func ApplyLimit(limit int) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// ApplyOrder adds an ORDER BY clause, for example "timestamp DESC".
func ApplyOrder(order string) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		if order == "" {
			return db
		}
		return db.Order(order)
	})
}

// ApplyBetween restricts column to the closed range [from, to].
func ApplyBetween(column string, from, to time.Time) QueryOption {
	return applyFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" >= ? AND "+column+" <= ?", from, to)
	})
}
