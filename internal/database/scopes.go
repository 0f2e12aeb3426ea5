package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/timecard-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params.Limit <= 0 {
			return db
		}
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// DateBetween restricts a query to column values inside [from, to]. Empty
// bounds are ignored.
func DateBetween(column, from, to string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if from != "" {
			db = db.Where(column+" >= ?", from)
		}
		if to != "" {
			db = db.Where(column+" <= ?", to)
		}
		return db
	}
}
