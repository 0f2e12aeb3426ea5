package database

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
)

type index struct {
	table   string
	name    string
	columns string
	unique  bool
	where   string
}

// indexes lists what AutoMigrate cannot express through struct tags.
var indexes = []index{
	{table: "jobs", name: "idx_jobs_user_status", columns: "user_id, status"},
	{table: "schedules", name: "idx_schedules_user_date", columns: "user_id, date"},
	{table: "time_records", name: "idx_time_records_user_date", columns: "user_id, date"},

	// At most one open record per user.
	{table: "time_records", name: "idx_time_records_one_open", columns: "user_id", unique: true, where: "clock_out IS NULL"},
}

// supportsPartialIndexes reports whether the dialect accepts CREATE INDEX ... WHERE.
func supportsPartialIndexes(db *gorm.DB) bool {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
		return true
	default:
		return false
	}
}

// AddIndexes adds performance-critical and constraint indexes to the database
func AddIndexes(db *gorm.DB) error {
	for _, idx := range indexes {
		if idx.where != "" && !supportsPartialIndexes(db) {
			slog.Warn("partial index not supported, relying on per-user lock",
				"index", idx.name, "dialect", db.Dialector.Name())
			continue
		}

		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}

		stmt := "CREATE INDEX"
		if idx.unique {
			stmt = "CREATE UNIQUE INDEX"
		}
		sql := fmt.Sprintf("%s %s ON %s (%s)", stmt, idx.name, idx.table, idx.columns)
		if idx.where != "" {
			sql += " WHERE " + idx.where
		}
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		slog.Info("created index", "index", idx.name, "table", idx.table, "columns", idx.columns)
	}

	return nil
}

// MigrateDatabase runs the migrations that follow AutoMigrate
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
