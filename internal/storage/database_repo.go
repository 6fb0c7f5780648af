package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// DatabaseRepo provides methods for registry rows.
type DatabaseRepo struct {
	db *sql.DB
}

// NewDatabaseRepo creates a new DatabaseRepo.
func NewDatabaseRepo(db *sql.DB) *DatabaseRepo {
	return &DatabaseRepo{db: db}
}

// ListAll returns all records in insertion order, each with its units.
func (r *DatabaseRepo) ListAll(ctx context.Context) ([]DatabaseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.id, d.name, d.source_build, d.directory, d.configuration, d.platform, d.last_updated, u.unit
		 FROM databases d
		 LEFT JOIN database_units u ON u.database_id = d.id
		 ORDER BY d.id, u.position`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query databases: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []DatabaseRecord
	for rows.Next() {
		var rec DatabaseRecord
		var lastUpdated string
		var unit sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.SourceBuild, &rec.Directory,
			&rec.Configuration, &rec.Platform, &lastUpdated, &unit); err != nil {
			return nil, fmt.Errorf("failed to scan database: %w", err)
		}

		// Rows of the same database are adjacent
		if n := len(records); n > 0 && records[n-1].ID == rec.ID {
			if unit.Valid {
				records[n-1].IncludedUnits = append(records[n-1].IncludedUnits, unit.String)
			}
			continue
		}

		rec.LastUpdated = parseTime(lastUpdated)
		if unit.Valid {
			rec.IncludedUnits = []string{unit.String}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// ReplaceAll overwrites every stored record with records in one transaction.
func (r *DatabaseRepo) ReplaceAll(ctx context.Context, records []DatabaseRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM databases"); err != nil {
		return fmt.Errorf("failed to clear databases: %w", err)
	}

	for _, rec := range records {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO databases (name, source_build, directory, configuration, platform, last_updated)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			rec.Name, rec.SourceBuild, rec.Directory, rec.Configuration, rec.Platform, formatTime(rec.LastUpdated),
		)
		if err != nil {
			return fmt.Errorf("failed to insert database %s: %w", rec.Name, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get database id: %w", err)
		}

		for i, unit := range rec.IncludedUnits {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO database_units (database_id, position, unit) VALUES (?, ?, ?)",
				id, i, unit,
			); err != nil {
				return fmt.Errorf("failed to insert unit %s: %w", unit, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts RFC3339 and SQLite's DATETIME format. Anything else is the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
