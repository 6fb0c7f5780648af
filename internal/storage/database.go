package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Registry writes are rare; one connection keeps the pragma in effect
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS databases (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			source_build TEXT NOT NULL,
			directory TEXT NOT NULL,
			configuration TEXT NOT NULL DEFAULT '',
			platform TEXT NOT NULL DEFAULT '',
			last_updated TEXT NOT NULL DEFAULT '',
			UNIQUE (source_build, directory, name)
		);`,
		`CREATE TABLE IF NOT EXISTS database_units (
			database_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			unit TEXT NOT NULL,
			PRIMARY KEY (database_id, position),
			FOREIGN KEY (database_id) REFERENCES databases(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_databases_source_build ON databases(source_build);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
