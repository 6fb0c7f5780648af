package registry

import (
	"context"
	"database/sql"
	"fmt"

	"compdb/internal/storage"
)

// SQLiteStore keeps the registry in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	repo *storage.DatabaseRepo
}

// OpenSQLiteStore opens (and migrates) the SQLite registry at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := storage.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry database: %w", err)
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate registry database: %w", err)
	}
	return &SQLiteStore{db: db, repo: storage.NewDatabaseRepo(db)}, nil
}

// Load returns every stored entry.
func (s *SQLiteStore) Load(ctx context.Context) ([]Entry, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			Name:              rec.Name,
			SourceBuild:       rec.SourceBuild,
			Directory:         rec.Directory,
			LastUpdated:       rec.LastUpdated,
			IncludedUnits:     rec.IncludedUnits,
			ConfigurationName: rec.Configuration,
			PlatformName:      rec.Platform,
		})
	}
	return entries, nil
}

// Save replaces the stored entries.
func (s *SQLiteStore) Save(ctx context.Context, entries []Entry) error {
	records := make([]storage.DatabaseRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, storage.DatabaseRecord{
			Name:          e.Name,
			SourceBuild:   e.SourceBuild,
			Directory:     e.Directory,
			Configuration: e.ConfigurationName,
			Platform:      e.PlatformName,
			LastUpdated:   e.LastUpdated,
			IncludedUnits: e.IncludedUnits,
		})
	}
	return s.repo.ReplaceAll(ctx, records)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
