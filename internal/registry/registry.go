package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"compdb/internal/compdb"
	"compdb/internal/contextutil"
	"compdb/internal/metrics"
)

// ErrNotFound is returned when no entry matches.
var ErrNotFound = errors.New("database not found")

// Entry is the metadata of a built compilation database, without commands.
type Entry struct {
	Name              string
	SourceBuild       string
	Directory         string
	LastUpdated       time.Time // Zero when the output file is missing
	IncludedUnits     []string
	ConfigurationName string
	PlatformName      string
}

// EntryFrom returns the registry entry describing db.
func EntryFrom(db *compdb.CompilationDatabase) Entry {
	return Entry{
		Name:              db.Name,
		SourceBuild:       db.SourceBuild,
		Directory:         compdb.NormalizePath(db.Directory),
		LastUpdated:       db.LastUpdated,
		IncludedUnits:     slices.Clone(db.IncludedUnits),
		ConfigurationName: db.ConfigurationName,
		PlatformName:      db.PlatformName,
	}
}

// OutputPath returns the path of the database file.
func (e Entry) OutputPath() string {
	return compdb.OutputPath(e.Directory, e.Name)
}

// Stale reports whether the entry carries the missing-file signal.
func (e Entry) Stale() bool {
	return e.LastUpdated.IsZero()
}

func (e Entry) sameKey(o Entry) bool {
	return e.SourceBuild == o.SourceBuild &&
		compdb.NormalizePath(e.Directory) == compdb.NormalizePath(o.Directory) &&
		e.Name == o.Name
}

// Store persists registry entries.
type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Registry is the in-memory index of built databases backed by a Store.
// It is safe for concurrent use.
type Registry struct {
	store Store

	mu      sync.RWMutex
	entries []Entry
	// recorded holds the stored LastUpdated of entries[i]. The entries
	// themselves carry the value computed against the disk.
	recorded []time.Time
}

// New creates an empty Registry. Call Refresh to load the store.
func New(store Store) *Registry {
	return &Registry{store: store}
}

// Refresh reloads every entry from the store. Entries whose output file is
// gone get a zero LastUpdated; the stored timestamp is kept for Save.
func (r *Registry) Refresh(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	entries, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	recorded := make([]time.Time, len(entries))
	for i := range entries {
		recorded[i] = entries[i].LastUpdated
		if !fileExists(entries[i].OutputPath()) {
			if !entries[i].LastUpdated.IsZero() {
				logger.DebugContext(ctx, "database output missing", "path", entries[i].OutputPath())
			}
			entries[i].LastUpdated = time.Time{}
		}
	}

	r.mu.Lock()
	r.entries = entries
	r.recorded = recorded
	r.mu.Unlock()

	metrics.RegistryEntries.Set(float64(len(entries)))
	return nil
}

// AppendOrUpdate inserts e, replacing an entry with the same
// (SourceBuild, Directory, Name) key.
func (r *Registry) AppendOrUpdate(e Entry) {
	e.Directory = compdb.NormalizePath(e.Directory)

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		if r.entries[i].sameKey(e) {
			r.entries[i] = e
			r.recorded[i] = e.LastUpdated
			return
		}
	}
	r.entries = append(r.entries, e)
	r.recorded = append(r.recorded, e.LastUpdated)
	metrics.RegistryEntries.Set(float64(len(r.entries)))
}

// MostRecentFor returns the entry of sourceBuild with the latest LastUpdated.
func (r *Registry) MostRecentFor(sourceBuild string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Entry
	for i := range r.entries {
		e := &r.entries[i]
		if e.SourceBuild != sourceBuild {
			continue
		}
		if best == nil || e.LastUpdated.After(best.LastUpdated) {
			best = e
		}
	}
	if best == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, sourceBuild)
	}
	return cloneEntry(*best), nil
}

// ExistsFor reports whether sourceBuild has an entry whose output file is on disk.
func (r *Registry) ExistsFor(sourceBuild string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.SourceBuild == sourceBuild && fileExists(e.OutputPath()) {
			return true
		}
	}
	return false
}

// Entries returns a copy of all entries.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = cloneEntry(e)
	}
	return out
}

// Directories returns the distinct output directories of all entries.
func (r *Registry) Directories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dirs []string
	for _, e := range r.entries {
		if !slices.Contains(dirs, e.Directory) {
			dirs = append(dirs, e.Directory)
		}
	}
	return dirs
}

// Save writes all entries to the store, overwriting its contents. The
// missing-file signal is never written: each entry keeps the timestamp it
// was recorded with.
func (r *Registry) Save(ctx context.Context) error {
	entries := r.persisted()
	if err := r.store.Save(ctx, entries); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "registry saved", "entries", len(entries))
	return nil
}

func (r *Registry) persisted() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = cloneEntry(e)
		out[i].LastUpdated = r.recorded[i]
	}
	return out
}

func cloneEntry(e Entry) Entry {
	e.IncludedUnits = slices.Clone(e.IncludedUnits)
	return e
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
