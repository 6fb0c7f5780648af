package storage

import "time"

// DatabaseRecord is one registry row: a built compilation database without its commands.
type DatabaseRecord struct {
	ID            int64
	Name          string    // Output file name without extension
	SourceBuild   string    // Identifier of the build description
	Directory     string    // Output directory
	Configuration string
	Platform      string
	LastUpdated   time.Time // Zero when unknown or unparsable
	IncludedUnits []string  // Unit names, in build order
}
