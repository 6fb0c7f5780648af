package builder

import (
	"math"
	"sort"
	"time"
)

// Summary describes a finished run.
type Summary struct {
	// Units is the number of units submitted.
	Units int `json:"units"`
	// UnitsProcessed is the number of units that ran to completion.
	UnitsProcessed int `json:"units_processed"`
	// UnitsFailed is the number of units whose items could not be enumerated.
	UnitsFailed int `json:"units_failed"`
	// IncompleteUnits is the number of units only partly enumerated.
	IncompleteUnits int `json:"incomplete_units"`
	// Commands is the number of commands written.
	Commands int `json:"commands"`
	// DuplicateCommands is the number of commands dropped because their file was already emitted.
	DuplicateCommands int `json:"duplicate_commands"`
	// SkippedItems is the number of file items dropped after an error.
	SkippedItems int `json:"skipped_items"`
	// HeaderDirs are the directories of every header seen, de-duplicated.
	HeaderDirs []string `json:"header_dirs,omitempty"`
	// FallbackCompilers is the number of units that used the default compiler version.
	FallbackCompilers int `json:"fallback_compilers"`
	// CommandStats contains statistics about commands per unit.
	CommandStats CommandStats `json:"command_stats"`
	// Duration is the wall time of the run.
	Duration time.Duration `json:"duration"`
}

// CommandStats contains statistics about the number of commands per unit.
type CommandStats struct {
	// Min is the smallest command count of a unit.
	Min int `json:"min"`
	// Max is the largest command count of a unit.
	Max int `json:"max"`
	// Mean is the mean command count per unit.
	Mean float64 `json:"mean"`
	// P95 is the 95th percentile command count.
	P95 int `json:"p95"`
}

// computeCommandStats computes min, max, mean, and p95 from per-unit counts.
func computeCommandStats(counts []int) CommandStats {
	if len(counts) == 0 {
		return CommandStats{}
	}

	// Sort for percentile calculation
	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	lowest := sorted[0]
	highest := sorted[len(sorted)-1]

	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}
	p95 := sorted[p95Index]

	return CommandStats{
		Min:  lowest,
		Max:  highest,
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  p95,
	}
}
