package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BuildsTotal counts finished builds by final state
	BuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compdb_builds_total",
		Help: "Total database builds by final state",
	}, []string{"state"})

	// BuildDuration tracks wall time of a build
	BuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "compdb_build_duration_seconds",
		Help:    "Database build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
	})

	// UnitsProcessed counts units by outcome (ok, failed, skipped)
	UnitsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "compdb_units_processed_total",
		Help: "Total units processed by outcome",
	}, []string{"outcome"})

	// CommandsEmitted counts compile commands pushed to the output
	CommandsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compdb_commands_emitted_total",
		Help: "Total compile commands emitted",
	})

	// ItemsSkipped counts file items dropped because of an error
	ItemsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compdb_items_skipped_total",
		Help: "Total file items skipped after an error",
	})

	// WriterMessagesWritten counts messages appended to the output file
	WriterMessagesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compdb_writer_messages_written_total",
		Help: "Total messages written by the async writer",
	})

	// WriterMessagesDropped counts messages lost to failed batches or late pushes
	WriterMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compdb_writer_messages_dropped_total",
		Help: "Total messages dropped by the async writer",
	})

	// WriterBatchesDropped counts batches cut short by a write error
	WriterBatchesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "compdb_writer_batches_dropped_total",
		Help: "Total writer batches abandoned after a write error",
	})

	// RegistryEntries reports the number of known databases
	RegistryEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "compdb_registry_entries",
		Help: "Number of databases in the registry",
	})
)
