// Package metrics holds the Prometheus instrumentation for the backend.
// Exposing the registry over HTTP is the embedding service's concern.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesRun counts invocations of the generation cycle.
	CyclesRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_cycles_total",
		Help: "Number of generation cycles that have run.",
	})

	// EntriesGenerated counts ledger entries created by the scheduler.
	EntriesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_entries_generated_total",
		Help: "Number of ledger entries generated from recurring rules.",
	})

	// DuplicatesSkipped counts occurrences that were already generated and
	// only had their rule state advanced.
	DuplicatesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_duplicates_skipped_total",
		Help: "Number of occurrences skipped by the idempotence guard.",
	})

	// RuleFailures counts rules that failed during a cycle and will be
	// retried on the next one.
	RuleFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_rule_failures_total",
		Help: "Number of per-rule failures during generation cycles.",
	})

	// RemindersFlagged counts rules marked as reminded by the reminder sweep.
	RemindersFlagged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recurrence_reminders_flagged_total",
		Help: "Number of upcoming payment reminders flagged.",
	})
)
