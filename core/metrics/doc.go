// Package metrics exposes Prometheus collectors for reconciliation runs.
//
// A Recorder is created once per process against a registry and passed to
// the engine and the source streams. All methods are safe on a nil
// *Recorder, so tests and one-shot CLI runs can skip metrics entirely.
//
// # Collectors
//
//   - inventory_reconcile_runs_total{status}
//   - inventory_reconcile_comparison_duration_seconds{comparison,status}
//   - inventory_reconcile_discrepancies{comparison,side}
//   - inventory_reconcile_matched{comparison}
//   - inventory_reconcile_source_pages_total{source}
//   - inventory_reconcile_source_retries_total{source}
package metrics
