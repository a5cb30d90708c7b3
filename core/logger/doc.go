// Package logger builds the zap logger used across the module.
//
// Level and encoding come from configuration; console output is meant for
// operators running the CLI, json for the server and scheduled runs.
//
// WithRayID attaches the request's ray ID (set by the rayid middleware) so
// that every line logged while serving one HTTP request can be correlated.
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Reconciliation report written", zap.String("key", key))
package logger
