// Package report runs inventory reconciliations for a deployment.
//
// Service reads the deployment's bucket map, builds the files, collections
// and granules comparisons from configuration and hands them to the
// reconcile engine, which writes the report through core/reportstore.
//
// # HTTP Endpoints
//
//   - POST /reports : run a reconciliation and return the report
//   - GET /reports : list stored report names
//   - GET /reports/:name : fetch one report
//   - DELETE /reports/:name : delete one report
package report
