// Package granules compares the granules table with the granules the
// catalog lists for the provider.
//
// The database side is keyed by granuleId and carries the granule's
// collection (name___version, from a join on collections) and processing
// status for the report. The catalog side is keyed by GranuleUR.
package granules
