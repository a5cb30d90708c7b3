// Package config loads the application configuration.
//
// Values come from environment variables (SECTION_KEY, e.g. STORAGE_STACK_NAME)
// and an optional .env file, with defaults taken from the `default` struct
// tags of each section:
//   - Server: HTTP port and API key
//   - Log: level and format
//   - Storage: MinIO/S3 endpoint, system bucket and stack name
//   - Database: driver and connection details
//   - Catalog: CMR endpoint, provider and credentials
//   - Reconcile: comparisons to run, page and sample sizes, retry tuning
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config
