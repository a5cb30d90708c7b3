// Package server holds the HTTP server configuration.
//
// The serve command exposes health, metrics and report endpoints with Fiber;
// this package only describes where it listens and whether requests need the
// x-api-key header.
package server
