// Package catalog is a client for the CMR search API.
//
// Client lists a provider's collections and granules through the UMM JSON
// search endpoints, one page per call. Paging state lives in Position,
// which callers encode into their own cursors; the CMR-Search-After header
// is forwarded whenever the catalog returns one.
//
// Credentials are either a static token or a username and password that are
// exchanged for a token on first use. Concurrent searches share one login.
//
// Failures are classified for the retry policy: 401, 403, 400 and
// undecodable bodies are wrapped with retry.Permanent; 429, 5xx and network
// errors are returned as is so they are retried.
package catalog
