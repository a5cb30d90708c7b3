// Package middleware groups the Fiber middleware used by the serve command.
//
//   - auth: rejects requests without the configured X-API-Key.
//   - rayid: tags every request with an X-Ray-ID for log correlation.
package middleware
