// Package retry provides the backoff policy shared by every paginated source.
//
// A Policy wraps cenkalti/backoff with a bounded number of attempts and an
// exponential delay. Errors marked with Permanent stop the loop at once;
// everything else is treated as transient and retried until the attempts
// run out or the context is cancelled.
//
// # Usage
//
//	p := retry.NewPolicy(retry.Config{MaxAttempts: 5, BaseDelay: 200 * time.Millisecond})
//	page, err := retry.DoWithResult(ctx, p, func() (Page, error) {
//	    return src.Fetch(ctx, cursor)
//	})
package retry
