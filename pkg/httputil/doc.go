// Package httputil provides HTTP plumbing shared by the upstream clients.
//
// # Overview
//
//   - [Doer]: the request capability injected into every client
//   - [Policy]: retry bound and backoff for transient failures
//   - [Retry]: runs an operation under a Policy
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried: transport failures,
// per-request timeouts, 5xx responses and 429 rate limits. Everything else
// (404, malformed locators, decode errors) is returned on the first attempt.
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy(), func(attempt int) error {
//	    return fetch(ctx)
//	})
//
// The caller's context bounds the whole loop. A cancelled context stops the
// backoff wait and no further attempt is made.
//
// # Defaults
//
//   - Per-request timeout: 10 seconds
//   - Attempts: 3
//   - Base backoff: 1 second, doubling
package httputil
