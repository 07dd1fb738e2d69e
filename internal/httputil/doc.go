// Package httputil provides the HTTP helpers the HTTP backend builds on.
//
// # Overview
//
//   - [Cache]: File-based HTTP response caching
//   - [Retry]: Retry with exponential backoff
//
// # Caching
//
// [Cache] stores JSON-encoded values as files in a directory (by default
// ~/.cache/corvid/) with a TTL the caller chooses. An entry older than the
// TTL is reported as [ErrExpired]; a TTL of zero never expires entries.
//
// Usage:
//
//	cache, err := httputil.NewCache("", 24*time.Hour)
//	var page Page
//	ok, err := cache.Get("https://example.test/", &page) // Check cache
//	if !ok {
//	    page = fetchPage()
//	    err = cache.Set("https://example.test/", page) // Store for later
//	}
//
// [Cache.Namespace] returns a view whose keys all carry a fixed prefix, so
// callers sharing one directory do not collide on keys.
//
// # Retry
//
// [Retry] calls a function up to a given number of attempts. Only errors
// wrapped with [Retryable] (or [RetryableError]) are retried; any other
// error is returned at once, so the caller decides which failures are
// transient (the HTTP backend wraps network errors and 5xx responses).
// The delay doubles after each failed attempt; no jitter is added:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := http.Get(url)
//	    if err != nil {
//	        return httputil.Retryable(err)
//	    }
//	    defer resp.Body.Close()
//	    return nil
//	})
//
// # Defaults
//
//   - Cache directory when none is given: ~/.cache/corvid/
//   - [RetryWithBackoff]: 3 attempts, base backoff 1 second
//
// The cache is cleared by deleting the cache directory.
package httputil
