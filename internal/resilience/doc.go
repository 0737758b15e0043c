// Package resilience groups the fault tolerance helpers used on the worker's
// outbound calls.
//
//   - retry: bounded attempts with fixed or exponential delay, used around
//     catalog page fetches
//   - circuitbreaker: gobreaker wrapper that stops hammering the catalog
//     once it keeps failing
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.CatalogFetchConfig())
//	err := retry.WithBackoff(ctx, retry.CatalogFetchConfig(), func() error {
//	    return cb.Call(func() error { return fetchPage(ctx, url) })
//	})
package resilience
