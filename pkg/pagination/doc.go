// Package pagination drains PokeAPI-style paginated listings and fans out
// per-item fetches through a bounded worker pool.
//
// PokeAPI listings are linked lists: every page carries a "next" URL until
// the last page, which carries null. Pages therefore have to be fetched one
// after another; Walk does that and returns the concatenated results in
// page order.
//
// Once the listing is known, the per-item detail documents are independent.
// BatchFetcher runs them with at most MaxConcurrency requests in flight:
//
//	bf := pagination.NewBatchFetcher(pagination.DefaultConfig())
//	out := make([]Detail, len(urls))
//	err := bf.FetchAll(ctx, len(urls), func(ctx context.Context, i int) error {
//		return api.GetJSON(ctx, urls[i], &out[i])
//	})
//
// The batch fetcher:
//   - never runs more than MaxConcurrency callbacks at once (1 = serial)
//   - bounds each callback with Timeout
//   - cancels outstanding work on the first error and returns that error
//   - leaves ordering to the caller, who writes results by index
package pagination
