// Package pager drives a download run.
//
// A run asks the search API for page N, downloads every post on it, then asks for
// page N+1, and so on until a page comes back empty. Pages are strictly sequential:
// the next search is issued only after every download of the current page has
// finished. There is no page cap other than exhaustion.
//
// Failures are split in two tiers:
//   - fatal: the search call fails or the output directory cannot be created; Run
//     returns the error
//   - skipped: a single file fails to download; it is logged and counted in the
//     Summary, and the run continues
//
// Usage:
//
//	p := pager.New(client, dl, m, log)
//	summary, err := p.Run(ctx, booru.SearchRequest{Tags: []string{"cat"}})
package pager
