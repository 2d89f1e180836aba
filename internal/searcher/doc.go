// Package searcher serves paginated API symbol searches.
//
// A search runs the symbol walker once per distinct query and keeps the full
// ranked match set in a ResultCache, so later pages of the same query are
// cheap slices of the cached set. Only the returned page is enriched with
// signatures and documentation.
//
// # Basic Usage
//
//	cache, _ := searcher.NewResultCache(searcher.DefaultCacheCapacity, searcher.DefaultCacheTTL)
//	s := searcher.New(walker.NewProvider(store, walker.DefaultExclusions()), store, cache, searcher.Options{}, logger)
//
//	q := "GetActor"
//	page, err := s.Search(ctx, searcher.SearchRequest{Query: &q})
//	for page.NextSearchIndex != nil {
//	    page, err = s.Search(ctx, searcher.SearchRequest{Query: &q, SearchIndex: *page.NextSearchIndex})
//	}
//
// # Cache Keys
//
// The key combines the lowercased, trimmed query, the sorted kind filter,
// the source filter and the regex mode:
//
//	getactor|class,method|native
//	^aactor\.||both|re
//
// Entries expire a fixed TTL after their last hit. A full cache evicts its
// least recently used entry. Concurrent misses on one key share a single
// walker pass.
//
// # Post-filters
//
// LabelQueryUseRegex treats the query as a regular expression over result
// labels. SignatureRegex filters on the parsed signature and therefore
// fetches details for the whole match set before paginating. Both accept
// the literal form "/pattern/flags"; other text is matched case-insensitively.
//
// # Errors
//
// Validation failures are *types.SearchError values with the codes
// INVALID_SEARCH_INDEX, INVALID_MAX_BATCH_RESULTS, MISSING_LABEL_QUERY,
// INVALID_KINDS, INVALID_SOURCE and INVALID_REGEX. Details carry the valid
// range or values so a caller can correct the request. A failing symbol
// provider yields INTERNAL_ERROR; a failing detail provider only degrades
// signatures to labels.
package searcher
