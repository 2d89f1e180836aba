// Package indexer loads API symbols into storage from Go source trees and
// engine symbol dumps.
//
// # Basic Usage
//
//	idx := indexer.New(store, logger)
//
//	stats, err := idx.IndexPath(ctx, "/path/to/project", &indexer.Config{
//	    IncludeTests: false,
//	    Exclude:      []string{"internal/generated/**"},
//	})
//
//	fmt.Printf("Indexed %d sources in %v\n", stats.SourcesIndexed, stats.Duration)
//
// # Sources
//
// A directory is walked for Go packages. Each package directory is one
// source and becomes a namespace named after its path relative to the root
// ("internal/store" becomes "internal::store"); the root package takes its
// package name. Hidden, testdata and vendor directories are skipped.
//
// A .yaml, .yml or .json file is a symbol dump:
//
//	language: angelscript
//	origin: native
//	namespaces:
//	  - name: UE::Math
//	    types:
//	      - name: FVector
//	        kind: struct
//	        methods:
//	          - name: Size
//	            return: float
//	            const: true
//	    variables:
//	      - name: PI
//	        type: float
//	        constant: true
//
// Static methods of a type are stored in the namespace named after the type.
// Missing signatures are rendered from the declaration.
//
// # Pipeline
//
//  1. Discover: list packages or the dump, apply exclude globs
//  2. Prepare: read, hash and parse sources in parallel (errgroup)
//  3. Store: replace the rows of changed sources in batched transactions
//  4. Prune: remove Go sources that disappeared from the tree
//
// Sources whose SHA-256 content hash is unchanged are skipped. Only one run
// may be active per Indexer; a concurrent call gets ErrIndexInProgress.
package indexer
