// Package mcp implements the Model Context Protocol (MCP) server for the API
// symbol search engine.
//
// The MCP server exposes three tools to AI coding assistants:
//   - search_api_symbols: ranked, paginated symbol search
//   - index_symbols: load a Go source tree or a symbol dump
//   - get_status: database statistics and cache state
//
// # Transports
//
// The transport comes from server.transport:
//
//	stdio  JSON-RPC over standard input/output (default)
//	sse    Server-Sent Events on server.addr
//	http   streamable HTTP on server.addr
//
// With stdio, stdout carries the protocol, so all logging goes to stderr.
//
// # Tool: search_api_symbols
//
//	Request:
//	{
//	  "name": "search_api_symbols",
//	  "arguments": {
//	    "query": "GetActor",
//	    "searchIndex": 0,
//	    "maxBatchResults": 50,
//	    "includeDocs": true,
//	    "kinds": ["method"],
//	    "source": "native"
//	  }
//	}
//
//	Response:
//	{
//	  "query": "GetActor",
//	  "searchIndex": 0,
//	  "nextSearchIndex": 50,
//	  "remainingCount": 12,
//	  "total": 62,
//	  "returned": 50,
//	  "truncated": true,
//	  "items": [
//	    {
//	      "signature": "FVector GetActorLocation() const",
//	      "docs": "Returns the location of the RootComponent of this Actor",
//	      "type": "function",
//	      "data": {"id": 17, "owner": "AActor", "name": "GetActorLocation"}
//	    }
//	  ]
//	}
//
// Pages of one query are served from the result cache, so following
// nextSearchIndex yields every result exactly once while the entry lives.
// labelQueryUseRegex treats the query as a regular expression over result
// labels and signatureRegex filters on the rendered signature; both accept
// "/pattern/flags".
//
// # Tool: index_symbols
//
//	Request:
//	{
//	  "name": "index_symbols",
//	  "arguments": {
//	    "path": "/path/to/project",
//	    "include_tests": false,
//	    "exclude": ["internal/generated/**"]
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "sources_indexed": 42,
//	  "sources_skipped": 3,
//	  "sources_failed": 0,
//	  "sources_removed": 0,
//	  "symbols_extracted": 1876,
//	  "duration_ms": 412
//	}
//
// The path may also name a .yaml, .yml or .json symbol dump. A successful
// run clears the search cache and reloads the symbol snapshot.
//
// # Tool: get_status
//
//	Response:
//	{
//	  "indexed": true,
//	  "statistics": {"sources": 45, "namespaces": 12, "types": 310, ...},
//	  "cache": {"entries": 4, "ttl_seconds": 300},
//	  "indexing": false,
//	  "last_indexed_at": "2026-10-18T09:12:44Z",
//	  "schema_version": "1.0.0",
//	  "build_mode": "purego"
//	}
//
// # Errors
//
// Failed calls return a tool result with isError set and a JSON body:
//
//	{
//	  "ok": false,
//	  "error": {
//	    "code": "INVALID_SEARCH_INDEX",
//	    "message": "searchIndex 5 is out of range",
//	    "details": {"received": 5, "total": 3, "validRange": {"min": 0, "max": 2}}
//	  }
//	}
//
// Codes:
//   - MISSING_LABEL_QUERY, INVALID_SEARCH_INDEX, INVALID_MAX_BATCH_RESULTS
//   - INVALID_KINDS, INVALID_SOURCE, INVALID_REGEX
//   - INVALID_PATH, INVALID_ARGUMENT, INDEX_IN_PROGRESS
//   - INTERNAL_ERROR (details.cause carries the underlying error)
package mcp
