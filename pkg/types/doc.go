// Package types provides shared type definitions for the API symbol search server.
//
// # Search Results
//
// SymbolResult is one match produced by the symbol walker. Its Payload is a
// closed sum type; each variant carries its own named fields:
//
//	TypePayload       class, struct or enum (Name, Namespace, Kind)
//	FunctionPayload   method owned by a type (ID, Owner, Name, Constructor)
//	PropertyPayload   property owned by a type (ID, Owner, Name)
//	GlobalPayload     free function or global variable (ID, Namespace, Name, Variable)
//	NamespacePayload  namespace (Name)
//
// The result identity is derived from the payload, never from the label, so
// overloads with identical labels stay distinct:
//
//	r := types.NewSymbolResult(types.ResultFunction, "AActor.GetActorLocation()",
//	    types.OriginNative, types.FunctionPayload{ID: 42, Owner: "AActor", Name: "GetActorLocation"})
//	r.Identity // "function:AActor.GetActorLocation#42"
//
// Kind filters map payloads to FilterKind values with FilterKindOf. Namespace
// payloads have no filter kind and are dropped whenever a filter is active.
//
// # Pages
//
// SearchPage is the response shape of a search request. NextSearchIndex is nil
// exactly when the page reaches the end of the result set.
//
// # Errors
//
// SearchError carries a machine-readable Code (INVALID_SEARCH_INDEX,
// INVALID_MAX_BATCH_RESULTS, MISSING_LABEL_QUERY, ...) and structured Details
// such as the valid index range, so a calling agent can correct its request.
//
// # Parse Results
//
// ParseResult holds declarations extracted by the source parser or a symbol
// dump before they are written to storage.
package types
