// Package storage provides SQLite-based persistence for indexed API symbols.
//
// # Database Schema
//
// Tables:
//   - sources: indexed inputs (Go files, symbol dumps) with SHA-256 hashes
//   - namespaces: "::"-qualified namespace names
//   - types: classes, structs, enums, delegates, events and primitives
//   - functions: methods, constructors and namespace-level functions
//   - properties: type properties and global variables
//
// Namespaces only record their qualified name. Parent links and the shadow
// namespaces that hold a type's statics are rebuilt by LoadDatabase.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.apisearch/index.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	nsID, _ := tx.EnsureNamespace(ctx, "UE::Math")
//	vec := &storage.Type{SourceID: src.ID, NamespaceID: nsID, Name: "FVector", Kind: types.TypeStruct}
//	_ = tx.InsertType(ctx, vec)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
//	snapshot, err := db.LoadDatabase(ctx)
//
// # Details
//
// FetchDetail renders a symbol's stored signature and documentation as
//
//	```<language>
//	<signature>
//	```
//
//	<documentation>
//
// which is the format the detail package parses.
//
// # Build Tags
//
// The default build uses the pure Go modernc.org/sqlite driver. Building
// with -tags sqlite_cgo switches to github.com/mattn/go-sqlite3, which
// requires a C compiler.
package storage
