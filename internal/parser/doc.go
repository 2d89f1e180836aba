// Package parser extracts the exported API of Go packages using go/ast.
//
// # Basic Usage
//
//	p := parser.New()
//	result, err := p.ParsePackage([]parser.File{
//	    {Path: "store.go", Content: src},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, t := range result.Types {
//	    fmt.Printf("%s %s (%d methods)\n", t.Kind, t.Name, len(t.Methods))
//	}
//
// # Mapping
//
// Go declarations map onto API symbol kinds:
//   - struct types are structs, their exported fields are properties
//   - interface types are classes, their methods are methods
//   - named basic types (type Level int) are enums
//   - func types are delegates
//   - any other named type is a class
//   - methods attach to their receiver type, value receivers are const
//   - New functions whose first result is a package type are constructors
//     of that type
//   - remaining functions, variables and constants are package globals
//
// The first embedded field of a struct or interface is recorded as its
// super type.
//
// # Error Handling
//
// Syntax errors are recorded in the result and do not fail the parse:
//
//	result, _ := p.ParseFile("broken.go")
//	if result.HasErrors() {
//	    for _, parseErr := range result.Errors {
//	        fmt.Printf("%s:%d: %s\n", parseErr.File, parseErr.Line, parseErr.Message)
//	    }
//	}
//
// Declarations from the partial AST are still returned.
package parser
