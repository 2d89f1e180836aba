package types

// ParseResult represents the declarations extracted from one source file
type ParseResult struct {
	PackageName string
	Types       []TypeDecl
	Functions   []FuncDecl
	Variables   []VarDecl

	// Errors encountered during parsing
	Errors []ParseError
}

// Param is one declared parameter of a function
type Param struct {
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Type    string `json:"type" yaml:"type"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// TypeDecl is a type declaration together with its members
type TypeDecl struct {
	Name       string
	Kind       TypeKind
	Super      string
	Template   bool
	Signature  string
	Doc        string
	Methods    []FuncDecl
	Properties []VarDecl
	Nested     []TypeDecl
	Origin     Origin // empty means the source default
}

// FuncDecl is a function or method declaration
type FuncDecl struct {
	Name        string
	Receiver    string // owning type for methods
	ReturnType  string
	Params      []Param
	Signature   string
	Doc         string
	Constructor bool
	Generated   bool
	Mixin       bool
	Static      bool
	Const       bool
	Origin      Origin
}

// VarDecl is a field, property, global variable or constant
type VarDecl struct {
	Name      string
	Type      string
	Signature string
	Doc       string
	Constant  bool
	Origin    Origin
}

// ParseError represents an error that occurred during parsing
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	return pe.Message
}

// HasErrors returns true if any parsing errors occurred
func (pr *ParseResult) HasErrors() bool {
	return len(pr.Errors) > 0
}

// AddError adds a parsing error to the result
func (pr *ParseResult) AddError(file string, line, col int, msg string) {
	pr.Errors = append(pr.Errors, ParseError{
		File:    file,
		Line:    line,
		Column:  col,
		Message: msg,
	})
}

// SymbolCount counts every declaration in the result, members included
func (pr *ParseResult) SymbolCount() int {
	n := len(pr.Functions) + len(pr.Variables)
	var countType func(t TypeDecl)
	countType = func(t TypeDecl) {
		n += 1 + len(t.Methods) + len(t.Properties)
		for _, nested := range t.Nested {
			countType(nested)
		}
	}
	for _, t := range pr.Types {
		countType(t)
	}
	return n
}
