package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"os"
	"strings"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// Parser handles AST-based parsing of Go source files
type Parser struct {
	fset *token.FileSet
}

// File is one source file of a package
type File struct {
	Path    string
	Content []byte
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		fset: token.NewFileSet(),
	}
}

// ParseFile parses a single Go source file as a package of its own
func (p *Parser) ParseFile(filePath string) (*types.ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParsePackage([]File{{Path: filePath, Content: content}})
}

// ParsePackage parses the files of one package and extracts its exported
// API. Methods and constructors are attached to their types even when they
// are declared in a different file. Files of an external test package are
// ignored unless nothing else is present.
func (p *Parser) ParsePackage(files []File) (*types.ParseResult, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to parse")
	}

	result := &types.ParseResult{}
	extractor := &symbolExtractor{
		result:    result,
		typeIndex: make(map[string]int),
	}

	parsed := make([]*ast.File, 0, len(files))
	for _, f := range files {
		// Parse the file with comments for doc extraction
		file, err := parser.ParseFile(p.fset, f.Path, f.Content, parser.ParseComments)
		if err != nil {
			// Syntax errors are non-fatal; the partial AST is still used
			recordSyntaxErrors(result, f.Path, err)
		}
		if file != nil && file.Name != nil {
			parsed = append(parsed, file)
		}
	}

	result.PackageName = packageName(parsed)
	for _, file := range parsed {
		if file.Name.Name != result.PackageName {
			continue
		}
		extractor.generated = ast.IsGenerated(file)
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				extractor.extractFunction(d)
			case *ast.GenDecl:
				extractor.extractGenDecl(d)
			}
		}
	}

	extractor.resolve()
	return result, nil
}

// packageName picks the package being documented, preferring a non-test
// package over an external test package
func packageName(files []*ast.File) string {
	for _, f := range files {
		if !strings.HasSuffix(f.Name.Name, "_test") {
			return f.Name.Name
		}
	}
	if len(files) > 0 {
		return files[0].Name.Name
	}
	return ""
}

func recordSyntaxErrors(result *types.ParseResult, path string, err error) {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			result.AddError(path, e.Pos.Line, e.Pos.Column, fmt.Sprintf("syntax error: %s", e.Msg))
		}
		return
	}
	result.AddError(path, 0, 0, fmt.Sprintf("syntax error: %v", err))
}

// symbolExtractor collects declarations across the files of a package
type symbolExtractor struct {
	result    *types.ParseResult
	typeIndex map[string]int
	generated bool

	// methods and constructor candidates wait for every type to be seen
	methods []types.FuncDecl
	funcs   []funcCandidate
}

type funcCandidate struct {
	decl       types.FuncDecl
	resultBase string
}

// extractFunction extracts function and method declarations
func (e *symbolExtractor) extractFunction(funcDecl *ast.FuncDecl) {
	name := funcDecl.Name.Name
	if !token.IsExported(name) {
		return
	}

	decl := types.FuncDecl{
		Name:       name,
		Doc:        docText(funcDecl.Doc),
		Params:     e.params(funcDecl.Type.Params),
		ReturnType: e.results(funcDecl.Type.Results),
		Generated:  e.generated,
	}

	// Determine if this is a method or function
	if funcDecl.Recv != nil && len(funcDecl.Recv.List) > 0 {
		recv := funcDecl.Recv.List[0].Type
		decl.Receiver = receiverName(recv)
		if !token.IsExported(decl.Receiver) {
			return
		}
		// value receivers cannot mutate the receiver
		_, pointer := recv.(*ast.StarExpr)
		decl.Const = !pointer
		decl.Signature = e.funcSignature("("+e.exprToString(recv)+") ", name, funcDecl.Type)
		e.methods = append(e.methods, decl)
		return
	}

	decl.Signature = e.funcSignature("", name, funcDecl.Type)
	e.funcs = append(e.funcs, funcCandidate{decl: decl, resultBase: firstResultBase(funcDecl.Type.Results)})
}

// extractGenDecl extracts type, const, and var declarations
func (e *symbolExtractor) extractGenDecl(genDecl *ast.GenDecl) {
	var lastType ast.Expr
	for _, spec := range genDecl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			e.extractTypeSpec(s, pickDoc(s.Doc, genDecl))
		case *ast.ValueSpec:
			// constants in an iota group inherit the previous type
			if s.Type != nil || len(s.Values) > 0 {
				lastType = s.Type
			}
			typ := s.Type
			if genDecl.Tok == token.CONST && typ == nil && len(s.Values) == 0 {
				typ = lastType
			}
			e.extractValueSpec(s, typ, pickDoc(s.Doc, genDecl), genDecl.Tok)
		}
	}
}

// extractTypeSpec extracts struct, interface, func and named types
func (e *symbolExtractor) extractTypeSpec(typeSpec *ast.TypeSpec, doc *ast.CommentGroup) {
	name := typeSpec.Name.Name
	if !token.IsExported(name) {
		return
	}

	decl := types.TypeDecl{
		Name: name,
		Doc:  docText(doc),
	}

	switch t := typeSpec.Type.(type) {
	case *ast.StructType:
		decl.Kind = types.TypeStruct
		decl.Signature = e.extractStructSignature(name, t)
		decl.Super, decl.Properties = e.extractStructFields(name, t)
	case *ast.InterfaceType:
		decl.Kind = types.TypeClass
		decl.Signature = e.extractInterfaceSignature(name, t)
		decl.Super, decl.Methods = e.extractInterfaceMethods(name, t)
	case *ast.FuncType:
		decl.Kind = types.TypeDelegate
		decl.Signature = e.funcSignature("", "type "+name+" func", t)
	case *ast.Ident:
		decl.Kind = types.TypeClass
		if isBasic(t.Name) {
			decl.Kind = types.TypeEnum
		}
		decl.Super = t.Name
		decl.Signature = fmt.Sprintf("type %s %s", name, t.Name)
	default:
		decl.Kind = types.TypeClass
		decl.Signature = fmt.Sprintf("type %s %s", name, e.exprToString(typeSpec.Type))
	}
	if typeSpec.Assign.IsValid() {
		decl.Signature = strings.Replace(decl.Signature, "type "+name+" ", "type "+name+" = ", 1)
	}

	e.typeIndex[name] = len(e.result.Types)
	e.result.Types = append(e.result.Types, decl)
}

// extractStructFields returns the first embedded type and the exported fields
func (e *symbolExtractor) extractStructFields(structName string, structType *ast.StructType) (string, []types.VarDecl) {
	if structType.Fields == nil {
		return "", nil
	}

	var super string
	var fields []types.VarDecl
	for _, field := range structType.Fields.List {
		typeStr := e.exprToString(field.Type)
		if len(field.Names) == 0 {
			if super == "" {
				super = strings.TrimPrefix(typeStr, "*")
			}
			continue
		}
		for _, name := range field.Names {
			if !token.IsExported(name.Name) {
				continue
			}
			fields = append(fields, types.VarDecl{
				Name:      name.Name,
				Type:      typeStr,
				Signature: fmt.Sprintf("%s.%s %s", structName, name.Name, typeStr),
				Doc:       docText(pickComment(field.Doc, field.Comment)),
			})
		}
	}
	return super, fields
}

// extractInterfaceMethods returns the first embedded interface and the methods
func (e *symbolExtractor) extractInterfaceMethods(name string, interfaceType *ast.InterfaceType) (string, []types.FuncDecl) {
	if interfaceType.Methods == nil {
		return "", nil
	}

	var super string
	var methods []types.FuncDecl
	for _, field := range interfaceType.Methods.List {
		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			if super == "" {
				super = e.exprToString(field.Type)
			}
			continue
		}
		for _, n := range field.Names {
			if !token.IsExported(n.Name) {
				continue
			}
			methods = append(methods, types.FuncDecl{
				Name:       n.Name,
				Receiver:   name,
				Params:     e.params(ft.Params),
				ReturnType: e.results(ft.Results),
				Signature:  e.funcSignature("("+name+") ", n.Name, ft),
				Doc:        docText(pickComment(field.Doc, field.Comment)),
				Generated:  e.generated,
			})
		}
	}
	return super, methods
}

// extractValueSpec extracts const and var declarations
func (e *symbolExtractor) extractValueSpec(valueSpec *ast.ValueSpec, typ ast.Expr, doc *ast.CommentGroup, tok token.Token) {
	for _, name := range valueSpec.Names {
		if !token.IsExported(name.Name) {
			continue
		}
		decl := types.VarDecl{
			Name:     name.Name,
			Type:     e.exprToString(typ),
			Doc:      docText(pickComment(doc, valueSpec.Comment)),
			Constant: tok == token.CONST,
		}

		// Build signature
		switch {
		case decl.Type != "":
			decl.Signature = fmt.Sprintf("%s %s %s", tok, name.Name, decl.Type)
		case len(valueSpec.Values) > 0:
			decl.Signature = fmt.Sprintf("%s %s = ...", tok, name.Name)
		default:
			decl.Signature = fmt.Sprintf("%s %s", tok, name.Name)
		}

		e.result.Variables = append(e.result.Variables, decl)
	}
}

// resolve attaches methods to their receiver types and turns New functions
// returning a package type into constructors of that type
func (e *symbolExtractor) resolve() {
	for _, m := range e.methods {
		if i, ok := e.typeIndex[m.Receiver]; ok {
			e.result.Types[i].Methods = append(e.result.Types[i].Methods, m)
			continue
		}
		// receiver declared in a file that failed to parse
		e.result.Functions = append(e.result.Functions, m)
	}

	for _, f := range e.funcs {
		if strings.HasPrefix(f.decl.Name, "New") {
			if i, ok := e.typeIndex[f.resultBase]; ok {
				f.decl.Constructor = true
				f.decl.Receiver = f.resultBase
				e.result.Types[i].Methods = append(e.result.Types[i].Methods, f.decl)
				continue
			}
		}
		e.result.Functions = append(e.result.Functions, f.decl)
	}
}

// receiverName extracts the receiver type name from a method
func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	}
	return ""
}

// firstResultBase is the bare type name of the first result, if it is local
func firstResultBase(results *ast.FieldList) string {
	if results == nil || len(results.List) == 0 {
		return ""
	}
	return receiverName(results.List[0].Type)
}

// funcSignature renders "func <recv><name>(params) results"
func (e *symbolExtractor) funcSignature(recv, name string, ft *ast.FuncType) string {
	var sig strings.Builder

	switch {
	case strings.HasPrefix(name, "type "):
		sig.WriteString(name)
	case recv == "" && name == "":
		sig.WriteString("func")
	default:
		sig.WriteString("func ")
		sig.WriteString(recv)
		sig.WriteString(name)
	}

	if ft.TypeParams != nil && len(ft.TypeParams.List) > 0 {
		sig.WriteString("[")
		sig.WriteString(e.fieldListToString(ft.TypeParams))
		sig.WriteString("]")
	}

	// Parameters
	sig.WriteString("(")
	sig.WriteString(e.fieldListToString(ft.Params))
	sig.WriteString(")")

	// Results
	if r := e.results(ft.Results); r != "" {
		sig.WriteString(" ")
		sig.WriteString(r)
	}

	return sig.String()
}

// results renders a result list, parenthesized when there are several
func (e *symbolExtractor) results(fieldList *ast.FieldList) string {
	results := e.fieldListToString(fieldList)
	if results == "" {
		return ""
	}
	if fieldList.NumFields() > 1 || len(fieldList.List[0].Names) > 0 {
		return "(" + results + ")"
	}
	return results
}

func (e *symbolExtractor) params(fieldList *ast.FieldList) []types.Param {
	if fieldList == nil {
		return nil
	}
	var params []types.Param
	for _, field := range fieldList.List {
		typeStr := e.exprToString(field.Type)
		if len(field.Names) == 0 {
			params = append(params, types.Param{Type: typeStr})
			continue
		}
		for _, name := range field.Names {
			params = append(params, types.Param{Name: name.Name, Type: typeStr})
		}
	}
	return params
}

// extractStructSignature builds a struct signature string
func (e *symbolExtractor) extractStructSignature(name string, structType *ast.StructType) string {
	fieldCount := 0
	if structType.Fields != nil {
		fieldCount = structType.Fields.NumFields()
	}
	return fmt.Sprintf("type %s struct { ... } // %d fields", name, fieldCount)
}

// extractInterfaceSignature builds an interface signature string
func (e *symbolExtractor) extractInterfaceSignature(name string, interfaceType *ast.InterfaceType) string {
	methodCount := 0
	if interfaceType.Methods != nil {
		methodCount = interfaceType.Methods.NumFields()
	}
	return fmt.Sprintf("type %s interface { ... } // %d methods", name, methodCount)
}

// fieldListToString converts a field list to a string representation
func (e *symbolExtractor) fieldListToString(fieldList *ast.FieldList) string {
	if fieldList == nil || len(fieldList.List) == 0 {
		return ""
	}

	var parts []string
	for _, field := range fieldList.List {
		typeStr := e.exprToString(field.Type)
		if len(field.Names) > 0 {
			for _, name := range field.Names {
				parts = append(parts, fmt.Sprintf("%s %s", name.Name, typeStr))
			}
		} else {
			parts = append(parts, typeStr)
		}
	}

	return strings.Join(parts, ", ")
}

// exprToString converts an expression to a string representation
func (e *symbolExtractor) exprToString(expr ast.Expr) string {
	if expr == nil {
		return ""
	}

	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + e.exprToString(t.X)
	case *ast.ArrayType:
		if t.Len != nil {
			return "[" + e.exprToString(t.Len) + "]" + e.exprToString(t.Elt)
		}
		return "[]" + e.exprToString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", e.exprToString(t.Key), e.exprToString(t.Value))
	case *ast.ChanType:
		switch t.Dir {
		case ast.SEND:
			return "chan<- " + e.exprToString(t.Value)
		case ast.RECV:
			return "<-chan " + e.exprToString(t.Value)
		}
		return "chan " + e.exprToString(t.Value)
	case *ast.FuncType:
		return e.funcSignature("", "", t)
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{ ... }"
	case *ast.StructType:
		return "struct{ ... }"
	case *ast.SelectorExpr:
		return e.exprToString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + e.exprToString(t.Elt)
	case *ast.IndexExpr:
		return e.exprToString(t.X) + "[" + e.exprToString(t.Index) + "]"
	case *ast.IndexListExpr:
		args := make([]string, len(t.Indices))
		for i, idx := range t.Indices {
			args[i] = e.exprToString(idx)
		}
		return e.exprToString(t.X) + "[" + strings.Join(args, ", ") + "]"
	case *ast.BasicLit:
		return t.Value
	case *ast.ParenExpr:
		return "(" + e.exprToString(t.X) + ")"
	case *ast.UnaryExpr:
		return t.Op.String() + e.exprToString(t.X)
	case *ast.BinaryExpr:
		return e.exprToString(t.X) + " " + t.Op.String() + " " + e.exprToString(t.Y)
	default:
		return "..."
	}
}

// docText extracts documentation from a comment group
func docText(doc *ast.CommentGroup) string {
	if doc == nil {
		return ""
	}
	return strings.TrimSpace(doc.Text())
}

// pickDoc prefers the spec's own doc over the doc of its declaration group
func pickDoc(specDoc *ast.CommentGroup, genDecl *ast.GenDecl) *ast.CommentGroup {
	if specDoc != nil {
		return specDoc
	}
	return genDecl.Doc
}

func pickComment(doc, comment *ast.CommentGroup) *ast.CommentGroup {
	if doc != nil {
		return doc
	}
	return comment
}

var basicTypes = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true, "uintptr": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

func isBasic(name string) bool {
	return basicTypes[name]
}
