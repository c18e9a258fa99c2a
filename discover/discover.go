// Package discover statically enumerates the events a host type may fire.
//
// Discovery parses Go source with go/parser and walks the AST; nothing is
// executed and no live listener registry is consulted. A type has the
// dispatch capability when its struct declaration carries an Emitter field
// (named or embedded). Its event names are the string-literal first
// arguments of Call, Forward and Describe invocations made through the
// receiver inside the type's methods. Events fired with non-constant names
// are invisible to discovery, as are firings done outside the type's
// methods.
package discover

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// fireMethods are the method names whose string-literal first argument
// names an event.
var fireMethods = map[string]bool{
	"Call":     true,
	"Forward":  true,
	"Describe": true,
}

// Result is the outcome of a discovery run. Parse and traversal problems
// are reported in Err rather than aborting, mirroring the best-effort
// nature of static analysis.
type Result struct {
	// Capable reports whether the type declares an Emitter field.
	Capable bool
	// Events lists discovered event names in first-seen order.
	Events []string
	// Err holds the parse error, if any.
	Err error
}

// Source inspects a single Go source buffer for the named type.
func Source(src []byte, typeName string) Result {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", src, 0)
	if err != nil {
		return Result{Err: err}
	}
	return scan([]*ast.File{file}, typeName)
}

// File inspects a Go source file for the named type.
func File(path string, typeName string) Result {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		return Result{Err: err}
	}
	return scan([]*ast.File{file}, typeName)
}

// Dir inspects every Go file in a directory for the named type. The type's
// declaration and its methods may be spread across files.
func Dir(dir string, typeName string) Result {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, nil, 0)
	if err != nil {
		return Result{Err: err}
	}
	var files []*ast.File
	for _, pkg := range pkgs {
		for _, file := range pkg.Files {
			files = append(files, file)
		}
	}
	return scan(files, typeName)
}

// scan walks the parsed files for the type's declaration and methods.
func scan(files []*ast.File, typeName string) Result {
	result := Result{}
	seen := make(map[string]bool)

	for _, file := range files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if hasEmitterField(d, typeName) {
					result.Capable = true
				}
			case *ast.FuncDecl:
				recv, ok := receiverName(d, typeName)
				if !ok || d.Body == nil {
					continue
				}
				ast.Inspect(d.Body, func(n ast.Node) bool {
					if name, ok := firedEvent(n, recv); ok && !seen[name] {
						seen[name] = true
						result.Events = append(result.Events, name)
					}
					return true
				})
			}
		}
	}
	return result
}

// hasEmitterField reports whether the declaration defines typeName as a
// struct with an Emitter-typed field.
func hasEmitterField(decl *ast.GenDecl, typeName string) bool {
	for _, spec := range decl.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok || ts.Name.Name != typeName {
			continue
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok || st.Fields == nil {
			continue
		}
		for _, field := range st.Fields.List {
			if isEmitterType(field.Type) {
				return true
			}
		}
	}
	return false
}

// isEmitterType matches Emitter, dispatch.Emitter and pointers to either.
func isEmitterType(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return isEmitterType(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name == "Emitter"
	case *ast.Ident:
		return t.Name == "Emitter"
	default:
		return false
	}
}

// receiverName returns the receiver identifier of a method declared on
// typeName.
func receiverName(fn *ast.FuncDecl, typeName string) (string, bool) {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return "", false
	}
	field := fn.Recv.List[0]

	t := field.Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	ident, ok := t.(*ast.Ident)
	if !ok || ident.Name != typeName {
		return "", false
	}
	if len(field.Names) == 0 {
		return "", false // anonymous receiver cannot fire
	}
	return field.Names[0].Name, true
}

// firedEvent matches `<recv>...Call("name", ...)` style invocations and
// returns the event name literal.
func firedEvent(n ast.Node, recv string) (string, bool) {
	call, ok := n.(*ast.CallExpr)
	if !ok || len(call.Args) == 0 {
		return "", false
	}
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || !fireMethods[sel.Sel.Name] {
		return "", false
	}
	if rootIdent(sel.X) != recv {
		return "", false
	}
	lit, ok := call.Args[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	name, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return name, true
}

// rootIdent unwraps a selector chain (h.events.Call -> h) to its leftmost
// identifier.
func rootIdent(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.Ident:
			return t.Name
		case *ast.SelectorExpr:
			expr = t.X
		default:
			return ""
		}
	}
}
