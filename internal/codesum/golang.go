package codesum

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
)

func parseGo(filename string, src []byte) (*Structure, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		var list scanner.ErrorList
		if errors.As(err, &list) && len(list) > 0 {
			return nil, &ParseError{Line: list[0].Pos.Line, Msg: list[0].Msg}
		}
		return nil, &ParseError{Msg: err.Error()}
	}

	st := &Structure{Language: LangGo, Functions: []Function{}, Classes: []string{}}
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			fn := Function{
				Name:    d.Name.Name,
				Kind:    KindFunction,
				Line:    fset.Position(d.Pos()).Line,
				Params:  goParams(d.Type.Params),
				Doc:     strings.TrimSpace(d.Doc.Text()),
				Snippet: string(src[fset.Position(d.Pos()).Offset:fset.Position(d.End()).Offset]),
			}
			if d.Recv != nil && len(d.Recv.List) > 0 {
				fn.Kind = KindMethod
				fn.Name = receiverName(d.Recv.List[0].Type) + "." + d.Name.Name
			}
			st.Functions = append(st.Functions, fn)

		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				switch ts.Type.(type) {
				case *ast.StructType, *ast.InterfaceType:
					st.Classes = append(st.Classes, ts.Name.Name)
				}
			}
		}
	}

	return st, nil
}

func goParams(fields *ast.FieldList) []string {
	if fields == nil {
		return nil
	}
	var params []string
	for _, f := range fields.List {
		if len(f.Names) == 0 {
			params = append(params, types.ExprString(f.Type))
			continue
		}
		for _, name := range f.Names {
			params = append(params, name.Name)
		}
	}
	return params
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return types.ExprString(expr)
	}
}
