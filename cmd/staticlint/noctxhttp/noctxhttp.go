// Package noctxhttp defines an analyzer that reports outgoing HTTP requests
// built without a context.Context.
package noctxhttp

import (
	"fmt"
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer is the noctxhttp analyzer.
var Analyzer = &analysis.Analyzer{
	Name:     "noctxhttp",
	Doc:      "reports net/http requests created without a context",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

var forbidden = map[string]string{
	"net/http.Get":                "http.NewRequestWithContext and Client.Do",
	"net/http.Head":               "http.NewRequestWithContext and Client.Do",
	"net/http.Post":               "http.NewRequestWithContext and Client.Do",
	"net/http.PostForm":           "http.NewRequestWithContext and Client.Do",
	"net/http.NewRequest":         "http.NewRequestWithContext",
	"(*net/http.Client).Get":      "http.NewRequestWithContext and Client.Do",
	"(*net/http.Client).Head":     "http.NewRequestWithContext and Client.Do",
	"(*net/http.Client).Post":     "http.NewRequestWithContext and Client.Do",
	"(*net/http.Client).PostForm": "http.NewRequestWithContext and Client.Do",
}

func run(pass *analysis.Pass) (any, error) {
	insp, ok := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	if !ok {
		return nil, fmt.Errorf("failed to assert type: expected *inspector.Inspector")
	}

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return
		}
		name, ok := calleeName(pass, call)
		if !ok {
			return
		}
		if alt, bad := forbidden[name]; bad {
			pass.Reportf(call.Pos(), "%s issues a request without a context; use %s", displayName(name), alt)
		}
	})

	return nil, nil
}

// calleeName returns the full name of the function called by call, as
// reported by types.Func.FullName.
func calleeName(pass *analysis.Pass, call *ast.CallExpr) (string, bool) {
	if pass.TypesInfo == nil || call == nil {
		return "", false
	}
	var id *ast.Ident
	switch fun := ast.Unparen(call.Fun).(type) {
	case *ast.SelectorExpr:
		id = fun.Sel
	case *ast.Ident:
		id = fun
	default:
		return "", false
	}
	fn, ok := pass.TypesInfo.Uses[id].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return "", false
	}
	return fn.FullName(), true
}

func displayName(full string) string {
	switch full {
	case "(*net/http.Client).Get", "(*net/http.Client).Head", "(*net/http.Client).Post", "(*net/http.Client).PostForm":
		return "http.Client." + full[len("(*net/http.Client)."):]
	default:
		return "http." + full[len("net/http."):]
	}
}
