package internalcheck

import (
	"fmt"
	"go/ast"
	"go/types"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const loggingPath = "github.com/SimplyComplexApps/fastText/pkg/fasttext/logging"

// sensitive names the parameters that carry caller text into the engine.
var sensitive = map[string]bool{
	"text":    true,
	"word":    true,
	"subword": true,
	"data":    true,
}

func TestCallerTextNeverLogged(t *testing.T) {
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}
	pkgs, err := packages.Load(cfg,
		"github.com/SimplyComplexApps/fastText/pkg/fasttext",
		"github.com/SimplyComplexApps/fastText/pkg/fasttext/worker",
	)
	if err != nil {
		t.Fatalf("load package: %v", err)
	}

	var findings []string
	for _, pkg := range pkgs {
		if pkg.TypesInfo == nil {
			continue
		}
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				selector, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				fn, ok := pkg.TypesInfo.Uses[selector.Sel].(*types.Func)
				if !ok || fn.Pkg() == nil || fn.Pkg().Path() != loggingPath {
					return true
				}
				for _, arg := range call.Args {
					ident, ok := arg.(*ast.Ident)
					if ok && sensitive[ident.Name] {
						pos := pkg.Fset.Position(ident.Pos())
						findings = append(findings, fmt.Sprintf("%s: %q passed to %s; use logging.Redacted", pos, ident.Name, fn.Name()))
					}
				}
				return true
			})
		}
	}

	if len(findings) > 0 {
		t.Fatalf("redaction policy violation:\n%s", strings.Join(findings, "\n"))
	}
}
