package internalcheck

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const (
	modulePattern = "github.com/SimplyComplexApps/fastText/..."
	backendPath   = "github.com/SimplyComplexApps/fastText/pkg/fasttext/internal/backend"
)

// restricted imports may only appear in the backend package.
var restricted = map[string]bool{
	"C":      true,
	"unsafe": true,
}

func TestEngineAccessConfinedToBackend(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedFiles, Tests: true}
	pkgs, err := packages.Load(cfg, modulePattern)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	fset := token.NewFileSet()
	seen := make(map[string]bool)
	var findings []string
	for _, pkg := range pkgs {
		if pkg.PkgPath == backendPath {
			continue
		}
		files := append(append([]string(nil), pkg.GoFiles...), pkg.IgnoredFiles...)
		for _, name := range files {
			if filepath.Ext(name) != ".go" || seen[name] {
				continue
			}
			seen[name] = true
			file, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parse %s: %v", name, err)
			}
			for _, imp := range file.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				if err != nil {
					continue
				}
				if restricted[path] {
					findings = append(findings, fset.Position(imp.Pos()).String()+": import "+strconv.Quote(path)+" outside the backend package")
				}
			}
		}
	}

	if len(findings) > 0 {
		t.Fatalf("engine access policy violation:\n%s", strings.Join(findings, "\n"))
	}
}
