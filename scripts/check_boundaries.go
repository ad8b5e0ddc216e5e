// Command check_boundaries enforces the layering rules of the context
// packages. Services talk to each other through storage projections, never
// through imports, so any cross-service import is a violation. Within a
// service, domain and transport stay dependency-free and application code
// reaches adapters only through ports.
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "liquidvote"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerAllowlist maps a service layer to the in-module import prefixes it may
// use, relative to the service root. Stdlib is always allowed; third-party
// imports are allowed everywhere except domain and transport.
var layerAllowlist = map[string][]string{
	"domain":      {"/domain"},
	"ports":       {"/domain", "/ports"},
	"application": {"/application", "/domain", "/ports"},
	"transport":   {"/transport"},
	"adapters":    {"/adapters", "/application", "/domain", "/ports", "/transport"},
}

// layersWithoutThirdParty lists layers that must stay stdlib-only.
var layersWithoutThirdParty = map[string]bool{
	"domain":    true,
	"transport": true,
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File == violations[j].File {
			if violations[i].Line == violations[j].Line {
				return violations[i].Import < violations[j].Import
			}
			return violations[i].Line < violations[j].Line
		}
		return violations[i].File < violations[j].File
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		normalized := filepath.ToSlash(path)
		parts := strings.Split(normalized, "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}

		contextName := parts[1]
		serviceName := parts[2]
		layer := parts[3]
		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, contextName, serviceName)

		violations = append(violations, validateFile(path, normalized, layer, servicePrefix)...)
		return nil
	})

	return violations
}

func validateFile(path string, normalizedPath string, layer string, servicePrefix string) []violation {
	var violations []violation

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return append(violations, violation{
			File: normalizedPath,
			Line: 1,
			Rule: "file must parse",
		})
	}

	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line

		if strings.HasPrefix(importPath, modulePath+"/contexts/") && !hasPrefix(importPath, servicePrefix) {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   line,
				Import: importPath,
				Rule:   "cross-service imports are forbidden",
			})
			continue
		}

		if strings.HasPrefix(importPath, modulePath+"/internal/") ||
			strings.HasPrefix(importPath, modulePath+"/cmd/") {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   line,
				Import: importPath,
				Rule:   "context code must not import the platform layer",
			})
			continue
		}

		allowed, known := layerAllowlist[layer]
		if !known {
			continue
		}

		if hasPrefix(importPath, servicePrefix) {
			if !isAllowedWithin(importPath, servicePrefix, allowed) {
				violations = append(violations, violation{
					File:   normalizedPath,
					Line:   line,
					Import: importPath,
					Rule:   fmt.Sprintf("%s import is outside its allowlist", layer),
				})
			}
			continue
		}

		if !isStdlib(importPath) && layersWithoutThirdParty[layer] {
			violations = append(violations, violation{
				File:   normalizedPath,
				Line:   line,
				Import: importPath,
				Rule:   fmt.Sprintf("%s must stay stdlib-only", layer),
			})
		}
	}

	return violations
}

func isAllowedWithin(importPath string, servicePrefix string, allowedSuffixes []string) bool {
	for _, suffix := range allowedSuffixes {
		if hasPrefix(importPath, servicePrefix+suffix) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if strings.HasPrefix(importPath, modulePath+"/") {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
