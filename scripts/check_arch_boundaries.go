package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const modulePrefix = "studypilot/internal/"

// layers lists, per internal package, the sibling packages it may import.
// Everything converges on model; only cli sees the whole tree.
var layers = map[string][]string{
	"cli":          {"backend", "logging", "mindmap", "model", "orchestrator", "quiz", "settings", "statestore", "subject", "view"},
	"orchestrator": {"backend", "model", "subject"},
	"subject":      {"model", "statestore"},
	"settings":     {"statestore"},
	"backend":      {"model"},
	"mindmap":      {"model"},
	"quiz":         {"model"},
	"statestore":   {"model"},
	"view":         {"model"},
	"logging":      nil,
	"model":        nil,
}

// presentation libraries stay at the edge so the retry core stays testable
// without a terminal.
var presentation = map[string][]string{
	"github.com/spf13/cobra":             {"cli"},
	"github.com/charmbracelet/bubbletea": {"cli"},
	"github.com/charmbracelet/bubbles":   {"cli"},
	"github.com/charmbracelet/lipgloss":  {"cli", "mindmap"},
}

func main() {
	var violations []string
	err := filepath.WalkDir("internal", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		found, err := checkFile(path)
		if err != nil {
			return err
		}
		violations = append(violations, found...)
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "boundary walk failed: %v\n", err)
		os.Exit(1)
	}

	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "architecture boundary violations detected:")
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "- %s\n", v)
		}
		os.Exit(1)
	}
	fmt.Println("architecture boundary check: OK")
}

func checkFile(path string) ([]string, error) {
	src := ownerPackage(path)
	if src == "" {
		return nil, nil
	}
	allowedSiblings, known := layers[src]
	if !known {
		return []string{fmt.Sprintf("%s: package %q has no layer entry", path, src)}, nil
	}

	file, err := parser.ParseFile(token.NewFileSet(), path, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		if sibling, ok := internalPackage(importPath); ok {
			if sibling != src && !slices.Contains(allowedSiblings, sibling) {
				out = append(out, fmt.Sprintf("%s: %s -> %s is forbidden", path, src, sibling))
			}
			continue
		}
		for lib, owners := range presentation {
			if (importPath == lib || strings.HasPrefix(importPath, lib+"/")) && !slices.Contains(owners, src) {
				out = append(out, fmt.Sprintf("%s: %s imports %s (allowed in %s only)", path, src, importPath, strings.Join(owners, ", ")))
			}
		}
	}
	return out, nil
}

func ownerPackage(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) < 3 || parts[0] != "internal" {
		return ""
	}
	return parts[1]
}

func internalPackage(importPath string) (string, bool) {
	rest, ok := strings.CutPrefix(importPath, modulePrefix)
	if !ok || rest == "" {
		return "", false
	}
	name, _, _ := strings.Cut(rest, "/")
	return name, true
}
