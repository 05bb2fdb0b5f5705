// Package python implements the Python CyclomaticParser and CognitiveParser
// (SPEC_FULL.md §4.4/§4.5) via github.com/smacker/go-tree-sitter and its
// python grammar binding.
package python

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/metricmancer/metricmancer/pkg/languages"
)

// Parser implements languages.LanguageParser for Python.
type Parser struct {
	language *sitter.Language
}

// NewParser creates a Python language parser.
func NewParser() *Parser {
	return &Parser{language: python.GetLanguage()}
}

// Name returns "python".
func (p *Parser) Name() string { return "python" }

func (p *Parser) parse(source []byte) (*sitter.Tree, error) {
	ts := sitter.NewParser()
	ts.SetLanguage(p.language)
	tree, err := ts.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing python source: %w", err)
	}
	return tree, nil
}

// ParseFunctions returns every (possibly nested or decorated) function
// definition with its line range and cyclomatic complexity.
func (p *Parser) ParseFunctions(source []byte) ([]languages.ParsedFunction, error) {
	tree, err := p.parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	var out []languages.ParsedFunction
	walkFunctionDefs(tree.RootNode(), source, func(node *sitter.Node) {
		fn := newPyFunction(node, source)
		out = append(out, languages.ParsedFunction{
			Name:       fn.Name(),
			LineStart:  fn.StartLine(),
			LineEnd:    fn.EndLine(),
			Cyclomatic: fn.CyclomaticComplexity(),
		})
	})
	return out, nil
}

// ParseCognitive returns cognitive complexity per function name.
func (p *Parser) ParseCognitive(source []byte) (map[string]int, error) {
	tree, err := p.parse(source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	out := make(map[string]int)
	walkFunctionDefs(tree.RootNode(), source, func(node *sitter.Node) {
		fn := newPyFunction(node, source)
		out[fn.Name()] = fn.CognitiveComplexity()
	})
	return out, nil
}

// walkFunctionDefs recursively finds function_definition/async_function_
// definition nodes (including ones wrapped in decorated_definition) and
// invokes visit for each, grounded on the teacher's walkFunctions cursor
// traversal.
func walkFunctionDefs(node *sitter.Node, source []byte, visit func(*sitter.Node)) {
	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()
	walkFunctionDefsCursor(cursor, visit)
}

func walkFunctionDefsCursor(cursor *sitter.TreeCursor, visit func(*sitter.Node)) {
	node := cursor.CurrentNode()
	nodeType := node.Type()

	switch nodeType {
	case "function_definition", "async_function_definition":
		// A decorated definition is visited by its decorated_definition
		// parent below; the child walk reaches it again and skips it here.
		if parent := node.Parent(); parent == nil || parent.Type() != "decorated_definition" {
			visit(node)
		}
	case "decorated_definition":
		inner := sitter.NewTreeCursor(node)
		if inner.GoToFirstChild() {
			for {
				childType := inner.CurrentNode().Type()
				if childType == "function_definition" || childType == "async_function_definition" {
					visit(inner.CurrentNode())
					break
				}
				if !inner.GoToNextSibling() {
					break
				}
			}
		}
		inner.Close()
	}

	if cursor.GoToFirstChild() {
		for {
			walkFunctionDefsCursor(cursor, visit)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}
