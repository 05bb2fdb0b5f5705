// Package golang implements the Go CyclomaticParser and CognitiveParser
// (SPEC_FULL.md §4.4/§4.5) using the standard library's own go/ast.
package golang

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/metricmancer/metricmancer/pkg/languages"
)

// Parser implements languages.LanguageParser for Go.
type Parser struct{}

// NewParser creates a Go language parser.
func NewParser() *Parser {
	return &Parser{}
}

// Name returns "go".
func (p *Parser) Name() string { return "go" }

// ParseFunctions returns every top-level function and method declaration
// with its line range and McCabe cyclomatic complexity.
func (p *Parser) ParseFunctions(source []byte) ([]languages.ParsedFunction, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing go source: %w", err)
	}

	var out []languages.ParsedFunction
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		out = append(out, languages.ParsedFunction{
			Name:       qualifiedName(fn),
			LineStart:  fset.Position(fn.Pos()).Line,
			LineEnd:    fset.Position(fn.End()).Line,
			Cyclomatic: cyclomaticComplexity(fn),
		})
	}
	return out, nil
}

// ParseCognitive returns the SonarSource cognitive complexity of every
// function, keyed by the same qualified name ParseFunctions uses.
func (p *Parser) ParseCognitive(source []byte) (map[string]int, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parsing go source: %w", err)
	}

	out := make(map[string]int)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil {
			continue
		}
		out[qualifiedName(fn)] = cognitiveComplexity(fn)
	}
	return out, nil
}

// qualifiedName keys methods as "Receiver.Method" per SPEC_FULL.md §4.4's
// "methods nested in classes are top-level functions keyed by qualified
// name" rule.
func qualifiedName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	recvType := fn.Recv.List[0].Type
	if star, ok := recvType.(*ast.StarExpr); ok {
		recvType = star.X
	}
	if ident, ok := recvType.(*ast.Ident); ok {
		return ident.Name + "." + fn.Name.Name
	}
	return fn.Name.Name
}

// cyclomaticComplexity: McCabe's 1 + decision points.
func cyclomaticComplexity(fn *ast.FuncDecl) int {
	complexity := 1
	ast.Inspect(fn, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.IfStmt:
			complexity++
		case *ast.ForStmt, *ast.RangeStmt:
			complexity++
		case *ast.CaseClause:
			if n.List != nil {
				complexity++
			}
		case *ast.CommClause:
			if n.Comm != nil {
				complexity++
			}
		case *ast.BinaryExpr:
			if n.Op == token.LAND || n.Op == token.LOR {
				complexity++
			}
		}
		return true
	})
	return complexity
}

// cognitiveComplexity implements SPEC_FULL.md §4.5 precisely: nesting
// penalty for if/for/range/switch/select, non-stacking else/else-if,
// chain-run boolean-operator counting, and direct-recursion detection.
func cognitiveComplexity(fn *ast.FuncDecl) int {
	w := &goCognitiveWalker{
		funcName:     fn.Name.Name,
		chainVisited: make(map[ast.Expr]bool),
	}
	w.walkBlock(fn.Body, 0)
	return w.score
}

type goCognitiveWalker struct {
	score        int
	funcName     string
	chainVisited map[ast.Expr]bool
}

func (w *goCognitiveWalker) walkBlock(block *ast.BlockStmt, nesting int) {
	if block == nil {
		return
	}
	for _, stmt := range block.List {
		w.walkStmt(stmt, nesting)
	}
}

func (w *goCognitiveWalker) walkStmt(stmt ast.Stmt, nesting int) {
	switch n := stmt.(type) {
	case *ast.IfStmt:
		w.score += 1 + nesting
		w.walkExprForBooleanChainsAndCalls(n.Cond, nesting)
		w.walkBlock(n.Body, nesting+1)
		w.walkElse(n.Else, nesting+1)

	case *ast.ForStmt:
		w.score += 1 + nesting
		if n.Cond != nil {
			w.walkExprForBooleanChainsAndCalls(n.Cond, nesting)
		}
		w.walkBlock(n.Body, nesting+1)

	case *ast.RangeStmt:
		w.score += 1 + nesting
		w.walkBlock(n.Body, nesting+1)

	case *ast.SwitchStmt:
		w.score += 1 + nesting
		if n.Tag != nil {
			w.walkExprForBooleanChainsAndCalls(n.Tag, nesting)
		}
		for _, clause := range n.Body.List {
			if cc, ok := clause.(*ast.CaseClause); ok {
				for _, s := range cc.Body {
					w.walkStmt(s, nesting+1)
				}
			}
		}

	case *ast.TypeSwitchStmt:
		w.score += 1 + nesting
		for _, clause := range n.Body.List {
			if cc, ok := clause.(*ast.CaseClause); ok {
				for _, s := range cc.Body {
					w.walkStmt(s, nesting+1)
				}
			}
		}

	case *ast.SelectStmt:
		w.score += 1 + nesting
		for _, clause := range n.Body.List {
			if cc, ok := clause.(*ast.CommClause); ok {
				for _, s := range cc.Body {
					w.walkStmt(s, nesting+1)
				}
			}
		}

	case *ast.BlockStmt:
		w.walkBlock(n, nesting)

	case *ast.ExprStmt:
		w.walkExprForBooleanChainsAndCalls(n.X, nesting)

	case *ast.AssignStmt:
		for _, rhs := range n.Rhs {
			w.walkExprForBooleanChainsAndCalls(rhs, nesting)
		}

	case *ast.ReturnStmt:
		for _, result := range n.Results {
			w.walkExprForBooleanChainsAndCalls(result, nesting)
		}

	case *ast.GoStmt:
		w.walkExprForBooleanChainsAndCalls(n.Call, nesting)

	case *ast.DeferStmt:
		w.walkExprForBooleanChainsAndCalls(n.Call, nesting)

	case *ast.LabeledStmt:
		w.walkStmt(n.Stmt, nesting)
	}
}

// walkElse implements SPEC_FULL.md §4.5 rule 2: else/else-if add exactly
// +1 with no nesting increase, and else-if's body uses the nesting of the
// enclosing if (the same `nesting` value passed in, which the caller has
// already incremented once for the if's own body).
func (w *goCognitiveWalker) walkElse(elseStmt ast.Stmt, nesting int) {
	switch e := elseStmt.(type) {
	case nil:
		return
	case *ast.IfStmt:
		w.score++
		w.walkExprForBooleanChainsAndCalls(e.Cond, nesting)
		w.walkBlock(e.Body, nesting)
		w.walkElse(e.Else, nesting)
	case *ast.BlockStmt:
		w.score++
		w.walkBlock(e, nesting)
	}
}

// walkExprForBooleanChainsAndCalls finds boolean-operator chains (rule 3)
// and direct recursive calls (rule 4) inside an expression. A nested
// function literal's body is itself a nesting-increasing construct (rule 1
// lists lambda/anonymous-function bodies alongside if/for/switch), so it is
// walked at nesting+1 rather than treated as a fresh function boundary.
func (w *goCognitiveWalker) walkExprForBooleanChainsAndCalls(expr ast.Expr, nesting int) {
	if expr == nil {
		return
	}
	ast.Inspect(expr, func(node ast.Node) bool {
		switch n := node.(type) {
		case *ast.BinaryExpr:
			if (n.Op == token.LAND || n.Op == token.LOR) && !w.chainVisited[n] {
				ops := w.flattenBooleanChain(n)
				w.score += countRuns(ops)
			}
		case *ast.CallExpr:
			if ident, ok := n.Fun.(*ast.Ident); ok && ident.Name == w.funcName {
				w.score++
			}
		case *ast.FuncLit:
			w.walkBlock(n.Body, nesting+1)
			return false
		}
		return true
	})
}

// flattenBooleanChain walks a maximal run of nested &&/|| BinaryExpr nodes
// (stopping at parentheses/other expression kinds, which reset the
// sequence per SPEC_FULL.md §4.5 rule 3) and returns the operator sequence
// in left-to-right order, marking every node visited so the generic
// traversal above does not double-count them.
func (w *goCognitiveWalker) flattenBooleanChain(expr ast.Expr) []token.Token {
	n, ok := expr.(*ast.BinaryExpr)
	if !ok || (n.Op != token.LAND && n.Op != token.LOR) {
		return nil
	}
	w.chainVisited[n] = true

	var ops []token.Token
	ops = append(ops, w.flattenBooleanChain(n.X)...)
	ops = append(ops, n.Op)
	ops = append(ops, w.flattenBooleanChain(n.Y)...)
	return ops
}

// countRuns counts the number of maximal same-operator runs in ops (the
// "+1 per operator-type transition" rule).
func countRuns(ops []token.Token) int {
	if len(ops) == 0 {
		return 0
	}
	runs := 1
	for i := 1; i < len(ops); i++ {
		if ops[i] != ops[i-1] {
			runs++
		}
	}
	return runs
}
