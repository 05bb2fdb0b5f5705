package python

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// pyFunction wraps a single function_definition/async_function_definition
// node for complexity analysis. Grounded on the teacher's PythonFunction.
type pyFunction struct {
	node   *sitter.Node
	source []byte
}

func newPyFunction(node *sitter.Node, source []byte) *pyFunction {
	return &pyFunction{node: node, source: source}
}

// Name extracts the function's identifier. A method defined directly in a
// class body (decorated or not) is qualified as "Class.method".
func (f *pyFunction) Name() string {
	cursor := sitter.NewTreeCursor(f.node)
	defer cursor.Close()

	name := "unknown"
	if cursor.GoToFirstChild() {
		for {
			if cursor.CurrentNode().Type() == "identifier" {
				name = cursor.CurrentNode().Content(f.source)
				break
			}
			if !cursor.GoToNextSibling() {
				break
			}
		}
	}

	parent := f.node.Parent()
	if parent != nil && parent.Type() == "decorated_definition" {
		parent = parent.Parent()
	}
	if parent != nil && parent.Type() == "block" {
		if class := parent.Parent(); class != nil && class.Type() == "class_definition" {
			if className := class.ChildByFieldName("name"); className != nil {
				return className.Content(f.source) + "." + name
			}
		}
	}
	return name
}

func (f *pyFunction) StartLine() int { return int(f.node.StartPoint().Row) + 1 }
func (f *pyFunction) EndLine() int   { return int(f.node.EndPoint().Row) + 1 }

// CyclomaticComplexity: McCabe's 1 + decision points.
func (f *pyFunction) CyclomaticComplexity() int {
	complexity := 1
	cursor := sitter.NewTreeCursor(f.node)
	defer cursor.Close()
	f.countDecisionPoints(cursor, &complexity, true)
	return complexity
}

// countDecisionPoints skips nested function/async function/decorated
// definitions (except at the root, which is the function being measured)
// for the same reason pyCognitiveWalker.walk does: parser.go's
// walkFunctionDefsCursor visits and scores them independently, so descending
// here would count their decision points twice.
func (f *pyFunction) countDecisionPoints(cursor *sitter.TreeCursor, complexity *int, isRoot bool) {
	node := cursor.CurrentNode()
	nodeType := node.Type()

	if !isRoot && (nodeType == "function_definition" || nodeType == "async_function_definition" || nodeType == "decorated_definition") {
		return
	}

	switch nodeType {
	case "if_statement", "elif_clause", "for_statement", "while_statement",
		"try_statement", "except_clause", "with_statement",
		"match_statement", "case_clause", "boolean_operator",
		"conditional_expression":
		*complexity++
	case "list_comprehension", "dictionary_comprehension",
		"set_comprehension", "generator_expression":
		if hasIfClauseNode(node) {
			*complexity++
		}
	}

	if cursor.GoToFirstChild() {
		for {
			f.countDecisionPoints(cursor, complexity, false)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}

// CognitiveComplexity implements SPEC_FULL.md §4.5: +1 plus nesting for
// if/for/while/match/except and filtered comprehensions, a try body that
// raises nesting without scoring, non-stacking elif/else, and chain-run
// boolean-operator counting (rule 3) via flattenBooleanChain.
func (f *pyFunction) CognitiveComplexity() int {
	w := &pyCognitiveWalker{
		funcName:     f.Name(),
		chainVisited: make(map[uint32]bool),
	}
	cursor := sitter.NewTreeCursor(f.node)
	defer cursor.Close()
	w.walk(cursor, f.source, 0, true)
	return w.score
}

type pyCognitiveWalker struct {
	score        int
	funcName     string
	chainVisited map[uint32]bool
}

func (w *pyCognitiveWalker) walk(cursor *sitter.TreeCursor, source []byte, nesting int, isRoot bool) {
	node := cursor.CurrentNode()
	nodeType := node.Type()

	// Nested function/async function/decorated definitions are scored by
	// their own independent CognitiveComplexity() call (parser.go's
	// walkFunctionDefsCursor visits every function_definition in the file);
	// descending into one here would double-count its body. The root node
	// of the walk is itself a function_definition (the function being
	// scored), so the boundary only applies below the root.
	if !isRoot && (nodeType == "function_definition" || nodeType == "async_function_definition" || nodeType == "decorated_definition") {
		return
	}

	childNesting := nesting
	switch nodeType {
	case "if_statement":
		w.score += 1 + nesting
		childNesting = nesting + 1
	case "for_statement", "while_statement":
		w.score += 1 + nesting
		childNesting = nesting + 1
	case "try_statement":
		childNesting = nesting + 1
	case "match_statement":
		w.score += 1 + nesting
		childNesting = nesting + 1
	case "elif_clause":
		// Non-stacking: +1, body uses the enclosing if's nesting (the
		// current `nesting` value this elif_clause itself was reached at,
		// which already equals the enclosing if's body nesting).
		w.score++
	case "else_clause":
		w.score++
	case "except_clause":
		w.score += 1 + nesting
		childNesting = nesting + 1
	case "conditional_expression":
		w.score += 1 + nesting
	case "boolean_operator":
		if !w.chainVisited[node.StartByte()] {
			var ops []string
			w.flattenBooleanChain(node, source, &ops)
			w.score += countRuns(ops)
		}
	case "list_comprehension", "dictionary_comprehension",
		"set_comprehension", "generator_expression":
		if hasIfClauseNode(node) {
			w.score += 1 + nesting
		}
	case "call":
		if callee := node.ChildByFieldName("function"); callee != nil &&
			callee.Type() == "identifier" && callee.Content(source) == w.funcName {
			w.score++
		}
	}

	if cursor.GoToFirstChild() {
		for {
			w.walk(cursor, source, childNesting, false)
			if !cursor.GoToNextSibling() {
				break
			}
		}
		cursor.GoToParent()
	}
}

// flattenBooleanChain descends through nested boolean_operator children
// (parentheses/non-operator operands stop the descent, which is exactly
// the "grouping parentheses reset the sequence" rule) collecting the
// "and"/"or" operator tokens in left-to-right order, and marks every
// boolean_operator node visited so the outer walk does not re-add them.
func (w *pyCognitiveWalker) flattenBooleanChain(node *sitter.Node, source []byte, ops *[]string) {
	if node.Type() != "boolean_operator" {
		return
	}
	w.chainVisited[node.StartByte()] = true

	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()
	if cursor.GoToFirstChild() {
		for {
			child := cursor.CurrentNode()
			switch child.Type() {
			case "and", "or":
				*ops = append(*ops, child.Type())
			case "boolean_operator":
				w.flattenBooleanChain(child, source, ops)
			}
			if !cursor.GoToNextSibling() {
				break
			}
		}
	}
}

func countRuns(ops []string) int {
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

func hasIfClauseNode(node *sitter.Node) bool {
	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()
	if cursor.GoToFirstChild() {
		for {
			if cursor.CurrentNode().Type() == "if_clause" {
				return true
			}
			if !cursor.GoToNextSibling() {
				break
			}
		}
	}
	return false
}
