// internal/toolrunner/syntax.go
package toolrunner

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

const maxSyntaxErrorDepth = 1000

// CheckSyntax parses code as Python and reports whether it is syntactically
// valid. On failure the second return value describes the first error as
// "line <n>: <message>" using one-based line numbers. The check is pure: it
// never touches the filesystem and never launches a subprocess.
func CheckSyntax(code string) (bool, string) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	src := []byte(code)
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return false, fmt.Sprintf("line 1: parse failed: %v", err)
	}
	defer tree.Close()

	if node := firstErrorNode(tree.RootNode(), 0); node != nil {
		return false, fmt.Sprintf("line %d: %s", node.StartPoint().Row+1, describeErrorNode(node, src))
	}
	return true, ""
}

// firstErrorNode walks the tree depth-first and returns the first ERROR or
// MISSING node, or nil when the parse is clean.
func firstErrorNode(node *sitter.Node, depth int) *sitter.Node {
	if depth > maxSyntaxErrorDepth {
		return nil
	}
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstErrorNode(node.Child(i), depth+1); found != nil {
			return found
		}
	}
	return nil
}

func describeErrorNode(node *sitter.Node, src []byte) string {
	if node.IsMissing() {
		return fmt.Sprintf("missing %s", node.Type())
	}

	start, end := node.StartByte(), node.EndByte()
	if end > uint32(len(src)) {
		end = uint32(len(src))
	}
	if end > start && end-start <= 50 {
		return fmt.Sprintf("invalid syntax near %q", string(src[start:end]))
	}
	return "invalid syntax"
}
