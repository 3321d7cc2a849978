// Package extractor turns a parsed CST into per-file facts: declarations,
// references, imports, and a scope tree (C2/C3 in the design, with FQN
// assignment — C5 — folded into the same top-down walk rather than run as a
// second pass, since both need the same containing-FQN bookkeeping).
package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kjxref/kjxref/internal/model"
)

// Extractor produces FileFacts from a single file's parsed content. Kotlin
// and Java each satisfy it with no shared implementation; the resolver only
// ever sees their common output (model.FileFacts), never the CST.
type Extractor interface {
	Language() model.Language
	Extract(path string, content []byte) (*model.FileFacts, error)
}

func text(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return n.Content(content)
}

func posOf(path string, n *sitter.Node) model.Position {
	if n == nil {
		return model.Position{File: path}
	}
	return model.Position{File: path, Start: int(n.StartByte()), End: int(n.EndByte())}
}

// findChild returns the first direct child of n whose node type is typ.
func findChild(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			return c
		}
	}
	return nil
}

// findChildren returns every direct child of n whose node type is typ.
func findChildren(n *sitter.Node, typ string) []*sitter.Node {
	var out []*sitter.Node
	if n == nil {
		return out
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if c != nil && c.Type() == typ {
			out = append(out, c)
		}
	}
	return out
}

// children returns every direct child of n.
func children(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	if n == nil {
		return out
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// findDescendant does a depth-first search for the first node of type typ
// anywhere under n, not just direct children. Used for shapes that vary
// slightly between grammar versions (e.g. a name nested one level deeper
// than expected).
func findDescendant(n *sitter.Node, typ string) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == typ {
		return n
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		if found := findDescendant(n.Child(i), typ); found != nil {
			return found
		}
	}
	return nil
}

// join builds a dotted FQN from a (possibly empty) containing FQN and a
// simple name, per invariant I1: no separator when containing is empty.
func join(containing, name string) string {
	if containing == "" {
		return name
	}
	return containing + "." + name
}

// containsWord does a loose substring check used the same way the teacher's
// kotlin_parser.go checks modifier text (e.g. "contains data") instead of
// depending on exact node shapes for every Kotlin grammar modifier.
func containsWord(haystack, word string) bool {
	n, w := len(haystack), len(word)
	if w == 0 || n < w {
		return false
	}
	for i := 0; i+w <= n; i++ {
		if haystack[i:i+w] != word {
			continue
		}
		before := i == 0 || !isIdentByte(haystack[i-1])
		after := i+w == n || !isIdentByte(haystack[i+w])
		if before && after {
			return true
		}
	}
	return false
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
