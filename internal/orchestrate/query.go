package orchestrate

import (
	"fmt"
	"os"

	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/position"
	"github.com/kjxref/kjxref/internal/resolver"
)

// DefinitionHit is one find_definition result, per §6's result shape.
type DefinitionHit struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	FQN    string `json:"fqn"`
	Kind   string `json:"kind"`
}

// UsageHit is one find_usages result, per §6's result shape.
type UsageHit struct {
	File           string `json:"file"`
	Line           int    `json:"line"`
	Column         int    `json:"column"`
	ContextSnippet string `json:"context_snippet"`
}

// contentCache avoids re-reading the same file for every hit in one query.
type contentCache struct {
	cache map[string][]byte
}

func newContentCache() *contentCache {
	return &contentCache{cache: map[string][]byte{}}
}

func (c *contentCache) get(path string) []byte {
	if b, ok := c.cache[path]; ok {
		return b
	}
	b, _ := os.ReadFile(path)
	c.cache[path] = b
	return b
}

// FindDefinition resolves name to its declaration site(s). hintFile/hintLine
// are optional (hintLine is 1-based, ignored if hintFile is empty).
func (e *Engine) FindDefinition(name, hintFile string, hintLine int, kind model.DeclKind) ([]DefinitionHit, error) {
	idx := e.Index()
	if idx == nil {
		return nil, fmt.Errorf("index not built yet: call reindex first")
	}
	cache := newContentCache()
	r := resolver.New(idx)

	var hint *resolver.Hint
	if hintFile != "" {
		hint = &resolver.Hint{File: hintFile, Pos: position.OffsetForLine(cache.get(hintFile), hintLine)}
	}

	decls := r.FindDefinition(resolver.Query{Name: name, Hint: hint, Kind: kind})
	out := make([]DefinitionHit, 0, len(decls))
	for _, d := range decls {
		line, col := position.LineColumn(cache.get(d.Pos.File), d.Pos.Start)
		out = append(out, DefinitionHit{File: d.Pos.File, Line: line, Column: col, FQN: d.FQN, Kind: string(d.Kind)})
	}
	return out, nil
}

// FindUsages resolves every usage site of name.
func (e *Engine) FindUsages(name, hintFile string, hintLine int, includeImports bool) ([]UsageHit, error) {
	idx := e.Index()
	if idx == nil {
		return nil, fmt.Errorf("index not built yet: call reindex first")
	}
	cache := newContentCache()
	r := resolver.New(idx)

	var hint *resolver.Hint
	if hintFile != "" {
		hint = &resolver.Hint{File: hintFile, Pos: position.OffsetForLine(cache.get(hintFile), hintLine)}
	}

	refs := r.FindUsages(name, hint, includeImports)
	out := make([]UsageHit, 0, len(refs))
	for _, ref := range refs {
		content := cache.get(ref.Pos.File)
		line, col := position.LineColumn(content, ref.Pos.Start)
		out = append(out, UsageHit{
			File: ref.Pos.File, Line: line, Column: col,
			ContextSnippet: position.Snippet(content, ref.Pos.Start),
		})
	}
	return out, nil
}
