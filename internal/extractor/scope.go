package extractor

import "github.com/kjxref/kjxref/internal/model"

// scopeBuilder tracks the scope stack while walking a file's CST top-down,
// mirroring the containing-FQN bookkeeping the same walk already does (C5).
type scopeBuilder struct {
	root  *model.Scope
	stack []*model.Scope
}

func newScopeBuilder(imports []model.Import) *scopeBuilder {
	root := &model.Scope{
		Kind:     model.ScopeFile,
		Start:    0,
		End:      -1,
		Declared: map[string]bool{},
		Imports:  imports,
	}
	return &scopeBuilder{root: root, stack: []*model.Scope{root}}
}

func (b *scopeBuilder) current() *model.Scope {
	return b.stack[len(b.stack)-1]
}

// push opens a new child scope over [start,end] under the current scope
// (Scope.Contains treats End as inclusive).
func (b *scopeBuilder) push(kind model.ScopeKind, name string, start, end int) *model.Scope {
	s := &model.Scope{
		Kind:     kind,
		Name:     name,
		Parent:   b.current(),
		Start:    start,
		End:      end,
		Declared: map[string]bool{},
		Imports:  b.root.Imports,
	}
	b.current().Children = append(b.current().Children, s)
	b.stack = append(b.stack, s)
	return s
}

func (b *scopeBuilder) pop() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

func (b *scopeBuilder) declare(name string) {
	if name != "" {
		b.current().Declared[name] = true
	}
}
