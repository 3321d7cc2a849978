// Package index holds the cross-file global index (C6): four maps merged
// from every file's facts, sealed and read-only once built. No lookup here
// ever triggers a CST walk — everything is drawn from model.FileFacts.
package index

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/kjxref/kjxref/internal/model"
)

// Index is an immutable snapshot of the merged global state. Safe for
// concurrent reads by any number of goroutines; never mutated after Build.
type Index struct {
	ID uuid.UUID

	declsByFQN    map[string][]*model.Declaration
	declsBySimple map[string][]*model.Declaration
	refsBySimple  map[string][]*model.Reference
	files         map[string]*model.FileFacts
}

// ByFQN returns every declaration whose FQN matches exactly (stable order:
// per file, then by byte offset).
func (idx *Index) ByFQN(fqn string) []*model.Declaration {
	return idx.declsByFQN[fqn]
}

// BySimpleName returns every declaration with the given simple name, across
// all files and FQNs.
func (idx *Index) BySimpleName(name string) []*model.Declaration {
	return idx.declsBySimple[name]
}

// RefsByName returns every reference with the given simple name.
func (idx *Index) RefsByName(name string) []*model.Reference {
	return idx.refsBySimple[name]
}

// File returns the FileFacts for path, if indexed.
func (idx *Index) File(path string) (*model.FileFacts, bool) {
	ff, ok := idx.files[path]
	return ff, ok
}

// AllFiles returns every indexed path, sorted lexicographically.
func (idx *Index) AllFiles() []string {
	paths := make([]string, 0, len(idx.files))
	for p := range idx.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ScopeAt finds the innermost scope enclosing byte offset pos in file.
func (idx *Index) ScopeAt(file string, pos int) *model.Scope {
	ff, ok := idx.files[file]
	if !ok || ff.RootScope == nil {
		return nil
	}
	return ff.RootScope.InnermostAt(pos)
}

// Warning is a non-fatal build-time observation (§7 "invariant violation"),
// collected but never surfaced as an error.
type Warning struct {
	Message string
}

// Builder accumulates FileFacts from the orchestrator's single merger
// goroutine (§5: "coarse-grained data parallelism during build, single-
// writer after"). Not safe for concurrent Add calls — by design, there is
// exactly one merger.
type Builder struct {
	declsByFQN    map[string][]*model.Declaration
	declsBySimple map[string][]*model.Declaration
	refsBySimple  map[string][]*model.Reference
	files         map[string]*model.FileFacts

	order    []*model.Declaration // all declarations in merge order, for ordering ties
	Warnings []Warning
}

func NewBuilder() *Builder {
	return &Builder{
		declsByFQN:    map[string][]*model.Declaration{},
		declsBySimple: map[string][]*model.Declaration{},
		refsBySimple:  map[string][]*model.Reference{},
		files:         map[string]*model.FileFacts{},
	}
}

// Add merges one file's facts into the accumulating maps.
func (b *Builder) Add(ff *model.FileFacts) {
	if ff == nil {
		return
	}
	b.files[ff.Path] = ff

	for _, d := range ff.Declarations {
		if existing := b.declsByFQN[d.FQN]; len(existing) > 0 && duplicateLooksSpurious(existing, d) {
			b.Warnings = append(b.Warnings, Warning{Message: fmt.Sprintf(
				"possible duplicate declaration at FQN %q: %s:%d and %s:%d", d.FQN,
				existing[0].Pos.File, existing[0].Pos.Start, d.Pos.File, d.Pos.Start)})
			// §7: the later declaration wins in decls_by_fqn, but both are
			// kept in decls_by_simple_name.
			b.declsByFQN[d.FQN] = []*model.Declaration{d}
		} else {
			b.declsByFQN[d.FQN] = append(b.declsByFQN[d.FQN], d)
		}
		b.declsBySimple[d.Name] = append(b.declsBySimple[d.Name], d)
		b.order = append(b.order, d)
	}
	for _, r := range ff.References {
		b.refsBySimple[r.Name] = append(b.refsBySimple[r.Name], r)
	}
}

// duplicateLooksSpurious flags two declarations at the same FQN as a likely
// extraction artifact rather than a legitimate overload/enum-shadow: same
// non-overloadable kind, different position.
func duplicateLooksSpurious(existing []*model.Declaration, d *model.Declaration) bool {
	switch d.Kind {
	case model.KindMethod, model.KindFunction, model.KindConstructor:
		return false // overloads are expected and legitimate
	}
	for _, e := range existing {
		if e.Kind == d.Kind && e.Pos != d.Pos {
			return true
		}
	}
	return false
}

// Build seals the accumulated state into an immutable Index, sorting every
// slice into the (file path, byte offset) order the spec requires for
// result determinism (§6, §8 P6).
func (b *Builder) Build(id uuid.UUID) *Index {
	for _, list := range b.declsByFQN {
		sortDecls(list)
	}
	for _, list := range b.declsBySimple {
		sortDecls(list)
	}
	for _, list := range b.refsBySimple {
		sortRefs(list)
	}
	return &Index{
		ID:            id,
		declsByFQN:    b.declsByFQN,
		declsBySimple: b.declsBySimple,
		refsBySimple:  b.refsBySimple,
		files:         b.files,
	}
}

func sortDecls(list []*model.Declaration) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Pos.File != list[j].Pos.File {
			return list[i].Pos.File < list[j].Pos.File
		}
		return list[i].Pos.Start < list[j].Pos.Start
	})
}

func sortRefs(list []*model.Reference) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Pos.File != list[j].Pos.File {
			return list[i].Pos.File < list[j].Pos.File
		}
		return list[i].Pos.Start < list[j].Pos.Start
	})
}
