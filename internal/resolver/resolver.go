// Package resolver answers find-definition and find-usages queries against
// the sealed index (C7). It never touches a CST — everything it needs
//(imports, scopes, FQNs) was already computed by the extractors.
package resolver

import (
	"sort"
	"strings"

	"github.com/kjxref/kjxref/internal/index"
	"github.com/kjxref/kjxref/internal/model"
)

// Hint identifies the call site of a query: a file and a byte offset within
// it. Line/column to byte-offset translation is the caller's job (it has
// the source bytes; the resolver only ever sees offsets).
type Hint struct {
	File string
	Pos  int
}

// Query is a find-definition (or find-usages target) input.
type Query struct {
	Name string
	Hint *Hint
	Kind model.DeclKind // optional restriction (§9A supplemented kind filter); "" = any
}

type Resolver struct {
	idx *index.Index
}

func New(idx *index.Index) *Resolver {
	return &Resolver{idx: idx}
}

// visTier ranks visibility exactly in the §4.7.1 step-6 order: exact FQN
// first, then import-qualified, same-package, wildcard, scope-nested.
type visTier int

const (
	tierNone visTier = iota
	tierExactFQN
	tierImportQualified
	tierSamePackage
	tierWildcard
	tierScopeNested
)

// FindDefinition implements §4.7.1.
func (r *Resolver) FindDefinition(q Query) []*model.Declaration {
	buckets := make([][]*model.Declaration, tierScopeNested+1)

	if strings.Contains(q.Name, ".") {
		r.findDottedDefinition(q, buckets)
	} else {
		r.findBareDefinition(q, buckets)
	}

	// Lombok filter (step 3) and type-alias follow (step 4), per bucket so
	// the tier order from step 6 is preserved.
	for t := range buckets {
		buckets[t] = r.lombokFilter(buckets[t], q.Hint)
		buckets[t] = r.expandAliases(buckets[t])
	}

	var out []*model.Declaration
	for t := 1; t < len(buckets); t++ {
		sortDecls(buckets[t])
		out = append(out, buckets[t]...)
	}
	out = dedupByPosition(out)
	if q.Kind != "" {
		out = filterKind(out, q.Kind)
	}
	return out
}

func (r *Resolver) findDottedDefinition(q Query, buckets [][]*model.Declaration) {
	name := q.Name
	buckets[tierExactFQN] = append(buckets[tierExactFQN], r.idx.ByFQN(name)...)

	// companion unification (§4.7.1 step 5 / §4.7.3): Outer.x <-> Outer.Companion.x
	leading, last := model.LeadingSegment(name), model.LastSegment(name)
	switch {
	case leading != "" && !strings.Contains(leading, "."):
		buckets[tierExactFQN] = append(buckets[tierExactFQN], r.idx.ByFQN(leading+".Companion."+last)...)
	case strings.HasSuffix(leading, ".Companion"):
		outer := strings.TrimSuffix(leading, ".Companion")
		buckets[tierExactFQN] = append(buckets[tierExactFQN], r.idx.ByFQN(outer+"."+last)...)
	}

	if q.Hint == nil {
		return
	}
	hintFF, ok := r.idx.File(q.Hint.File)
	if !ok {
		return
	}

	// resolve the leading segment through imports, then retry the FQN.
	if resolved, ok := resolveImportedLeading(hintFF, leading); ok {
		buckets[tierImportQualified] = append(buckets[tierImportQualified], r.idx.ByFQN(resolved+"."+last)...)
	}

	// follow a type alias whose FQN matches the leading segment.
	if aliasTarget, ok := resolveAliasFQN(r.idx, leading); ok {
		buckets[tierImportQualified] = append(buckets[tierImportQualified], r.idx.ByFQN(aliasTarget+"."+last)...)
	}
}

func (r *Resolver) findBareDefinition(q Query, buckets [][]*model.Declaration) {
	candidates := r.idx.BySimpleName(q.Name)
	if q.Hint == nil {
		buckets[tierExactFQN] = append(buckets[tierExactFQN], candidates...)
		return
	}
	hintFF, ok := r.idx.File(q.Hint.File)
	if !ok {
		buckets[tierExactFQN] = append(buckets[tierExactFQN], candidates...)
		return
	}
	for _, d := range candidates {
		tier := r.classify(d, hintFF, q.Hint.Pos)
		if tier == tierNone {
			continue
		}
		buckets[tier] = append(buckets[tier], d)
	}
}

// classify returns the single best-matching visibility tier for d from the
// perspective of hintFF/hintPos, per §4.7.1 step 2's four conditions, picked
// in the priority order the final result ordering (step 6) requires.
func (r *Resolver) classify(d *model.Declaration, hintFF *model.FileFacts, hintPos int) visTier {
	for _, imp := range hintFF.Imports {
		if !imp.Wildcard && imp.FQN == d.FQN {
			return tierImportQualified
		}
	}
	// A Lombok-synthesized accessor's own FQN (Outer.getX) is never what a
	// caller imports — the containing class is. Visibility for these is
	// judged by the containing class's import/package reachability instead,
	// matching the Lombok filter's own classVisible check (§4.4/§4.7.1 step
	// 3) so a synthesized candidate can actually reach a bucket to be kept.
	if d.Synthesized && d.Containing != "" {
		for _, imp := range hintFF.Imports {
			if !imp.Wildcard && imp.FQN == d.Containing {
				return tierImportQualified
			}
		}
	}
	// A function-local declaration (FQN tagged $local, I1) is not a package
	// member, so only the scope-nested check below can make it visible.
	local := strings.Contains(d.FQN, ".$local.")
	if declFF, ok := r.idx.File(d.Pos.File); ok && !local && declFF.Package != "" && declFF.Package == hintFF.Package {
		return tierSamePackage
	}
	for _, imp := range hintFF.Imports {
		if imp.Wildcard && imp.FQN == d.Containing {
			return tierWildcard
		}
	}
	if hintFF.Path == d.Pos.File && hintFF.RootScope != nil {
		for s := hintFF.RootScope.InnermostAt(hintPos); s != nil; s = s.Parent {
			if s.Declared[d.Name] {
				return tierScopeNested
			}
		}
	}
	return tierNone
}

// resolveImportedLeading finds an import whose local name (alias, or simple
// name if unaliased) equals leading, returning the import's full FQN.
func resolveImportedLeading(ff *model.FileFacts, leading string) (string, bool) {
	if leading == "" {
		return "", false
	}
	for _, imp := range ff.Imports {
		if imp.Wildcard {
			continue
		}
		local := imp.Alias
		if local == "" {
			local = model.LastSegment(imp.FQN)
		}
		if local == leading {
			return imp.FQN, true
		}
	}
	return "", false
}

// resolveAliasFQN returns the alias target of a type-alias declaration whose
// FQN is exactly fqn, if one exists.
func resolveAliasFQN(idx *index.Index, fqn string) (string, bool) {
	for _, d := range idx.ByFQN(fqn) {
		if d.Kind == model.KindTypeAlias {
			return d.AliasTarget, true
		}
	}
	return "", false
}

// expandAliases appends, for every type-alias declaration in decls, the
// declarations its (transitively resolved) target points to (I3, step 4).
func (r *Resolver) expandAliases(decls []*model.Declaration) []*model.Declaration {
	out := append([]*model.Declaration(nil), decls...)
	for _, d := range decls {
		if d.Kind != model.KindTypeAlias {
			continue
		}
		out = append(out, resolveAliasChain(r.idx, d.AliasTarget)...)
	}
	return out
}

// resolveAliasChain follows a chain of type aliases to its non-alias
// target(s), breaking on a repeated FQN (I3's cycle-detection requirement).
func resolveAliasChain(idx *index.Index, target string) []*model.Declaration {
	visited := map[string]bool{}
	for {
		if visited[target] {
			return nil
		}
		visited[target] = true
		decls := idx.ByFQN(target)
		var next string
		isAlias := false
		for _, d := range decls {
			if d.Kind == model.KindTypeAlias {
				isAlias = true
				next = d.AliasTarget
				break
			}
		}
		if !isAlias {
			return decls
		}
		target = next
	}
}

// lombokFilter drops synthesized candidates whose containing class isn't
// importable (or same-package) from the hint file (§4.7.1 step 3). With no
// hint, nothing is dropped — there's no visibility context to judge by.
func (r *Resolver) lombokFilter(decls []*model.Declaration, hint *Hint) []*model.Declaration {
	if hint == nil {
		return decls
	}
	hintFF, ok := r.idx.File(hint.File)
	if !ok {
		return decls
	}
	var out []*model.Declaration
	for _, d := range decls {
		if d.Synthesized && !r.classVisible(d.Containing, hintFF) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (r *Resolver) classVisible(classFQN string, hintFF *model.FileFacts) bool {
	classPackage := ""
	if decls := r.idx.ByFQN(classFQN); len(decls) > 0 {
		if declFF, ok := r.idx.File(decls[0].Pos.File); ok {
			classPackage = declFF.Package
		}
	}
	for _, imp := range hintFF.Imports {
		if imp.Wildcard {
			if imp.FQN == classPackage {
				return true
			}
			continue
		}
		if imp.FQN == classFQN {
			return true
		}
	}
	return classPackage != "" && classPackage == hintFF.Package
}

func filterKind(decls []*model.Declaration, kind model.DeclKind) []*model.Declaration {
	var out []*model.Declaration
	for _, d := range decls {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func dedupByPosition(decls []*model.Declaration) []*model.Declaration {
	seen := map[model.Position]bool{}
	var out []*model.Declaration
	for _, d := range decls {
		if seen[d.Pos] {
			continue
		}
		seen[d.Pos] = true
		out = append(out, d)
	}
	return out
}

func sortDecls(list []*model.Declaration) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Pos.File != list[j].Pos.File {
			return list[i].Pos.File < list[j].Pos.File
		}
		return list[i].Pos.Start < list[j].Pos.Start
	})
}

// FindUsages implements §4.7.2: every reference to name, ordered by
// (file, byte offset). Import references are excluded unless includeImports
// is set (P4).
//
// Step 1-2: when hint resolves name to a non-empty declaration set (the
// "target"), each candidate reference is accepted only if its own candidate
// FQN — resolved at the reference's own site through the same visibility
// pipeline FindDefinition/classify use for a bare name — intersects the
// target's FQNs. A reference's Position doubles as the call site for this
// per-reference resolution, so extension functions, Lombok-synthesized
// accessors, and import-qualified/wildcard/scope-nested visibility are all
// handled for free, the same way they are for find-definition; there is no
// type system, so a qualified reference like "user.isAdmin" is judged purely
// by "isAdmin"'s own visibility at that site, not by user's declared type.
// When hint resolves to nothing (name itself is unrecognized from that call
// site), filtering is skipped and every matching reference is returned — a
// pure name match, per §4.7.2 step 1's documented fallback.
func (r *Resolver) FindUsages(name string, hint *Hint, includeImports bool) []*model.Reference {
	refs := r.idx.RefsByName(name)

	var targetFQNs map[string]bool
	if hint != nil {
		if targets := r.FindDefinition(Query{Name: name, Hint: hint}); len(targets) > 0 {
			targetFQNs = make(map[string]bool, len(targets))
			for _, d := range targets {
				targetFQNs[d.FQN] = true
			}
		}
	}

	var out []*model.Reference
	for _, ref := range refs {
		if !includeImports && ref.Kind == model.RefImport {
			continue
		}
		if targetFQNs != nil && !r.referenceMatchesTargets(ref, name, targetFQNs) {
			continue
		}
		out = append(out, ref)
	}
	sortRefs(out)
	return out
}

// referenceMatchesTargets resolves name as if ref's own position were the
// call site, and reports whether any resulting candidate's FQN is in targets.
func (r *Resolver) referenceMatchesTargets(ref *model.Reference, name string, targets map[string]bool) bool {
	refHint := &Hint{File: ref.Pos.File, Pos: ref.Pos.Start}
	for _, d := range r.FindDefinition(Query{Name: name, Hint: refHint}) {
		if targets[d.FQN] {
			return true
		}
	}
	return false
}

func sortRefs(list []*model.Reference) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Pos.File != list[j].Pos.File {
			return list[i].Pos.File < list[j].Pos.File
		}
		return list[i].Pos.Start < list[j].Pos.Start
	})
}
