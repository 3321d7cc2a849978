package index

import (
	"testing"

	"github.com/google/uuid"

	"github.com/kjxref/kjxref/internal/model"
)

func decl(file string, start int, fqn, name string, kind model.DeclKind) *model.Declaration {
	return &model.Declaration{
		Name: name, FQN: fqn, Kind: kind,
		Pos: model.Position{File: file, Start: start, End: start + len(name)},
	}
}

func TestBuilderMergesAndSorts(t *testing.T) {
	b := NewBuilder()
	b.Add(&model.FileFacts{
		Path: "b.kt",
		Declarations: []*model.Declaration{
			decl("b.kt", 50, "p.B", "B", model.KindClass),
		},
	})
	b.Add(&model.FileFacts{
		Path: "a.kt",
		Declarations: []*model.Declaration{
			decl("a.kt", 20, "p.A", "A", model.KindClass),
			decl("a.kt", 5, "p.A2", "A2", model.KindClass),
		},
	})

	idx := b.Build(uuid.New())

	files := idx.AllFiles()
	if len(files) != 2 || files[0] != "a.kt" || files[1] != "b.kt" {
		t.Errorf("AllFiles() = %v, want [a.kt b.kt]", files)
	}

	got := idx.ByFQN("p.A")
	if len(got) != 1 || got[0].Name != "A" {
		t.Errorf("ByFQN(p.A) = %+v", got)
	}

	byName := idx.BySimpleName("A2")
	if len(byName) != 1 {
		t.Fatalf("BySimpleName(A2) = %+v, want 1 result", byName)
	}
}

func TestBuilderOverloadsAreNotFlaggedAsDuplicates(t *testing.T) {
	b := NewBuilder()
	b.Add(&model.FileFacts{
		Path: "a.kt",
		Declarations: []*model.Declaration{
			decl("a.kt", 10, "p.C.f", "f", model.KindMethod),
			decl("a.kt", 40, "p.C.f", "f", model.KindMethod),
		},
	})
	if len(b.Warnings) != 0 {
		t.Errorf("expected no warnings for method overloads, got %v", b.Warnings)
	}
	idx := b.Build(uuid.New())
	if got := idx.ByFQN("p.C.f"); len(got) != 2 {
		t.Errorf("ByFQN(p.C.f) = %d decls, want 2 (both overloads kept)", len(got))
	}
}

func TestBuilderFlagsSpuriousDuplicateClasses(t *testing.T) {
	b := NewBuilder()
	b.Add(&model.FileFacts{
		Path: "a.kt",
		Declarations: []*model.Declaration{
			decl("a.kt", 10, "p.C", "C", model.KindClass),
		},
	})
	b.Add(&model.FileFacts{
		Path: "b.kt",
		Declarations: []*model.Declaration{
			decl("b.kt", 10, "p.C", "C", model.KindClass),
		},
	})
	if len(b.Warnings) != 1 {
		t.Errorf("expected one warning for duplicate class FQN, got %d: %v", len(b.Warnings), b.Warnings)
	}
	idx := b.Build(uuid.New())
	// §7: the later declaration wins in decls_by_fqn...
	if got := idx.ByFQN("p.C"); len(got) != 1 || got[0].Pos.File != "b.kt" {
		t.Errorf("ByFQN(p.C) = %+v, want exactly the later (b.kt) declaration", got)
	}
	// ...but both are kept in decls_by_simple_name.
	if got := idx.BySimpleName("C"); len(got) != 2 {
		t.Errorf("BySimpleName(C) = %d decls, want 2 (both kept)", len(got))
	}
}

func TestScopeAt(t *testing.T) {
	root := &model.Scope{Kind: model.ScopeFile, Start: 0, End: -1, Declared: map[string]bool{}}
	fn := &model.Scope{Kind: model.ScopeFunction, Parent: root, Start: 10, End: 30, Declared: map[string]bool{}}
	root.Children = []*model.Scope{fn}

	b := NewBuilder()
	b.Add(&model.FileFacts{Path: "a.kt", RootScope: root})
	idx := b.Build(uuid.New())

	if got := idx.ScopeAt("a.kt", 15); got != fn {
		t.Errorf("ScopeAt(15) = %v, want fn", got)
	}
	if got := idx.ScopeAt("missing.kt", 15); got != nil {
		t.Errorf("ScopeAt for unindexed file = %v, want nil", got)
	}
}
