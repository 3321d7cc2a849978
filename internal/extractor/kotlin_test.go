package extractor

import (
	"testing"

	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/parser"
)

func extractKotlin(t *testing.T, path, src string) *model.FileFacts {
	t.Helper()
	d := parser.NewDriver()
	ex := NewKotlinExtractor(d)
	ff, err := ex.Extract(path, []byte(src))
	if err != nil {
		t.Logf("extract returned non-fatal error: %v", err)
	}
	if ff == nil {
		t.Fatal("expected non-nil FileFacts even on parse error (best-effort extraction, §7)")
	}
	return ff
}

func declByFQN(ff *model.FileFacts, fqn string) *model.Declaration {
	for _, d := range ff.Declarations {
		if d.FQN == fqn {
			return d
		}
	}
	return nil
}

func TestKotlinPackageAndImports(t *testing.T) {
	src := `package com.example.core

import com.example.util.Logger
import com.example.util.*
import com.example.util.Helper as H
`
	ff := extractKotlin(t, "Core.kt", src)
	if ff.Package != "com.example.core" {
		t.Errorf("Package = %q, want com.example.core", ff.Package)
	}
	if len(ff.Imports) != 3 {
		t.Fatalf("expected 3 imports, got %d: %+v", len(ff.Imports), ff.Imports)
	}
	if ff.Imports[0].FQN != "com.example.util.Logger" || ff.Imports[0].Wildcard {
		t.Errorf("import[0] = %+v, want explicit com.example.util.Logger", ff.Imports[0])
	}
	if !ff.Imports[1].Wildcard || ff.Imports[1].FQN != "com.example.util" {
		t.Errorf("import[1] = %+v, want wildcard com.example.util", ff.Imports[1])
	}
	if ff.Imports[2].Alias != "H" || ff.Imports[2].FQN != "com.example.util.Helper" {
		t.Errorf("import[2] = %+v, want aliased com.example.util.Helper as H", ff.Imports[2])
	}
}

func TestKotlinClassAndNestedFQN(t *testing.T) {
	src := `package p

class A {
    class B {
        fun f() {}
    }
}
`
	ff := extractKotlin(t, "A.kt", src)
	if declByFQN(ff, "p.A") == nil {
		t.Error("expected declaration p.A")
	}
	// invariant I4: nested class FQNs chain through their container.
	if declByFQN(ff, "p.A.B") == nil {
		t.Error("expected nested class FQN p.A.B")
	}
	m := declByFQN(ff, "p.A.B.f")
	if m == nil || m.Kind != model.KindMethod {
		t.Errorf("expected method p.A.B.f, got %+v", m)
	}
}

func TestKotlinCompanionObjectDualFQN(t *testing.T) {
	src := `package p

class UserService {
    companion object {
        const val MAX_USERS = 100
    }
}
`
	ff := extractKotlin(t, "UserService.kt", src)
	comp := declByFQN(ff, "p.UserService.Companion.MAX_USERS")
	shadow := declByFQN(ff, "p.UserService.MAX_USERS")
	if comp == nil || shadow == nil {
		t.Fatalf("expected both companion and shadow declarations, decls=%+v", ff.Declarations)
	}
	if comp.Pos != shadow.Pos {
		t.Error("expected companion member and its shadow to share a position (I2)")
	}
}

func TestKotlinExtensionFunction(t *testing.T) {
	src := `package p

val User.isAdmin: Boolean
    get() = role == "admin"

fun User.greet(): String {
    return "hi"
}
`
	ff := extractKotlin(t, "Extensions.kt", src)
	greet := declByFQN(ff, "p.greet")
	if greet == nil {
		t.Fatal("expected extension function declaration p.greet")
	}
	if greet.Kind != model.KindExtensionFunction {
		t.Errorf("Kind = %v, want ExtensionFunction", greet.Kind)
	}
	if greet.Receiver != "User" {
		t.Errorf("Receiver = %q, want User", greet.Receiver)
	}
}

func TestKotlinTypeAlias(t *testing.T) {
	src := `package p

typealias UserId = String
`
	ff := extractKotlin(t, "Types.kt", src)
	alias := declByFQN(ff, "p.UserId")
	if alias == nil || alias.Kind != model.KindTypeAlias {
		t.Fatalf("expected type alias p.UserId, got %+v", alias)
	}
	if alias.AliasTarget != "String" {
		t.Errorf("AliasTarget = %q, want String", alias.AliasTarget)
	}
}

func TestKotlinEnumEntries(t *testing.T) {
	src := `package p

enum class Status {
    ACTIVE,
    INACTIVE
}
`
	ff := extractKotlin(t, "Status.kt", src)
	if declByFQN(ff, "p.Status.ACTIVE") == nil {
		t.Error("expected enum constant p.Status.ACTIVE")
	}
	if declByFQN(ff, "p.Status.INACTIVE") == nil {
		t.Error("expected enum constant p.Status.INACTIVE")
	}
}

func TestKotlinReferencesCapturedForUsages(t *testing.T) {
	src := `package p

import p.other.Config

class App {
    fun run() {
        val user = User()
        user.isAdmin
    }
}
`
	ff := extractKotlin(t, "App.kt", src)

	var sawImportRef, sawPropAccess bool
	for _, ref := range ff.References {
		if ref.Kind == model.RefImport && ref.Name == "Config" {
			sawImportRef = true
		}
		if ref.Name == "isAdmin" && ref.Kind == model.RefPropAccess {
			sawPropAccess = true
		}
	}
	if !sawImportRef {
		t.Error("expected an import reference for Config")
	}
	if !sawPropAccess {
		t.Error("expected a property-access reference for user.isAdmin")
	}
}

func TestKotlinScopeTreeInnermostLookup(t *testing.T) {
	src := `package p

class A {
    fun f() {
        val x = 1
    }
}
`
	ff := extractKotlin(t, "A.kt", src)
	if ff.RootScope == nil {
		t.Fatal("expected a non-nil root scope")
	}
	// somewhere inside the body of f(), the innermost scope must be the
	// function scope, not the file or class scope.
	fDecl := declByFQN(ff, "p.A.f")
	if fDecl == nil {
		t.Fatal("expected method p.A.f")
	}
	inner := ff.RootScope.InnermostAt(fDecl.Pos.Start + 5)
	if inner == nil || inner.Kind != model.ScopeFunction {
		t.Errorf("expected innermost scope at f's body to be a function scope, got %+v", inner)
	}
}
