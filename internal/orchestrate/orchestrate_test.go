package orchestrate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, root, "core/User.kt", `package com.example.core

class User(val name: String)

val User.isAdmin: Boolean
    get() = name == "admin"
`)
	writeFile(t, root, "feature/UserProfile.kt", `package com.example.feature

import com.example.core.User
import com.example.core.isAdmin

class UserProfile {
    fun show(user: User) {
        user.isAdmin
    }
}
`)
	writeFile(t, root, "service/UserService.kt", `package com.example.service

class UserService {
    companion object {
        const val MAX_USERS = 100
    }
}
`)
	writeFile(t, root, "app/Config.kt", `package com.example.app

import com.example.service.UserService

class Config {
    fun limit(): Int {
        return UserService.MAX_USERS
    }
}
`)
	writeFile(t, root, "model/LombokUser.java", `package com.example.model;

import lombok.Data;

@Data
public class LombokUser {
    private String username;
}
`)
	writeFile(t, root, "model/JavaHelper.java", `package com.example.model;

import com.example.core.User;

public class JavaHelper {
    public User createUser() {
        return new User();
    }
}
`)
	// A build-output directory that must be skipped during discovery.
	writeFile(t, root, "build/Generated.kt", `package com.example.generated

class ShouldNotBeIndexed
`)
	return root
}

func TestReindexDiscoversFilesAndSkipsBuildDirs(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})

	report, err := e.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if report.FilesIndexed != 6 {
		t.Errorf("FilesIndexed = %d, want 6 (build/ dir must be skipped)", report.FilesIndexed)
	}

	idx := e.Index()
	if idx == nil {
		t.Fatal("expected a sealed index after Reindex")
	}
	for _, f := range idx.AllFiles() {
		if filepath.Base(filepath.Dir(f)) == "build" {
			t.Errorf("index contains file from skipped build dir: %s", f)
		}
	}
}

func TestFindDefinitionExtensionFunction(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})
	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	hits, err := e.FindDefinition("isAdmin", "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one definition for isAdmin")
	}
	found := false
	for _, h := range hits {
		if filepath.Base(h.File) == "User.kt" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected isAdmin definition in User.kt, got %+v", hits)
	}
}

func TestFindUsagesExcludesImportSite(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})
	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	hits, err := e.FindUsages("isAdmin", "", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	foundUsage := false
	for _, h := range hits {
		if strings.HasPrefix(strings.TrimSpace(h.ContextSnippet), "import ") {
			t.Errorf("expected the import of isAdmin to be excluded, got %+v", h)
		}
		if filepath.Base(h.File) == "UserProfile.kt" {
			foundUsage = true
		}
	}
	if !foundUsage {
		t.Errorf("expected a usage of isAdmin in UserProfile.kt, got %+v", hits)
	}
}

func TestFindUsagesCompanionMemberAcrossFiles(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})
	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	defs, err := e.FindDefinition("MAX_USERS", "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) == 0 {
		t.Fatal("expected MAX_USERS to resolve inside UserService's companion object")
	}

	usages, err := e.FindUsages("MAX_USERS", "", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	foundConfigUsage := false
	for _, h := range usages {
		if filepath.Base(h.File) == "Config.kt" {
			foundConfigUsage = true
		}
	}
	if !foundConfigUsage {
		t.Errorf("expected UserService.MAX_USERS usage in Config.kt, got %+v", usages)
	}
}

func TestFindDefinitionLombokGetterAcrossJavaFiles(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})
	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	hits, err := e.FindDefinition("getUsername", "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected getUsername to resolve to the Lombok-synthesized accessor")
	}
	found := false
	for _, h := range hits {
		if filepath.Base(h.File) == "LombokUser.java" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected synthesized getUsername position inside LombokUser.java, got %+v", hits)
	}
}

func TestFindUsagesCrossLanguageUser(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})
	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}

	usages, err := e.FindUsages("User", "", 0, false)
	if err != nil {
		t.Fatal(err)
	}
	var sawKotlin, sawJava bool
	for _, h := range usages {
		switch filepath.Ext(h.File) {
		case ".kt":
			sawKotlin = true
		case ".java":
			sawJava = true
		}
	}
	if !sawKotlin {
		t.Error("expected at least one Kotlin-side usage of User")
	}
	if !sawJava {
		t.Error("expected at least one Java-side usage of User (JavaHelper)")
	}
}

func TestReindexStillIndexesFileWithSyntaxError(t *testing.T) {
	root := t.TempDir()
	// Broken.kt has an unclosed brace (a genuine parse error) but a fully
	// well-formed declaration ahead of it; per §4.1/§7 the build must not
	// drop the file entirely, only report the error alongside a best-effort
	// partial index.
	writeFile(t, root, "Broken.kt", `package com.example.broken

class Recovered {
    fun ok(): String = "fine"
}

class Unclosed {
    fun bad( {
`)
	e := New(Options{Root: root, WorkerCount: 1})

	report, err := e.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if len(report.Errors) == 0 {
		t.Fatal("expected the syntax error to be reported")
	}
	if report.FilesIndexed != 1 {
		t.Errorf("FilesIndexed = %d, want 1 (broken file still indexed for what could be recovered)", report.FilesIndexed)
	}

	hits, err := e.FindDefinition("Recovered", "", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatal("expected Recovered's declaration to survive extraction despite the later syntax error")
	}
}

func TestReindexIsAtomicAcrossSnapshots(t *testing.T) {
	root := newTestProject(t)
	e := New(Options{Root: root, WorkerCount: 2})

	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}
	first := e.Index()

	if _, err := e.Reindex(context.Background()); err != nil {
		t.Fatal(err)
	}
	second := e.Index()

	if first == second {
		t.Error("expected reindex to produce a distinct sealed snapshot")
	}
	if second.ID == first.ID {
		t.Error("expected a new snapshot ID after reindex")
	}
}
