// Package model defines the data types shared by the parser, extractors,
// index, and resolver: the per-file facts a language extractor produces and
// the positions, declarations, references, imports, and scopes they are made
// of. Nothing in this package depends on tree-sitter or any other component —
// extractors translate a CST into these types and everything downstream only
// ever sees them.
package model

// Language identifies which grammar produced a fact.
type Language string

const (
	Kotlin Language = "kotlin"
	Java   Language = "java"
)

// Position is a byte range within a single source file. Offsets are over raw
// bytes, not code points; line/column are computed on demand from them.
type Position struct {
	File  string
	Start int
	End   int
}

// DeclKind is the kind of a declaration. Java's and Kotlin's "field" and
// "property" concepts are kept distinct rather than collapsed into one
// value, since the extractors always know which language produced them.
type DeclKind string

const (
	KindClass             DeclKind = "class"
	KindInterface         DeclKind = "interface"
	KindObject            DeclKind = "object"
	KindCompanionObject   DeclKind = "companion_object"
	KindEnum              DeclKind = "enum"
	KindEnumConstant      DeclKind = "enum_constant"
	KindAnnotation        DeclKind = "annotation"
	KindRecord            DeclKind = "record"
	KindFunction          DeclKind = "function"
	KindMethod            DeclKind = "method"
	KindField             DeclKind = "field"
	KindProperty          DeclKind = "property"
	KindConstructor       DeclKind = "constructor"
	KindTypeAlias         DeclKind = "type_alias"
	KindExtensionFunction DeclKind = "extension_function"
)

// Declaration is a named definition site.
type Declaration struct {
	Name        string
	FQN         string
	Kind        DeclKind
	Containing  string // containing FQN; the package for a top-level declaration (empty only without a package)
	Pos         Position
	Language    Language
	Receiver    string // extension functions only
	AliasTarget string // type aliases only, as written (not yet normalized)
	Synthesized bool   // true for Lombok-synthesized accessors

	// FieldType and FieldFinal are populated for Java field declarations
	// only. They exist so the Lombok synthesizer (which must apply to every
	// field of a class-level @Data/@Getter/@Setter, not just a field that
	// itself carries the annotation) can decide getX-vs-isX naming and
	// setter suppression without re-walking the CST.
	FieldType   string
	FieldFinal  bool
	FieldStatic bool
}

// RefKind hints at how a reference was used, for the resolver's import/usage
// filtering (e.g. import references are excluded from find_usages by
// default).
type RefKind string

const (
	RefTypeRef    RefKind = "type-ref"
	RefCall       RefKind = "call"
	RefPropAccess RefKind = "property-access"
	RefImport     RefKind = "import"
	RefUnknown    RefKind = "unknown"
)

// Reference is a use of a name at a call or use site.
type Reference struct {
	Name      string
	Qualifier string // dotted prefix as written, e.g. "user" in "user.isAdmin"; empty if bare
	Pos       Position
	Scope     *Scope
	Language  Language
	Kind      RefKind
}

// LastSegment returns the final dotted component of a (possibly qualified)
// name, e.g. "a.b.C" -> "C".
func LastSegment(name string) string {
	idx := -1
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			idx = i
		}
	}
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

// LeadingSegment returns everything before the last dotted component, e.g.
// "a.b.C" -> "a.b". Empty if name has no dot.
func LeadingSegment(name string) string {
	idx := -1
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			idx = i
		}
	}
	if idx < 0 {
		return ""
	}
	return name[:idx]
}

// Import is a single import statement.
type Import struct {
	FQN      string
	Alias    string // local alias, empty if none
	Wildcard bool
	Pos      Position
	File     string
}

// ScopeKind distinguishes the shape of a scope node.
type ScopeKind string

const (
	ScopeFile      ScopeKind = "file"
	ScopeClass     ScopeKind = "class"
	ScopeObject    ScopeKind = "object"
	ScopeCompanion ScopeKind = "companion_object"
	ScopeFunction  ScopeKind = "function"
	ScopeLambda    ScopeKind = "lambda"
)

// Scope is a byte-range region of a file with its own declared simple names.
// Scopes form a tree rooted at the file; the innermost-enclosing scope for a
// position is found by walking down from the root.
type Scope struct {
	Kind     ScopeKind
	Name     string
	Parent   *Scope
	Children []*Scope
	Start    int
	End      int // -1 means "to end of file"

	// Declared holds the simple names declared directly in this scope (not
	// in children).
	Declared map[string]bool

	// Imports are the imports visible in this scope's file. Every scope in
	// a file shares the same backing slice.
	Imports []Import
}

// Contains reports whether byte offset pos falls within the scope's range.
func (s *Scope) Contains(pos int) bool {
	if s == nil {
		return false
	}
	if pos < s.Start {
		return false
	}
	return s.End == -1 || pos <= s.End
}

// InnermostAt returns the most deeply nested scope containing pos, searching
// this scope's subtree. Returns nil if pos isn't in this scope at all.
func (s *Scope) InnermostAt(pos int) *Scope {
	if s == nil || !s.Contains(pos) {
		return nil
	}
	for _, child := range s.Children {
		if found := child.InnermostAt(pos); found != nil {
			return found
		}
	}
	return s
}

// Encloses reports whether scope s is the same as, or a strict ancestor of,
// other.
func (s *Scope) Encloses(other *Scope) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == s {
			return true
		}
	}
	return false
}

// LombokAnnotationKind is the subset of Lombok annotations this engine
// understands: @Data, @Getter, @Setter.
type LombokAnnotationKind string

const (
	LombokData   LombokAnnotationKind = "Data"
	LombokGetter LombokAnnotationKind = "Getter"
	LombokSetter LombokAnnotationKind = "Setter"
)

// LombokAnnotation is a captured @Data/@Getter/@Setter usage, at class or
// field level.
type LombokAnnotation struct {
	Kind     LombokAnnotationKind
	Pos      Position // position of the annotation itself
	ClassFQN string   // the annotated (or enclosing) class's FQN

	// Field-level only; FieldName is empty for a class-level annotation.
	FieldName string
	FieldType string
	FieldPos  Position
	Final     bool
}

// FileFacts is everything a single-file extractor produces.
type FileFacts struct {
	Path              string
	Language          Language
	Package           string
	Imports           []Import
	RootScope         *Scope
	Declarations      []*Declaration
	References        []*Reference
	LombokAnnotations []LombokAnnotation // Java only
}
