package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/parser"
)

// JavaExtractor implements Extractor for Java source, per the CST shapes the
// teacher's java_parser.go walks, generalized to records and to Lombok
// annotation capture at both class and field level (C3).
type JavaExtractor struct {
	driver *parser.Driver
}

func NewJavaExtractor(d *parser.Driver) *JavaExtractor {
	return &JavaExtractor{driver: d}
}

func (j *JavaExtractor) Language() model.Language { return model.Java }

func (j *JavaExtractor) Extract(path string, content []byte) (*model.FileFacts, error) {
	ff := &model.FileFacts{Path: path, Language: model.Java}

	root, parseErr := j.driver.Parse(content, model.Java)
	if root == nil {
		return ff, parseErr
	}

	ff.Package = extractJavaPackage(root, content)
	ff.Imports = extractJavaImports(root, content, path)

	sb := newScopeBuilder(ff.Imports)
	c := &javaCtx{content: content, path: path, ff: ff, sb: sb}
	c.walkTop(root, ff.Package)
	ff.RootScope = sb.root

	ff.References = append(ff.References, importReferences(ff.Imports, ff.RootScope, model.Java)...)
	c.refWalkChildren(root)

	return ff, parseErr
}

func extractJavaPackage(root *sitter.Node, content []byte) string {
	pkg := findChild(root, "package_declaration")
	if pkg == nil {
		return ""
	}
	full := text(pkg, content)
	full = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(full), "package"))
	return strings.TrimSpace(strings.TrimSuffix(full, ";"))
}

func extractJavaImports(root *sitter.Node, content []byte, path string) []model.Import {
	var out []model.Import
	for _, imp := range findChildren(root, "import_declaration") {
		full := text(imp, content)
		body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(full), "import"))
		if strings.HasPrefix(body, "static ") {
			body = strings.TrimSpace(body[len("static "):])
		}
		body = strings.TrimSuffix(strings.TrimSpace(body), ";")

		wildcard := strings.HasSuffix(body, ".*")
		fqn := body
		if wildcard {
			fqn = strings.TrimSuffix(body, ".*")
		}

		out = append(out, model.Import{FQN: fqn, Wildcard: wildcard, Pos: posOf(path, imp), File: path})
	}
	return out
}

type javaCtx struct {
	content []byte
	path    string
	ff      *model.FileFacts
	sb      *scopeBuilder
}

// walkTop dispatches over the top-level (and recursively, nested) type
// declarations. containingFQN starts as the file's package.
func (j *javaCtx) walkTop(node *sitter.Node, containingFQN string) {
	for _, child := range children(node) {
		switch child.Type() {
		case "class_declaration":
			j.handleType(child, containingFQN, model.KindClass, "class_body")
		case "interface_declaration":
			j.handleType(child, containingFQN, model.KindInterface, "interface_body")
		case "enum_declaration":
			j.handleType(child, containingFQN, model.KindEnum, "enum_body")
		case "annotation_type_declaration":
			j.handleType(child, containingFQN, model.KindAnnotation, "annotation_type_body")
		case "record_declaration":
			j.handleRecord(child, containingFQN)
		default:
			j.walkTop(child, containingFQN)
		}
	}
}

func javaTypeName(node *sitter.Node, content []byte) string {
	if n := findChild(node, "identifier"); n != nil {
		return text(n, content)
	}
	return ""
}

func (j *javaCtx) handleType(node *sitter.Node, containingFQN string, kind model.DeclKind, bodyType string) {
	name := javaTypeName(node, j.content)
	if name == "" {
		return
	}
	nameNode := findChild(node, "identifier")
	fqn := join(containingFQN, name)

	j.ff.Declarations = append(j.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: kind, Containing: containingFQN,
		Pos: posOf(j.path, nameNode), Language: model.Java,
	})
	j.sb.declare(name)

	if mods := findChild(node, "modifiers"); mods != nil {
		j.captureLombok(mods, fqn, nil)
	}

	body := findChild(node, bodyType)
	start, end := bodyRange(node, body)
	j.sb.push(model.ScopeClass, name, start, end)
	if body != nil {
		j.walkBody(body, fqn)
	}
	j.sb.pop()
}

func (j *javaCtx) handleRecord(node *sitter.Node, containingFQN string) {
	name := javaTypeName(node, j.content)
	if name == "" {
		return
	}
	nameNode := findChild(node, "identifier")
	fqn := join(containingFQN, name)

	j.ff.Declarations = append(j.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindRecord, Containing: containingFQN,
		Pos: posOf(j.path, nameNode), Language: model.Java,
	})
	j.sb.declare(name)

	if mods := findChild(node, "modifiers"); mods != nil {
		j.captureLombok(mods, fqn, nil)
	}

	body := findChild(node, "record_body")
	start, end := bodyRange(node, body)
	j.sb.push(model.ScopeClass, name, start, end)

	if header := findChild(node, "formal_parameters"); header != nil {
		j.handleRecordComponents(header, fqn)
	}
	if body != nil {
		j.walkBody(body, fqn)
	}
	j.sb.pop()
}

// handleRecordComponents implements the record half of C3: each component x
// adds both an implicit field and a synthesized accessor method x().
func (j *javaCtx) handleRecordComponents(header *sitter.Node, recordFQN string) {
	for _, param := range findChildren(header, "formal_parameter") {
		nameNode := findChild(param, "identifier")
		if nameNode == nil {
			continue
		}
		name := text(nameNode, j.content)
		fqn := recordFQN + "." + name
		pos := posOf(j.path, nameNode)
		typ := paramType(param, j.content)

		j.ff.Declarations = append(j.ff.Declarations,
			&model.Declaration{Name: name, FQN: fqn, Kind: model.KindField, Containing: recordFQN,
				Pos: pos, Language: model.Java, Synthesized: true, FieldType: typ, FieldFinal: true},
			&model.Declaration{Name: name, FQN: fqn, Kind: model.KindMethod, Containing: recordFQN,
				Pos: pos, Language: model.Java, Synthesized: true},
		)
		j.sb.declare(name)
	}
}

func (j *javaCtx) walkBody(body *sitter.Node, fqn string) {
	for _, child := range children(body) {
		switch child.Type() {
		case "class_declaration":
			j.handleType(child, fqn, model.KindClass, "class_body")
		case "interface_declaration":
			j.handleType(child, fqn, model.KindInterface, "interface_body")
		case "enum_declaration":
			j.handleType(child, fqn, model.KindEnum, "enum_body")
		case "annotation_type_declaration":
			j.handleType(child, fqn, model.KindAnnotation, "annotation_type_body")
		case "record_declaration":
			j.handleRecord(child, fqn)
		case "constructor_declaration":
			j.handleConstructor(child, fqn)
		case "method_declaration":
			j.handleMethod(child, fqn)
		case "field_declaration":
			j.handleField(child, fqn)
		case "enum_constant":
			j.handleEnumConstant(child, fqn)
		default:
			// enum bodies and others sometimes nest members under an
			// intermediate wrapper node; look one level further.
			j.walkBody(child, fqn)
		}
	}
}

func (j *javaCtx) handleConstructor(node *sitter.Node, classFQN string) {
	nameNode := findChild(node, "identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, j.content)
	fqn := classFQN + "." + name

	j.ff.Declarations = append(j.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindConstructor, Containing: classFQN,
		Pos: posOf(j.path, nameNode), Language: model.Java,
	})

	body := findChild(node, "constructor_body")
	start, end := bodyRange(node, body)
	j.sb.push(model.ScopeFunction, name, start, end)
	j.sb.pop()
}

func (j *javaCtx) handleMethod(node *sitter.Node, classFQN string) {
	nameNode := findChild(node, "identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, j.content)
	fqn := join(classFQN, name)

	j.ff.Declarations = append(j.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindMethod, Containing: classFQN,
		Pos: posOf(j.path, nameNode), Language: model.Java,
	})
	j.sb.declare(name)

	body := findChild(node, "block")
	start, end := bodyRange(node, body)
	j.sb.push(model.ScopeFunction, name, start, end)
	j.sb.pop()
}

type javaFieldInfo struct {
	name  string
	typ   string
	pos   model.Position
	final bool
}

func paramType(node *sitter.Node, content []byte) string {
	for _, ch := range children(node) {
		switch ch.Type() {
		case "modifiers":
			continue
		case "identifier":
			return ""
		default:
			return text(ch, content)
		}
	}
	return ""
}

func javaFieldType(node *sitter.Node, content []byte) string {
	var b strings.Builder
	for _, ch := range children(node) {
		switch ch.Type() {
		case "modifiers":
			continue
		case "variable_declarator", ";":
			return strings.TrimSpace(b.String())
		default:
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(text(ch, content))
		}
	}
	return strings.TrimSpace(b.String())
}

func (j *javaCtx) handleField(node *sitter.Node, classFQN string) {
	typ := javaFieldType(node, j.content)
	mods := findChild(node, "modifiers")
	modText := text(mods, j.content)
	final := containsWord(modText, "final")
	static := containsWord(modText, "static")

	var first *javaFieldInfo
	for _, decl := range findChildren(node, "variable_declarator") {
		nameNode := findChild(decl, "identifier")
		if nameNode == nil {
			continue
		}
		name := text(nameNode, j.content)
		fqn := join(classFQN, name)
		pos := posOf(j.path, nameNode)

		j.ff.Declarations = append(j.ff.Declarations, &model.Declaration{
			Name: name, FQN: fqn, Kind: model.KindField, Containing: classFQN,
			Pos: pos, Language: model.Java, FieldType: typ, FieldFinal: final, FieldStatic: static,
		})
		j.sb.declare(name)

		if first == nil {
			first = &javaFieldInfo{name: name, typ: typ, pos: pos, final: final}
		}
	}

	if mods != nil && first != nil {
		j.captureLombok(mods, classFQN, first)
	}
}

func (j *javaCtx) handleEnumConstant(node *sitter.Node, enumFQN string) {
	nameNode := findChild(node, "identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, j.content)
	fqn := enumFQN + "." + name

	j.ff.Declarations = append(j.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindEnumConstant, Containing: enumFQN,
		Pos: posOf(j.path, nameNode), Language: model.Java,
	})
	j.sb.declare(name)
}

// captureLombok records @Data/@Getter/@Setter usages at class or field level,
// per §4.3: a simple-name match on the annotation plus an import-presence
// sanity check, not a resolved reference to lombok.Data.
func (j *javaCtx) captureLombok(mods *sitter.Node, classFQN string, field *javaFieldInfo) {
	anns := append(findChildren(mods, "marker_annotation"), findChildren(mods, "annotation")...)
	for _, ann := range anns {
		nameNode := findChild(ann, "identifier")
		if nameNode == nil {
			nameNode = findChild(ann, "scoped_identifier")
		}
		if nameNode == nil {
			continue
		}
		simple := model.LastSegment(text(nameNode, j.content))

		var kind model.LombokAnnotationKind
		switch simple {
		case string(model.LombokData):
			kind = model.LombokData
		case string(model.LombokGetter):
			kind = model.LombokGetter
		case string(model.LombokSetter):
			kind = model.LombokSetter
		default:
			continue
		}
		if !lombokPlausible(simple, j.ff.Imports) {
			continue
		}

		la := model.LombokAnnotation{Kind: kind, Pos: posOf(j.path, ann), ClassFQN: classFQN}
		if field != nil {
			la.FieldName = field.name
			la.FieldType = field.typ
			la.FieldPos = field.pos
			la.Final = field.final
		}
		j.ff.LombokAnnotations = append(j.ff.LombokAnnotations, la)
	}
}

// lombokPlausible is the "simple-name match with an import-presence sanity
// check" from §9: accepted unless the file explicitly imports a same-named
// type from outside lombok (shadowing it).
func lombokPlausible(simpleName string, imports []model.Import) bool {
	for _, imp := range imports {
		if imp.Wildcard {
			continue
		}
		if model.LastSegment(imp.FQN) == simpleName && !strings.HasPrefix(imp.FQN, "lombok.") {
			return false
		}
	}
	return true
}

// --- reference walk -------------------------------------------------------

func (j *javaCtx) scopeAt(pos int) *model.Scope {
	return j.ff.RootScope.InnermostAt(pos)
}

func (j *javaCtx) refWalk(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "method_invocation":
		j.refMethodInvocation(node)
		j.refWalkChildren(node)
	case "field_access":
		j.refFieldAccess(node)
		j.refWalkChildren(node)
	case "object_creation_expression":
		j.refObjectCreation(node)
		j.refWalkChildren(node)
	case "type_identifier":
		j.refType(node)
	case "method_reference":
		j.refMethodReference(node)
		j.refWalkChildren(node)
	default:
		j.refWalkChildren(node)
	}
}

func (j *javaCtx) refWalkChildren(node *sitter.Node) {
	for _, ch := range children(node) {
		j.refWalk(ch)
	}
}

// refMethodInvocation handles both "obj.method(...)" (qualified) and
// "method(...)" (bare) call forms.
func (j *javaCtx) refMethodInvocation(node *sitter.Node) {
	nameNode := findChild(node, "identifier")
	if nameNode == nil {
		return
	}
	// The object expression, if any, is every child before the trailing
	// "." and the name/arguments.
	var qualifier string
	for _, ch := range children(node) {
		if ch == nameNode {
			break
		}
		if ch.Type() == "." {
			continue
		}
		qualifier = strings.TrimSpace(text(ch, j.content))
	}

	j.ff.References = append(j.ff.References, &model.Reference{
		Name: text(nameNode, j.content), Qualifier: qualifier, Pos: posOf(j.path, nameNode),
		Scope: j.scopeAt(int(nameNode.StartByte())), Language: model.Java, Kind: model.RefCall,
	})
}

func (j *javaCtx) refFieldAccess(node *sitter.Node) {
	all := children(node)
	if len(all) < 2 {
		return
	}
	nameNode := all[len(all)-1]
	if nameNode.Type() != "identifier" {
		return
	}
	qualifier := strings.TrimSpace(text(all[0], j.content))
	j.ff.References = append(j.ff.References, &model.Reference{
		Name: text(nameNode, j.content), Qualifier: qualifier, Pos: posOf(j.path, nameNode),
		Scope: j.scopeAt(int(nameNode.StartByte())), Language: model.Java, Kind: model.RefPropAccess,
	})
}

func (j *javaCtx) refObjectCreation(node *sitter.Node) {
	typeNode := findChild(node, "type_identifier")
	if typeNode == nil {
		typeNode = findChild(node, "generic_type")
	}
	if typeNode == nil {
		return
	}
	idNode := typeNode
	if typeNode.Type() == "generic_type" {
		if id := findChild(typeNode, "type_identifier"); id != nil {
			idNode = id
		}
	}
	j.ff.References = append(j.ff.References, &model.Reference{
		Name: text(idNode, j.content), Pos: posOf(j.path, idNode),
		Scope: j.scopeAt(int(idNode.StartByte())), Language: model.Java, Kind: model.RefCall,
	})
}

func (j *javaCtx) refType(node *sitter.Node) {
	// A bare type_identifier used directly as a type reference (parameter
	// types, return types, implements/extends lists) rather than nested
	// under object_creation_expression/generic_type, which are handled
	// separately above.
	if p := node.Parent(); p != nil {
		switch p.Type() {
		case "object_creation_expression", "generic_type":
			return
		}
	}
	j.ff.References = append(j.ff.References, &model.Reference{
		Name: text(node, j.content), Pos: posOf(j.path, node),
		Scope: j.scopeAt(int(node.StartByte())), Language: model.Java, Kind: model.RefTypeRef,
	})
}

func (j *javaCtx) refMethodReference(node *sitter.Node) {
	all := children(node)
	if len(all) == 0 {
		return
	}
	nameNode := all[len(all)-1]
	if nameNode.Type() != "identifier" {
		return
	}
	qualifier := ""
	if len(all) >= 2 {
		qualifier = strings.TrimSpace(text(all[0], j.content))
	}
	j.ff.References = append(j.ff.References, &model.Reference{
		Name: text(nameNode, j.content), Qualifier: qualifier, Pos: posOf(j.path, nameNode),
		Scope: j.scopeAt(int(nameNode.StartByte())), Language: model.Java, Kind: model.RefCall,
	})
}
