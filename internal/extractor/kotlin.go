package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kjxref/kjxref/internal/model"
	"github.com/kjxref/kjxref/internal/parser"
)

// KotlinExtractor implements Extractor for Kotlin source, per the CST shapes
// described in the teacher's kotlin_parser.go, generalized to also cover
// companion objects and type aliases (constructs the teacher never handled).
type KotlinExtractor struct {
	driver *parser.Driver
}

func NewKotlinExtractor(d *parser.Driver) *KotlinExtractor {
	return &KotlinExtractor{driver: d}
}

func (k *KotlinExtractor) Language() model.Language { return model.Kotlin }

func (k *KotlinExtractor) Extract(path string, content []byte) (*model.FileFacts, error) {
	ff := &model.FileFacts{Path: path, Language: model.Kotlin}

	root, parseErr := k.driver.Parse(content, model.Kotlin)
	if root == nil {
		return ff, parseErr
	}

	ff.Package = extractKotlinPackage(root, content)
	ff.Imports = extractKotlinImports(root, content, path)

	sb := newScopeBuilder(ff.Imports)
	c := &kotlinCtx{content: content, path: path, ff: ff, sb: sb}
	c.visitChildren(root, ff.Package, ff.Package, false)
	ff.RootScope = sb.root

	ff.References = append(ff.References, importReferences(ff.Imports, ff.RootScope, model.Kotlin)...)
	c.refWalkChildren(root)

	return ff, parseErr
}

func extractKotlinPackage(root *sitter.Node, content []byte) string {
	pkg := findChild(root, "package_header")
	if pkg == nil {
		return ""
	}
	full := text(pkg, content)
	full = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(full), "package"))
	return strings.TrimSpace(strings.TrimSuffix(full, ";"))
}

func extractKotlinImports(root *sitter.Node, content []byte, path string) []model.Import {
	list := findChild(root, "import_list")
	if list == nil {
		return nil
	}
	var out []model.Import
	for _, imp := range findChildren(list, "import_header") {
		full := text(imp, content)
		body := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(full), "import"))
		body = strings.TrimSuffix(body, ";")

		alias := ""
		if idx := strings.Index(body, " as "); idx >= 0 {
			alias = strings.TrimSpace(body[idx+len(" as "):])
			body = strings.TrimSpace(body[:idx])
		}

		wildcard := strings.HasSuffix(body, ".*")
		fqn := body
		if wildcard {
			fqn = strings.TrimSuffix(body, ".*")
		}

		out = append(out, model.Import{FQN: fqn, Alias: alias, Wildcard: wildcard, Pos: posOf(path, imp), File: path})
	}
	return out
}

// kotlinCtx carries the state threaded through the declaration/scope walk and
// the separate reference walk.
type kotlinCtx struct {
	content []byte
	path    string
	ff      *model.FileFacts
	sb      *scopeBuilder
}

func (c *kotlinCtx) visit(node *sitter.Node, containingFQN, enclosingClass string, insideFunction bool) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "class_declaration":
		c.handleClass(node, containingFQN)
	case "object_declaration":
		if isCompanionNode(node, c.content) {
			c.handleCompanion(node, enclosingClass)
		} else {
			c.handleObject(node, containingFQN)
		}
	case "function_declaration":
		c.handleFunction(node, containingFQN, insideFunction)
	case "property_declaration":
		c.handleProperty(node, containingFQN, insideFunction)
	case "type_alias":
		c.handleTypeAlias(node, containingFQN)
	default:
		c.visitChildren(node, containingFQN, enclosingClass, insideFunction)
	}
}

func (c *kotlinCtx) visitChildren(node *sitter.Node, containingFQN, enclosingClass string, insideFunction bool) {
	for _, child := range children(node) {
		c.visit(child, containingFQN, enclosingClass, insideFunction)
	}
}

func isCompanionNode(node *sitter.Node, content []byte) bool {
	if node.Type() == "companion_object" {
		return true
	}
	for _, ch := range children(node) {
		if ch.Type() == "companion" {
			return true
		}
	}
	mods := findChild(node, "modifiers")
	return containsWord(text(mods, content), "companion")
}

func classKind(node *sitter.Node, content []byte) model.DeclKind {
	for _, ch := range children(node) {
		switch ch.Type() {
		case "interface":
			return model.KindInterface
		case "enum":
			return model.KindEnum
		case "annotation":
			return model.KindAnnotation
		}
	}
	mods := text(findChild(node, "modifiers"), content)
	if containsWord(mods, "enum") {
		return model.KindEnum
	}
	if containsWord(mods, "annotation") {
		return model.KindAnnotation
	}
	return model.KindClass
}

func bodyRange(node, body *sitter.Node) (int, int) {
	if body != nil {
		return int(body.StartByte()), int(body.EndByte())
	}
	return int(node.StartByte()), int(node.EndByte())
}

func (c *kotlinCtx) handleClass(node *sitter.Node, containingFQN string) {
	nameNode := findChild(node, "type_identifier")
	if nameNode == nil {
		c.visitChildren(node, containingFQN, containingFQN, false)
		return
	}
	name := text(nameNode, c.content)
	fqn := join(containingFQN, name)
	kind := classKind(node, c.content)

	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: kind, Containing: containingFQN,
		Pos: posOf(c.path, nameNode), Language: model.Kotlin,
	})
	c.sb.declare(name)

	body := findChild(node, "class_body")
	start, end := bodyRange(node, body)
	scopeKind := model.ScopeClass
	if kind == model.KindObject {
		scopeKind = model.ScopeObject
	}
	c.sb.push(scopeKind, name, start, end)
	if body != nil {
		c.walkClassBody(body, fqn, fqn)
	}
	c.sb.pop()
}

func (c *kotlinCtx) handleObject(node *sitter.Node, containingFQN string) {
	nameNode := findChild(node, "type_identifier")
	name := "<anonymous>"
	if nameNode != nil {
		name = text(nameNode, c.content)
	}
	fqn := join(containingFQN, name)

	pos := posOf(c.path, node)
	if nameNode != nil {
		pos = posOf(c.path, nameNode)
	}
	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindObject, Containing: containingFQN,
		Pos: pos, Language: model.Kotlin,
	})
	c.sb.declare(name)

	body := findChild(node, "class_body")
	start, end := bodyRange(node, body)
	c.sb.push(model.ScopeObject, name, start, end)
	if body != nil {
		c.walkClassBody(body, fqn, fqn)
	}
	c.sb.pop()
}

// handleCompanion implements invariant I2: the companion declares at
// Outer.Companion, and every direct member additionally declares at
// Outer.memberName, pointing at the same position.
func (c *kotlinCtx) handleCompanion(node *sitter.Node, outerFQN string) {
	const displayName = "Companion"
	compFQN := outerFQN + ".Companion"

	nameNode := findChild(node, "type_identifier")
	pos := posOf(c.path, node)
	if nameNode != nil {
		pos = posOf(c.path, nameNode)
	}
	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: displayName, FQN: compFQN, Kind: model.KindCompanionObject, Containing: outerFQN,
		Pos: pos, Language: model.Kotlin,
	})
	c.sb.declare(displayName)

	body := findChild(node, "class_body")
	start, end := bodyRange(node, body)
	c.sb.push(model.ScopeCompanion, displayName, start, end)

	startIdx := len(c.ff.Declarations)
	if body != nil {
		c.walkClassBody(body, compFQN, compFQN)
	}
	endIdx := len(c.ff.Declarations)

	for i := startIdx; i < endIdx; i++ {
		d := c.ff.Declarations[i]
		if d.Containing != compFQN {
			continue
		}
		shadow := *d
		shadow.FQN = outerFQN + "." + d.Name
		shadow.Containing = outerFQN
		c.ff.Declarations = append(c.ff.Declarations, &shadow)
	}
	c.sb.pop()
}

func (c *kotlinCtx) walkClassBody(body *sitter.Node, fqn, enclosingClass string) {
	for _, child := range children(body) {
		switch child.Type() {
		case "companion_object":
			c.handleCompanion(child, enclosingClass)
		case "object_declaration":
			if isCompanionNode(child, c.content) {
				c.handleCompanion(child, enclosingClass)
			} else {
				c.handleObject(child, fqn)
			}
		case "class_declaration":
			c.handleClass(child, fqn)
		case "enum_entry":
			c.handleEnumEntry(child, fqn)
		case "function_declaration":
			c.handleFunction(child, fqn, false)
		case "property_declaration":
			c.handleProperty(child, fqn, false)
		case "type_alias":
			c.handleTypeAlias(child, fqn)
		default:
			// grammar versions sometimes wrap members in an intermediate
			// node (e.g. an enum entries list); look one level further.
			c.walkClassBody(child, fqn, enclosingClass)
		}
	}
}

func (c *kotlinCtx) handleEnumEntry(node *sitter.Node, enumFQN string) {
	nameNode := findChild(node, "simple_identifier")
	if nameNode == nil {
		nameNode = node
	}
	name := text(nameNode, c.content)
	if name == "" {
		return
	}
	fqn := enumFQN + "." + name
	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindEnumConstant, Containing: enumFQN,
		Pos: posOf(c.path, nameNode), Language: model.Kotlin,
	})
	c.sb.declare(name)
}

// extensionReceiver applies the same text heuristic the teacher's
// isExtensionFunction uses (a "." before the parameter list in the
// signature), returning the receiver type as written.
func extensionReceiver(node *sitter.Node, content []byte) (string, bool) {
	sig := text(node, content)
	paren := strings.IndexByte(sig, '(')
	if paren < 0 {
		return "", false
	}
	head := sig[:paren]
	dot := strings.LastIndexByte(head, '.')
	if dot < 0 {
		return "", false
	}
	funIdx := strings.Index(head, "fun ")
	if funIdx < 0 {
		return "", false
	}
	receiver := strings.TrimSpace(head[funIdx+len("fun "):dot])
	// strip any generic type-parameter prefix like "<T> T." left over from a
	// generic extension function declaration.
	if gt := strings.LastIndexByte(receiver, '>'); gt >= 0 {
		receiver = strings.TrimSpace(receiver[gt+1:])
	}
	if receiver == "" {
		return "", false
	}
	return receiver, true
}

func (c *kotlinCtx) handleFunction(node *sitter.Node, containingFQN string, insideFunction bool) {
	nameNode := findChild(node, "simple_identifier")
	if nameNode == nil {
		return
	}
	name := text(nameNode, c.content)
	receiver, isExt := extensionReceiver(node, c.content)

	var fqn string
	kind := model.KindFunction
	if insideFunction {
		fqn = containingFQN + ".$local." + name
	} else {
		fqn = join(containingFQN, name)
		if containingFQN != "" {
			kind = model.KindMethod
		}
	}
	if isExt {
		kind = model.KindExtensionFunction
	}

	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: kind, Containing: containingFQN,
		Pos: posOf(c.path, nameNode), Language: model.Kotlin, Receiver: receiver,
	})
	c.sb.declare(name)

	body := findChild(node, "function_body")
	if body == nil {
		body = findChild(node, "block")
	}
	start, end := bodyRange(node, body)
	c.sb.push(model.ScopeFunction, name, start, end)
	if body != nil {
		c.visitChildren(body, fqn, fqn, true)
	}
	c.sb.pop()
}

func (c *kotlinCtx) handleProperty(node *sitter.Node, containingFQN string, insideFunction bool) {
	var nameNode *sitter.Node
	if varDecl := findChild(node, "variable_declaration"); varDecl != nil {
		nameNode = findChild(varDecl, "simple_identifier")
	}
	if nameNode == nil {
		nameNode = findDescendant(node, "simple_identifier")
	}
	if nameNode == nil {
		return
	}
	name := text(nameNode, c.content)

	var fqn string
	if insideFunction {
		fqn = containingFQN + ".$local." + name
	} else {
		fqn = join(containingFQN, name)
	}

	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindProperty, Containing: containingFQN,
		Pos: posOf(c.path, nameNode), Language: model.Kotlin,
	})
	c.sb.declare(name)
}

func (c *kotlinCtx) handleTypeAlias(node *sitter.Node, containingFQN string) {
	nameNode := findChild(node, "type_identifier")
	if nameNode == nil {
		nameNode = findDescendant(node, "type_identifier")
	}
	if nameNode == nil {
		return
	}
	name := text(nameNode, c.content)
	fqn := join(containingFQN, name)

	full := text(node, c.content)
	target := ""
	if eq := strings.IndexByte(full, '='); eq >= 0 {
		target = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(full[eq+1:]), ";"))
	}

	c.ff.Declarations = append(c.ff.Declarations, &model.Declaration{
		Name: name, FQN: fqn, Kind: model.KindTypeAlias, Containing: containingFQN,
		Pos: posOf(c.path, nameNode), Language: model.Kotlin, AliasTarget: target,
	})
	c.sb.declare(name)
}

// --- reference walk -------------------------------------------------------
//
// Bounded per the spec's own framing that accuracy on member access is
// explicitly approximate: this pass captures qualified-chain accesses,
// bare calls, callable references, and type usages — the constructs the
// §8 scenarios actually exercise — not every possible bare-name read.

func (c *kotlinCtx) scopeAt(pos int) *model.Scope {
	return c.ff.RootScope.InnermostAt(pos)
}

func (c *kotlinCtx) refWalk(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "navigation_expression":
		c.refNavigation(node)
	case "call_expression":
		c.refCall(node)
		c.refWalkChildren(node)
	case "callable_reference":
		c.refCallable(node)
		c.refWalkChildren(node)
	case "user_type":
		c.refUserType(node)
		c.refWalkChildren(node)
	default:
		c.refWalkChildren(node)
	}
}

func (c *kotlinCtx) refWalkChildren(node *sitter.Node) {
	for _, ch := range children(node) {
		c.refWalk(ch)
	}
}

func (c *kotlinCtx) refNavigation(node *sitter.Node) {
	parts := children(node)
	if len(parts) < 2 {
		c.refWalkChildren(node)
		return
	}
	receiver := parts[0]
	suffix := parts[len(parts)-1]

	member := suffix
	if suffix.Type() != "simple_identifier" {
		if m := findChild(suffix, "simple_identifier"); m != nil {
			member = m
		} else if m := findDescendant(suffix, "simple_identifier"); m != nil {
			member = m
		} else {
			c.refWalk(receiver)
			return
		}
	}

	name := text(member, c.content)
	qualifier := strings.TrimSpace(text(receiver, c.content))
	kind := model.RefPropAccess
	if p := node.Parent(); p != nil && p.Type() == "call_expression" {
		kind = model.RefCall
	}

	c.ff.References = append(c.ff.References, &model.Reference{
		Name: name, Qualifier: qualifier, Pos: posOf(c.path, member),
		Scope: c.scopeAt(int(member.StartByte())), Language: model.Kotlin, Kind: kind,
	})
	c.refWalk(receiver)
}

func (c *kotlinCtx) refCall(node *sitter.Node) {
	callee := node.Child(0)
	if callee == nil || callee.Type() != "simple_identifier" {
		return
	}
	name := text(callee, c.content)
	c.ff.References = append(c.ff.References, &model.Reference{
		Name: name, Pos: posOf(c.path, callee),
		Scope: c.scopeAt(int(callee.StartByte())), Language: model.Kotlin, Kind: model.RefCall,
	})
}

func (c *kotlinCtx) refCallable(node *sitter.Node) {
	parts := children(node)
	if len(parts) == 0 {
		return
	}
	nameNode := parts[len(parts)-1]
	if nameNode.Type() != "simple_identifier" {
		return
	}
	qualifier := ""
	if len(parts) >= 2 {
		recv := parts[0]
		if recv.Type() != "::" {
			qualifier = strings.TrimSpace(text(recv, c.content))
		}
	}
	c.ff.References = append(c.ff.References, &model.Reference{
		Name: text(nameNode, c.content), Qualifier: qualifier, Pos: posOf(c.path, nameNode),
		Scope: c.scopeAt(int(nameNode.StartByte())), Language: model.Kotlin, Kind: model.RefCall,
	})
}

func (c *kotlinCtx) refUserType(node *sitter.Node) {
	idNode := findChild(node, "type_identifier")
	if idNode == nil {
		idNode = findDescendant(node, "type_identifier")
	}
	if idNode == nil {
		return
	}
	c.ff.References = append(c.ff.References, &model.Reference{
		Name: text(idNode, c.content), Pos: posOf(c.path, idNode),
		Scope: c.scopeAt(int(idNode.StartByte())), Language: model.Kotlin, Kind: model.RefTypeRef,
	})
}

// importReferences records each non-wildcard import as a RefImport usage of
// its imported simple name, so the resolver can exclude import sites from
// find-usages by default (spec §4.7.2, invariant P4) while still finding
// them when include_imports is requested.
func importReferences(imports []model.Import, root *model.Scope, lang model.Language) []*model.Reference {
	var out []*model.Reference
	for _, imp := range imports {
		if imp.Wildcard {
			continue
		}
		out = append(out, &model.Reference{
			Name: model.LastSegment(imp.FQN), Qualifier: model.LeadingSegment(imp.FQN),
			Pos: imp.Pos, Scope: root, Language: lang, Kind: model.RefImport,
		})
	}
	return out
}
