// Package symbols implements the Symbol Extractor: it walks the capture
// list from a language's tree-sitter query (internal/parser) into a
// model.SymbolTable, tolerating error nodes by skipping the subtree
// rooted at them and continuing with siblings.
package symbols

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/basinlabs/codescan/internal/complexity"
	"github.com/basinlabs/codescan/internal/model"
)

// classSpan remembers a class capture's byte range so later function/method
// captures can be assigned to their enclosing class by containment.
type classSpan struct {
	record      *model.ClassRecord
	startByte   uint
	endByte     uint
}

// decoratorKinds are the grammar node kinds, across the ten supported
// languages, that precede a declaration as a raw annotation/decorator
// expression, collected in source order as raw text.
var decoratorKinds = map[string]bool{
	"decorator":      true, // python, javascript, typescript
	"annotation":     true, // java
	"attribute_item": true, // rust
	"attribute":      true, // c#
}

// lineCommentPrefixes map a language to its line-comment token, used for
// the preceding-block-doc-comment docstring rule.
var lineCommentPrefixes = map[model.Language]string{
	model.LanguageGo:         "//",
	model.LanguageJavaScript: "//",
	model.LanguageTypeScript: "//",
	model.LanguageJava:       "//",
	model.LanguageRust:       "//",
	model.LanguageCPP:        "//",
	model.LanguageCSharp:     "//",
	model.LanguagePHP:        "//",
}

// firstStatementStringLanguages use a leading string literal in the body
// as the docstring, rather than a preceding comment block.
var firstStatementStringLanguages = map[model.Language]bool{
	model.LanguagePython: true,
	model.LanguageRuby:   true,
}

// Extract walks tree's query captures into a SymbolTable.
func Extract(lang model.Language, tree *tree_sitter.Tree, query *tree_sitter.Query, content []byte) *model.SymbolTable {
	table := &model.SymbolTable{}
	if tree == nil || query == nil {
		return table
	}

	root := tree.RootNode()
	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(query, root, content)
	captureNames := query.CaptureNames()

	var classSpans []classSpan
	type pendingFunc struct {
		node     tree_sitter.Node
		record   model.FunctionRecord
		isMethod bool
	}
	var pendingFuncs []pendingFunc
	var imports []model.ImportRecord
	exportSet := map[string]bool{}

	for {
		match := matches.Next()
		if match == nil {
			break
		}

		namedCaptures := make(map[string]string, 4)
		for _, c := range match.Captures {
			name := captureNames[c.Index]
			if strings.Contains(name, ".") {
				namedCaptures[name] = nodeText(c.Node, content)
			}
		}

		for _, c := range match.Captures {
			name := captureNames[c.Index]
			node := c.Node
			if insideErrorAncestor(node) {
				continue
			}

			switch name {
			case "class":
				rec := model.ClassRecord{
					Name:       firstNonEmpty(namedCaptures, "class.name"),
					StartLine:  int(node.StartPosition().Row) + 1,
					EndLine:    int(node.EndPosition().Row) + 1,
					Docstring:  docstringFor(lang, node, content),
					Decorators: precedingDecorators(node, content),
				}
				classSpans = append(classSpans, classSpan{
					record:    &rec,
					startByte: node.StartByte(),
					endByte:   node.EndByte(),
				})
				table.Classes = append(table.Classes, rec)

			case "function", "method", "constructor":
				// The Python and Rust method patterns capture the enclosing
				// class/impl/trait block as @method; the method itself is
				// already captured by the language's function pattern.
				if name == "method" && (node.Kind() == "class_definition" || node.Kind() == "impl_item" || node.Kind() == "trait_item") {
					continue
				}
				key := name + ".name"
				fname := firstNonEmpty(namedCaptures, key, "method.name", "function.name", "constructor.name")
				rec := model.FunctionRecord{
					Name:         fname,
					Parameters:   parameterNames(node, content),
					Docstring:    docstringFor(lang, node, content),
					StartLine:    int(node.StartPosition().Row) + 1,
					EndLine:      int(node.EndPosition().Row) + 1,
					Complexity:   complexity.Cyclomatic(node, lang),
					NestingDepth: complexity.MaxNestingDepth(node),
					IsAsync:      hasAsyncModifier(node),
					Decorators:   precedingDecorators(node, content),
				}
				pendingFuncs = append(pendingFuncs, pendingFunc{node: node, record: rec, isMethod: name == "method" || name == "constructor"})

			case "import":
				imports = append(imports, importRecordFor(lang, node, content))

			case "export":
				if ident := firstIdentifierDescendant(node, content); ident != "" {
					exportSet[ident] = true
				}
			}
		}
	}

	// Assign functions to their smallest enclosing class by byte range, or
	// to the file's top-level function list otherwise.
	for _, pf := range pendingFuncs {
		var owner *classSpan
		for i := range classSpans {
			span := &classSpans[i]
			if pf.node.StartByte() >= span.startByte && pf.node.EndByte() <= span.endByte {
				if owner == nil || (span.endByte-span.startByte) < (owner.endByte-owner.startByte) {
					owner = span
				}
			}
		}
		if owner != nil {
			owner.record.Methods = append(owner.record.Methods, pf.record)
		} else {
			table.Functions = append(table.Functions, pf.record)
		}
	}

	// classSpans holds pointers into locally-scoped copies; reconcile back
	// into table.Classes (appended above by value) using index order.
	for i := range table.Classes {
		table.Classes[i].Methods = classSpans[i].record.Methods
	}

	table.Imports = imports
	for name := range exportSet {
		table.Exports = append(table.Exports, name)
	}

	return table
}

func firstNonEmpty(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

func nodeText(n tree_sitter.Node, content []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// insideErrorAncestor reports whether n descends from a grammar ERROR
// node. Subtrees rooted at an error node are skipped; siblings continue.
func insideErrorAncestor(n tree_sitter.Node) bool {
	parent := n.Parent()
	for parent != nil {
		if parent.IsError() {
			return true
		}
		parent = parent.Parent()
	}
	return false
}

func hasAsyncModifier(n tree_sitter.Node) bool {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "async" {
			return true
		}
	}
	return false
}

// parameterNames finds the node's "parameters" field, falling back to the
// first parameter-list child by kind substring match (grammar-portable
// across "parameters", "parameter_list", "formal_parameters"), and returns
// the identifier-like leaves (every name of a Go `a, b int` declaration),
// excluding receivers: a Go method's receiver list is not its parameters
// field, and self/this are dropped.
func parameterNames(n tree_sitter.Node, content []byte) []string {
	paramList := n.ChildByFieldName("parameters")
	count := n.ChildCount()
	for i := uint(0); paramList == nil && i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		if strings.Contains(kind, "parameter") && !strings.Contains(kind, "type_parameter") {
			c := child
			paramList = &c
			break
		}
	}
	if paramList == nil {
		return nil
	}

	var names []string
	pc := paramList.ChildCount()
	for i := uint(0); i < pc; i++ {
		child := paramList.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "parameter_declaration" {
			var shared []string
			for j := uint(0); j < child.ChildCount(); j++ {
				if gc := child.Child(j); gc != nil && gc.Kind() == "identifier" {
					shared = append(shared, nodeText(*gc, content))
				}
			}
			if len(shared) > 0 {
				names = append(names, shared...)
				continue
			}
		}
		text := identifierIn(*child, content)
		if text == "" || text == "self" || text == "this" {
			continue
		}
		names = append(names, text)
	}
	return names
}

// identifierIn returns the first identifier-kind leaf within n (n itself
// if it is already one), used to pull a bare parameter name out of a
// grammar's richer "parameter with type annotation" node shape.
func identifierIn(n tree_sitter.Node, content []byte) string {
	kind := n.Kind()
	if strings.HasSuffix(kind, "identifier") {
		return nodeText(n, content)
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if text := identifierIn(*child, content); text != "" {
			return text
		}
	}
	return ""
}

func firstIdentifierDescendant(n tree_sitter.Node, content []byte) string {
	return identifierIn(n, content)
}

// docstringFor applies the two docstring conventions: a leading
// string-literal statement for languages that use that convention, or the
// lexically preceding block/line doc-comment (within 2 blank lines) for
// the rest.
func docstringFor(lang model.Language, n tree_sitter.Node, content []byte) string {
	if firstStatementStringLanguages[lang] {
		if text := firstStatementString(n, content); text != "" {
			return text
		}
		return ""
	}
	return precedingDocComment(lang, n, content)
}

func firstStatementString(n tree_sitter.Node, content []byte) string {
	var body *tree_sitter.Node
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		if strings.Contains(kind, "block") || strings.Contains(kind, "body") {
			c := child
			body = &c
			break
		}
	}
	if body == nil {
		return ""
	}
	nc := body.NamedChildCount()
	if nc == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil {
		return ""
	}
	firstKind := first.Kind()
	if strings.Contains(firstKind, "expression_statement") {
		if first.NamedChildCount() > 0 {
			inner := first.NamedChild(0)
			if inner != nil && strings.Contains(inner.Kind(), "string") {
				return unquote(nodeText(*inner, content))
			}
		}
		return ""
	}
	if strings.Contains(firstKind, "string") {
		return unquote(nodeText(*first, content))
	}
	return ""
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"""`, "'''"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

// precedingDocComment walks backward through n's previous siblings
// collecting a contiguous run of comment nodes within 2 blank lines of
// n's start, then returns their joined, marker-stripped text.
func precedingDocComment(lang model.Language, n tree_sitter.Node, content []byte) string {
	parent := n.Parent()
	if parent == nil {
		return ""
	}
	prefix := lineCommentPrefixes[lang]

	var comments []string
	sibling := n.PrevNamedSibling()
	lastLine := int(n.StartPosition().Row) + 1
	for sibling != nil {
		kind := sibling.Kind()
		if !strings.Contains(kind, "comment") {
			break
		}
		gapLines := lastLine - (int(sibling.EndPosition().Row) + 1)
		if gapLines > 3 {
			break
		}
		text := nodeText(*sibling, content)
		comments = append([]string{stripCommentMarkers(text, prefix)}, comments...)
		lastLine = int(sibling.StartPosition().Row) + 1
		sibling = sibling.PrevNamedSibling()
	}
	return strings.TrimSpace(strings.Join(comments, "\n"))
}

func stripCommentMarkers(text, linePrefix string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "/**")
	text = strings.TrimPrefix(text, "/*")
	text = strings.TrimSuffix(text, "*/")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "*")
		if linePrefix != "" {
			l = strings.TrimPrefix(l, linePrefix+"/") // `///`
			l = strings.TrimPrefix(l, linePrefix)
		}
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// precedingDecorators collects raw decorator/annotation text immediately
// preceding n, in source order. The text is never evaluated.
func precedingDecorators(n tree_sitter.Node, content []byte) []string {
	var decorators []string
	sibling := n.PrevNamedSibling()
	for sibling != nil && decoratorKinds[sibling.Kind()] {
		decorators = append([]string{nodeText(*sibling, content)}, decorators...)
		sibling = sibling.PrevNamedSibling()
	}
	return decorators
}

// importRecordFor extracts a best-effort module path from an import node;
// exact shape varies per grammar so this looks for the first string or
// identifier-like descendant (a Python from-import's whole module_name
// field instead) and records relativity by leading-dot text.
func importRecordFor(lang model.Language, n tree_sitter.Node, content []byte) model.ImportRecord {
	raw := nodeText(n, content)
	module := firstStringLiteralText(n, content)
	if module == "" {
		module = firstIdentifierDescendant(n, content)
	}
	if lang == model.LanguagePython {
		if mod := n.ChildByFieldName("module_name"); mod != nil {
			module = nodeText(*mod, content)
		}
	}
	kind := model.ImportKindPlain
	switch {
	case strings.Contains(raw, "from") && (lang == model.LanguagePython):
		kind = model.ImportKindFrom
	case strings.Contains(raw, "require"):
		kind = model.ImportKindRequire
	case strings.Contains(raw, "import") && (lang == model.LanguageJavaScript || lang == model.LanguageTypeScript):
		kind = model.ImportKindES6
	case strings.Contains(raw, "use"):
		kind = model.ImportKindUse
	}
	return model.ImportRecord{
		Module:          module,
		ImportedSymbols: importedSymbolsFor(lang, kind, n, content),
		IsRelative:      strings.HasPrefix(module, "."),
		Kind:            kind,
		LineNumber:      int(n.StartPosition().Row) + 1,
	}
}

// importedSymbolsFor fills ImportedSymbols for grouped imports: the exact
// identifiers for "from M import a, b"-style groupings, an empty slice for
// a plain "import M"/"use M". Each
// language's grouping construct has its own grammar shape, so this
// dispatches per lang/kind the same way importRecordFor does for Kind.
func importedSymbolsFor(lang model.Language, kind model.ImportKind, n tree_sitter.Node, content []byte) []string {
	switch {
	case lang == model.LanguagePython && kind == model.ImportKindFrom:
		return pythonFromImportSymbols(n, content)
	case (lang == model.LanguageJavaScript || lang == model.LanguageTypeScript) && kind == model.ImportKindES6:
		return namedImportSpecifierSymbols(n, content)
	case lang == model.LanguageRust:
		return useListSymbols(n, content)
	case lang == model.LanguagePHP:
		return namespaceUseGroupSymbols(n, content)
	}
	return nil
}

// firstDescendantByKind returns the first node (itself or a descendant, in
// depth-first order) whose kind equals kind, or nil if none exists.
func firstDescendantByKind(n tree_sitter.Node, kind string) *tree_sitter.Node {
	if n.Kind() == kind {
		found := n
		return &found
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if found := firstDescendantByKind(*child, kind); found != nil {
			return found
		}
	}
	return nil
}

// descendantsByKind collects every node (itself or a descendant) whose kind
// equals kind, in depth-first order.
func descendantsByKind(n tree_sitter.Node, kind string) []tree_sitter.Node {
	var out []tree_sitter.Node
	if n.Kind() == kind {
		out = append(out, n)
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		out = append(out, descendantsByKind(*child, kind)...)
	}
	return out
}

// pythonFromImportSymbols walks an import_from_statement's children after
// the literal "import" keyword, collecting each imported name: plain
// dotted names, aliased imports (the original name, not the alias), and
// skipping a bare "*" wildcard_import.
func pythonFromImportSymbols(n tree_sitter.Node, content []byte) []string {
	var symbols []string
	seenImportKeyword := false
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		kind := child.Kind()
		if kind == "import" {
			seenImportKeyword = true
			continue
		}
		if !seenImportKeyword {
			continue
		}
		switch kind {
		case "wildcard_import":
			continue
		case "aliased_import":
			if name := firstIdentifierDescendant(*child, content); name != "" {
				symbols = append(symbols, name)
			}
		case "dotted_name", "identifier":
			symbols = append(symbols, nodeText(*child, content))
		}
	}
	return symbols
}

// namedImportSpecifierSymbols collects the original (pre-alias) name of
// each import_specifier inside a JS/TS import statement's named_imports
// clause (`import { a, b } from "m"`); a default or namespace import has no
// named_imports node and yields an empty slice.
func namedImportSpecifierSymbols(n tree_sitter.Node, content []byte) []string {
	container := firstDescendantByKind(n, "named_imports")
	if container == nil {
		return nil
	}
	var symbols []string
	for _, spec := range descendantsByKind(*container, "import_specifier") {
		if name := firstIdentifierDescendant(spec, content); name != "" {
			symbols = append(symbols, name)
		}
	}
	return symbols
}

// useListSymbols collects the grouped names of a Rust `use std::{fmt, io};`
// declaration; a single-path `use std::fmt;` has no use_list node and
// yields an empty slice, the same as a plain module import.
func useListSymbols(n tree_sitter.Node, content []byte) []string {
	container := firstDescendantByKind(n, "use_list")
	if container == nil {
		return nil
	}
	var symbols []string
	count := container.ChildCount()
	for i := uint(0); i < count; i++ {
		child := container.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "identifier", "scoped_identifier", "use_as_clause":
			if name := firstIdentifierDescendant(*child, content); name != "" {
				symbols = append(symbols, name)
			}
		}
	}
	return symbols
}

// namespaceUseGroupSymbols collects the clause names of a PHP
// `use Foo\{Bar, Baz};` grouped-use declaration; a single-name `use Foo;`
// has no namespace_use_group node and yields an empty slice.
func namespaceUseGroupSymbols(n tree_sitter.Node, content []byte) []string {
	container := firstDescendantByKind(n, "namespace_use_group")
	if container == nil {
		return nil
	}
	var symbols []string
	for _, clause := range descendantsByKind(*container, "namespace_use_clause") {
		if name := firstIdentifierDescendant(clause, content); name != "" {
			symbols = append(symbols, name)
		}
	}
	return symbols
}

func firstStringLiteralText(n tree_sitter.Node, content []byte) string {
	if strings.Contains(n.Kind(), "string") {
		return unquote(nodeText(n, content))
	}
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if text := firstStringLiteralText(*child, content); text != "" {
			return text
		}
	}
	return ""
}
