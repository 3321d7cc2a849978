// Package parser owns the tree-sitter grammars for Kotlin and Java (C1 in
// the design: one parse-tree factory per language, bytes in, CST out). It
// knows nothing about declarations, references, or scopes — that is the
// extractor's job.
package parser

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/kotlin"

	"github.com/kjxref/kjxref/internal/model"
)

// Driver wraps one tree-sitter parser per supported language. A Driver is
// not safe for concurrent use: tree-sitter parsers are not thread-safe, so
// each indexing worker owns its own Driver (see internal/orchestrate).
type Driver struct {
	kotlinParser *sitter.Parser
	javaParser   *sitter.Parser

	kotlinLang *sitter.Language
	javaLang   *sitter.Language
}

// NewDriver initializes the Kotlin and Java tree-sitter parsers.
func NewDriver() *Driver {
	d := &Driver{}

	d.kotlinLang = kotlin.GetLanguage()
	d.kotlinParser = sitter.NewParser()
	d.kotlinParser.SetLanguage(d.kotlinLang)

	d.javaLang = java.GetLanguage()
	d.javaParser = sitter.NewParser()
	d.javaParser.SetLanguage(d.javaLang)

	return d
}

func (d *Driver) parserFor(lang model.Language) *sitter.Parser {
	switch lang {
	case model.Kotlin:
		return d.kotlinParser
	case model.Java:
		return d.javaParser
	default:
		return nil
	}
}

// LanguageFor returns the tree-sitter Language for lang, used when building
// queries against a parsed tree.
func (d *Driver) LanguageFor(lang model.Language) *sitter.Language {
	switch lang {
	case model.Kotlin:
		return d.kotlinLang
	case model.Java:
		return d.javaLang
	default:
		return nil
	}
}

// LanguageForPath infers a Language from a file extension. Returns ("", false)
// for anything that isn't a recognized Kotlin or Java source file.
func LanguageForPath(path string) (model.Language, bool) {
	switch {
	case hasSuffix(path, ".kt"), hasSuffix(path, ".kts"):
		return model.Kotlin, true
	case hasSuffix(path, ".java"):
		return model.Java, true
	default:
		return "", false
	}
}

func hasSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

// Parse parses content as the given language and returns the root CST node.
// Per the parse-error policy (spec §7), a non-nil node is returned even when
// err is non-nil so the caller can still attempt best-effort extraction from
// the partial tree; err is only a signal, never an abort.
func (d *Driver) Parse(content []byte, lang model.Language) (*sitter.Node, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("empty content provided")
	}

	parser := d.parserFor(lang)
	if parser == nil {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parser returned nil tree")
	}

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree has no root node")
	}

	if root.HasError() {
		return root, fmt.Errorf("parse tree contains errors")
	}
	return root, nil
}

// Query runs a tree-sitter query against node and returns all matches.
func (d *Driver) Query(node *sitter.Node, queryString string, lang model.Language) ([]*sitter.QueryMatch, error) {
	if node == nil {
		return nil, fmt.Errorf("node is nil")
	}
	if queryString == "" {
		return nil, fmt.Errorf("query string is empty")
	}

	language := d.LanguageFor(lang)
	if language == nil {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	query, err := sitter.NewQuery([]byte(queryString), language)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, node)

	var matches []*sitter.QueryMatch
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		matches = append(matches, match)
	}
	return matches, nil
}
