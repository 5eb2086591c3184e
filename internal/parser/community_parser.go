package parser

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_ruby "github.com/tree-sitter-grammars/tree-sitter-ruby/bindings/go"
)

// CommunityParserAdapter is the escape hatch for grammars maintained
// outside the primary tree-sitter organization. Ruby is sourced from the
// tree-sitter-grammars org.
type CommunityParserAdapter struct {
	name        string
	extensions  []string
	getLanguage func() *tree_sitter.Language
	queryDef    string
}

func NewCommunityParserAdapter(name string, extensions []string, getLanguage func() *tree_sitter.Language, queryDef string) *CommunityParserAdapter {
	return &CommunityParserAdapter{name: name, extensions: extensions, getLanguage: getLanguage, queryDef: queryDef}
}

func (c *CommunityParserAdapter) Extensions() []string { return c.extensions }

func (c *CommunityParserAdapter) setupParser(p *Parser) error {
	parser := tree_sitter.NewParser()
	language := c.getLanguage()
	if err := parser.SetLanguage(language); err != nil {
		return fmt.Errorf("community parser %s: set language: %w", c.name, err)
	}
	for _, ext := range c.extensions {
		p.parsers[ext] = parser
	}
	query, err := tree_sitter.NewQuery(language, c.queryDef)
	if err != nil {
		return fmt.Errorf("community parser %s: query: %w", c.name, err)
	}
	if query != nil {
		for _, ext := range c.extensions {
			p.queries[ext] = query
		}
	}
	return nil
}

// CommunityParserRegistry tracks adapters by name so a new community
// grammar is "add a dependency, write a setup function, register it" with
// no change to the core lazy-init machinery.
type CommunityParserRegistry struct {
	adapters map[string]*CommunityParserAdapter
}

func NewCommunityParserRegistry() *CommunityParserRegistry {
	return &CommunityParserRegistry{adapters: make(map[string]*CommunityParserAdapter)}
}

func (r *CommunityParserRegistry) Register(adapter *CommunityParserAdapter) {
	r.adapters[adapter.name] = adapter
}

func rubyCommunityAdapter() *CommunityParserAdapter {
	queryStr := `
        (method name: (identifier) @method.name) @method
        (singleton_method name: (identifier) @method.name) @method
        (class name: (constant) @class.name) @class
        (module name: (constant) @module.name) @module
        (call method: (identifier) @import.name
            arguments: (argument_list (string (string_content) @import.path))
            (#match? @import.name "^(require|require_relative)$")) @import
    `
	getLanguage := func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_ruby.Language())
	}
	return NewCommunityParserAdapter("ruby", []string{".rb"}, getLanguage, queryStr)
}

// setupCommunity is invoked by the parser's lazy-init table the first time
// a community-parser extension is requested.
func (p *Parser) setupCommunity(ext string) {
	for _, adapter := range p.community.adapters {
		for _, adapterExt := range adapter.extensions {
			if adapterExt == ext {
				_ = adapter.setupParser(p)
				return
			}
		}
	}
}
