// Package parser is the Parser Front-End: it turns a file's raw bytes into
// a model.ParseResult using github.com/tree-sitter/go-tree-sitter, with one
// grammar per supported language. Parsers and their symbol-extraction
// queries are lazily instantiated on first use and then cached for the
// lifetime of the process.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
)

// maxErrorNodeDepth bounds the recursive error-node walk so a pathological
// tree can't blow the goroutine stack.
const maxErrorNodeDepth = 256

// maxErrorNodesCollected caps how many error nodes are reported per file;
// beyond this the file is clearly too broken for per-node detail to help.
const maxErrorNodesCollected = 200

// Parser is the tree-sitter-backed Parser Front-End.
type Parser struct {
	mu          sync.RWMutex
	parsers     map[string]*tree_sitter.Parser
	queries     map[string]*tree_sitter.Query
	lazyInit    map[string]func()
	initialized map[string]bool
	langGroups  map[string][]string

	community *CommunityParserRegistry
}

// New builds a Parser with every supported language registered for lazy
// initialization (no grammar is actually constructed until its extension
// is first requested).
func New() *Parser {
	p := &Parser{
		parsers:     make(map[string]*tree_sitter.Parser),
		queries:     make(map[string]*tree_sitter.Query),
		lazyInit:    make(map[string]func()),
		initialized: make(map[string]bool),
		langGroups:  make(map[string][]string),
		community:   NewCommunityParserRegistry(),
	}

	p.registerLazyInit([]string{".go"}, p.setupGo, "go")
	p.registerLazyInit([]string{".py"}, p.setupPython, "python")
	p.registerLazyInit([]string{".js", ".jsx"}, p.setupJavaScript, "javascript")
	p.registerLazyInit([]string{".ts", ".tsx"}, p.setupTypeScript, "typescript")
	p.registerLazyInit([]string{".java"}, p.setupJava, "java")
	p.registerLazyInit([]string{".rs"}, p.setupRust, "rust")
	p.registerLazyInit([]string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"}, p.setupCpp, "cpp")
	p.registerLazyInit([]string{".cs"}, p.setupCSharp, "csharp")
	p.registerLazyInit([]string{".php", ".phtml"}, p.setupPHP, "php")

	p.community.Register(rubyCommunityAdapter())
	p.registerLazyInit([]string{".rb"}, func() { p.setupCommunity(".rb") }, "ruby")

	return p
}

// SupportedExtensions returns every extension this parser knows how to
// route, regardless of whether its grammar has been built yet.
func (p *Parser) SupportedExtensions() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	exts := make([]string, 0, len(p.lazyInit))
	for ext := range p.lazyInit {
		exts = append(exts, ext)
	}
	return exts
}

func (p *Parser) languageForExt(ext string) model.Language {
	return LanguageForExt(ext)
}

// LanguageForExt maps a file extension to its supported language, or
// model.LanguageUnknown if the extension isn't recognized. Exported so
// callers that only need extension routing (the orchestrator's notebook
// and plain-file read paths) don't need a *Parser instance.
func LanguageForExt(ext string) model.Language {
	switch ext {
	case ".go":
		return model.LanguageGo
	case ".py":
		return model.LanguagePython
	case ".js", ".jsx":
		return model.LanguageJavaScript
	case ".ts", ".tsx":
		return model.LanguageTypeScript
	case ".java":
		return model.LanguageJava
	case ".rs":
		return model.LanguageRust
	case ".cpp", ".cc", ".cxx", ".c", ".h", ".hpp":
		return model.LanguageCPP
	case ".cs":
		return model.LanguageCSharp
	case ".php", ".phtml":
		return model.LanguagePHP
	case ".rb":
		return model.LanguageRuby
	default:
		return model.LanguageUnknown
	}
}

func (p *Parser) registerLazyInit(extensions []string, initFunc func(), langGroup string) {
	for _, ext := range extensions {
		p.lazyInit[ext] = initFunc
	}
	p.langGroups[langGroup] = extensions
}

// ensureInitialized builds the grammar/query pair for ext's language group
// exactly once, regardless of how many goroutines race to request it.
func (p *Parser) ensureInitialized(ext string) bool {
	p.mu.RLock()
	if p.initialized[ext] {
		p.mu.RUnlock()
		return true
	}
	initFunc, ok := p.lazyInit[ext]
	p.mu.RUnlock()
	if !ok {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized[ext] {
		return true
	}
	initFunc()
	for _, group := range p.langGroups {
		for _, groupExt := range group {
			if groupExt == ext {
				for _, relatedExt := range group {
					p.initialized[relatedExt] = true
				}
				return true
			}
		}
	}
	p.initialized[ext] = true
	return true
}

// ParseOptions bounds a single ParseFile call.
type ParseOptions struct {
	MaxFileSizeBytes int64
	Timeout          time.Duration
}

// ParseFile reads path, selects a grammar by extension, and parses it into
// a model.ParseResult. It does not decode notebooks: an .ipynb path has no
// grammar and fails with UnsupportedLanguage, so callers decode it with
// internal/notebook and pass the virtual Python source to ParseContent.
func (p *Parser) ParseFile(ctx context.Context, path string, opts ParseOptions) (*model.ParseResult, error) {
	ext := filepath.Ext(path)
	lang := p.languageForExt(ext)
	if lang == model.LanguageUnknown {
		return nil, coreerrors.UnsupportedLanguage(path, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.NotFound("parse_file", path)
		}
		return nil, coreerrors.New(coreerrors.KindResourceExceeded, "parse_file", err).WithFile(path)
	}
	if opts.MaxFileSizeBytes > 0 && info.Size() > opts.MaxFileSizeBytes {
		return nil, coreerrors.ResourceExceeded("parse_file", path, fmt.Errorf("file size %d exceeds limit %d", info.Size(), opts.MaxFileSizeBytes))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, coreerrors.New(coreerrors.KindResourceExceeded, "parse_file", err).WithFile(path)
	}

	return p.ParseContent(ctx, path, lang, content, opts)
}

// ParseContent parses already-loaded bytes (used directly by the notebook
// adapter's virtual source, and by ParseFile above).
func (p *Parser) ParseContent(ctx context.Context, path string, lang model.Language, content []byte, opts ParseOptions) (*model.ParseResult, error) {
	ext := extForLanguage(lang)
	if !p.ensureInitialized(ext) {
		return nil, coreerrors.UnsupportedLanguage(path, ext)
	}

	p.mu.RLock()
	tsParser := p.parsers[ext]
	p.mu.RUnlock()
	if tsParser == nil {
		return nil, coreerrors.UnsupportedLanguage(path, ext)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	type result struct {
		tree *tree_sitter.Tree
		ms   int64
	}
	resultCh := make(chan result, 1)
	start := time.Now()
	go func() {
		tree := tsParser.Parse(content, nil)
		resultCh <- result{tree: tree, ms: time.Since(start).Milliseconds()}
	}()

	select {
	case <-ctx.Done():
		return nil, coreerrors.Cancelled("parse_file").WithFile(path)
	case <-time.After(timeout):
		return nil, coreerrors.New(coreerrors.KindResourceExceeded, "parse_file", fmt.Errorf("parse timeout after %s", timeout)).WithFile(path)
	case res := <-resultCh:
		root := res.tree.RootNode()
		errNodes := collectErrorNodes(root, 0)
		return &model.ParseResult{
			FilePath:    path,
			Language:    lang,
			HasErrors:   len(errNodes) > 0,
			ErrorNodes:  errNodes,
			ParseTimeMs: res.ms,
			Source:      content,
		}, nil
	}
}

// Tree re-parses content and returns the raw tree-sitter tree and query for
// callers (internal/symbols, internal/complexity) that need to walk
// captures, rather than just the summarized ParseResult.
func (p *Parser) Tree(lang model.Language, content []byte) (*tree_sitter.Tree, *tree_sitter.Query, bool) {
	ext := extForLanguage(lang)
	if !p.ensureInitialized(ext) {
		return nil, nil, false
	}
	p.mu.RLock()
	tsParser := p.parsers[ext]
	query := p.queries[ext]
	p.mu.RUnlock()
	if tsParser == nil {
		return nil, nil, false
	}
	tree := tsParser.Parse(content, nil)
	return tree, query, true
}

func collectErrorNodes(n *tree_sitter.Node, depth int) []model.ErrorNodeRef {
	if n == nil || depth > maxErrorNodeDepth {
		return nil
	}
	var out []model.ErrorNodeRef
	if n.IsError() || n.IsMissing() {
		out = append(out, model.ErrorNodeRef{
			Kind:      n.Kind(),
			StartLine: int(n.StartPosition().Row) + 1,
			EndLine:   int(n.EndPosition().Row) + 1,
		})
	}
	childCount := int(n.ChildCount())
	for i := 0; i < childCount && len(out) < maxErrorNodesCollected; i++ {
		child := n.Child(uint(i))
		out = append(out, collectErrorNodes(child, depth+1)...)
	}
	return out
}

func extForLanguage(lang model.Language) string {
	switch lang {
	case model.LanguageGo:
		return ".go"
	case model.LanguagePython:
		return ".py"
	case model.LanguageJavaScript:
		return ".js"
	case model.LanguageTypeScript:
		return ".ts"
	case model.LanguageJava:
		return ".java"
	case model.LanguageRust:
		return ".rs"
	case model.LanguageCPP:
		return ".cpp"
	case model.LanguageCSharp:
		return ".cs"
	case model.LanguagePHP:
		return ".php"
	case model.LanguageRuby:
		return ".rb"
	default:
		return ""
	}
}
