// Package model holds the immutable records produced by the analysis
// pipeline: parse results, symbol tables, metrics, detected patterns, and
// the composed per-file and per-codebase analyses.
//
// Every record here is owned by the component that produces it and is
// treated as read-only once returned; the orchestrator composes them into
// larger records but never mutates a child record in place.
package model

import "time"

// Language identifies the programming language a file was parsed as.
type Language string

const (
	LanguageGo         Language = "go"
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageJava       Language = "java"
	LanguageRust       Language = "rust"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageRuby       Language = "ruby"
	LanguagePHP        Language = "php"
	LanguageUnknown    Language = ""
)

// ImportKind tags how an import/require/use statement binds its symbols.
type ImportKind string

const (
	ImportKindPlain   ImportKind = "plain"
	ImportKindFrom    ImportKind = "from"
	ImportKindRequire ImportKind = "require"
	ImportKindES6     ImportKind = "es6"
	ImportKindUse     ImportKind = "use"
)

// ErrorNodeRef is a lightweight pointer to a recovered/missing parse node,
// kept only for the lifetime of the ParseResult.
type ErrorNodeRef struct {
	Kind      string
	StartLine int
	EndLine   int
}

// ParseResult is the Parser Front-End's output. It is not cached and is
// only alive until the extractors finish consuming it.
type ParseResult struct {
	FilePath    string
	Language    Language
	HasErrors   bool
	ErrorNodes  []ErrorNodeRef
	ParseTimeMs int64

	// Source is the exact bytes parsed, retained so extractors can slice
	// identifier/docstring text without re-reading the file.
	Source []byte
}

// FunctionRecord describes one function or method.
type FunctionRecord struct {
	Name         string
	Parameters   []string
	ReturnType   string
	Docstring    string
	StartLine    int
	EndLine      int
	Complexity   int
	NestingDepth int
	IsAsync      bool
	Decorators   []string
}

// ClassRecord describes one class/struct/interface-like declaration.
// Methods are not repeated at the file's top-level function list.
type ClassRecord struct {
	Name        string
	Methods     []FunctionRecord
	BaseClasses []string
	Docstring   string
	StartLine   int
	EndLine     int
	Decorators  []string
}

// ImportRecord describes one import/require/use statement.
type ImportRecord struct {
	Module          string
	ImportedSymbols []string
	IsRelative      bool
	Kind            ImportKind
	LineNumber      int
}

// SymbolTable is the Symbol Extractor's per-file output.
type SymbolTable struct {
	Functions []FunctionRecord
	Classes   []ClassRecord
	Imports   []ImportRecord
	Exports   []string
}

// ComplexityMetrics aggregates per-function complexity over one file.
type ComplexityMetrics struct {
	Avg                 float64
	Max                 int
	Min                 int
	HighCount           int
	TrivialCount        int
	AvgNestingDepth     float64
	MaxNestingDepth     int
	TotalDecisionPoints int
}

// DocumentationCoverage is the Doc-Coverage Analyzer's per-file output.
type DocumentationCoverage struct {
	TotalScore         float64
	FunctionCoverage   float64
	ClassCoverage      float64
	MethodCoverage     float64
	InlineCommentBonus float64
	Counts             DocumentationCounts
}

// DocumentationCounts records the raw tallies behind a DocumentationCoverage.
type DocumentationCounts struct {
	Functions           int
	DocumentedFunctions int
	Classes             int
	DocumentedClasses   int
	Methods             int
	DocumentedMethods   int
}

// DetectedPattern is one evidence-backed observation about a file (or, for
// global patterns, about the codebase as a whole).
type DetectedPattern struct {
	PatternType string
	FilePath    string
	Confidence  float64
	Evidence    []string
	LineNumbers []int
	Metadata    map[string]any
}

// TeachingValueScore is the Teaching-Value Scorer's composite output.
type TeachingValueScore struct {
	Total         float64
	Documentation float64
	Complexity    float64
	Pattern       float64
	Structure     float64
	Explanation   string
	Factors       map[string]float64
}

// LinterIssue is one diagnostic returned by the (optional, out-of-process)
// linter collaborator.
type LinterIssue struct {
	Severity string // "error" | "warning" | "info"
	Message  string
	Line     int
	Column   int
	Rule     string
}

// FileAnalysis is the fully composed analysis of a single file.
type FileAnalysis struct {
	FilePath      string
	Language      Language
	FileHash      string
	SchemaVersion int
	Symbols       SymbolTable
	Patterns      []DetectedPattern
	Complexity    ComplexityMetrics
	Documentation DocumentationCoverage
	TeachingValue TeachingValueScore
	LinterIssues  []LinterIssue
	AnalyzedAt    time.Time
	ParseErrors   []string
}

// FileNode is one vertex of a DependencyGraph.
type FileNode struct {
	FilePath        string
	Imports         []string
	ImportedBy      []string
	ExternalImports []string
}

// DependencyEdge is one internal import edge.
type DependencyEdge struct {
	From        string
	To          string
	ImportCount int
}

// Cycle is a minimal (no proper sub-cycle also reported) circular
// dependency among internal files.
type Cycle struct {
	Cycle    []string
	Severity string // "error" | "warning"
}

// DependencyGraph is the Dependency Resolver's output.
type DependencyGraph struct {
	Nodes    map[string]*FileNode
	Edges    []DependencyEdge
	Circular []Cycle
	External map[string]int
}

// DependencyMetrics summarizes a DependencyGraph: totals plus the busiest
// nodes by import fan-in/fan-out.
type DependencyMetrics struct {
	TotalNodes   int
	TotalEdges   int
	TopImported  []string
	TopImporters []string
	AvgFanOut    float64
}

// CodebaseMetrics aggregates per-codebase statistics.
type CodebaseMetrics struct {
	TotalFiles       int
	Languages        map[Language]int
	AvgComplexity    float64
	AvgDocCoverage   float64
	PatternHistogram map[string]int
}

// CodebaseAnalysis is the Orchestrator's top-level composed output.
type CodebaseAnalysis struct {
	CodebaseID       string
	FileAnalyses     map[string]*FileAnalysis
	DependencyGraph  DependencyGraph
	GlobalPatterns   []DetectedPattern
	TopTeachingFiles []string
	Metrics          CodebaseMetrics
	AnalyzedAt       time.Time
}

// NotebookCellRange maps a virtual-source line range back to its
// originating notebook cell index.
type NotebookCellRange struct {
	CellIndex int
	StartLine int
	EndLine   int
}
