// Package orchestrator wires the parser front-end, symbol extractor,
// complexity analyzer, doc-coverage analyzer, pattern detector, dependency
// resolver, and teaching-value scorer into the two invocation-surface
// operations (AnalyzeFile, AnalyzeCodebase) plus the narrower
// DetectPatterns/AnalyzeDependencies/ScoreTeachingValue views over a
// codebase's already-analyzed files.
//
// Bounded per-file parallelism uses golang.org/x/sync/errgroup and
// golang.org/x/sync/semaphore. errgroup is used for its WithContext
// cancellation propagation, not fail-fast: per-file failures are captured
// as error-analysis records instead of aborting the batch.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/basinlabs/codescan/internal/cache"
	"github.com/basinlabs/codescan/internal/complexity"
	"github.com/basinlabs/codescan/internal/config"
	"github.com/basinlabs/codescan/internal/dependency"
	"github.com/basinlabs/codescan/internal/doccoverage"
	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
	"github.com/basinlabs/codescan/internal/notebook"
	"github.com/basinlabs/codescan/internal/parser"
	"github.com/basinlabs/codescan/internal/patterns"
	"github.com/basinlabs/codescan/internal/persistence"
	"github.com/basinlabs/codescan/internal/symbols"
	"github.com/basinlabs/codescan/internal/teaching"
	"github.com/basinlabs/codescan/internal/telemetry"
)

// Scanner is the external collaborator that enumerates a codebase's files.
// The analysis core never walks the filesystem itself; it only reads named
// files.
type Scanner interface {
	Files(ctx context.Context, codebaseID string) (root string, files []string, err error)
}

// Linter is the optional external collaborator that lints one file. Any
// failure (missing binary, timeout, malformed output) is the caller's to
// swallow before returning; the Orchestrator treats a Linter error the same
// as "no issues."
type Linter interface {
	Lint(ctx context.Context, path string, lang model.Language) ([]model.LinterIssue, error)
}

// linterDeadline bounds how long AnalyzeFile waits for a Linter before
// giving up and recording empty issues.
const linterDeadline = 2 * time.Second

// defaultMaxParallelFiles mirrors config's own default so a caller that
// never touches MaxParallelFiles still gets sane bounded parallelism.
const defaultMaxParallelFiles = 10

// topTeachingFiles bounds how many top-ranked file paths a
// CodebaseAnalysis retains.
const topTeachingFiles = 20

// schemaVersion is bumped whenever FileAnalysis's shape changes in a way
// that invalidates persisted records; incremental reuse checks it alongside
// the content hash.
const schemaVersion = 1

// Orchestrator composes every analysis component into the caller-facing
// invocation surface.
type Orchestrator struct {
	log     *zap.Logger
	cfg     *config.Config
	parser  *parser.Parser
	reg     *patterns.Registry
	cache   *cache.Cache
	store   *persistence.Store
	scanner Scanner
	linter  Linter

	teachingWeights teaching.Weights
}

// New builds an Orchestrator. cache and store may be nil for a minimal
// single-file caller that never touches analyze_codebase's persistence and
// caching steps; scanner/linter may be nil only if analyze_codebase and the
// parallel-linter step are never invoked.
func New(cfg *config.Config, log *zap.Logger, p *parser.Parser, reg *patterns.Registry, c *cache.Cache, store *persistence.Store, scanner Scanner, linter Linter) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		log:     log,
		cfg:     cfg,
		parser:  p,
		reg:     reg,
		cache:   c,
		store:   store,
		scanner: scanner,
		linter:  linter,
		teachingWeights: teaching.Weights{
			Documentation: cfg.TeachingValueWeights.Documentation,
			Complexity:    cfg.TeachingValueWeights.Complexity,
			Pattern:       cfg.TeachingValueWeights.Pattern,
			Structure:     cfg.TeachingValueWeights.Structure,
		},
	}
}

// AnalyzeFile analyzes a single file, reusing a cached result keyed on
// (path, content hash) unless force is set.
func (o *Orchestrator) AnalyzeFile(ctx context.Context, path string, force bool) (*model.FileAnalysis, error) {
	if path == "" {
		return nil, coreerrors.InvalidInput("analyze_file", "path must not be empty")
	}
	defer telemetry.Scope(o.log, "analyze_file", zap.String("file_path", path))()

	content, lang, decodeErr := o.readSource(path)
	if decodeErr != nil {
		return nil, decodeErr
	}

	hash := contentHash(content)

	if !force && o.cache != nil {
		var cached model.FileAnalysis
		if ok, err := o.cache.GetJSON(ctx, cache.FileKey(path, hash), &cached); err != nil {
			o.log.Warn("cache read failed", zap.Error(coreerrors.New(coreerrors.KindCacheUnavailable, "analyze_file", err)))
		} else if ok {
			return &cached, nil
		}
	}

	analysis := o.analyzeContent(ctx, path, lang, content, hash)

	if o.cache != nil {
		if err := o.cache.PutJSON(ctx, cache.FileKey(path, hash), analysis); err != nil {
			o.log.Warn("cache write failed", zap.Error(coreerrors.New(coreerrors.KindCacheUnavailable, "analyze_file", err)))
		}
	}

	return analysis, nil
}

// readSource loads path's bytes and language, routing .ipynb files through
// the notebook adapter to get a virtual Python source.
func (o *Orchestrator) readSource(path string) ([]byte, model.Language, error) {
	if filepath.Ext(path) == ".ipynb" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, "", coreerrors.NotFound("analyze_file", path)
			}
			return nil, "", coreerrors.New(coreerrors.KindResourceExceeded, "analyze_file", err).WithFile(path)
		}
		decoded, err := notebook.Decode(path, raw)
		if err != nil {
			return nil, "", err
		}
		return decoded.VirtualSource, model.LanguagePython, nil
	}

	ext := filepath.Ext(path)
	lang := parser.LanguageForExt(ext)
	if lang == model.LanguageUnknown {
		return nil, "", coreerrors.UnsupportedLanguage(path, ext)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", coreerrors.NotFound("analyze_file", path)
		}
		return nil, "", coreerrors.New(coreerrors.KindResourceExceeded, "analyze_file", err).WithFile(path)
	}
	return content, lang, nil
}

// analyzeContent runs the full per-file pipeline
// (parse->extract->complexity->doc-coverage->patterns->score) plus the
// parallel linter step, never returning an error: a failure at any stage
// degrades to an error-analysis record, since this is also the per-file
// task body inside AnalyzeCodebase's batch, where one bad file must not
// abort the others.
func (o *Orchestrator) analyzeContent(ctx context.Context, path string, lang model.Language, content []byte, hash string) *model.FileAnalysis {
	analysis := &model.FileAnalysis{
		FilePath:      path,
		Language:      lang,
		FileHash:      hash,
		SchemaVersion: schemaVersion,
		AnalyzedAt:    time.Now().UTC(),
	}

	var linterDone chan []model.LinterIssue
	if o.linter != nil {
		linterDone = make(chan []model.LinterIssue, 1)
		go func() {
			lctx, cancel := context.WithTimeout(ctx, linterDeadline)
			defer cancel()
			issues, err := o.linter.Lint(lctx, path, lang)
			if err != nil {
				o.log.Debug("linter degraded", zap.String("file_path", path), zap.Error(err))
				linterDone <- nil
				return
			}
			linterDone <- issues
		}()
	}

	if o.parser == nil {
		analysis.ParseErrors = append(analysis.ParseErrors, "no parser configured")
		return analysis
	}

	timeout := o.cfg.ParseTimeout()
	parseResult, err := o.parser.ParseContent(ctx, path, lang, content, parser.ParseOptions{Timeout: timeout})
	if err != nil {
		analysis.ParseErrors = append(analysis.ParseErrors, err.Error())
		o.finishWithLinter(ctx, analysis, linterDone)
		return analysis
	}
	if parseResult.HasErrors {
		analysis.ParseErrors = append(analysis.ParseErrors, fmt.Sprintf("%d parse error node(s)", len(parseResult.ErrorNodes)))
	}

	tree, query, ok := o.parser.Tree(lang, content)
	if !ok {
		analysis.ParseErrors = append(analysis.ParseErrors, "tree unavailable after successful parse")
		o.finishWithLinter(ctx, analysis, linterDone)
		return analysis
	}

	table := symbols.Extract(lang, tree, query, content)
	analysis.Symbols = *table
	analysis.Complexity = complexity.Aggregate(table)
	analysis.Documentation = doccoverage.Analyze(lang, table, content)

	if o.reg != nil {
		analysis.Patterns = o.reg.DetectFile(table, content, path)
	}

	analysis.TeachingValue = teaching.Score(o.teachingWeights, analysis.Documentation, analysis.Complexity, analysis.Patterns, *table)

	o.finishWithLinter(ctx, analysis, linterDone)
	return analysis
}

func (o *Orchestrator) finishWithLinter(ctx context.Context, analysis *model.FileAnalysis, linterDone chan []model.LinterIssue) {
	if linterDone == nil {
		return
	}
	select {
	case issues := <-linterDone:
		analysis.LinterIssues = issues
	case <-ctx.Done():
	case <-time.After(linterDeadline):
	}
}

// contentHash is the canonical per-file identity hash. xxhash is
// intentionally not used here: it is reserved for the cache's internal
// shard selection, a distinct concern from content identity.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// AnalyzeCodebase analyzes every file the Scanner reports for codebaseID,
// reusing unchanged files' persisted analyses in incremental mode, then
// runs the cross-file passes (dependency graph, global patterns, ranking)
// and persists the combined result.
func (o *Orchestrator) AnalyzeCodebase(ctx context.Context, codebaseID string, incremental, useCache bool) (*model.CodebaseAnalysis, error) {
	if codebaseID == "" {
		return nil, coreerrors.InvalidInput("analyze_codebase", "codebase_id must not be empty")
	}
	runID := uuid.NewString()
	defer telemetry.Scope(o.log, "analyze_codebase", zap.String("codebase_id", codebaseID), zap.String("run_id", runID))()

	if o.scanner == nil {
		return nil, coreerrors.NotScanned(codebaseID)
	}
	root, files, err := o.scanner.Files(ctx, codebaseID)
	if err != nil || len(files) == 0 {
		return nil, coreerrors.NotScanned(codebaseID)
	}

	var previousHashes persistence.FileHashIndex
	if o.store != nil {
		previousHashes, _ = o.store.LoadFileHashes(codebaseID)
	}
	if previousHashes == nil {
		previousHashes = persistence.FileHashIndex{}
	}

	fileAnalyses := make(map[string]*model.FileAnalysis, len(files))
	newHashes := persistence.FileHashIndex{}
	var toAnalyze []string
	contentByPath := map[string][]byte{}
	langByPath := map[string]model.Language{}

	for _, path := range files {
		content, lang, readErr := o.readSource(path)
		if readErr != nil {
			fileAnalyses[path] = errorAnalysis(path, lang, readErr)
			continue
		}
		hash := contentHash(content)
		newHashes[path] = hash
		contentByPath[path] = content
		langByPath[path] = lang

		if incremental && o.store != nil && previousHashes[path] == hash {
			if prev, loadErr := o.store.LoadFileAnalysis(hash); loadErr == nil && prev != nil && prev.SchemaVersion == schemaVersion {
				fileAnalyses[path] = prev
				continue
			}
		}
		toAnalyze = append(toAnalyze, path)
	}

	analyzed, err := o.analyzeBatch(ctx, toAnalyze, contentByPath, langByPath, newHashes)
	if err != nil {
		return nil, err
	}
	for path, fa := range analyzed {
		fileAnalyses[path] = fa
	}

	resolver := dependency.NewResolver(root)
	graph, _ := resolver.Resolve(fileAnalyses)

	var globalPatterns []model.DetectedPattern
	if o.reg != nil {
		globalPatterns = o.reg.GlobalPatterns(fileAnalyses)
	}

	topFiles := rankByTeachingValue(fileAnalyses, topTeachingFiles)
	metrics := computeCodebaseMetrics(fileAnalyses)

	result := &model.CodebaseAnalysis{
		CodebaseID:       codebaseID,
		FileAnalyses:     fileAnalyses,
		DependencyGraph:  *graph,
		GlobalPatterns:   globalPatterns,
		TopTeachingFiles: topFiles,
		Metrics:          metrics,
		AnalyzedAt:       time.Now().UTC(),
	}

	if o.store != nil {
		if err := o.store.SaveAnalysis(result); err != nil {
			o.log.Warn("persist codebase analysis failed", zap.Error(coreerrors.New(coreerrors.KindPersistFailed, "analyze_codebase", err)))
		}
		if err := o.store.SaveFileHashes(codebaseID, newHashes); err != nil {
			o.log.Warn("persist file hashes failed", zap.Error(coreerrors.New(coreerrors.KindPersistFailed, "analyze_codebase", err)))
		}
		for path, fa := range fileAnalyses {
			if fa.FileHash == "" {
				continue
			}
			if err := o.store.SaveFileAnalysis(fa); err != nil {
				o.log.Warn("persist file analysis failed", zap.String("file_path", path), zap.Error(coreerrors.New(coreerrors.KindPersistFailed, "analyze_codebase", err)))
			}
		}
	}

	if useCache && o.cache != nil {
		if err := o.cache.PutJSON(ctx, cache.CodebaseKey(codebaseID), result); err != nil {
			o.log.Warn("cache write failed", zap.Error(coreerrors.New(coreerrors.KindCacheUnavailable, "analyze_codebase", err)))
		}
	}

	return result, nil
}

// analyzeBatch runs analyzeContent over every path in toAnalyze with
// bounded parallelism. Each task is independent; a task failure yields an
// error-analysis record rather than aborting the batch, so analyzeContent's
// own internal degrade-to-error-record behavior already covers per-file
// failure and this loop never itself needs to fail the group.
func (o *Orchestrator) analyzeBatch(ctx context.Context, toAnalyze []string, contentByPath map[string][]byte, langByPath map[string]model.Language, hashes persistence.FileHashIndex) (map[string]*model.FileAnalysis, error) {
	results := make(map[string]*model.FileAnalysis, len(toAnalyze))
	if len(toAnalyze) == 0 {
		return results, nil
	}

	maxParallel := int64(o.cfg.MaxParallelFiles)
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallelFiles
	}
	sem := semaphore.NewWeighted(maxParallel)
	g, gctx := errgroup.WithContext(ctx)

	type outcome struct {
		path string
		fa   *model.FileAnalysis
	}
	outcomes := make(chan outcome, len(toAnalyze))

	for _, path := range toAnalyze {
		path := path
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				outcomes <- outcome{path: path, fa: errorAnalysis(path, langByPath[path], coreerrors.Cancelled("analyze_codebase").WithFile(path))}
				return nil
			}
			defer sem.Release(1)

			fa := o.analyzeContent(gctx, path, langByPath[path], contentByPath[path], hashes[path])
			outcomes <- outcome{path: path, fa: fa}
			return nil
		})
	}

	// errgroup's Go never returns a non-nil error above (failures are
	// captured as error-analysis records instead), so Wait only surfaces
	// context cancellation propagated through gctx.
	_ = g.Wait()
	close(outcomes)

	for res := range outcomes {
		results[res.path] = res.fa
	}
	return results, nil
}

func errorAnalysis(path string, lang model.Language, err error) *model.FileAnalysis {
	return &model.FileAnalysis{
		FilePath:    path,
		Language:    lang,
		AnalyzedAt:  time.Now().UTC(),
		ParseErrors: []string{err.Error()},
	}
}

// rankByTeachingValue returns the top-K file paths by TeachingValueScore,
// descending, breaking ties by path for determinism.
func rankByTeachingValue(fileAnalyses map[string]*model.FileAnalysis, k int) []string {
	paths := make([]string, 0, len(fileAnalyses))
	for p := range fileAnalyses {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		si, sj := fileAnalyses[paths[i]].TeachingValue.Total, fileAnalyses[paths[j]].TeachingValue.Total
		if si != sj {
			return si > sj
		}
		return paths[i] < paths[j]
	})
	if len(paths) > k {
		paths = paths[:k]
	}
	return paths
}

func computeCodebaseMetrics(fileAnalyses map[string]*model.FileAnalysis) model.CodebaseMetrics {
	metrics := model.CodebaseMetrics{
		Languages:        map[model.Language]int{},
		PatternHistogram: map[string]int{},
	}

	var complexitySum, docSum float64
	for _, fa := range fileAnalyses {
		metrics.TotalFiles++
		metrics.Languages[fa.Language]++
		complexitySum += fa.Complexity.Avg
		docSum += fa.Documentation.TotalScore
		for _, p := range fa.Patterns {
			metrics.PatternHistogram[p.PatternType]++
		}
	}

	if metrics.TotalFiles > 0 {
		metrics.AvgComplexity = complexitySum / float64(metrics.TotalFiles)
		metrics.AvgDocCoverage = docSum / float64(metrics.TotalFiles)
	}
	return metrics
}

// DetectPatterns returns the global patterns of an already-analyzed
// codebase, with a flag reporting whether they came from the cache.
func (o *Orchestrator) DetectPatterns(ctx context.Context, codebaseID string, useCache bool) ([]model.DetectedPattern, bool, error) {
	analysis, fromCache, err := o.loadCachedOrPersisted(ctx, codebaseID, useCache)
	if err != nil {
		return nil, false, err
	}
	return analysis.GlobalPatterns, fromCache, nil
}

// AnalyzeDependencies returns the dependency graph and its summary metrics
// for an already-analyzed codebase.
func (o *Orchestrator) AnalyzeDependencies(ctx context.Context, codebaseID string, useCache bool) (*model.DependencyGraph, model.DependencyMetrics, bool, error) {
	analysis, fromCache, err := o.loadCachedOrPersisted(ctx, codebaseID, useCache)
	if err != nil {
		return nil, model.DependencyMetrics{}, false, err
	}

	metrics := dependency.Metrics(&analysis.DependencyGraph)
	return &analysis.DependencyGraph, metrics, fromCache, nil
}

// ScoreTeachingValue is a thin view over AnalyzeFile, since teaching value
// is always computed as part of the per-file pipeline.
func (o *Orchestrator) ScoreTeachingValue(ctx context.Context, path string, force bool) (model.TeachingValueScore, error) {
	fa, err := o.AnalyzeFile(ctx, path, force)
	if err != nil {
		return model.TeachingValueScore{}, err
	}
	return fa.TeachingValue, nil
}

func (o *Orchestrator) loadCachedOrPersisted(ctx context.Context, codebaseID string, useCache bool) (*model.CodebaseAnalysis, bool, error) {
	if codebaseID == "" {
		return nil, false, coreerrors.InvalidInput("analyze_codebase", "codebase_id must not be empty")
	}

	if useCache && o.cache != nil {
		var cached model.CodebaseAnalysis
		if ok, err := o.cache.GetJSON(ctx, cache.CodebaseKey(codebaseID), &cached); err == nil && ok {
			return &cached, true, nil
		}
	}

	if o.store == nil {
		return nil, false, coreerrors.NotScanned(codebaseID)
	}
	analysis, err := o.store.LoadAnalysis(codebaseID)
	if err != nil {
		return nil, false, coreerrors.NotScanned(codebaseID)
	}
	return analysis, false, nil
}
