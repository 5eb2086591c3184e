// Package patterns runs pattern detection: a registry of stateless, pure
// detector plugins run in a stable order over one file at a time, plus a
// global pass that re-scans per-file results for cross-file presence. The
// registry is an explicit struct populated at construction
// (NewRegistry(detectors...)); there is no import-time registration.
package patterns

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/basinlabs/codescan/internal/model"
)

// Detector is the pattern-plugin contract: pure, stateless, and expected to
// attach at least one evidence string to every pattern it emits.
type Detector interface {
	Detect(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern
}

// Registry runs a fixed, ordered set of detectors and isolates each one's
// failure so a single bad plugin never aborts the pass.
type Registry struct {
	detectors []Detector
	log       *zap.Logger
}

// NewRegistry builds a Registry over the given detectors, run in the order
// given.
func NewRegistry(log *zap.Logger, detectors ...Detector) *Registry {
	return &Registry{detectors: detectors, log: log}
}

// DefaultDetectors returns the standard detector set, each producing a
// distinct pattern_type.
func DefaultDetectors() []Detector {
	return []Detector{
		&UIComponentDetector{},
		&HTTPEndpointDetector{},
		&DataLayerDetector{},
		&AuthDetector{},
		&LanguageIdiomDetector{},
	}
}

// DetectFile runs every registered detector against one file's symbols and
// content, in registry order, and concatenates their results.
func (r *Registry) DetectFile(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern {
	var all []model.DetectedPattern
	for _, d := range r.detectors {
		all = append(all, r.runSafely(d, symbols, content, filePath)...)
	}
	return all
}

// runSafely recovers a detector panic, logs it, and returns no patterns for
// that detector. One bad plugin never aborts the pass.
func (r *Registry) runSafely(d Detector, symbols *model.SymbolTable, content []byte, filePath string) (result []model.DetectedPattern) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.log != nil {
				r.log.Error("pattern detector panicked",
					zap.String("file_path", filePath),
					zap.Any("panic", rec),
				)
			}
			result = nil
		}
	}()
	return d.Detect(symbols, content, filePath)
}

// minGlobalFiles is how many distinct files must carry a pattern_type
// before it rolls up into a global_* pattern.
const minGlobalFiles = 2

// GlobalPatterns re-scans completed per-file results and emits one
// global_<pattern_type> pattern per pattern_type that appears in at least
// minGlobalFiles distinct files. Callers must only invoke it after every
// per-file analysis has finished. Cross-language variants of conceptually
// similar patterns are not deduplicated: "global_http_endpoint" from a
// Python decorator and from an Express router call both roll into the same
// bucket since the per-file detectors already share one pattern_type per
// category.
func (r *Registry) GlobalPatterns(fileAnalyses map[string]*model.FileAnalysis) []model.DetectedPattern {
	filesByType := map[string][]string{}
	confidenceSum := map[string]float64{}

	for path, fa := range fileAnalyses {
		if fa == nil {
			continue
		}
		seen := map[string]bool{}
		for _, p := range fa.Patterns {
			if seen[p.PatternType] {
				continue
			}
			seen[p.PatternType] = true
			filesByType[p.PatternType] = append(filesByType[p.PatternType], path)
			confidenceSum[p.PatternType] += p.Confidence
		}
	}

	patternTypes := make([]string, 0, len(filesByType))
	for patternType := range filesByType {
		patternTypes = append(patternTypes, patternType)
	}
	sort.Strings(patternTypes)

	var out []model.DetectedPattern
	for _, patternType := range patternTypes {
		files := filesByType[patternType]
		if len(files) < minGlobalFiles {
			continue
		}
		sort.Strings(files)
		avgConfidence := confidenceSum[patternType] / float64(len(files))
		out = append(out, model.DetectedPattern{
			PatternType: "global_" + patternType,
			Confidence:  avgConfidence,
			Evidence:    []string{fmt.Sprintf("present in %d files", len(files))},
			Metadata:    map[string]any{"files": files},
		})
	}
	return out
}

func confidence(evidenceCount, expected int) float64 {
	if expected <= 0 {
		return 0
	}
	c := float64(evidenceCount) / float64(expected)
	if c > 1.0 {
		c = 1.0
	}
	return c
}
