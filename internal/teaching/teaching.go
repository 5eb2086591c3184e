// Package teaching scores a file's teaching value: it composes the
// file's documentation coverage, complexity, detected patterns, and symbol
// table into a single weighted score meant to surface files that are good
// teaching material — well-documented, moderately complex, pattern-rich,
// reasonably structured.
//
// Weights has its own defaults here rather than importing internal/config,
// so the orchestrator (the only caller that owns a *config.Config) is the
// single place that converts configured weights into this package's type.
package teaching

import (
	"fmt"
	"sort"

	"github.com/basinlabs/codescan/internal/model"
)

// Weights controls how the four sub-scores combine into Total. They should
// sum to 1.0 but Score normalizes regardless.
type Weights struct {
	Documentation float64
	Complexity    float64
	Pattern       float64
	Structure     float64
}

// DefaultWeights is this package's own fallback weighting, used when a
// caller supplies no (or all-zero) weights. It deliberately differs
// slightly from the configured defaults in internal/config, which remain
// the source of truth for a configured run.
func DefaultWeights() Weights {
	return Weights{
		Documentation: 0.35,
		Complexity:    0.25,
		Pattern:       0.20,
		Structure:     0.20,
	}
}

// idealComplexity is the cyclomatic-complexity average judged most
// instructive: complex enough to teach a real technique, simple enough to
// follow in one sitting.
const idealComplexity = 6.0

// Score composes a TeachingValueScore for one file.
func Score(weights Weights, doc model.DocumentationCoverage, comp model.ComplexityMetrics, patterns []model.DetectedPattern, table model.SymbolTable) model.TeachingValueScore {
	docScore := doc.TotalScore
	compScore := complexityScore(comp)
	patScore := patternScore(patterns)
	structScore := structureScore(table)

	total := normalize(weights)
	w := total

	factors := map[string]float64{
		"documentation": docScore,
		"complexity":    compScore,
		"pattern":       patScore,
		"structure":     structScore,
	}

	totalScore := w.Documentation*docScore + w.Complexity*compScore + w.Pattern*patScore + w.Structure*structScore

	return model.TeachingValueScore{
		Total:         totalScore,
		Documentation: docScore,
		Complexity:    compScore,
		Pattern:       patScore,
		Structure:     structScore,
		Explanation:   explain(factors),
		Factors:       factors,
	}
}

// normalize rescales weights to sum to 1.0 so a caller's slightly-off config
// values (or all-zero weights) don't silently distort Total.
func normalize(w Weights) Weights {
	sum := w.Documentation + w.Complexity + w.Pattern + w.Structure
	if sum <= 0 {
		return DefaultWeights()
	}
	return Weights{
		Documentation: w.Documentation / sum,
		Complexity:    w.Complexity / sum,
		Pattern:       w.Pattern / sum,
		Structure:     w.Structure / sum,
	}
}

// complexityScore rewards files whose average cyclomatic complexity sits
// near idealComplexity and penalizes both trivial and overly tangled
// files: 1 - |avg - ideal| / ideal, clipped to [0, 1].
func complexityScore(comp model.ComplexityMetrics) float64 {
	if comp.Avg <= 0 {
		return 0
	}
	distance := comp.Avg - idealComplexity
	if distance < 0 {
		distance = -distance
	}
	score := 1.0 - (distance / idealComplexity)
	return clamp01(score)
}

// patternScore is the average confidence of the detected patterns scaled by
// how many there are, up to patternScoreCap: one pattern earns a third of
// its confidence, and patternScoreCap or more earn it in full.
const patternScoreCap = 3

func patternScore(patterns []model.DetectedPattern) float64 {
	if len(patterns) == 0 {
		return 0
	}
	var sum float64
	for _, p := range patterns {
		sum += p.Confidence
	}
	avg := sum / float64(len(patterns))
	countFactor := float64(len(patterns))
	if countFactor > patternScoreCap {
		countFactor = patternScoreCap
	}
	return clamp01(avg * (countFactor / patternScoreCap))
}

// structureScore rewards files that have at least some functions/classes to
// teach from, and that aren't dominated by a single oversized declaration.
func structureScore(table model.SymbolTable) float64 {
	declCount := len(table.Functions) + len(table.Classes)
	if declCount == 0 {
		return 0
	}

	presence := float64(declCount)
	if presence > 10 {
		presence = 10
	}
	presenceScore := presence / 10.0

	sizeScore := 1.0
	for _, fn := range table.Functions {
		span := fn.EndLine - fn.StartLine
		if span > 80 {
			sizeScore = 0.5
			break
		}
	}

	return clamp01(0.6*presenceScore + 0.4*sizeScore)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// explain renders a short, deterministically-ordered human summary of which
// factor drove the score the most.
func explain(factors map[string]float64) string {
	keys := make([]string, 0, len(factors))
	for k := range factors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best := keys[0]
	for _, k := range keys {
		if factors[k] > factors[best] {
			best = k
		}
	}

	return fmt.Sprintf("strongest factor: %s (%.2f)", best, factors[best])
}
