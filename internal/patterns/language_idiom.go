package patterns

import (
	"regexp"

	"github.com/basinlabs/codescan/internal/model"
)

// languageIdiomExpectedEvidence: one evidence item per idiom category
// checked (comprehension, context manager, async/await, generator,
// decorator).
const languageIdiomExpectedEvidence = 5

var (
	comprehensionPattern  = regexp.MustCompile(`\[[^\[\]]+\s+for\s+\w+\s+in\s+[^\[\]]+\]`)
	contextManagerPattern = regexp.MustCompile(`\bwith\s+[^:]+:`)
	asyncAwaitPattern     = regexp.MustCompile(`\b(async\s+(def|function|fn)|await)\b`)
	generatorPattern      = regexp.MustCompile(`\byield\b`)
)

// LanguageIdiomDetector flags per-language idiomatic constructs:
// comprehensions, context managers, async/await, generators, and
// decorators/annotations.
type LanguageIdiomDetector struct{}

func (LanguageIdiomDetector) Detect(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern {
	var evidence []string

	if comprehensionPattern.Match(content) {
		evidence = append(evidence, "comprehension")
	}
	if contextManagerPattern.Match(content) {
		evidence = append(evidence, "context manager (with-statement)")
	}
	if asyncAwaitPattern.Match(content) {
		evidence = append(evidence, "async/await")
	}
	if generatorPattern.Match(content) {
		evidence = append(evidence, "generator (yield)")
	}
	if hasDecorators(symbols) {
		evidence = append(evidence, "decorator/annotation")
	}

	if len(evidence) == 0 {
		return nil
	}

	return []model.DetectedPattern{{
		PatternType: "language_idiom",
		FilePath:    filePath,
		Confidence:  confidence(len(evidence), languageIdiomExpectedEvidence),
		Evidence:    evidence,
	}}
}

func hasDecorators(symbols *model.SymbolTable) bool {
	for _, fn := range symbols.Functions {
		if len(fn.Decorators) > 0 {
			return true
		}
	}
	for _, c := range symbols.Classes {
		if len(c.Decorators) > 0 {
			return true
		}
		for _, m := range c.Methods {
			if len(m.Decorators) > 0 {
				return true
			}
		}
	}
	return false
}
