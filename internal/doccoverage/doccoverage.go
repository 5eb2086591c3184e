// Package doccoverage scores a file's documentation: a weighted score
// over documented functions/classes/methods plus a small inline-comment
// bonus. Placeholder docstrings and section-divider comments do not count
// as documentation.
package doccoverage

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/basinlabs/codescan/internal/model"
)

const (
	weightFunctions = 0.40
	weightClasses   = 0.30
	weightMethods   = 0.30

	minDocstringLength        = 10
	inlineCommentBonus        = 0.1
	minInlineCommentLen       = 8
	minInlineCommentsForBonus = 3
)

var placeholderPattern = regexp.MustCompile(`(?i)^\s*(todo|fixme|tbd|xxx|\.{3}|…)\s*\.?\s*$`)

// isSectionDivider reports whether a comment body is made entirely of one
// repeated punctuation character (e.g. "------" or "======").
func isSectionDivider(body string) bool {
	first, _ := utf8.DecodeRuneInString(body)
	if body == "" || first == '_' || unicode.IsLetter(first) || unicode.IsDigit(first) || unicode.IsSpace(first) {
		return false
	}
	for _, r := range body {
		if r != first {
			return false
		}
	}
	return true
}

var lineCommentPrefixes = map[model.Language]string{
	model.LanguagePython:     "#",
	model.LanguageRuby:       "#",
	model.LanguagePHP:        "//",
	model.LanguageGo:         "//",
	model.LanguageJavaScript: "//",
	model.LanguageTypeScript: "//",
	model.LanguageJava:       "//",
	model.LanguageRust:       "//",
	model.LanguageCPP:        "//",
	model.LanguageCSharp:     "//",
}

// isDocumented reports whether docstring counts as documentation:
// non-empty after trim, longer than 10 characters, and not a placeholder.
func isDocumented(docstring string) bool {
	trimmed := strings.TrimSpace(docstring)
	if len(trimmed) <= minDocstringLength {
		return false
	}
	if placeholderPattern.MatchString(trimmed) {
		return false
	}
	return true
}

// Analyze computes a file's DocumentationCoverage from its SymbolTable and
// raw source (for the inline-comment bonus scan).
func Analyze(lang model.Language, table *model.SymbolTable, source []byte) model.DocumentationCoverage {
	var counts model.DocumentationCounts

	counts.Functions = len(table.Functions)
	for _, fn := range table.Functions {
		if isDocumented(fn.Docstring) {
			counts.DocumentedFunctions++
		}
	}

	counts.Classes = len(table.Classes)
	for _, c := range table.Classes {
		if isDocumented(c.Docstring) {
			counts.DocumentedClasses++
		}
		counts.Methods += len(c.Methods)
		for _, m := range c.Methods {
			if isDocumented(m.Docstring) {
				counts.DocumentedMethods++
			}
		}
	}

	var weightedSum, weightTotal float64
	var funcCov, classCov, methodCov float64

	if counts.Functions > 0 {
		funcCov = float64(counts.DocumentedFunctions) / float64(counts.Functions)
		weightedSum += weightFunctions * funcCov
		weightTotal += weightFunctions
	}
	if counts.Classes > 0 {
		classCov = float64(counts.DocumentedClasses) / float64(counts.Classes)
		weightedSum += weightClasses * classCov
		weightTotal += weightClasses
	}
	if counts.Methods > 0 {
		methodCov = float64(counts.DocumentedMethods) / float64(counts.Methods)
		weightedSum += weightMethods * methodCov
		weightTotal += weightMethods
	}

	var total float64
	if weightTotal > 0 {
		total = weightedSum / weightTotal
	}

	bonus := computeInlineCommentBonus(lang, source)
	total += bonus
	if total > 1.0 {
		total = 1.0
	}

	return model.DocumentationCoverage{
		TotalScore:         total,
		FunctionCoverage:   funcCov,
		ClassCoverage:      classCov,
		MethodCoverage:     methodCov,
		InlineCommentBonus: bonus,
		Counts:             counts,
	}
}

// computeInlineCommentBonus scans source for the language's line-comment syntax,
// discards section dividers and short lines, and awards the flat 0.1
// bonus if 3 or more substantive comment lines remain.
func computeInlineCommentBonus(lang model.Language, source []byte) float64 {
	prefix := lineCommentPrefixes[lang]
	if prefix == "" {
		return 0
	}
	count := 0
	for _, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		body := strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		if len(body) < minInlineCommentLen {
			continue
		}
		if isSectionDivider(body) {
			continue
		}
		count++
		if count >= minInlineCommentsForBonus {
			return inlineCommentBonus
		}
	}
	return 0
}
