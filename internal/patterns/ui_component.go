package patterns

import (
	"regexp"

	"github.com/basinlabs/codescan/internal/model"
)

// uiComponentExpectedEvidence is how many evidence items a clear example
// carries: PascalCase name, a framework import, a component-shaped return,
// and a hook call. Confidence is evidence_count over this, capped at 1.
const uiComponentExpectedEvidence = 4

var (
	frameworkImportPattern = regexp.MustCompile(`\b(react|vue|svelte|preact|solid-js)\b`)
	componentReturnPattern = regexp.MustCompile(`return\s*\(?\s*<[A-Za-z]`)
	hookCallPattern        = regexp.MustCompile(`\buse[A-Z]\w*\s*\(`)
)

// UIComponentDetector flags functions that look like UI components: a
// PascalCase name, a framework import somewhere in the file, a JSX-shaped
// return, and hook calls matching use[A-Z]....
type UIComponentDetector struct{}

func (UIComponentDetector) Detect(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern {
	hasFrameworkImport := frameworkImportPattern.Match(content)
	hasComponentReturn := componentReturnPattern.Match(content)
	hookMatches := hookCallPattern.FindAll(content, -1)

	var out []model.DetectedPattern
	for _, fn := range symbols.Functions {
		if !isPascalCase(fn.Name) {
			continue
		}
		var evidence []string
		var lines []int
		evidence = append(evidence, "PascalCase function name: "+fn.Name)
		lines = append(lines, fn.StartLine)

		if hasFrameworkImport {
			evidence = append(evidence, "UI framework import present")
		}
		if hasComponentReturn {
			evidence = append(evidence, "returns a JSX-shaped expression")
		}
		if len(hookMatches) > 0 {
			evidence = append(evidence, "hook call matching use[A-Z]...")
		}

		if len(evidence) < 2 {
			// A PascalCase name alone (e.g. a Go exported type-like helper)
			// isn't enough signal for a UI-component pattern.
			continue
		}

		out = append(out, model.DetectedPattern{
			PatternType: "ui_component",
			FilePath:    filePath,
			Confidence:  confidence(len(evidence), uiComponentExpectedEvidence),
			Evidence:    evidence,
			LineNumbers: lines,
			Metadata:    map[string]any{"component": fn.Name},
		})
	}
	return out
}

func isPascalCase(name string) bool {
	if name == "" {
		return false
	}
	if name[0] < 'A' || name[0] > 'Z' {
		return false
	}
	hasLower := false
	for _, r := range name[1:] {
		if r >= 'a' && r <= 'z' {
			hasLower = true
			break
		}
	}
	return hasLower
}
