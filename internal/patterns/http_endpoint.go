package patterns

import (
	"regexp"
	"strings"

	"github.com/basinlabs/codescan/internal/model"
)

// httpEndpointExpectedEvidence: one evidence item per framework idiom this
// detector checks (decorator-style, router-method calls, file-path
// conventions).
const httpEndpointExpectedEvidence = 3

var (
	decoratorRoutePattern = regexp.MustCompile(`@(app|router|blueprint)\.(route|get|post|put|delete|patch)\s*\(`)
	routerMethodPattern   = regexp.MustCompile(`\b(app|router)\.(get|post|put|delete|patch|use)\s*\(`)
	filePathAPIConvention = regexp.MustCompile(`(^|/)(pages/api|app/api|routes|controllers)/`)
)

// HTTPEndpointDetector flags files exhibiting one of three framework idioms
// for exposing an HTTP endpoint: decorator-style (Flask/FastAPI),
// router-method calls (Express/Gin-style), and file-path conventions
// (Next.js "pages/api/*").
type HTTPEndpointDetector struct{}

func (HTTPEndpointDetector) Detect(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern {
	var evidence []string
	var lineNumbers []int

	if locs := decoratorRoutePattern.FindAllIndex(content, -1); len(locs) > 0 {
		evidence = append(evidence, "decorator-style route registration")
		lineNumbers = append(lineNumbers, lineOf(content, locs[0][0]))
	}
	if locs := routerMethodPattern.FindAllIndex(content, -1); len(locs) > 0 {
		evidence = append(evidence, "router-method call (app.get/router.post/...)")
		lineNumbers = append(lineNumbers, lineOf(content, locs[0][0]))
	}
	if filePathAPIConvention.MatchString(filepathNormalize(filePath)) {
		evidence = append(evidence, "file-path convention for an API route")
	}

	if len(evidence) == 0 {
		return nil
	}

	return []model.DetectedPattern{{
		PatternType: "http_endpoint",
		FilePath:    filePath,
		Confidence:  confidence(len(evidence), httpEndpointExpectedEvidence),
		Evidence:    evidence,
		LineNumbers: lineNumbers,
	}}
}

func filepathNormalize(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func lineOf(content []byte, byteOffset int) int {
	if byteOffset < 0 || byteOffset > len(content) {
		return 0
	}
	line := 1
	for _, b := range content[:byteOffset] {
		if b == '\n' {
			line++
		}
	}
	return line
}
