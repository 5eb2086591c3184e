package patterns

import (
	"regexp"
	"strings"

	"github.com/basinlabs/codescan/internal/model"
)

// dataLayerExpectedEvidence: one evidence item per data-layer idiom this
// detector checks (ORM model, query-builder chain, migration file).
const dataLayerExpectedEvidence = 3

var (
	ormBaseClassPattern      = regexp.MustCompile(`^(models\.Model|db\.Model|Base|ActiveRecord::Base|Model)$`)
	ormDecoratorPattern      = regexp.MustCompile(`@(Entity|Table|Column)\b`)
	queryBuilderChainPattern = regexp.MustCompile(`\.(where|select|query|findOne|findAll|find)\s*\(`)
	migrationFileNamePattern = regexp.MustCompile(`(?i)(^|/)(\d+_)?migrat(e|ion)`)
	migrationFuncPattern     = regexp.MustCompile(`\b(func|def)\s+(Up|Down|up|down)\s*\(`)
)

// DataLayerDetector flags ORM model declarations, query-builder chains, and
// migration files.
type DataLayerDetector struct{}

func (DataLayerDetector) Detect(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern {
	var evidence []string
	var lineNumbers []int

	for _, c := range symbols.Classes {
		for _, base := range c.BaseClasses {
			if ormBaseClassPattern.MatchString(strings.TrimSpace(base)) {
				evidence = append(evidence, "ORM model base class: "+base)
				lineNumbers = append(lineNumbers, c.StartLine)
				break
			}
		}
		for _, dec := range c.Decorators {
			if ormDecoratorPattern.MatchString(dec) {
				evidence = append(evidence, "ORM entity decorator: "+dec)
				lineNumbers = append(lineNumbers, c.StartLine)
				break
			}
		}
	}

	if queryBuilderChainPattern.Match(content) {
		evidence = append(evidence, "query-builder chain (.where/.select/.query/...)")
	}

	normalized := filepathNormalize(filePath)
	looksLikeMigration := migrationFileNamePattern.MatchString(normalized)
	hasUpDown := migrationFuncPattern.Match(content)
	if looksLikeMigration && hasUpDown {
		evidence = append(evidence, "migration file naming convention plus Up/Down structure")
	} else if looksLikeMigration {
		evidence = append(evidence, "migration file naming convention")
	}

	if len(evidence) == 0 {
		return nil
	}

	return []model.DetectedPattern{{
		PatternType: "data_layer",
		FilePath:    filePath,
		Confidence:  confidence(len(evidence), dataLayerExpectedEvidence),
		Evidence:    evidence,
		LineNumbers: lineNumbers,
	}}
}
