package doccoverage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/basinlabs/codescan/internal/model"
)

func TestAnalyze_FullyDocumented(t *testing.T) {
	table := &model.SymbolTable{
		Functions: []model.FunctionRecord{{Docstring: "Adds two numbers together and returns the sum."}},
		Classes: []model.ClassRecord{
			{
				Docstring: "Represents a simple greeter.",
				Methods:   []model.FunctionRecord{{Docstring: "Greets the given name politely."}},
			},
		},
	}
	cov := Analyze(model.LanguageGo, table, nil)
	assert.Equal(t, 1.0, cov.FunctionCoverage)
	assert.Equal(t, 1.0, cov.ClassCoverage)
	assert.Equal(t, 1.0, cov.MethodCoverage)
	assert.Equal(t, 1.0, cov.TotalScore)
}

func TestAnalyze_PlaceholderDocstringNotCounted(t *testing.T) {
	table := &model.SymbolTable{
		Functions: []model.FunctionRecord{{Docstring: "TODO"}, {Docstring: "Computes the running total across all line items."}},
	}
	cov := Analyze(model.LanguageGo, table, nil)
	assert.InDelta(t, 0.5, cov.FunctionCoverage, 0.001)
}

func TestAnalyze_ShortDocstringNotCounted(t *testing.T) {
	table := &model.SymbolTable{
		Functions: []model.FunctionRecord{{Docstring: "short"}},
	}
	cov := Analyze(model.LanguageGo, table, nil)
	assert.Equal(t, 0.0, cov.FunctionCoverage)
}

func TestAnalyze_NoDocstringsBoundedBelowPointOne(t *testing.T) {
	table := &model.SymbolTable{
		Functions: []model.FunctionRecord{{}, {}},
	}
	cov := Analyze(model.LanguageGo, table, nil)
	assert.LessOrEqual(t, cov.TotalScore, 0.1)
}

func TestAnalyze_RenormalizesOverPresentCategories(t *testing.T) {
	// Only functions present: weight should renormalize to 1.0 total weight
	// rather than being capped at 0.40.
	table := &model.SymbolTable{
		Functions: []model.FunctionRecord{{Docstring: "Adds two numbers together and returns the sum."}},
	}
	cov := Analyze(model.LanguageGo, table, nil)
	assert.Equal(t, 1.0, cov.TotalScore)
}

func TestAnalyze_InlineCommentBonus(t *testing.T) {
	table := &model.SymbolTable{}
	source := []byte(`
// this line explains something nontrivial
// ------------------------------
// another substantive explanatory comment line
// a third meaningfully long comment
`)
	cov := Analyze(model.LanguageGo, table, source)
	assert.Equal(t, 0.1, cov.InlineCommentBonus)
}

func TestAnalyze_TotalScoreCappedAtOne(t *testing.T) {
	table := &model.SymbolTable{
		Functions: []model.FunctionRecord{{Docstring: "Adds two numbers together and returns the sum."}},
	}
	source := []byte(`
// this line explains something nontrivial
// another substantive explanatory comment line
// a third meaningfully long comment
`)
	cov := Analyze(model.LanguageGo, table, source)
	assert.Equal(t, 1.0, cov.TotalScore)
}
