package teaching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/basinlabs/codescan/internal/model"
)

func TestScore_WellDocumentedModeratelyComplexFileScoresHigh(t *testing.T) {
	doc := model.DocumentationCoverage{TotalScore: 0.9}
	comp := model.ComplexityMetrics{Avg: 6.0}
	patterns := []model.DetectedPattern{{PatternType: "auth", Confidence: 0.8}}
	table := model.SymbolTable{
		Functions: []model.FunctionRecord{
			{Name: "a", StartLine: 1, EndLine: 10},
			{Name: "b", StartLine: 11, EndLine: 20},
		},
	}

	score := Score(DefaultWeights(), doc, comp, patterns, table)
	assert.Greater(t, score.Total, 0.6)
	assert.Contains(t, score.Explanation, "strongest factor")
}

func TestScore_EmptyFileScoresZero(t *testing.T) {
	score := Score(DefaultWeights(), model.DocumentationCoverage{}, model.ComplexityMetrics{}, nil, model.SymbolTable{})
	assert.Equal(t, 0.0, score.Total)
}

func TestNormalize_ZeroWeightsFallsBackToDefaults(t *testing.T) {
	w := normalize(Weights{})
	assert.InDelta(t, 1.0, w.Documentation+w.Complexity+w.Pattern+w.Structure, 1e-9)
	assert.Equal(t, DefaultWeights(), w)
}

func TestComplexityScore_PenalizesExtremes(t *testing.T) {
	ideal := complexityScore(model.ComplexityMetrics{Avg: idealComplexity})
	trivial := complexityScore(model.ComplexityMetrics{Avg: 1})
	extreme := complexityScore(model.ComplexityMetrics{Avg: 40})

	assert.Equal(t, 1.0, ideal)
	assert.Less(t, trivial, ideal)
	assert.Equal(t, 0.0, extreme)
}

func TestComplexityScore_MidRangeDistanceScalesByTarget(t *testing.T) {
	// Three above the target of six: 1 - 3/6.
	assert.InDelta(t, 0.5, complexityScore(model.ComplexityMetrics{Avg: 9}), 1e-9)
	// Three below scores the same as three above.
	assert.InDelta(t, 0.5, complexityScore(model.ComplexityMetrics{Avg: 3}), 1e-9)
}

func TestStructureScore_LargeFunctionsLowerScore(t *testing.T) {
	small := structureScore(model.SymbolTable{Functions: []model.FunctionRecord{{StartLine: 1, EndLine: 20}}})
	huge := structureScore(model.SymbolTable{Functions: []model.FunctionRecord{{StartLine: 1, EndLine: 200}}})
	assert.Greater(t, small, huge)
}
