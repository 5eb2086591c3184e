package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinlabs/codescan/internal/model"
)

func analysis(lang model.Language, imports ...string) *model.FileAnalysis {
	var records []model.ImportRecord
	for _, m := range imports {
		records = append(records, model.ImportRecord{Module: m})
	}
	return &model.FileAnalysis{Language: lang, Symbols: model.SymbolTable{Imports: records}}
}

func TestResolve_InternalEdgeAndExternalPackage(t *testing.T) {
	files := map[string]*model.FileAnalysis{
		"pkg/a.py": analysis(model.LanguagePython, ".b", "requests"),
		"pkg/b.py": analysis(model.LanguagePython),
	}

	r := NewResolver(".")
	graph, metrics := r.Resolve(files)

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "pkg/a.py", graph.Edges[0].From)
	assert.Equal(t, "pkg/b.py", graph.Edges[0].To)
	assert.Equal(t, 1, graph.External["requests"])
	assert.Empty(t, graph.Circular)
	assert.Equal(t, 2, metrics.TotalNodes)
	assert.Equal(t, 1, metrics.TotalEdges)
	assert.Contains(t, metrics.TopImported, "pkg/b.py")
	assert.Contains(t, metrics.TopImporters, "pkg/a.py")
}

func TestResolve_PackageInitDirectory(t *testing.T) {
	files := map[string]*model.FileAnalysis{
		"pkg/a.py":            analysis(model.LanguagePython, "sub"),
		"pkg/sub/__init__.py": analysis(model.LanguagePython),
	}

	r := NewResolver("pkg")
	graph, _ := r.Resolve(files)

	require.Len(t, graph.Edges, 1)
	assert.Equal(t, "pkg/sub/__init__.py", graph.Edges[0].To)
}

func TestResolve_DetectsTwoNodeCycle(t *testing.T) {
	files := map[string]*model.FileAnalysis{
		"a.py": analysis(model.LanguagePython, ".b"),
		"b.py": analysis(model.LanguagePython, ".a"),
	}

	r := NewResolver(".")
	graph, _ := r.Resolve(files)

	require.Len(t, graph.Circular, 1)
	assert.ElementsMatch(t, []string{"a.py", "b.py"}, graph.Circular[0].Cycle)
	assert.Equal(t, "warning", graph.Circular[0].Severity)
}

func TestResolve_OverlappingCyclesEscalateToError(t *testing.T) {
	// a<->b is one cycle, a<->c is another; "a.py" sits in both, so both
	// cycles escalate to "error".
	files := map[string]*model.FileAnalysis{
		"a.py": analysis(model.LanguagePython, ".b", ".c"),
		"b.py": analysis(model.LanguagePython, ".a"),
		"c.py": analysis(model.LanguagePython, ".a"),
	}

	r := NewResolver(".")
	graph, _ := r.Resolve(files)

	require.Len(t, graph.Circular, 2)
	for _, c := range graph.Circular {
		assert.Equal(t, "error", c.Severity)
	}
}

func TestResolve_NoCycleForAcyclicChain(t *testing.T) {
	files := map[string]*model.FileAnalysis{
		"a.py": analysis(model.LanguagePython, ".b"),
		"b.py": analysis(model.LanguagePython, ".c"),
		"c.py": analysis(model.LanguagePython),
	}

	r := NewResolver(".")
	graph, metrics := r.Resolve(files)

	assert.Empty(t, graph.Circular)
	assert.InDelta(t, 2.0/3.0, metrics.AvgFanOut, 1e-9)
}

func TestExternalPackageName_ScopedAndPlain(t *testing.T) {
	assert.Equal(t, "@scope/pkg", externalPackageName("@scope/pkg/sub"))
	assert.Equal(t, "lodash", externalPackageName("lodash/debounce"))
	assert.Equal(t, "requests", externalPackageName("requests"))
}

func TestMetrics_RecomputesFromExistingGraph(t *testing.T) {
	files := map[string]*model.FileAnalysis{
		"a.py": analysis(model.LanguagePython, ".b"),
		"b.py": analysis(model.LanguagePython),
	}
	graph, want := NewResolver(".").Resolve(files)

	got := Metrics(graph)
	assert.Equal(t, want, got)
}

func TestCycleKey_NormalizesRotation(t *testing.T) {
	assert.Equal(t, cycleKey([]string{"a", "b", "c"}), cycleKey([]string{"b", "c", "a"}))
	assert.NotEqual(t, cycleKey([]string{"a", "b", "c"}), cycleKey([]string{"a", "c", "b"}))
}
