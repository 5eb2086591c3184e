package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
)

func TestStore_SaveAndLoadAnalysisRoundTrips(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	in := &model.CodebaseAnalysis{
		CodebaseID: "proj1",
		AnalyzedAt: time.Now().UTC().Truncate(time.Second),
		Metrics:    model.CodebaseMetrics{TotalFiles: 3},
	}
	require.NoError(t, store.SaveAnalysis(in))

	out, err := store.LoadAnalysis("proj1")
	require.NoError(t, err)
	assert.Equal(t, in.CodebaseID, out.CodebaseID)
	assert.Equal(t, in.Metrics.TotalFiles, out.Metrics.TotalFiles)
}

func TestStore_LoadAnalysisMissingReturnsNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.LoadAnalysis("ghost")
	require.Error(t, err)
	assert.True(t, coreerrors.IsKind(err, coreerrors.KindNotFound))
}

func TestStore_FileAnalysisKeyedByContentHash(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	fa := &model.FileAnalysis{FilePath: "a.py", FileHash: "deadbeef"}
	require.NoError(t, store.SaveFileAnalysis(fa))

	out, err := store.LoadFileAnalysis("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "a.py", out.FilePath)
}

func TestStore_SaveFileAnalysisRequiresHash(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = store.SaveFileAnalysis(&model.FileAnalysis{FilePath: "a.py"})
	assert.Error(t, err)
}

func TestStore_FileHashIndexRoundTrips(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	index := FileHashIndex{"a.py": "hash1", "b.py": "hash2"}
	require.NoError(t, store.SaveFileHashes("proj1", index))

	out, err := store.LoadFileHashes("proj1")
	require.NoError(t, err)
	assert.Equal(t, index, out)
}

func TestStore_LoadFileHashesMissingReturnsEmptyIndex(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	out, err := store.LoadFileHashes("never-scanned")
	require.NoError(t, err)
	assert.Empty(t, out)
}
