package notebook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleNotebook = `{
  "cells": [
    {"cell_type": "markdown", "source": ["# Title\n", "Some prose.\n"]},
    {"cell_type": "code", "source": ["import os\n", "print(os.getcwd())\n"]},
    {"cell_type": "code", "source": "x = 1\ny = 2\n"},
    {"cell_type": "raw", "source": ["ignored"]}
  ]
}`

func TestDecode_ConcatenatesCodeCellsOnly(t *testing.T) {
	decoded, err := Decode("nb.ipynb", []byte(sampleNotebook))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.TotalCells)
	assert.Len(t, decoded.Ranges, 2)
	assert.Contains(t, string(decoded.VirtualSource), "import os")
	assert.Contains(t, string(decoded.VirtualSource), "x = 1")
	assert.NotContains(t, string(decoded.VirtualSource), "Title")
}

func TestDecode_CellRangesAreContiguousAndOrdered(t *testing.T) {
	decoded, err := Decode("nb.ipynb", []byte(sampleNotebook))
	require.NoError(t, err)
	require.Len(t, decoded.Ranges, 2)
	first, second := decoded.Ranges[0], decoded.Ranges[1]
	assert.Equal(t, 1, first.CellIndex)
	assert.Equal(t, 2, second.CellIndex)
	assert.Less(t, first.EndLine, second.StartLine)
}

func TestMapLineToCell(t *testing.T) {
	decoded, err := Decode("nb.ipynb", []byte(sampleNotebook))
	require.NoError(t, err)

	first := decoded.Ranges[0]
	second := decoded.Ranges[1]
	assert.Equal(t, first.CellIndex, decoded.MapLineToCell(first.StartLine))
	assert.Equal(t, second.CellIndex, decoded.MapLineToCell(second.EndLine))
	assert.Equal(t, -1, decoded.MapLineToCell(second.EndLine+100))
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode("nb.ipynb", []byte("not json"))
	require.Error(t, err)
}

func TestDecode_NoCodeCells(t *testing.T) {
	decoded, err := Decode("nb.ipynb", []byte(`{"cells": [{"cell_type": "markdown", "source": ["hi"]}]}`))
	require.NoError(t, err)
	assert.Empty(t, decoded.Ranges)
	assert.Empty(t, decoded.VirtualSource)
	assert.Equal(t, 1, decoded.TotalCells)
}
