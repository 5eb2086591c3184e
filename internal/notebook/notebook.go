// Package notebook adapts Jupyter .ipynb containers into a virtual Python
// source the rest of the pipeline can analyze like any other file.
package notebook

import (
	"encoding/json"
	"sort"
	"strings"

	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
)

// cellSeparator is the blank line inserted between concatenated code cells.
// A cell whose source lacks a trailing newline is terminated first, so each
// cell still begins on its own line in the virtual source.
const cellSeparator = "\n"

type rawNotebook struct {
	Cells []rawCell `json:"cells"`
}

type rawCell struct {
	CellType string          `json:"cell_type"`
	Source   json.RawMessage `json:"source"`
}

// Decoded is the notebook's virtual source plus the cell-range index that
// map_line_to_cell queries against.
type Decoded struct {
	VirtualSource []byte
	Ranges        []model.NotebookCellRange
	TotalCells    int
}

// Decode parses the raw .ipynb bytes, concatenates "code" cells in
// document order with a blank-line separator, and records each code
// cell's line range in the virtual source. Markdown/raw cells are skipped
// for analysis but still counted in TotalCells.
func Decode(path string, content []byte) (*Decoded, error) {
	var nb rawNotebook
	if err := json.Unmarshal(content, &nb); err != nil {
		return nil, coreerrors.New(coreerrors.KindInvalidInput, "decode_notebook", err).WithFile(path)
	}

	var builder strings.Builder
	ranges := make([]model.NotebookCellRange, 0, len(nb.Cells))
	currentLine := 1

	for i, cell := range nb.Cells {
		if cell.CellType != "code" {
			continue
		}
		source, err := cellSourceText(cell.Source)
		if err != nil {
			return nil, coreerrors.New(coreerrors.KindInvalidInput, "decode_notebook", err).WithFile(path)
		}
		if builder.Len() > 0 {
			if !strings.HasSuffix(builder.String(), "\n") {
				builder.WriteString("\n")
			}
			builder.WriteString(cellSeparator)
			currentLine++
		}

		startLine := currentLine
		builder.WriteString(source)
		lineCount := strings.Count(source, "\n")
		if !strings.HasSuffix(source, "\n") {
			lineCount++
		}
		endLine := startLine + lineCount - 1
		if endLine < startLine {
			endLine = startLine
		}
		currentLine = endLine + 1

		ranges = append(ranges, model.NotebookCellRange{
			CellIndex: i,
			StartLine: startLine,
			EndLine:   endLine,
		})
	}

	return &Decoded{
		VirtualSource: []byte(builder.String()),
		Ranges:        ranges,
		TotalCells:    len(nb.Cells),
	}, nil
}

// cellSourceText accepts both the list-of-strings and single-string
// encodings the notebook format allows for a cell's "source" field.
func cellSourceText(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var lines []string
	if err := json.Unmarshal(raw, &lines); err == nil {
		return strings.Join(lines, ""), nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return "", err
	}
	return single, nil
}

// MapLineToCell returns the cell index owning virtualLine, or -1 if the
// line falls in a separator gap or outside every recorded range.
func (d *Decoded) MapLineToCell(virtualLine int) int {
	idx := sort.Search(len(d.Ranges), func(i int) bool {
		return d.Ranges[i].EndLine >= virtualLine
	})
	if idx == len(d.Ranges) {
		return -1
	}
	r := d.Ranges[idx]
	if virtualLine < r.StartLine || virtualLine > r.EndLine {
		return -1
	}
	return r.CellIndex
}
