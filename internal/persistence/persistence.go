// Package persistence durably saves codebase- and file-level analyses
// under a project's persistence root so a later run can skip re-analyzing
// unchanged files. Every write
// goes through a temp-file-then-rename so a crash mid-write never leaves a
// half-written JSON file behind for the next run to choke on.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	coreerrors "github.com/basinlabs/codescan/internal/errors"
	"github.com/basinlabs/codescan/internal/model"
)

// Store is a filesystem-backed persistence layer rooted at Dir.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir, creating it if necessary.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("persistence: creating root %s: %w", dir, err)
	}
	return &Store{Dir: dir}, nil
}

// SaveAnalysis persists a full CodebaseAnalysis under codebase_{id}.json.
func (s *Store) SaveAnalysis(analysis *model.CodebaseAnalysis) error {
	path := filepath.Join(s.Dir, fmt.Sprintf("codebase_%s.json", analysis.CodebaseID))
	return atomicWriteJSON(path, analysis)
}

// LoadAnalysis loads a previously saved CodebaseAnalysis, or returns a
// not-found error if none exists for codebaseID.
func (s *Store) LoadAnalysis(codebaseID string) (*model.CodebaseAnalysis, error) {
	path := filepath.Join(s.Dir, fmt.Sprintf("codebase_%s.json", codebaseID))
	var analysis model.CodebaseAnalysis
	if err := readJSON(path, &analysis); err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.NotFound("load_analysis", path)
		}
		return nil, err
	}
	return &analysis, nil
}

// SaveFileAnalysis persists a single file's analysis keyed by its content
// hash, as file_{hash}.json, so unrelated edits elsewhere in the codebase
// don't invalidate it.
func (s *Store) SaveFileAnalysis(fa *model.FileAnalysis) error {
	if fa.FileHash == "" {
		return fmt.Errorf("persistence: file analysis for %s has no content hash", fa.FilePath)
	}
	path := filepath.Join(s.Dir, fmt.Sprintf("file_%s.json", fa.FileHash))
	return atomicWriteJSON(path, fa)
}

// LoadFileAnalysis loads a file analysis by its content hash. Callers use
// this for incremental reuse: if the current file's content hash matches a
// stored entry, re-analysis can be skipped entirely.
func (s *Store) LoadFileAnalysis(contentHash string) (*model.FileAnalysis, error) {
	path := filepath.Join(s.Dir, fmt.Sprintf("file_%s.json", contentHash))
	var fa model.FileAnalysis
	if err := readJSON(path, &fa); err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.NotFound("load_file_analysis", path)
		}
		return nil, err
	}
	return &fa, nil
}

// FileHashIndex maps a file path to the content hash it was last analyzed
// under, letting the orchestrator find LoadFileAnalysis's key from a path
// alone.
type FileHashIndex map[string]string

// SaveFileHashes persists the path -> content-hash index for a codebase.
func (s *Store) SaveFileHashes(codebaseID string, index FileHashIndex) error {
	path := filepath.Join(s.Dir, fmt.Sprintf("hashes_%s.json", codebaseID))
	return atomicWriteJSON(path, index)
}

// LoadFileHashes loads the path -> content-hash index for a codebase. A
// missing index is not an error: it just means every file is analyzed fresh.
func (s *Store) LoadFileHashes(codebaseID string) (FileHashIndex, error) {
	path := filepath.Join(s.Dir, fmt.Sprintf("hashes_%s.json", codebaseID))
	index := FileHashIndex{}
	if err := readJSON(path, &index); err != nil {
		if os.IsNotExist(err) {
			return FileHashIndex{}, nil
		}
		return nil, err
	}
	return index, nil
}

func atomicWriteJSON(path string, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persistence: writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persistence: closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persistence: renaming %s to %s: %w", tmpName, path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("persistence: unmarshal %s: %w", path, err)
	}
	return nil
}
