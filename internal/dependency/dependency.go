// Package dependency resolves each file's imports to either another file
// under the project root or an external package, builds a path-keyed
// node/edge graph, and detects circular dependencies with a three-color
// DFS over the internal subgraph.
package dependency

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/basinlabs/codescan/internal/model"
)

// Resolver resolves imports for one project root.
type Resolver struct {
	projectRoot string
}

// NewResolver builds a Resolver scoped to projectRoot.
func NewResolver(projectRoot string) *Resolver {
	return &Resolver{projectRoot: projectRoot}
}

// Resolve builds the DependencyGraph and its summary metrics from a
// completed batch of FileAnalyses. Resolve is meant to run after the
// per-file barrier: it needs every file's SymbolTable available
// to resolve imports between them.
func (r *Resolver) Resolve(fileAnalyses map[string]*model.FileAnalysis) (*model.DependencyGraph, model.DependencyMetrics) {
	nodes := make(map[string]*model.FileNode, len(fileAnalyses))
	for path := range fileAnalyses {
		nodes[path] = &model.FileNode{FilePath: path}
	}

	type edgeKey struct{ from, to string }
	edgeCounts := map[edgeKey]int{}
	external := map[string]int{}

	var paths []string
	for p := range fileAnalyses {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fa := fileAnalyses[path]
		if fa == nil {
			continue
		}
		dir := filepath.Dir(path)
		for _, imp := range fa.Symbols.Imports {
			target, ok := r.resolveImport(fa.Language, dir, imp.Module, fileAnalyses)
			if ok && target != path {
				edgeCounts[edgeKey{path, target}]++
				continue
			}
			pkg := externalPackageName(imp.Module)
			if pkg == "" {
				continue
			}
			external[pkg]++
			nodes[path].ExternalImports = append(nodes[path].ExternalImports, pkg)
		}
	}

	var edgeKeys []edgeKey
	for k := range edgeCounts {
		edgeKeys = append(edgeKeys, k)
	}
	sort.Slice(edgeKeys, func(i, j int) bool {
		if edgeKeys[i].from != edgeKeys[j].from {
			return edgeKeys[i].from < edgeKeys[j].from
		}
		return edgeKeys[i].to < edgeKeys[j].to
	})

	edges := make([]model.DependencyEdge, 0, len(edgeKeys))
	for _, k := range edgeKeys {
		edges = append(edges, model.DependencyEdge{From: k.from, To: k.to, ImportCount: edgeCounts[k]})
		nodes[k.from].Imports = append(nodes[k.from].Imports, k.to)
		nodes[k.to].ImportedBy = append(nodes[k.to].ImportedBy, k.from)
	}

	cycles := detectCycles(nodes)
	metrics := computeMetrics(nodes, edges)

	return &model.DependencyGraph{
		Nodes:    nodes,
		Edges:    edges,
		Circular: cycles,
		External: external,
	}, metrics
}

// candidateSuffixes returns, in probing order, the source-file extensions
// appended to an import's base path. resolveImport tries the bare base path
// before these, and the package-init files from indexFileNames after them.
func candidateSuffixes(lang model.Language) []string {
	switch lang {
	case model.LanguagePython:
		return []string{".py"}
	case model.LanguageJavaScript:
		return []string{".js", ".jsx", ".mjs"}
	case model.LanguageTypeScript:
		return []string{".ts", ".tsx", ".js", ".jsx"}
	case model.LanguageGo:
		return []string{".go"}
	case model.LanguageJava:
		return []string{".java"}
	case model.LanguageRust:
		return []string{".rs"}
	case model.LanguageCPP:
		return []string{".cpp", ".cc", ".h", ".hpp"}
	case model.LanguageCSharp:
		return []string{".cs"}
	case model.LanguageRuby:
		return []string{".rb"}
	case model.LanguagePHP:
		return []string{".php"}
	default:
		return nil
	}
}

// indexFileNames are package-init file names probed within a directory
// candidate (e.g. a Python package's __init__.py, a JS/TS barrel file).
func indexFileNames(lang model.Language) []string {
	switch lang {
	case model.LanguagePython:
		return []string{"__init__.py"}
	case model.LanguageJavaScript:
		return []string{"index.js", "index.jsx"}
	case model.LanguageTypeScript:
		return []string{"index.ts", "index.tsx"}
	case model.LanguageRuby:
		return []string{"index.rb"}
	default:
		return nil
	}
}

// resolveImport probes every candidate path for module and returns the
// first one present in fileAnalyses. Relative imports count leading dots to
// find how many parent directories to walk up from fromDir; absolute
// imports are probed under the project root.
func (r *Resolver) resolveImport(lang model.Language, fromDir, module string, fileAnalyses map[string]*model.FileAnalysis) (string, bool) {
	if module == "" {
		return "", false
	}

	var base string
	if strings.HasPrefix(module, ".") {
		dots := 0
		for dots < len(module) && module[dots] == '.' {
			dots++
		}
		remainder := strings.TrimPrefix(module[dots:], "/")
		remainder = strings.ReplaceAll(remainder, ".", "/")

		dir := fromDir
		for i := 1; i < dots; i++ {
			dir = filepath.Dir(dir)
		}
		base = filepath.Join(dir, remainder)
	} else {
		candidate := strings.ReplaceAll(module, ".", "/")
		base = filepath.Join(r.projectRoot, candidate)
	}

	if _, ok := fileAnalyses[base]; ok {
		return base, true
	}
	for _, suffix := range candidateSuffixes(lang) {
		candidate := base + suffix
		if _, ok := fileAnalyses[candidate]; ok {
			return candidate, true
		}
	}
	for _, indexName := range indexFileNames(lang) {
		candidate := filepath.Join(base, indexName)
		if _, ok := fileAnalyses[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// externalPackageName extracts the package identifier from an unresolved
// module string: the first path segment, or the "@scope/name" pair for
// scoped packages.
func externalPackageName(module string) string {
	module = strings.TrimPrefix(module, ".")
	module = strings.TrimLeft(module, "./")
	if module == "" {
		return ""
	}
	if strings.HasPrefix(module, "@") {
		parts := strings.SplitN(module, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return module
	}
	for _, sep := range []string{"/", "::", "."} {
		if idx := strings.Index(module, sep); idx > 0 {
			return module[:idx]
		}
	}
	return module
}

const (
	white = 0
	gray  = 1
	black = 2
)

// detectCycles runs a three-color DFS over the internal subgraph: each
// back edge to a gray (on-stack) node produces a cycle of the
// gray-stacked nodes from the target up to the current node. Severity is
// "error" if any member appears in more than one reported cycle, "warning"
// otherwise.
func detectCycles(nodes map[string]*model.FileNode) []model.Cycle {
	color := make(map[string]int, len(nodes))
	var stack []string
	onStack := make(map[string]int, len(nodes))
	seen := map[string]bool{}
	var cycles []model.Cycle

	var dfs func(u string)
	dfs = func(u string) {
		color[u] = gray
		stack = append(stack, u)
		onStack[u] = len(stack) - 1

		node := nodes[u]
		if node != nil {
			for _, v := range node.Imports {
				if _, exists := nodes[v]; !exists {
					continue
				}
				switch color[v] {
				case white:
					dfs(v)
				case gray:
					idx := onStack[v]
					cyc := append([]string{}, stack[idx:]...)
					key := cycleKey(cyc)
					if !seen[key] {
						seen[key] = true
						cycles = append(cycles, model.Cycle{Cycle: cyc, Severity: "warning"})
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		delete(onStack, u)
		color[u] = black
	}

	var paths []string
	for p := range nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if color[p] == white {
			dfs(p)
		}
	}

	memberCount := map[string]int{}
	for _, c := range cycles {
		for _, m := range c.Cycle {
			memberCount[m]++
		}
	}
	for i := range cycles {
		for _, m := range cycles[i].Cycle {
			if memberCount[m] > 1 {
				cycles[i].Severity = "error"
				break
			}
		}
	}

	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i].Cycle, ",") < strings.Join(cycles[j].Cycle, ",")
	})
	return cycles
}

// cycleKey normalizes a cycle's rotation so two back-edge discoveries of the
// same simple cycle (which may start at different members) dedupe.
func cycleKey(cyc []string) string {
	if len(cyc) == 0 {
		return ""
	}
	minIdx := 0
	for i, v := range cyc {
		if v < cyc[minIdx] {
			minIdx = i
		}
	}
	rotated := append(append([]string{}, cyc[minIdx:]...), cyc[:minIdx]...)
	return strings.Join(rotated, "->")
}

const topK = 5

// Metrics recomputes DependencyMetrics from an already-built graph, for
// callers that have a persisted/cached DependencyGraph and just need its
// summary statistics without re-resolving imports.
func Metrics(graph *model.DependencyGraph) model.DependencyMetrics {
	return computeMetrics(graph.Nodes, graph.Edges)
}

func computeMetrics(nodes map[string]*model.FileNode, edges []model.DependencyEdge) model.DependencyMetrics {
	metrics := model.DependencyMetrics{
		TotalNodes: len(nodes),
		TotalEdges: len(edges),
	}

	var paths []string
	var totalFanOut int
	for p, n := range nodes {
		paths = append(paths, p)
		totalFanOut += len(n.Imports)
	}
	if len(nodes) > 0 {
		metrics.AvgFanOut = float64(totalFanOut) / float64(len(nodes))
	}
	sort.Strings(paths)

	byImported := append([]string{}, paths...)
	sort.SliceStable(byImported, func(i, j int) bool {
		return len(nodes[byImported[i]].ImportedBy) > len(nodes[byImported[j]].ImportedBy)
	})
	byImporters := append([]string{}, paths...)
	sort.SliceStable(byImporters, func(i, j int) bool {
		return len(nodes[byImporters[i]].Imports) > len(nodes[byImporters[j]].Imports)
	})

	metrics.TopImported = topNNonEmpty(byImported, nodes, func(n *model.FileNode) int { return len(n.ImportedBy) })
	metrics.TopImporters = topNNonEmpty(byImporters, nodes, func(n *model.FileNode) int { return len(n.Imports) })
	return metrics
}

func topNNonEmpty(ordered []string, nodes map[string]*model.FileNode, count func(*model.FileNode) int) []string {
	var out []string
	for _, p := range ordered {
		if count(nodes[p]) == 0 {
			continue
		}
		out = append(out, p)
		if len(out) >= topK {
			break
		}
	}
	return out
}
