// Command codescan is a thin demonstration driver over the analysis core
// (internal/orchestrator): it implements the filesystem Scanner the core
// needs as an external collaborator and exposes analyze/deps/patterns
// sub-commands. It is not a transport layer; it exists purely so the
// analysis core is runnable end-to-end from a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/basinlabs/codescan/internal/cache"
	"github.com/basinlabs/codescan/internal/config"
	"github.com/basinlabs/codescan/internal/model"
	"github.com/basinlabs/codescan/internal/orchestrator"
	"github.com/basinlabs/codescan/internal/parser"
	"github.com/basinlabs/codescan/internal/patterns"
	"github.com/basinlabs/codescan/internal/persistence"
	"github.com/basinlabs/codescan/internal/telemetry"
)

func main() {
	app := &cli.App{
		Name:  "codescan",
		Usage: "multi-language code analysis engine",
		Commands: []*cli.Command{
			analyzeCommand(),
			depsCommand(),
			patternsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "analyze every supported file under a directory",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			dir, err := requireDirArg(c)
			if err != nil {
				return err
			}
			orch, cleanup, err := buildOrchestrator(dir)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := orch.AnalyzeCodebase(context.Background(), dir, true, true)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func depsCommand() *cli.Command {
	return &cli.Command{
		Name:      "deps",
		Usage:     "print the dependency graph for a previously-analyzed directory",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			dir, err := requireDirArg(c)
			if err != nil {
				return err
			}
			orch, cleanup, err := buildOrchestrator(dir)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			if _, err := orch.AnalyzeCodebase(ctx, dir, true, true); err != nil {
				return err
			}
			graph, metrics, _, err := orch.AnalyzeDependencies(ctx, dir, true)
			if err != nil {
				return err
			}
			return printJSON(struct {
				Graph   any `json:"graph"`
				Metrics any `json:"metrics"`
			}{graph, metrics})
		},
	}
}

func patternsCommand() *cli.Command {
	return &cli.Command{
		Name:      "patterns",
		Usage:     "print the global detected patterns for a directory",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			dir, err := requireDirArg(c)
			if err != nil {
				return err
			}
			orch, cleanup, err := buildOrchestrator(dir)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			if _, err := orch.AnalyzeCodebase(ctx, dir, true, true); err != nil {
				return err
			}
			found, fromCache, err := orch.DetectPatterns(ctx, dir, true)
			if err != nil {
				return err
			}
			return printJSON(struct {
				Patterns  []model.DetectedPattern `json:"patterns"`
				FromCache bool                    `json:"from_cache"`
			}{found, fromCache})
		},
	}
}

func requireDirArg(c *cli.Context) (string, error) {
	dir := c.Args().First()
	if dir == "" {
		return "", cli.Exit("usage: codescan <command> <dir>", 1)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// buildOrchestrator wires a full *orchestrator.Orchestrator scoped to dir:
// dir doubles as the codebase_id, so re-running any sub-command against the
// same directory reuses its persisted/cached analysis.
func buildOrchestrator(dir string) (*orchestrator.Orchestrator, func(), error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, err
	}

	log, err := telemetry.NewLogger()
	if err != nil {
		log = zap.NewNop()
	}

	p := parser.New()
	reg := patterns.NewRegistry(log, patterns.DefaultDetectors()...)

	store, err := persistence.NewStore(filepath.Join(dir, cfg.PersistenceRoot))
	if err != nil {
		return nil, nil, err
	}

	c, err := cache.New(context.Background(), log, cache.Options{
		MaxBytes:   int64(cfg.MemoryCacheMaxMB) * 1024 * 1024,
		SQLitePath: filepath.Join(dir, cfg.PersistenceRoot, "cache.sqlite"),
		TTL:        cfg.CacheTTL(),
		RedisURL:   cfg.DistributedCacheURL,
	})
	if err != nil {
		return nil, nil, err
	}

	scanner := fsScanner{cfg: cfg}
	var linter orchestrator.Linter
	if cfg.EnableLinters {
		linter = noopLinter{}
	}
	orch := orchestrator.New(cfg, log, p, reg, c, store, scanner, linter)

	cleanup := func() {
		_ = c.Close()
		_ = log.Sync()
	}
	return orch, cleanup, nil
}

// fsScanner is the demonstration Scanner: codebase_id IS the root directory
// path, and Files walks it with filepath.WalkDir, keeping only files the
// Parser Front-End recognizes (plus notebooks).
type fsScanner struct {
	cfg *config.Config
}

func (s fsScanner) Files(ctx context.Context, codebaseID string) (string, []string, error) {
	root := codebaseID
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == strings.Trim(s.cfg.PersistenceRoot, "/") || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".ipynb" || parser.LanguageForExt(ext) != model.LanguageUnknown {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return root, files, nil
}

// noopLinter is the demonstration Linter: it reports no issues, since
// wiring a real linter subprocess per language is outside this CLI's scope
// as a convenience harness.
type noopLinter struct{}

func (noopLinter) Lint(ctx context.Context, path string, lang model.Language) ([]model.LinterIssue, error) {
	return nil, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
