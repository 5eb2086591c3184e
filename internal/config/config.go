// Package config defines the options the analysis core consumes:
// recognized settings with their defaults, plus a loader for the project's
// ".codescan.kdl" file (or a ".codescan.toml" equivalent). Full
// environment-variable binding and CLI-flag merging are an external
// collaborator's job; this package only owns the options struct the core
// itself reads.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// Config holds every option the analysis core recognizes.
type Config struct {
	MaxFileSizeMB            int64
	ParseTimeoutS            int
	MaxParallelFiles         int
	SupportedLanguages       []string
	MaxComplexityThreshold   int
	MinComplexityThreshold   int
	MinDocumentationCoverage float64
	TeachingValueWeights     TeachingValueWeights
	MemoryCacheMaxMB         int
	CacheTTLS                int
	PersistenceRoot          string
	EnableLinters            bool
	DistributedCacheURL      string
}

// TeachingValueWeights are the configurable teaching-value scoring weights.
type TeachingValueWeights struct {
	Documentation float64
	Complexity    float64
	Pattern       float64
	Structure     float64
}

// Default returns the documented defaults.
func Default() *Config {
	return &Config{
		MaxFileSizeMB:    10,
		ParseTimeoutS:    5,
		MaxParallelFiles: 10,
		SupportedLanguages: []string{
			"python", "javascript", "typescript", "java", "go",
			"rust", "cpp", "csharp", "ruby", "php",
		},
		MaxComplexityThreshold:   10,
		MinComplexityThreshold:   2,
		MinDocumentationCoverage: 0.5,
		TeachingValueWeights: TeachingValueWeights{
			Documentation: 0.30,
			Complexity:    0.25,
			Pattern:       0.25,
			Structure:     0.20,
		},
		MemoryCacheMaxMB:    500,
		CacheTTLS:           3600,
		PersistenceRoot:     ".analysis/",
		EnableLinters:       false,
		DistributedCacheURL: "",
	}
}

// ParseTimeout returns ParseTimeoutS as a time.Duration.
func (c *Config) ParseTimeout() time.Duration {
	return time.Duration(c.ParseTimeoutS) * time.Second
}

// CacheTTL returns CacheTTLS as a time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLS) * time.Second
}

// MaxFileSizeBytes returns MaxFileSizeMB converted to bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.MaxFileSizeMB * 1024 * 1024
}

// Load reads "<dir>/.codescan.kdl" if present and overlays its values onto
// the defaults. When no KDL file exists, a "<dir>/.codescan.toml" with the
// same option names is accepted instead. A missing file is not an error
// (defaults are used as-is).
func Load(dir string) (*Config, error) {
	cfg := Default()

	path := dir
	if strings.HasSuffix(path, ".toml") {
		return loadTOML(cfg, path)
	}
	if !strings.HasSuffix(path, ".kdl") {
		base := strings.TrimSuffix(path, "/")
		path = base + "/.codescan.kdl"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if tomlPath := base + "/.codescan.toml"; fileExists(tomlPath) {
				return loadTOML(cfg, tomlPath)
			}
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "max_file_size_mb":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxFileSizeMB = int64(v)
			}
		case "parse_timeout_s":
			if v, ok := firstIntArg(n); ok {
				cfg.ParseTimeoutS = v
			}
		case "max_parallel_files":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxParallelFiles = v
			}
		case "supported_languages":
			if langs := collectStringArgs(n); len(langs) > 0 {
				cfg.SupportedLanguages = langs
			}
		case "max_complexity_threshold":
			if v, ok := firstIntArg(n); ok {
				cfg.MaxComplexityThreshold = v
			}
		case "min_complexity_threshold":
			if v, ok := firstIntArg(n); ok {
				cfg.MinComplexityThreshold = v
			}
		case "min_documentation_coverage":
			if v, ok := firstFloatArg(n); ok {
				cfg.MinDocumentationCoverage = v
			}
		case "teaching_value_weights":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "documentation":
					if v, ok := firstFloatArg(cn); ok {
						cfg.TeachingValueWeights.Documentation = v
					}
				case "complexity":
					if v, ok := firstFloatArg(cn); ok {
						cfg.TeachingValueWeights.Complexity = v
					}
				case "pattern":
					if v, ok := firstFloatArg(cn); ok {
						cfg.TeachingValueWeights.Pattern = v
					}
				case "structure":
					if v, ok := firstFloatArg(cn); ok {
						cfg.TeachingValueWeights.Structure = v
					}
				}
			}
		case "memory_cache_max_mb":
			if v, ok := firstIntArg(n); ok {
				cfg.MemoryCacheMaxMB = v
			}
		case "cache_ttl_s":
			if v, ok := firstIntArg(n); ok {
				cfg.CacheTTLS = v
			}
		case "persistence_root":
			if v, ok := firstStringArg(n); ok {
				cfg.PersistenceRoot = v
			}
		case "enable_linters":
			if v, ok := firstBoolArg(n); ok {
				cfg.EnableLinters = v
			}
		case "distributed_cache_url":
			if v, ok := firstStringArg(n); ok {
				cfg.DistributedCacheURL = v
			}
		}
	}

	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// tomlOptions mirrors Config with pointer fields so an absent key leaves
// the default untouched.
type tomlOptions struct {
	MaxFileSizeMB            *int64       `toml:"max_file_size_mb"`
	ParseTimeoutS            *int         `toml:"parse_timeout_s"`
	MaxParallelFiles         *int         `toml:"max_parallel_files"`
	SupportedLanguages       []string     `toml:"supported_languages"`
	MaxComplexityThreshold   *int         `toml:"max_complexity_threshold"`
	MinComplexityThreshold   *int         `toml:"min_complexity_threshold"`
	MinDocumentationCoverage *float64     `toml:"min_documentation_coverage"`
	TeachingValueWeights     *tomlWeights `toml:"teaching_value_weights"`
	MemoryCacheMaxMB         *int         `toml:"memory_cache_max_mb"`
	CacheTTLS                *int         `toml:"cache_ttl_s"`
	PersistenceRoot          *string      `toml:"persistence_root"`
	EnableLinters            *bool        `toml:"enable_linters"`
	DistributedCacheURL      *string      `toml:"distributed_cache_url"`
}

type tomlWeights struct {
	Documentation *float64 `toml:"documentation"`
	Complexity    *float64 `toml:"complexity"`
	Pattern       *float64 `toml:"pattern"`
	Structure     *float64 `toml:"structure"`
}

func loadTOML(cfg *Config, path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var opts tomlOptions
	if err := toml.Unmarshal(content, &opts); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if opts.MaxFileSizeMB != nil {
		cfg.MaxFileSizeMB = *opts.MaxFileSizeMB
	}
	if opts.ParseTimeoutS != nil {
		cfg.ParseTimeoutS = *opts.ParseTimeoutS
	}
	if opts.MaxParallelFiles != nil {
		cfg.MaxParallelFiles = *opts.MaxParallelFiles
	}
	if len(opts.SupportedLanguages) > 0 {
		cfg.SupportedLanguages = opts.SupportedLanguages
	}
	if opts.MaxComplexityThreshold != nil {
		cfg.MaxComplexityThreshold = *opts.MaxComplexityThreshold
	}
	if opts.MinComplexityThreshold != nil {
		cfg.MinComplexityThreshold = *opts.MinComplexityThreshold
	}
	if opts.MinDocumentationCoverage != nil {
		cfg.MinDocumentationCoverage = *opts.MinDocumentationCoverage
	}
	if w := opts.TeachingValueWeights; w != nil {
		if w.Documentation != nil {
			cfg.TeachingValueWeights.Documentation = *w.Documentation
		}
		if w.Complexity != nil {
			cfg.TeachingValueWeights.Complexity = *w.Complexity
		}
		if w.Pattern != nil {
			cfg.TeachingValueWeights.Pattern = *w.Pattern
		}
		if w.Structure != nil {
			cfg.TeachingValueWeights.Structure = *w.Structure
		}
	}
	if opts.MemoryCacheMaxMB != nil {
		cfg.MemoryCacheMaxMB = *opts.MemoryCacheMaxMB
	}
	if opts.CacheTTLS != nil {
		cfg.CacheTTLS = *opts.CacheTTLS
	}
	if opts.PersistenceRoot != nil {
		cfg.PersistenceRoot = *opts.PersistenceRoot
	}
	if opts.EnableLinters != nil {
		cfg.EnableLinters = *opts.EnableLinters
	}
	if opts.DistributedCacheURL != nil {
		cfg.DistributedCacheURL = *opts.DistributedCacheURL
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
