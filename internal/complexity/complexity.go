// Package complexity computes per-file complexity metrics and also
// supplies the per-function cyclomatic-complexity walk the symbol
// extractor calls at extraction time. Decision-point and nesting node
// kinds are tabled per language, since grammars disagree on node naming
// (Ruby in particular drops the _statement suffix).
package complexity

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/basinlabs/codescan/internal/model"
)

// HighThreshold and TrivialThreshold classify a function's cyclomatic
// complexity: high iff complexity > 10, trivial iff < 2.
const (
	HighThreshold    = 10
	TrivialThreshold = 2
)

// decisionNodeTypes returns the grammar node kinds that count as a
// decision point for cyclomatic complexity in lang. Ruby's grammar uses
// bare keyword names ("if", "elsif") rather than "_statement"-suffixed
// kinds, so it gets its own table.
func decisionNodeTypes(lang model.Language) map[string]bool {
	common := []string{
		"if_statement", "for_statement", "while_statement",
		"case_statement", "catch_clause", "conditional_expression", "ternary_expression",
	}
	var extra []string
	switch lang {
	case model.LanguageGo:
		extra = []string{"select_statement", "type_switch_statement", "expression_switch_statement"}
	case model.LanguageRust:
		// match counts once per arm, not once per match expression, so a
		// wide match scores like the equivalent case/when ladder would.
		extra = []string{"match_arm", "loop_expression", "if_let_expression"}
	case model.LanguagePython:
		extra = []string{"elif_clause", "except_clause", "with_statement"}
	case model.LanguageJavaScript, model.LanguageTypeScript:
		extra = []string{"switch_statement", "do_statement"}
	case model.LanguageJava, model.LanguageCSharp:
		extra = []string{"switch_statement", "switch_expression", "do_statement", "enhanced_for_statement"}
	case model.LanguageCPP:
		extra = []string{"switch_statement", "do_statement"}
	case model.LanguagePHP:
		extra = []string{"switch_statement", "elseif_clause"}
	case model.LanguageRuby:
		return toSet([]string{"if", "elsif", "unless", "while", "until", "for", "case", "when", "rescue", "conditional"})
	}
	return toSet(append(common, extra...))
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

// booleanOperatorNodeTypes returns the grammar node kinds that may carry a
// short-circuit `and`/`or`/`&&`/`||` operator in lang. Most C-family and
// dynamic-language grammars fold these into "binary_expression", but
// tree-sitter-python gives `and`/`or` their own "boolean_operator" node and
// tree-sitter-ruby gives `&&`/`||` a bare "binary" node, so both need their
// own entry keyed by lang the same way decisionNodeTypes is.
func booleanOperatorNodeTypes(lang model.Language) map[string]bool {
	switch lang {
	case model.LanguagePython:
		return toSet([]string{"boolean_operator", "binary_expression"})
	case model.LanguageRuby:
		return toSet([]string{"binary"})
	default:
		return toSet([]string{"binary_expression"})
	}
}

// Cyclomatic computes a function body's cyclomatic complexity: start at 1,
// add 1 per decision-point node, plus 1 per occurrence (not per operand)
// of a short-circuit boolean operator.
func Cyclomatic(body tree_sitter.Node, lang model.Language) int {
	decisionTypes := decisionNodeTypes(lang)
	boolTypes := booleanOperatorNodeTypes(lang)
	count := 1
	walk(body, func(n tree_sitter.Node) {
		kind := n.Kind()
		if decisionTypes[kind] {
			count++
		}
		if boolTypes[kind] {
			if op := operatorText(n); op == "&&" || op == "||" || op == "and" || op == "or" {
				count++
			}
		}
	})
	return count
}

func operatorText(n tree_sitter.Node) string {
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "&&", "||", "and", "or":
			return child.Kind()
		}
	}
	return ""
}

func walk(n tree_sitter.Node, visit func(tree_sitter.Node)) {
	visit(n)
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child != nil {
			walk(*child, visit)
		}
	}
}

// nestingNodeKinds are constructs that count toward a function's maximum
// control-structure nesting depth.
var nestingNodeKinds = toSet([]string{
	"if_statement", "if", "unless",
	"while_statement", "while", "until",
	"for_statement", "for",
	"switch_statement", "match_expression", "case", "case_statement",
	"try_statement", "begin",
})

// MaxNestingDepth walks body tracking the deepest nested control
// structure, used for ComplexityMetrics.MaxNestingDepth/AvgNestingDepth.
func MaxNestingDepth(body tree_sitter.Node) int {
	return maxNestingRecursive(body, 0)
}

func maxNestingRecursive(n tree_sitter.Node, depth int) int {
	maxDepth := depth
	count := n.ChildCount()
	for i := uint(0); i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		childDepth := depth
		if nestingNodeKinds[child.Kind()] {
			childDepth = depth + 1
		}
		if d := maxNestingRecursive(*child, childDepth); d > maxDepth {
			maxDepth = d
		}
	}
	return maxDepth
}

// Aggregate consumes a SymbolTable and produces per-file ComplexityMetrics
// over every top-level function and class method.
func Aggregate(table *model.SymbolTable) model.ComplexityMetrics {
	var all []model.FunctionRecord
	all = append(all, table.Functions...)
	for _, c := range table.Classes {
		all = append(all, c.Methods...)
	}

	metrics := model.ComplexityMetrics{}
	if len(all) == 0 {
		return metrics
	}

	var sumComplexity, sumNesting int
	metrics.Min = all[0].Complexity
	for _, fn := range all {
		if fn.Complexity > metrics.Max {
			metrics.Max = fn.Complexity
		}
		if fn.Complexity < metrics.Min {
			metrics.Min = fn.Complexity
		}
		sumComplexity += fn.Complexity
		sumNesting += fn.NestingDepth
		if fn.NestingDepth > metrics.MaxNestingDepth {
			metrics.MaxNestingDepth = fn.NestingDepth
		}
		if fn.Complexity > HighThreshold {
			metrics.HighCount++
		}
		if fn.Complexity < TrivialThreshold {
			metrics.TrivialCount++
		}
	}
	metrics.TotalDecisionPoints = sumComplexity - len(all) // each function starts at base 1
	metrics.Avg = float64(sumComplexity) / float64(len(all))
	metrics.AvgNestingDepth = float64(sumNesting) / float64(len(all))
	return metrics
}
