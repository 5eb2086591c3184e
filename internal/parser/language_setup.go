package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func (p *Parser) setupGo() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_go.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".go"] = parser

	queryStr := `
        (function_declaration name: (identifier) @function.name) @function
        (method_declaration
            receiver: (parameter_list) @method.receiver
            name: (field_identifier) @method.name) @method
        (type_declaration
            (type_spec name: (type_identifier) @type.name)) @type
        (func_literal) @function
        (import_spec path: (interpreted_string_literal) @import.path) @import
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".go"] = query
	}
}

func (p *Parser) setupPython() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_python.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".py"] = parser

	queryStr := `
        (class_definition
            body: (block
                (function_definition name: (identifier) @method.name))) @method
        (function_definition name: (identifier) @function.name) @function
        (class_definition name: (identifier) @class.name) @class
        (import_statement) @import
        (import_from_statement) @import
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".py"] = query
	}
}

func (p *Parser) setupJavaScript() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".js"] = parser
	p.parsers[".jsx"] = parser

	queryStr := `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (variable_declarator
            name: (identifier) @function.name
            value: [(arrow_function) (function_expression) (generator_function)]) @function
        (method_definition name: (property_identifier) @method.name) @method
        (class_declaration name: (identifier) @class.name) @class
        (export_statement declaration: (_) @export)
        (import_statement source: (string) @import.source) @import
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".js"] = query
		p.queries[".jsx"] = query
	}
}

func (p *Parser) setupTypeScript() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".ts"] = parser

	tsxParser := tree_sitter.NewParser()
	tsxLanguage := tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	if err := tsxParser.SetLanguage(tsxLanguage); err == nil {
		p.parsers[".tsx"] = tsxParser
	} else {
		p.parsers[".tsx"] = parser
	}

	queryStr := `
        (function_declaration name: (identifier) @function.name) @function
        (generator_function_declaration name: (identifier) @function.name) @function
        (method_definition name: (property_identifier) @method.name) @method
        (variable_declarator
            name: (identifier) @function.name
            value: [(arrow_function) (function_expression) (generator_function)]) @function
        (function_expression name: (identifier) @function.name) @function
        (class_declaration name: (type_identifier) @class.name) @class
        (interface_declaration name: (type_identifier) @interface.name) @interface
        (type_alias_declaration name: (type_identifier) @type.name) @type
        (enum_declaration name: (identifier) @enum.name) @enum
        (export_statement declaration: (_) @export)
        (import_statement source: (string) @import.source) @import
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".ts"] = query
		p.queries[".tsx"] = query
	}
}

func (p *Parser) setupJava() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_java.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".java"] = parser

	queryStr := `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (record_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (enum_declaration name: (identifier) @enum.name) @enum
        (import_declaration) @import
        (package_declaration) @package
        (annotation_type_declaration name: (identifier) @annotation.name) @annotation
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".java"] = query
	}
}

func (p *Parser) setupRust() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_rust.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".rs"] = parser

	queryStr := `
        (impl_item
            body: (declaration_list
                (function_item name: (identifier) @method.name))) @method
        (trait_item
            body: (declaration_list
                (function_item name: (identifier) @method.name))) @method
        (function_item name: (identifier) @function.name) @function
        (struct_item name: (type_identifier) @struct.name) @struct
        (enum_item name: (type_identifier) @enum.name) @enum
        (trait_item name: (type_identifier) @interface.name) @interface
        (type_item name: (type_identifier) @type.name) @type
        (use_declaration) @import
        (mod_item name: (identifier) @module.name) @module
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".rs"] = query
	}
}

func (p *Parser) setupCpp() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_cpp.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	for _, ext := range []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"} {
		p.parsers[ext] = parser
	}

	queryStr := `
        (function_definition declarator: (function_declarator declarator: (identifier) @function.name)) @function
        (class_specifier name: (type_identifier) @class.name) @class
        (struct_specifier name: (type_identifier) @struct.name) @struct
        (enum_specifier name: (type_identifier) @enum.name) @enum
        (namespace_definition) @namespace
        (preproc_include) @import
        (using_declaration) @import
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		for _, ext := range []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp"} {
			p.queries[ext] = query
		}
	}
}

func (p *Parser) setupCSharp() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_csharp.Language())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".cs"] = parser

	queryStr := `
        (method_declaration name: (identifier) @method.name) @method
        (constructor_declaration name: (identifier) @constructor.name) @constructor
        (class_declaration name: (identifier) @class.name) @class
        (interface_declaration name: (identifier) @interface.name) @interface
        (struct_declaration name: (identifier) @struct.name) @struct
        (record_declaration name: (identifier) @record.name) @record
        (enum_declaration name: (identifier) @enum.name) @enum
        (property_declaration name: (identifier) @property.name) @property
        (using_directive (qualified_name) @import.name) @import
        (using_directive (identifier) @import.name) @import
        (namespace_declaration name: (qualified_name) @namespace.name) @namespace
        (delegate_declaration name: (identifier) @delegate.name) @delegate
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".cs"] = query
	}
}

func (p *Parser) setupPHP() {
	parser := tree_sitter.NewParser()
	language := tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())
	if err := parser.SetLanguage(language); err != nil {
		return
	}
	p.parsers[".php"] = parser
	p.parsers[".phtml"] = parser

	queryStr := `
        (class_declaration name: (name) @class.name) @class
        (interface_declaration name: (name) @interface.name) @interface
        (trait_declaration name: (name) @trait.name) @trait
        (enum_declaration name: (name) @enum.name) @enum
        (function_definition name: (name) @function.name) @function
        (method_declaration name: (name) @method.name) @method
        (namespace_definition name: (namespace_name) @namespace.name) @namespace
        (namespace_use_declaration) @import
    `
	query, _ := tree_sitter.NewQuery(language, queryStr)
	if query != nil {
		p.queries[".php"] = query
		p.queries[".phtml"] = query
	}
}
