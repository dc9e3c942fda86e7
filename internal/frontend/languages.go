package frontend

import (
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/asg"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".go":   "go",
	".py":   "python",
	".java": "java",
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
}

// rules maps the CST node types of one grammar onto ASG kinds.
type rules struct {
	name    string
	grammar func() *sitter.Language

	classes   map[string]asg.ClassKind
	functions map[string]asg.MethodKind
	ctorTypes set
	ctorNames set
	// bodyless function types inside a class are abstract
	params map[string]asg.ParamKind

	vars        set
	consts      set
	declarators set
	// assigns have left/right fields. With declareOnAssign the first
	// assignment of a plain name in a body declares a local.
	assigns         set
	declareOnAssign bool

	blocks    set
	ifs       set
	elifs     set
	elses     set
	loops     map[string]asg.LoopKind
	returns   set
	exprStmts set

	// calls maps call node types to the field holding the callee.
	calls       map[string]string
	binaries    set
	identifiers set
	// selectors maps member access types to the field holding the member
	// name.
	selectors   map[string]string
	literals    map[string]asg.LiteralKind
	comments    set
	transparent set

	visibility func(b *builder, n *sitter.Node, name string) (asg.Visibility, bool)
	bases      func(b *builder, n *sitter.Node) []string
}

type set map[string]bool

func setOf(names ...string) set {
	s := make(set, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

var languages = map[string]*rules{
	"go":         goRules,
	"python":     pythonRules,
	"java":       javaRules,
	"javascript": jsRules,
}

var goRules = &rules{
	name:    "go",
	grammar: golang.GetLanguage,
	classes: map[string]asg.ClassKind{"type_spec": asg.ClassKindClass},
	functions: map[string]asg.MethodKind{
		"function_declaration": asg.MethodKindFunction,
		"method_declaration":   asg.MethodKindMethod,
		"method_spec":          asg.MethodKindMethod,
		"method_elem":          asg.MethodKindMethod,
		"func_literal":         asg.MethodKindLambda,
	},
	ctorTypes: setOf(),
	ctorNames: setOf(),
	params: map[string]asg.ParamKind{
		"parameter_declaration":          asg.ParamKindNormal,
		"variadic_parameter_declaration": asg.ParamKindVariadic,
	},
	vars:        setOf("var_declaration", "const_declaration", "short_var_declaration", "field_declaration"),
	consts:      setOf("const_declaration"),
	declarators: setOf("var_spec", "const_spec"),
	assigns:     setOf("assignment_statement"),
	blocks:      setOf("block"),
	ifs:         setOf("if_statement"),
	elifs:       setOf(),
	elses:       setOf(),
	loops:       map[string]asg.LoopKind{"for_statement": asg.LoopKindFor},
	returns:     setOf("return_statement"),
	exprStmts:   setOf("expression_statement"),
	calls:       map[string]string{"call_expression": "function"},
	binaries:    setOf("binary_expression"),
	identifiers: setOf("identifier", "field_identifier", "type_identifier", "package_identifier"),
	selectors:   map[string]string{"selector_expression": "field", "qualified_type": "name"},
	literals: map[string]asg.LiteralKind{
		"interpreted_string_literal": asg.LiteralKindString,
		"raw_string_literal":         asg.LiteralKindString,
		"rune_literal":               asg.LiteralKindString,
		"int_literal":                asg.LiteralKindNumber,
		"float_literal":              asg.LiteralKindNumber,
		"imaginary_literal":          asg.LiteralKindNumber,
		"true":                       asg.LiteralKindBool,
		"false":                      asg.LiteralKindBool,
		"nil":                        asg.LiteralKindNull,
	},
	comments: setOf("comment"),
	transparent: setOf("source_file", "type_declaration", "statement_list", "var_spec_list",
		"parenthesized_expression", "expression_list", "field_declaration_list"),
	visibility: func(_ *builder, _ *sitter.Node, name string) (asg.Visibility, bool) {
		for _, r := range name {
			if unicode.IsUpper(r) {
				return asg.VisibilityPublic, false
			}
			break
		}
		return asg.VisibilityPackage, false
	},
	bases: goEmbedded,
}

var pythonRules = &rules{
	name:    "python",
	grammar: python.GetLanguage,
	classes: map[string]asg.ClassKind{"class_definition": asg.ClassKindClass},
	functions: map[string]asg.MethodKind{
		"function_definition": asg.MethodKindFunction,
		"lambda":              asg.MethodKindLambda,
	},
	ctorTypes: setOf(),
	ctorNames: setOf("__init__"),
	params: map[string]asg.ParamKind{
		"identifier":                asg.ParamKindNormal,
		"typed_parameter":           asg.ParamKindNormal,
		"default_parameter":         asg.ParamKindNormal,
		"typed_default_parameter":   asg.ParamKindNormal,
		"list_splat_pattern":        asg.ParamKindVariadic,
		"dictionary_splat_pattern":  asg.ParamKindKeyword,
	},
	vars:            setOf(),
	consts:          setOf(),
	declarators:     setOf(),
	assigns:         setOf("assignment", "augmented_assignment"),
	declareOnAssign: true,
	blocks:          setOf("block"),
	ifs:             setOf("if_statement"),
	elifs:           setOf("elif_clause"),
	elses:           setOf("else_clause"),
	loops: map[string]asg.LoopKind{
		"for_statement":   asg.LoopKindForEach,
		"while_statement": asg.LoopKindWhile,
	},
	returns:     setOf("return_statement"),
	exprStmts:   setOf("expression_statement"),
	calls:       map[string]string{"call": "function"},
	binaries:    setOf("binary_operator", "boolean_operator", "comparison_operator"),
	identifiers: setOf("identifier"),
	selectors:   map[string]string{"attribute": "attribute"},
	literals: map[string]asg.LiteralKind{
		"string":  asg.LiteralKindString,
		"integer": asg.LiteralKindNumber,
		"float":   asg.LiteralKindNumber,
		"true":    asg.LiteralKindBool,
		"false":   asg.LiteralKindBool,
		"none":    asg.LiteralKindNull,
	},
	comments:    setOf("comment"),
	transparent: setOf("module", "decorated_definition", "parenthesized_expression"),
	visibility: func(_ *builder, _ *sitter.Node, name string) (asg.Visibility, bool) {
		switch {
		case strings.HasPrefix(name, "__") && !strings.HasSuffix(name, "__"):
			return asg.VisibilityPrivate, false
		case strings.HasPrefix(name, "_") && !strings.HasSuffix(name, "__"):
			return asg.VisibilityProtected, false
		}
		return asg.VisibilityPublic, false
	},
	bases: func(b *builder, n *sitter.Node) []string {
		return b.names(n.ChildByFieldName("superclasses"))
	},
}

var javaRules = &rules{
	name:    "java",
	grammar: java.GetLanguage,
	classes: map[string]asg.ClassKind{
		"class_declaration":     asg.ClassKindClass,
		"interface_declaration": asg.ClassKindInterface,
		"enum_declaration":      asg.ClassKindEnum,
		"record_declaration":    asg.ClassKindStruct,
	},
	functions: map[string]asg.MethodKind{
		"method_declaration":      asg.MethodKindMethod,
		"constructor_declaration": asg.MethodKindConstructor,
		"lambda_expression":       asg.MethodKindLambda,
	},
	ctorTypes: setOf("constructor_declaration"),
	ctorNames: setOf(),
	params: map[string]asg.ParamKind{
		"formal_parameter": asg.ParamKindNormal,
		"spread_parameter": asg.ParamKindVariadic,
	},
	vars:        setOf("field_declaration", "local_variable_declaration", "constant_declaration"),
	consts:      setOf("constant_declaration"),
	declarators: setOf("variable_declarator"),
	assigns:     setOf("assignment_expression"),
	blocks:      setOf("block", "constructor_body"),
	ifs:         setOf("if_statement"),
	elifs:       setOf(),
	elses:       setOf(),
	loops: map[string]asg.LoopKind{
		"for_statement":          asg.LoopKindFor,
		"enhanced_for_statement": asg.LoopKindForEach,
		"while_statement":        asg.LoopKindWhile,
		"do_statement":           asg.LoopKindDoWhile,
	},
	returns:   setOf("return_statement"),
	exprStmts: setOf("expression_statement"),
	calls: map[string]string{
		"method_invocation":          "name",
		"object_creation_expression": "type",
	},
	binaries:    setOf("binary_expression"),
	identifiers: setOf("identifier", "type_identifier"),
	selectors:   map[string]string{"field_access": "field", "scoped_type_identifier": "name"},
	literals: map[string]asg.LiteralKind{
		"string_literal":                 asg.LiteralKindString,
		"character_literal":              asg.LiteralKindString,
		"decimal_integer_literal":        asg.LiteralKindNumber,
		"hex_integer_literal":            asg.LiteralKindNumber,
		"decimal_floating_point_literal": asg.LiteralKindNumber,
		"true":                           asg.LiteralKindBool,
		"false":                          asg.LiteralKindBool,
		"null_literal":                   asg.LiteralKindNull,
	},
	comments:    setOf("line_comment", "block_comment"),
	transparent: setOf("program", "class_body", "interface_body", "enum_body", "parenthesized_expression"),
	visibility: func(b *builder, n *sitter.Node, _ string) (asg.Visibility, bool) {
		mods := ""
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "modifiers" {
				mods = b.text(c)
			}
		}
		static := strings.Contains(mods, "static")
		switch {
		case strings.Contains(mods, "public"):
			return asg.VisibilityPublic, static
		case strings.Contains(mods, "protected"):
			return asg.VisibilityProtected, static
		case strings.Contains(mods, "private"):
			return asg.VisibilityPrivate, static
		}
		return asg.VisibilityPackage, static
	},
	bases: func(b *builder, n *sitter.Node) []string {
		out := b.names(n.ChildByFieldName("superclass"))
		out = append(out, b.names(n.ChildByFieldName("interfaces"))...)
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "extends_interfaces" {
				out = append(out, b.names(c)...)
			}
		}
		return out
	},
}

var jsRules = &rules{
	name:    "javascript",
	grammar: javascript.GetLanguage,
	classes: map[string]asg.ClassKind{
		"class_declaration": asg.ClassKindClass,
		"class":             asg.ClassKindClass,
	},
	functions: map[string]asg.MethodKind{
		"function_declaration":           asg.MethodKindFunction,
		"generator_function_declaration": asg.MethodKindFunction,
		"method_definition":              asg.MethodKindMethod,
		"arrow_function":                 asg.MethodKindLambda,
		"function_expression":            asg.MethodKindLambda,
		"function":                       asg.MethodKindLambda,
	},
	ctorTypes: setOf(),
	ctorNames: setOf("constructor"),
	params: map[string]asg.ParamKind{
		"identifier":         asg.ParamKindNormal,
		"assignment_pattern": asg.ParamKindNormal,
		"object_pattern":     asg.ParamKindNormal,
		"array_pattern":      asg.ParamKindNormal,
		"rest_pattern":       asg.ParamKindVariadic,
	},
	vars:        setOf("lexical_declaration", "variable_declaration", "field_definition"),
	consts:      setOf(),
	declarators: setOf("variable_declarator"),
	assigns:     setOf("assignment_expression", "augmented_assignment_expression"),
	blocks:      setOf("statement_block"),
	ifs:         setOf("if_statement"),
	elifs:       setOf(),
	elses:       setOf("else_clause"),
	loops: map[string]asg.LoopKind{
		"for_statement":    asg.LoopKindFor,
		"for_in_statement": asg.LoopKindForEach,
		"while_statement":  asg.LoopKindWhile,
		"do_statement":     asg.LoopKindDoWhile,
	},
	returns:     setOf("return_statement"),
	exprStmts:   setOf("expression_statement"),
	calls:       map[string]string{"call_expression": "function", "new_expression": "constructor"},
	binaries:    setOf("binary_expression"),
	identifiers: setOf("identifier", "property_identifier", "private_property_identifier", "shorthand_property_identifier"),
	selectors:   map[string]string{"member_expression": "property"},
	literals: map[string]asg.LiteralKind{
		"string":          asg.LiteralKindString,
		"template_string": asg.LiteralKindString,
		"number":          asg.LiteralKindNumber,
		"true":            asg.LiteralKindBool,
		"false":           asg.LiteralKindBool,
		"null":            asg.LiteralKindNull,
		"undefined":       asg.LiteralKindNull,
		"regex":           asg.LiteralKindOther,
	},
	comments:    setOf("comment"),
	transparent: setOf("program", "export_statement", "class_body", "parenthesized_expression"),
	visibility: func(b *builder, n *sitter.Node, name string) (asg.Visibility, bool) {
		static := false
		for i := 0; i < int(n.ChildCount()); i++ {
			if n.Child(i).Type() == "static" {
				static = true
			}
		}
		if strings.HasPrefix(name, "#") {
			return asg.VisibilityPrivate, static
		}
		return asg.VisibilityPublic, static
	},
	bases: func(b *builder, n *sitter.Node) []string {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if c := n.NamedChild(i); c.Type() == "class_heritage" {
				return b.names(c)
			}
		}
		return nil
	},
}

// goEmbedded lists the embedded types of a struct or interface type_spec.
func goEmbedded(b *builder, n *sitter.Node) []string {
	typ := n.ChildByFieldName("type")
	if typ == nil || typ.Type() != "struct_type" {
		return nil
	}
	var out []string
	for i := 0; i < int(typ.NamedChildCount()); i++ {
		list := typ.NamedChild(i)
		if list.Type() != "field_declaration_list" {
			continue
		}
		for j := 0; j < int(list.NamedChildCount()); j++ {
			fd := list.NamedChild(j)
			if fd.Type() == "field_declaration" && fd.ChildByFieldName("name") == nil {
				out = append(out, b.names(fd.ChildByFieldName("type"))...)
			}
		}
	}
	return out
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// Languages returns the supported language names.
func Languages() []string {
	return []string{"go", "java", "javascript", "python"}
}

// ParserForLanguage returns the tree-sitter Language for a canonical language
// name. Returns (nil, false) if the language is not supported.
func ParserForLanguage(lang string) (*sitter.Language, bool) {
	r, ok := languages[lang]
	if !ok {
		return nil, false
	}
	return r.grammar(), true
}
