// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

// Tree-sitter TypeScript node kinds used by the analysis.
const (
	KindProgram                 = "program"
	KindStatementBlock          = "statement_block"
	KindExpressionStatement     = "expression_statement"
	KindIfStatement             = "if_statement"
	KindElseClause              = "else_clause"
	KindReturnStatement         = "return_statement"
	KindSwitchCase              = "switch_case"
	KindSwitchDefault           = "switch_default"
	KindThrowStatement          = "throw_statement"
	KindTernaryExpression       = "ternary_expression"
	KindBinaryExpression        = "binary_expression"
	KindUnaryExpression         = "unary_expression"
	KindParenthesizedExpression = "parenthesized_expression"
	KindCallExpression          = "call_expression"
	KindNewExpression           = "new_expression"
	KindMemberExpression        = "member_expression"
	KindNonNullExpression       = "non_null_expression"
	KindAsExpression            = "as_expression"
	KindAssignmentExpression    = "assignment_expression"
	KindAugmentedAssignment     = "augmented_assignment_expression"
	KindSequenceExpression      = "sequence_expression"
	KindArguments               = "arguments"
	KindIdentifier              = "identifier"
	KindPropertyIdentifier      = "property_identifier"
	KindPrivatePropertyIdent    = "private_property_identifier"
	KindTypeIdentifier          = "type_identifier"
	KindShorthandPropertyIdent  = "shorthand_property_identifier"
	KindShorthandPatternIdent   = "shorthand_property_identifier_pattern"
	KindThis                    = "this"
	KindComment                 = "comment"
	KindDecorator               = "decorator"
	KindError                   = "ERROR"

	KindClassDeclaration         = "class_declaration"
	KindAbstractClassDeclaration = "abstract_class_declaration"
	KindClass                    = "class"
	KindClassBody                = "class_body"
	KindClassHeritage            = "class_heritage"
	KindExtendsClause            = "extends_clause"
	KindMethodDefinition         = "method_definition"
	KindMethodSignature          = "method_signature"
	KindAbstractMethodSignature  = "abstract_method_signature"
	KindPublicFieldDefinition    = "public_field_definition"
	KindPropertySignature        = "property_signature"
	KindInterfaceDeclaration     = "interface_declaration"
	KindInterfaceBody            = "interface_body"
	KindObjectType               = "object_type"
	KindExtendsTypeClause        = "extends_type_clause"
	KindEnumDeclaration          = "enum_declaration"
	KindEnumBody                 = "enum_body"
	KindEnumAssignment           = "enum_assignment"
	KindTypeAliasDeclaration     = "type_alias_declaration"

	KindFunctionDeclaration          = "function_declaration"
	KindGeneratorFunctionDeclaration = "generator_function_declaration"
	KindFunctionSignature            = "function_signature"
	KindFunctionExpression           = "function_expression"
	KindFunction                     = "function"
	KindArrowFunction                = "arrow_function"
	KindFormalParameters             = "formal_parameters"
	KindRequiredParameter            = "required_parameter"
	KindOptionalParameter            = "optional_parameter"

	KindLexicalDeclaration  = "lexical_declaration"
	KindVariableDeclaration = "variable_declaration"
	KindVariableDeclarator  = "variable_declarator"
	KindObjectPattern       = "object_pattern"
	KindArrayPattern        = "array_pattern"
	KindPairPattern         = "pair_pattern"

	KindAmbientDeclaration = "ambient_declaration"
	KindInternalModule     = "internal_module"
	KindModule             = "module"
	KindString             = "string"
	KindStringFragment     = "string_fragment"

	KindImportStatement   = "import_statement"
	KindImportClause      = "import_clause"
	KindNamedImports      = "named_imports"
	KindImportSpecifier   = "import_specifier"
	KindNamespaceImport   = "namespace_import"
	KindExportStatement   = "export_statement"
	KindExportClause      = "export_clause"
	KindExportSpecifier   = "export_specifier"
	KindNamespaceExport   = "namespace_export"
	KindTypeAnnotation    = "type_annotation"
	KindUnionType         = "union_type"
	KindGenericType       = "generic_type"
	KindNestedTypeIdent   = "nested_type_identifier"
	KindPredefinedType    = "predefined_type"
	KindLiteralType       = "literal_type"
	KindParenthesizedType = "parenthesized_type"
	KindUndefined         = "undefined"
	KindNull              = "null"
	KindNestedIdentifier  = "nested_identifier"
	KindFunctionType      = "function_type"
	KindImportRequire     = "import_require_clause"
)

// Field names queried when converting tree-sitter nodes. Only fields listed
// here are reachable through Node.Field.
var knownFields = []string{
	"name",
	"body",
	"condition",
	"consequence",
	"alternative",
	"left",
	"right",
	"operator",
	"argument",
	"function",
	"arguments",
	"object",
	"property",
	"value",
	"type",
	"parameters",
	"parameter",
	"return_type",
	"declaration",
	"source",
	"alias",
	"pattern",
	"constructor",
	"decorator",
	"module",
}

// IsFunctionLike reports whether the node kind introduces a function body.
func IsFunctionLike(kind string) bool {
	switch kind {
	case KindFunctionDeclaration, KindGeneratorFunctionDeclaration, KindFunctionExpression,
		KindFunction, KindArrowFunction, KindMethodDefinition:
		return true
	}
	return false
}

// IsClassLike reports whether the node kind declares a class.
func IsClassLike(kind string) bool {
	switch kind {
	case KindClassDeclaration, KindAbstractClassDeclaration, KindClass:
		return true
	}
	return false
}
