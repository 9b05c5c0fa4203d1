// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package ast

// Kind identifies the concrete shape of a Node. It is a closed sum: every
// switch over Kind in pkg/reader, pkg/check, pkg/codegen and pkg/metacodegen
// is expected to be exhaustive.
type Kind uint8

const (
	// Top-level units.
	KindCompilationUnit Kind = iota
	KindMetaUnit

	// Top-level declarations.
	KindFunctionDecl
	KindArgDeclList
	KindArgDecl
	KindMetaDecl
	KindGlobalConstantDecl
	KindMetaContribution

	// Statements.
	KindCompoundStmt
	KindUnscopedCompoundStmt
	KindReturnStmt
	KindIfStmt
	KindMetaIfStmt
	KindExprStmt
	KindDeclStmt
	KindMetaCalculationStmt
	KindErrorStmt

	// Expressions.
	KindDeclRefExpr
	KindMetaInstantiationExpr
	KindIntLiteralExpr
	KindBoolLiteralExpr
	KindErrorExpr
	KindBinaryExpr
	KindCallExpr
)

//go:generate stringer -type=Kind

// String renders the kind's name for diagnostics and dumps.
func (k Kind) String() string {
	switch k {
	case KindCompilationUnit:
		return "CompilationUnit"
	case KindMetaUnit:
		return "MetaUnit"
	case KindFunctionDecl:
		return "FunctionDecl"
	case KindArgDeclList:
		return "ArgDeclList"
	case KindArgDecl:
		return "ArgDecl"
	case KindMetaDecl:
		return "MetaDecl"
	case KindGlobalConstantDecl:
		return "GlobalConstantDecl"
	case KindMetaContribution:
		return "MetaContribution"
	case KindCompoundStmt:
		return "CompoundStmt"
	case KindUnscopedCompoundStmt:
		return "UnscopedCompoundStmt"
	case KindReturnStmt:
		return "ReturnStmt"
	case KindIfStmt:
		return "IfStmt"
	case KindMetaIfStmt:
		return "MetaIfStmt"
	case KindExprStmt:
		return "ExprStmt"
	case KindDeclStmt:
		return "DeclStmt"
	case KindMetaCalculationStmt:
		return "MetaCalculationStmt"
	case KindErrorStmt:
		return "ErrorStmt"
	case KindDeclRefExpr:
		return "DeclRefExpr"
	case KindMetaInstantiationExpr:
		return "MetaInstantiationExpr"
	case KindIntLiteralExpr:
		return "IntLiteralExpr"
	case KindBoolLiteralExpr:
		return "BoolLiteralExpr"
	case KindErrorExpr:
		return "ErrorExpr"
	case KindBinaryExpr:
		return "BinaryExpr"
	case KindCallExpr:
		return "CallExpr"
	default:
		return "<unknown kind>"
	}
}

// IsStmt reports whether kind is one of the statement kinds.
func (k Kind) IsStmt() bool {
	switch k {
	case KindCompoundStmt, KindUnscopedCompoundStmt, KindReturnStmt, KindIfStmt,
		KindMetaIfStmt, KindExprStmt, KindDeclStmt, KindMetaCalculationStmt,
		KindErrorStmt:
		return true
	default:
		return false
	}
}

// IsExpr reports whether kind is one of the expression kinds.
func (k Kind) IsExpr() bool {
	switch k {
	case KindDeclRefExpr, KindMetaInstantiationExpr, KindIntLiteralExpr,
		KindBoolLiteralExpr, KindErrorExpr, KindBinaryExpr, KindCallExpr:
		return true
	default:
		return false
	}
}

// IsTopLevel reports whether kind can appear as a direct child of a Unit.
func (k Kind) IsTopLevel() bool {
	switch k {
	case KindFunctionDecl, KindMetaDecl, KindGlobalConstantDecl:
		return true
	default:
		return false
	}
}

// RequiresReduceMarker reports whether a node of this kind is written to a
// flat layout stream with a trailing reduce marker, i.e. whether its arity is
// not statically fixed. See SPEC_FULL.md §5.1 for how this table was derived
// from original_source's pred::isRequiringReduceMarker predicate.
func (k Kind) RequiresReduceMarker() bool {
	switch k {
	case KindCompoundStmt, KindUnscopedCompoundStmt, KindArgDeclList,
		KindCallExpr, KindMetaContribution, KindMetaUnit, KindCompilationUnit,
		KindMetaInstantiationExpr,
		KindFunctionDecl, KindIfStmt, KindReturnStmt, KindMetaIfStmt:
		return true
	default:
		return false
	}
}
