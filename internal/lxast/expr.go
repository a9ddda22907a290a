package lxast

import (
	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/token"
)

// Expression is spec.md §3's 17-variant tagged union, reworked as Go idioms
// demand: a thin wrapper holding a source Range, the resolved type, and an
// ExprData payload — the same Expr{Loc, Data E} split esbuild's js_ast uses
// for its own expression sum type, generalized from JS's ~40 variants down
// to this dialect's 17.
type Expression struct {
	Range      logger.Range
	ResolvesTo TypeReference
	Data       ExprData
}

// ExprData is implemented by exactly the 17 concrete payload types below.
// The invariant from spec.md §3 — "resolvesTo.target == nil iff the
// expression denotes a compile-time entity" — is enforced by callers when
// they build an Expression, not by this interface.
type ExprData interface{ isExprData() }

func (*EOperatorCall) isExprData()    {}
func (*ELiteral) isExprData()         {}
func (*EVariableRef) isExprData()     {}
func (*EFunctionRef) isExprData()     {}
func (*ETypeRef) isExprData()         {}
func (*EEnumMemberRef) isExprData()   {}
func (*ENamespaceRef) isExprData()    {}
func (*ETypeCast) isExprData()        {}
func (*EModified) isExprData()        {}
func (*EIndexer) isExprData()         {}
func (*EFuncCall) isExprData()        {}
func (*EFuncPointerCall) isExprData() {}
func (*ESizeof) isExprData()          {}
func (*ENameof) isExprData()          {}
func (*ETypeof) isExprData()          {}
func (*EIndexerCall) isExprData()     {}
func (*ENone) isExprData()            {}

// EOperatorCall is "lhs op rhs" — spec.md §4.4's binary join point.
type EOperatorCall struct {
	Left  Expression
	Op    token.T
	Right Expression
}

// ELiteral is a literal token's value, already classified to its resulting
// primitive per spec.md §4.4 (bool/i32/float/u8/const u8*).
type ELiteral struct {
	Text string
}

type EVariableRef struct {
	Target *Variable
}

// EFunctionRef is a bare reference to a function name before call
// assembly decides whether "(" follows (spec.md §4.4's "is incomplete").
type EFunctionRef struct {
	Target *Function
}

// ETypeRef names a type rather than a value; ResolvesTo on the owning
// Expression is always the unresolved sentinel for this variant.
type ETypeRef struct {
	Ref TypeReference
}

type EEnumMemberRef struct {
	Target *EnumMember
}

type ENamespaceRef struct {
	Target *PhoneyNamespace
}

// ETypeCast is "(T) expr" — spec.md §4.4's cast assembly.
type ETypeCast struct {
	CastTo Expression
	Value  Expression
}

// EModified is a prefix-unary form: "*x", "-x", "!x", "~x", "&x", "++x",
// "--x" (spec.md §3's ModifiedExpression).
type EModified struct {
	Value        Expression
	Modification token.T
}

// EIndexer is "a[b]" before overload resolution turns it into an
// IndexerCall (SPEC_FULL.md §4.3).
type EIndexer struct {
	Value Expression
	Index Expression
}

// EFuncCall is a resolved call: spec.md §4.4's "for each argument position
// i, check canAssign" already having happened by construction time.
type EFuncCall struct {
	Func          *Function
	Arguments     []Expression
	ThisArg       *Expression
	TemplateArgs  []Expression
}

// EFuncPointerCall calls through a Variable of FuncPtr type rather than a
// named Function (SPEC_FULL.md §4.2, grounded on ast.hpp's
// LinxcFunctionPointerCall).
type EFuncPointerCall struct {
	Variable    *Variable
	FuncPtrType *FuncPtr
	Arguments   []Expression
}

type ESizeof struct{ Ref TypeReference }
type ENameof struct{ Ref TypeReference }
type ETypeof struct{ Ref TypeReference }

// EIndexerCall is "a[b]" once resolved through an Operator([], typeof(a),
// typeof(b)) overload, exactly like any other binary operator
// (SPEC_FULL.md §4.3, grounded on ast.hpp's LinxcIndexerCall).
type EIndexerCall struct {
	Operator  *OperatorFunc
	Variable  *Variable
	Index     Expression
}

// ENone is the placeholder expression the parser leaves where an expression
// failed to parse (an unexpected token, an unknown identifier, a failed
// indexer lookup). A bare "return;" stores no expression at all.
type ENone struct{}

// AsTypeReference mirrors the original's LinxcExpression::AsTypeReference:
// an expression that denotes a type (possibly behind an operator chain
// whose right-hand side is a TypeRef) yields that TypeReference.
func (e Expression) AsTypeReference() (TypeReference, bool) {
	switch d := e.Data.(type) {
	case *ETypeRef:
		return d.Ref, true
	case *EOperatorCall:
		return d.Right.AsTypeReference()
	default:
		return TypeReference{}, false
	}
}

// AsFuncReference mirrors LinxcExpression::AsFuncReference.
func (e Expression) AsFuncReference() (*Function, bool) {
	switch d := e.Data.(type) {
	case *EFunctionRef:
		return d.Target, true
	case *EOperatorCall:
		return d.Right.AsFuncReference()
	default:
		return nil, false
	}
}
