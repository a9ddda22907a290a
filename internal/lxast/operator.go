package lxast

import "github.com/linxc-lang/linxc/internal/token"

// OperatorImplKind distinguishes an operator overload from a cast overload
// within the same key type (spec.md §3's OperatorImpl variant: Operator vs
// Cast).
type OperatorImplKind uint8

const (
	ImplOperator OperatorImplKind = iota
	ImplCast
)

// OperatorImplKey is the hashable key spec.md §9 asks for. Go's built-in map
// already hashes and compares structs field-by-field, so a comparable
// struct replaces the original's custom Hash/Eql pair outright
// (DESIGN.md Open Question 5). For a Cast entry, Left holds the source type
// and Right holds the target type; Implicit is only meaningful for casts.
type OperatorImplKey struct {
	Kind     OperatorImplKind
	Op       token.T
	Left     typeIdentity
	Right    typeIdentity
	Implicit bool
}

// typeIdentity is the comparable projection of a TypeReference used inside
// map keys: TypeReference itself holds a slice (TemplateArgs) and so is not
// comparable, but a key only ever needs target identity, pointer depth and
// generic name — never the template-argument list — to disambiguate an
// overload (spec.md §4.5 closure is defined purely over the primitive
// lattice, which never carries template args).
type typeIdentity struct {
	Target       *Type
	GenericName  string
	PointerDepth int
}

func identityOf(r TypeReference) typeIdentity {
	return typeIdentity{Target: r.Target, GenericName: r.GenericName, PointerDepth: r.PointerDepth}
}

func OperatorKey(op token.T, left, right TypeReference) OperatorImplKey {
	return OperatorImplKey{Kind: ImplOperator, Op: op, Left: identityOf(left), Right: identityOf(right)}
}

func CastKey(from, to TypeReference, implicit bool) OperatorImplKey {
	return OperatorImplKey{Kind: ImplCast, Left: identityOf(from), Right: identityOf(to), Implicit: implicit}
}

// OperatorFunc pairs the key with a synthesized Function whose return type
// is the operation's result type (spec.md §3).
type OperatorFunc struct {
	Key      OperatorImplKey
	Function *Function
}

// compoundAssignLookupOp implements spec.md §9's documented "do not
// silently fix" asymmetry: "+=", "*=", "/=" rewrite to their non-assign
// form before the Operator(op, left, right) lookup, but "-=" rewrites to
// itself instead of "-". Confirmed against
// original_source/src/ast.cpp LinxcOperator::EvaluatePossible, which has
// exactly this asymmetry in its switch over compound-assignment token IDs.
func compoundAssignLookupOp(op token.T) token.T {
	switch op {
	case token.TPlusEqual:
		return token.TPlus
	case token.TAsteriskEqual:
		return token.TAsterisk
	case token.TSlashEqual:
		return token.TSlash
	case token.TMinusEqual:
		return token.TMinusEqual // preserved bug: should be TMinus
	case token.TPercentEqual:
		return token.TPercent
	}
	return op
}

// IsCompoundAssign reports whether op is one of the five compound-assignment
// forms spec.md §4.4 lists at precedence level 0.
func IsCompoundAssign(op token.T) bool {
	switch op {
	case token.TPlusEqual, token.TMinusEqual, token.TAsteriskEqual, token.TSlashEqual, token.TPercentEqual:
		return true
	}
	return false
}

// LookupOperator implements spec.md §4.4 step 3/4: for a compound-assign
// form, first rewrite to the looked-up operator (compoundAssignLookupOp),
// then try the left type's overload table, falling back to the right type's.
func LookupOperator(op token.T, left, right TypeReference) (*OperatorFunc, bool) {
	lookupOp := op
	if IsCompoundAssign(op) {
		lookupOp = compoundAssignLookupOp(op)
	}
	key := OperatorKey(lookupOp, left, right)
	if left.Target != nil {
		if of, ok := left.Target.OperatorOverloads[key]; ok {
			return of, true
		}
	}
	if right.Target != nil {
		if of, ok := right.Target.OperatorOverloads[key]; ok {
			return of, true
		}
	}
	return nil, false
}

// LookupCast finds a cast overload from -> to. Used by canAssign (§4.5) and
// by explicit-cast expression resolution (§4.4).
func LookupCast(from, to TypeReference, implicit bool) (*OperatorFunc, bool) {
	key := CastKey(from, to, implicit)
	if from.Target != nil {
		if of, ok := from.Target.OperatorOverloads[key]; ok {
			return of, true
		}
	}
	if to.Target != nil {
		if of, ok := to.Target.OperatorOverloads[key]; ok {
			return of, true
		}
	}
	return nil, false
}
