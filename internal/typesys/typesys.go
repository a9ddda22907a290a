// Package typesys seeds the primitive numeric type lattice into a session's
// root namespace and implements the cast/assignability rules of spec.md
// §4.5: the eight integer primitives' cast closure, integer/float
// conversions, arithmetic result-type promotion, and canAssign.
package typesys

import (
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/token"
)

// primitiveInfo describes one of the eight integer primitives' width and
// signedness, used to derive the cast/promotion closure (spec.md §4.5).
type primitiveInfo struct {
	name     string
	width    int
	signed   bool
}

var integerPrimitives = []primitiveInfo{
	{"u8", 8, false}, {"u16", 16, false}, {"u32", 32, false}, {"u64", 64, false},
	{"i8", 8, true}, {"i16", 16, true}, {"i32", 32, true}, {"i64", 64, true},
}

// Primitives holds the Type node for every pre-seeded primitive, keyed by
// name, so the expression parser can resolve literal types ("true/false
// -> bool", "integer -> i32", ...) and the statement parser can resolve
// primitive-keyword TypeRefs (spec.md §4.4).
type Primitives struct {
	ByName map[string]*lxast.Type
}

func (p *Primitives) Ref(name string) lxast.TypeReference {
	return lxast.TypeReference{Target: p.ByName[name]}
}

// Seed pre-seeds the root namespace with the eight integer primitives plus
// float, double, char, void and bool, and registers the full operator
// overload closure described in spec.md §4.5 (Invariants: "The
// OperatorOverload map of a primitive Type contains the closure under the
// default numeric-promotion rules").
func Seed(root *lxast.Namespace) *Primitives {
	p := &Primitives{ByName: make(map[string]*lxast.Type)}

	names := []string{"u8", "u16", "u32", "u64", "i8", "i16", "i32", "i64", "float", "double", "char", "void", "bool"}
	for _, name := range names {
		t := lxast.NewType(name, root, nil)
		root.Types[name] = t
		p.ByName[name] = t
	}

	seedIntegerCasts(p)
	seedFloatConversions(p)
	seedArithmetic(p)
	seedAssignment(p)
	seedBool(p)

	return p
}

func defineCast(t *lxast.Type, from, to lxast.TypeReference, implicit bool) {
	key := lxast.CastKey(from, to, implicit)
	fn := &lxast.Function{Name: "", ReturnType: to}
	t.OperatorOverloads[key] = &lxast.OperatorFunc{Key: key, Function: fn}
}

// seedIntegerCasts implements: "for every pair (src, dst) of the eight
// integer primitives, add a cast. It is implicit iff dst has the same
// signedness as src and equal-or-wider bit width; explicit otherwise."
func seedIntegerCasts(p *Primitives) {
	for _, src := range integerPrimitives {
		for _, dst := range integerPrimitives {
			if src.name == dst.name {
				continue
			}
			implicit := dst.signed == src.signed && dst.width >= src.width
			fromRef := p.Ref(src.name)
			toRef := p.Ref(dst.name)
			defineCast(p.ByName[src.name], fromRef, toRef, implicit)
		}
	}
}

// seedFloatConversions implements "Integer -> float/double: implicit" and
// "Float/double -> integer and float<->double: explicit".
func seedFloatConversions(p *Primitives) {
	for _, src := range integerPrimitives {
		fromRef := p.Ref(src.name)
		defineCast(p.ByName[src.name], fromRef, p.Ref("float"), true)
		defineCast(p.ByName[src.name], fromRef, p.Ref("double"), true)
	}
	for _, dst := range integerPrimitives {
		toRef := p.Ref(dst.name)
		defineCast(p.ByName["float"], p.Ref("float"), toRef, false)
		defineCast(p.ByName["double"], p.Ref("double"), toRef, false)
	}
	defineCast(p.ByName["float"], p.Ref("float"), p.Ref("double"), false)
	defineCast(p.ByName["double"], p.Ref("double"), p.Ref("float"), false)
}

var arithmeticOps = []token.T{token.TPlus, token.TMinus, token.TAsterisk, token.TSlash}
var comparisonOps = []token.T{token.TEqualEqual, token.TBangEqual}

// seedArithmetic implements the §4.5 result-type rule for "+ - * / == !=":
// numeric primitives only (the eight integers plus float/double); == and
// != always yield bool, handled separately from the arithmetic four.
func seedArithmetic(p *Primitives) {
	numeric := append(append([]string{}, primitiveNames(integerPrimitives)...), "float", "double")

	for _, leftName := range numeric {
		for _, rightName := range numeric {
			resultName := arithmeticResultType(leftName, rightName)
			leftRef := p.Ref(leftName)
			rightRef := p.Ref(rightName)
			resultRef := p.Ref(resultName)

			for _, op := range arithmeticOps {
				defineOperator(p.ByName[leftName], op, leftRef, rightRef, resultRef)
			}
			for _, op := range comparisonOps {
				defineOperator(p.ByName[leftName], op, leftRef, rightRef, p.Ref("bool"))
			}
		}
	}
}

func primitiveNames(infos []primitiveInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.name
	}
	return names
}

func defineOperator(t *lxast.Type, op token.T, left, right, result lxast.TypeReference) {
	key := lxast.OperatorKey(op, left, right)
	fn := &lxast.Function{Name: "", ReturnType: result}
	t.OperatorOverloads[key] = &lxast.OperatorFunc{Key: key, Function: fn}
}

func widthOf(name string) int {
	for _, info := range integerPrimitives {
		if info.name == name {
			return info.width
		}
	}
	return 0
}

func isSigned(name string) bool {
	for _, info := range integerPrimitives {
		if info.name == name {
			return info.signed
		}
	}
	return false
}

// arithmeticResultType implements spec.md §4.5's result-type rule:
// "if both are integers of the same signedness, the wider wins; if mixed
// signedness, convert signed operand to unsigned then pick the wider; if
// either is double, result is double; else if either is float, result is
// float."
func arithmeticResultType(left, right string) string {
	if left == "double" || right == "double" {
		return "double"
	}
	if left == "float" || right == "float" {
		return "float"
	}

	if isSigned(left) == isSigned(right) {
		if widthOf(left) >= widthOf(right) {
			return left
		}
		return right
	}

	// Mixed signedness: convert the signed operand to unsigned, then pick
	// the wider of the two.
	w := widthOf(left)
	if widthOf(right) > w {
		w = widthOf(right)
	}
	return unsignedNameForWidth(w)
}

func unsignedNameForWidth(w int) string {
	switch w {
	case 8:
		return "u8"
	case 16:
		return "u16"
	case 32:
		return "u32"
	default:
		return "u64"
	}
}

// seedAssignment implements "Assignment =: defined between identical
// numeric types (type-preserving)."
func seedAssignment(p *Primitives) {
	numeric := append(append([]string{}, primitiveNames(integerPrimitives)...), "float", "double")
	for _, name := range numeric {
		ref := p.Ref(name)
		defineOperator(p.ByName[name], token.TEqual, ref, ref, ref)
	}
}

// seedBool implements "Bool: == != && ||, all yielding bool."
func seedBool(p *Primitives) {
	boolRef := p.Ref("bool")
	for _, op := range []token.T{token.TEqualEqual, token.TBangEqual, token.TAmpersandAmpersand, token.TPipePipe} {
		defineOperator(p.ByName["bool"], op, boolRef, boolRef, boolRef)
	}
}

// CanAssign implements spec.md §4.5's canAssign(dst, src):
//   - const u8* accepts any string literal; u8* (non-const) does not.
//   - an unresolved template-parameter name on either side is always
//     accepted (its identity is only known after specialization).
//   - otherwise dst == src (ignoring const) or an implicit cast src -> dst
//     exists.
//   - any pointer may convert to void*.
func CanAssign(dst, src lxast.TypeReference, srcIsStringLiteral bool) bool {
	if srcIsStringLiteral {
		return dst.PointerDepth == 1 && dst.IsConst && isU8(dst)
	}

	if dst.Target == nil && dst.GenericName != "" {
		return true
	}
	if src.Target == nil && src.GenericName != "" {
		return true
	}

	if dst.PointerDepth > 0 && src.PointerDepth > 0 && dst.Target != nil && dst.Target.Name == "void" {
		return true
	}

	if dst.Equal(src) {
		return true
	}

	_, ok := lxast.LookupCast(src, dst, true)
	return ok
}

func isU8(ref lxast.TypeReference) bool {
	return ref.Target != nil && ref.Target.Name == "u8"
}
