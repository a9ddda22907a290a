package lxast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linxc-lang/linxc/internal/token"
)

func TestNamespaceResolutionFirstMatchWins(t *testing.T) {
	root := NewNamespace("", nil)
	outer := root.FindOrCreateSubNamespace("outer")
	inner := outer.FindOrCreateSubNamespace("inner")

	outerView := NewPhoneyNamespace(outer)
	innerView := NewPhoneyNamespace(inner)
	innerView.Parent = outerView

	outerVar := &Variable{Name: "x"}
	innerVar := &Variable{Name: "x"}
	outerView.AddVariableToOrigin("x", outerVar)
	innerView.AddVariableToOrigin("x", innerVar)

	// Nearest scope (inner) wins silently — spec.md §9's documented
	// first-match-wins ambiguity, not diagnosed.
	res := Resolve("x", nil, []*PhoneyNamespace{innerView, outerView}, nil)
	require.Equal(t, ResolveVariable, res.Kind)
	assert.Same(t, innerVar, res.Variable)
}

func TestNamespaceIsAncestorOf(t *testing.T) {
	root := NewNamespace("", nil)
	child := root.FindOrCreateSubNamespace("child")
	grandchild := child.FindOrCreateSubNamespace("grandchild")

	assert.True(t, root.IsAncestorOf(grandchild))
	assert.True(t, child.IsAncestorOf(grandchild))
	assert.False(t, grandchild.IsAncestorOf(root))
}

func TestPhoneyNamespaceMergeClonesSubNamespaces(t *testing.T) {
	root := NewNamespace("", nil)

	a := NewPhoneyNamespace(root)
	b := NewPhoneyNamespace(root)

	aSub := a.AddNamespaceToOrigin("sub")
	aSub.AddVariableToOrigin("fromA", &Variable{Name: "fromA"})

	b.Merge(a)
	require.Contains(t, b.SubNamespaces, "sub")
	assert.NotSame(t, aSub, b.SubNamespaces["sub"])
	assert.Contains(t, b.SubNamespaces["sub"].VariableRefs, "fromA")

	// Further edits to a's view must not leak into b's clone.
	aSub.AddVariableToOrigin("laterOnlyInA", &Variable{Name: "laterOnlyInA"})
	assert.NotContains(t, b.SubNamespaces["sub"].VariableRefs, "laterOnlyInA")
}

func TestTypeReferenceEqualityIgnoresConst(t *testing.T) {
	u8 := NewType("u8", nil, nil)
	a := TypeReference{Target: u8, PointerDepth: 1, IsConst: true}
	b := TypeReference{Target: u8, PointerDepth: 1, IsConst: false}
	assert.True(t, a.Equal(b))
}

func TestCompoundAssignOperatorBugPreserved(t *testing.T) {
	// +=, *=, /= rewrite to their bare form; -= does not (spec.md §9).
	assert.Equal(t, token.TPlus, compoundAssignLookupOp(token.TPlusEqual))
	assert.Equal(t, token.TAsterisk, compoundAssignLookupOp(token.TAsteriskEqual))
	assert.Equal(t, token.TSlash, compoundAssignLookupOp(token.TSlashEqual))
	assert.Equal(t, token.TMinusEqual, compoundAssignLookupOp(token.TMinusEqual))
}

func TestTypeSpecializeSubstitutesTemplateParams(t *testing.T) {
	generic := NewType("Box", nil, nil)
	generic.TemplateArgs = []string{"T"}
	generic.Variables = []*Variable{
		{Name: "value", Type: TypeReference{GenericName: "T"}},
	}

	i32 := NewType("i32", nil, nil)
	specialized := generic.Specialize([]TypeReference{{Target: i32}})

	require.Len(t, specialized.Variables, 1)
	assert.Same(t, i32, specialized.Variables[0].Type.Target)

	// Same argument tuple hits the cache instead of re-cloning.
	again := generic.Specialize([]TypeReference{{Target: i32}})
	assert.Same(t, specialized, again)
}

func TestOperatorLookupTriesLeftThenRightType(t *testing.T) {
	left := NewType("V", nil, nil)
	right := NewType("W", nil, nil)
	leftRef := TypeReference{Target: left}
	rightRef := TypeReference{Target: right}

	fn := &OperatorFunc{Key: OperatorKey(token.TPlus, leftRef, rightRef)}
	right.OperatorOverloads[fn.Key] = fn

	found, ok := LookupOperator(token.TPlus, leftRef, rightRef)
	require.True(t, ok)
	assert.Same(t, fn, found)
}
