package lxparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/lxlexer"
	"github.com/linxc-lang/linxc/internal/macro"
	"github.com/linxc-lang/linxc/internal/typesys"
)

func parse(t *testing.T, contents string) (*lxast.ParsedFile, logger.Log) {
	t.Helper()
	log := logger.NewDeferLog()
	source := logger.Source{Contents: contents}

	lexemes := lxlexer.Tokenize(log, source)
	lexemes, _ = macro.Expand(log, source, lexemes)

	root := lxast.NewNamespace("", nil)
	primitives := typesys.Seed(root)

	fileNs := lxast.NewPhoneyNamespace(root)
	file := lxast.NewParsedFile("test.lx", "test.lx", fileNs, log)

	ctx := &Context{Root: root, Primitives: primitives}
	Parse(log, source, lexemes, ctx, file)

	return file, log
}

func TestParseHelloWorldFunction(t *testing.T) {
	file, log := parse(t, `
void main()
{
	i32 x = 5;
}
`)
	require.False(t, log.HasErrors())
	require.Len(t, file.DefinedFuncs, 1)
	assert.Equal(t, "main", file.DefinedFuncs[0].Name)

	var fn *lxast.SFuncDecl
	for _, stmt := range file.AST {
		if f, ok := stmt.Data.(*lxast.SFuncDecl); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Len(t, fn.Body, 1)
	decl, ok := fn.Body[0].Data.(*lxast.SVarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Target.Name)
}

func TestParseStructMemberAccessAndMethod(t *testing.T) {
	file, log := parse(t, `
struct Vec2
{
	float x;
	float y;

	float Length()
	{
		return this->x;
	}
};
`)
	require.False(t, log.HasErrors())
	require.Len(t, file.DefinedTypes, 1)
	vec2 := file.DefinedTypes[0]
	assert.Equal(t, "Vec2", vec2.Name)
	require.Len(t, vec2.Variables, 2)
	require.Len(t, vec2.Methods, 1)
	assert.Equal(t, "Length", vec2.Methods[0].Name)
}

func TestOperatorOverloadDispatch(t *testing.T) {
	file, log := parse(t, `
struct V
{
	i32 x;

	i32 operator+(V other)
	{
		return x + other.x;
	}
};

void f()
{
	V a;
	V b;
	i32 c = a + b;
}
`)
	require.False(t, log.HasErrors())

	vType := file.DefinedTypes[0]
	require.Len(t, vType.Methods, 1)
	assert.Equal(t, "operator+", vType.Methods[0].Name)
	assert.Len(t, vType.OperatorOverloads, 1)
}

func TestImplicitWideningCastIsAllowed(t *testing.T) {
	_, log := parse(t, `
void main()
{
	i32 a = 5;
	i64 b = a;
}
`)
	assert.False(t, log.HasErrors())
}

func TestNarrowingCastWithoutExplicitCastIsAnError(t *testing.T) {
	_, log := parse(t, `
void main()
{
	i64 a = 5;
	i32 b = a;
}
`)
	assert.True(t, log.HasErrors())
}

func TestStringLiteralRequiresConstU8Pointer(t *testing.T) {
	_, log := parse(t, `
void main()
{
	const u8* a = "hello";
}
`)
	assert.False(t, log.HasErrors())
}

func TestStringLiteralIntoNonConstU8PointerIsAnError(t *testing.T) {
	_, log := parse(t, `
void main()
{
	u8* a = "hello";
}
`)
	assert.True(t, log.HasErrors())
}

func TestNamespaceReopeningAccumulatesDeclarations(t *testing.T) {
	file, log := parse(t, `
namespace math
{
	void add() { }
}

namespace math
{
	void sub() { }
}
`)
	require.False(t, log.HasErrors())
	require.Len(t, file.DefinedFuncs, 2)

	mathNs, ok := file.FileNamespace.SubNamespaces["math"]
	require.True(t, ok)
	_, hasAdd := mathNs.FunctionRefs["add"]
	_, hasSub := mathNs.FunctionRefs["sub"]
	assert.True(t, hasAdd)
	assert.True(t, hasSub)
}

func TestIfElseStatement(t *testing.T) {
	file, log := parse(t, `
void main()
{
	i32 x = 1;
	if (x)
	{
		x = 2;
	}
	else
		x = 3;
}
`)
	require.False(t, log.HasErrors())

	var fn *lxast.SFuncDecl
	for _, stmt := range file.AST {
		if f, ok := stmt.Data.(*lxast.SFuncDecl); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Len(t, fn.Body, 3)
	_, isIf := fn.Body[1].Data.(*lxast.SIf)
	_, isElse := fn.Body[2].Data.(*lxast.SElse)
	assert.True(t, isIf)
	assert.True(t, isElse)
}

func TestForLoopStatement(t *testing.T) {
	file, log := parse(t, `
void main()
{
	for (i32 i = 0; i; i = i)
	{
	}
}
`)
	require.False(t, log.HasErrors())

	var fn *lxast.SFuncDecl
	for _, stmt := range file.AST {
		if f, ok := stmt.Data.(*lxast.SFuncDecl); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Len(t, fn.Body, 1)
	forStmt, ok := fn.Body[0].Data.(*lxast.SFor)
	require.True(t, ok)
	require.Len(t, forStmt.Init, 1)
	require.Len(t, forStmt.Step, 1)
}

func TestUseLangBlockIsStoredVerbatim(t *testing.T) {
	file, log := parse(t, `
void main()
{
	uselang C
	int raw = 5;
	enduselang
}
`)
	require.False(t, log.HasErrors())

	var fn *lxast.SFuncDecl
	for _, stmt := range file.AST {
		if f, ok := stmt.Data.(*lxast.SFuncDecl); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	require.Len(t, fn.Body, 1)
	use, ok := fn.Body[0].Data.(*lxast.SUseLang)
	require.True(t, ok)
	assert.Equal(t, "C", use.Language)
	assert.NotEmpty(t, use.Body)
}

func TestFunctionArgDefaultsMustFollowRequired(t *testing.T) {
	_, log := parse(t, `
void f(i32 a = 1, i32 b)
{
}
`)
	assert.True(t, log.HasErrors())
}

func TestVariadicArgMustBeLast(t *testing.T) {
	_, log := parse(t, `
void f(..., i32 a)
{
}
`)
	assert.True(t, log.HasErrors())
}

func TestIncludeDirectiveIsRecorded(t *testing.T) {
	file, log := parse(t, `#include <stdio.h>
void main() { }
`)
	require.False(t, log.HasErrors())

	var inc *lxast.SInclude
	for _, stmt := range file.AST {
		if s, ok := stmt.Data.(*lxast.SInclude); ok {
			inc = s
		}
	}
	require.NotNil(t, inc)
	assert.Equal(t, "stdio.h", inc.IncludeString)
}

func TestUnresolvedCalleeIsTreatedAsImplicitExtern(t *testing.T) {
	file, log := parse(t, `
#include <stdio.h>
void main()
{
	printf("hi");
	printf("again");
}
`)
	require.False(t, log.HasErrors())

	var calls []*lxast.EFuncCall
	var main *lxast.Function
	for _, fn := range file.DefinedFuncs {
		if fn.Name == "main" {
			main = fn
		}
	}
	require.NotNil(t, main)
	for _, stmt := range main.Body {
		if s, ok := stmt.Data.(*lxast.SExpr); ok {
			if c, ok := s.Value.Data.(*lxast.EFuncCall); ok {
				calls = append(calls, c)
			}
		}
	}
	require.Len(t, calls, 2)
	assert.Same(t, calls[0].Func, calls[1].Func, "repeated calls to the same unresolved name should share one implicit declaration")
	assert.True(t, calls[0].Func.Variadic)
	assert.Equal(t, "i32", calls[0].Func.ReturnType.Target.Name)
}

func TestUnresolvedNonCallIdentifierStillErrors(t *testing.T) {
	_, log := parse(t, `
void main()
{
	i32 x = mystery;
}
`)
	assert.True(t, log.HasErrors())
}

func TestLessEqualGreaterEqualAreNotBinaryOperators(t *testing.T) {
	_, log := parse(t, `
void main()
{
	bool b = 1 <= 2;
}
`)
	assert.True(t, log.HasErrors(), "<= should not parse as a binary operator, matching the original's undefined precedence")
}
