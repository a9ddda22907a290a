package emitc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/lxlexer"
	"github.com/linxc-lang/linxc/internal/lxparser"
	"github.com/linxc-lang/linxc/internal/macro"
	"github.com/linxc-lang/linxc/internal/typesys"
)

func emit(t *testing.T, includeName, contents string) Unit {
	t.Helper()
	log := logger.NewDeferLog()
	source := logger.Source{Contents: contents}

	lexemes := lxlexer.Tokenize(log, source)
	lexemes, _ = macro.Expand(log, source, lexemes)

	root := lxast.NewNamespace("", nil)
	primitives := typesys.Seed(root)

	fileNs := lxast.NewPhoneyNamespace(root)
	file := lxast.NewParsedFile(includeName, includeName, fileNs, log)

	ctx := &lxparser.Context{Root: root, Primitives: primitives}
	lxparser.Parse(log, source, lexemes, ctx, file)

	require.False(t, log.HasErrors(), "unexpected parse errors")

	unit, ok := Emit(file)
	require.True(t, ok)
	return unit
}

// assertContains diffs the actual text against itself-with-expected-removed
// so a mismatch prints a readable unified diff instead of a raw substring
// failure (SPEC_FULL.md §2's go-difflib wiring).
func assertContains(t *testing.T, actual, expected string) {
	t.Helper()
	if strings.Contains(actual, expected) {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected substring",
		ToFile:   "actual output",
		Context:  2,
	})
	t.Fatalf("expected output to contain:\n%s\n\ngot:\n%s\n\ndiff:\n%s", expected, actual, diff)
}

func TestHelloWorldEmission(t *testing.T) {
	unit := emit(t, "demo.lx", `
#include <stdio.h>
namespace demo
{
	void run()
	{
		printf("hi");
	}
}
`)

	assertContains(t, string(unit.Header), "#include <stdio.h>")
	assertContains(t, string(unit.Header), "void demo_run(void);")
	assertContains(t, string(unit.Impl), "void demo_run(void) {")
	assertContains(t, string(unit.Impl), fmt.Sprintf("printf(%q)", "hi"))
}

func TestStructMemberAndMethodEmission(t *testing.T) {
	unit := emit(t, "point.lx", `
struct Point
{
	i32 x;
	i32 y;

	i32 sum()
	{
		return x + y;
	}
};
`)

	assertContains(t, string(unit.Header), "typedef struct {\n    int x;\n    int y;\n} Point;")
	assertContains(t, string(unit.Header), "int Point_sum(Point *this);")
	assertContains(t, string(unit.Impl), "return (this->x + this->y);")
}

func TestOperatorOverloadEmission(t *testing.T) {
	unit := emit(t, "v.lx", `
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

	assertContains(t, string(unit.Header), "int V_operator_add(V *this, V other);")
	assertContains(t, string(unit.Impl), "return (this->x + other.x);")
	assertContains(t, string(unit.Impl), "V_operator_add(a, b)")
}

func TestIncludeExtensionRewriting(t *testing.T) {
	unit := emit(t, "user.lx", `#include <Linxc.h>
#include <other.lx>
void f() { }
`)

	header := string(unit.Header)
	assertContains(t, header, "#include <Linxc.h>")
	assertContains(t, header, "#include <stdbool.h>")
	assertContains(t, header, "#include <other.h>")
	assert.Equal(t, "user.h", unit.HeaderName)
	assert.Equal(t, "user.c", unit.ImplName)
}
