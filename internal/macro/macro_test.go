package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/lxlexer"
	"github.com/linxc-lang/linxc/internal/token"
)

func expand(t *testing.T, contents string) ([]string, *Table, logger.Log) {
	t.Helper()
	log := logger.NewDeferLog()
	source := logger.Source{Contents: contents}
	lexemes := lxlexer.Tokenize(log, source)
	out, table := Expand(log, source, lexemes)

	var texts []string
	for _, l := range out {
		if l.Kind == token.TNewline || l.Kind == token.TEndOfFile {
			continue
		}
		texts = append(texts, l.Text)
	}
	return texts, table, log
}

func TestObjectLikeMacro(t *testing.T) {
	texts, table, log := expand(t, "#define WIDTH 80\nint x = WIDTH;")
	require.False(t, log.HasErrors())
	require.Len(t, table.Macros, 1)
	assert.Equal(t, "WIDTH", table.Macros[0].Name)
	assert.Contains(t, texts, "80")
}

func TestFunctionLikeMacro(t *testing.T) {
	texts, table, log := expand(t, "#define ADD(a, b) a + b\nint x = ADD(1, 2);")
	require.False(t, log.HasErrors())
	require.Len(t, table.Macros, 1)
	m := table.Macros[0]
	assert.True(t, len(m.Params) == 2)
	assert.Contains(t, texts, "1")
	assert.Contains(t, texts, "2")
	assert.Contains(t, texts, "+")
}

func TestMacroWithNoArguments(t *testing.T) {
	_, _, log := expand(t, "#define EMPTY() 1\nint x = EMPTY();")
	assert.False(t, log.HasErrors())
}

func TestMacroArityMismatchIsAnError(t *testing.T) {
	_, _, log := expand(t, "#define ADD(a, b) a + b\nint x = ADD(1);")
	assert.True(t, log.HasErrors())
}

func TestVariadicMacro(t *testing.T) {
	texts, table, log := expand(t, "#define LOG(fmt, ...) printf(fmt, __VA_ARGS__)\nLOG(\"x\", 1, 2);")
	require.False(t, log.HasErrors())
	assert.True(t, table.Macros[0].Variadic)
	assert.Contains(t, texts, "printf")
}

func TestAttributeMacroIsNotExpandedInline(t *testing.T) {
	texts, table, log := expand(t, "attribute #define Serializable() 1\nint x;")
	require.False(t, log.HasErrors())
	require.Len(t, table.Attributes, 1)
	assert.Len(t, table.Macros, 0)
	assert.NotContains(t, texts, "1")
}

func TestIncludeDirectiveIsPassedThroughVerbatim(t *testing.T) {
	texts, _, log := expand(t, "#include <stdio.h>\nint x;")
	require.False(t, log.HasErrors())
	assert.Contains(t, texts, "<stdio.h>")
}

func TestMacroExpansionIsNotRecursive(t *testing.T) {
	// FOO expands to BAR, and BAR is itself a macro name — but the single
	// substitution pass must not rescan FOO's expansion for further macro
	// names, so the output still contains the literal identifier "BAR".
	texts, _, log := expand(t, "#define BAR 1\n#define FOO BAR\nint x = FOO;")
	require.False(t, log.HasErrors())
	assert.Contains(t, texts, "BAR")
}
