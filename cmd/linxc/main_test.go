package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCompilesSourceFile(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	src := filepath.Join(srcDir, "demo.lx")
	require.NoError(t, os.WriteFile(src, []byte(`
namespace demo
{
	i32 add(i32 a, i32 b)
	{
		return a + b;
	}
}
`), 0o644))

	err := run([]string{src}, nil, "", outDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "demo.h")
	assert.Contains(t, names, "demo.c")
}

func TestRunReportsParseErrors(t *testing.T) {
	srcDir := t.TempDir()
	outDir := t.TempDir()

	src := filepath.Join(srcDir, "broken.lx")
	require.NoError(t, os.WriteFile(src, []byte(`void f( { }`), 0o644))

	err := run([]string{src}, nil, "", outDir)
	assert.Error(t, err)

	entries, _ := os.ReadDir(outDir)
	assert.Empty(t, entries)
}

func TestRunFailsOnMissingFile(t *testing.T) {
	err := run([]string{filepath.Join(t.TempDir(), "missing.lx")}, nil, "", t.TempDir())
	assert.Error(t, err)
}

func TestRunRejectsBadIncludeGlob(t *testing.T) {
	err := run([]string{}, []string{"[invalid"}, "", t.TempDir())
	assert.Error(t, err)
}

func TestNewRootCmdHasExpectedFlags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"include", "stdlib", "outdir", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag %q", name)
	}

	outdir := cmd.Flags().Lookup("outdir")
	assert.Equal(t, ".", outdir.DefValue)
}
