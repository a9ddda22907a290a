package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSessionAssignsID(t *testing.T) {
	s1 := OpenSession()
	s2 := OpenSession()

	assert.NotEmpty(t, s1.ID)
	assert.NotEqual(t, s1.ID, s2.ID)
	assert.NotNil(t, s1.Root)
	assert.NotNil(t, s1.Primitives)
}

func TestParseFileRecordsDefinedSymbols(t *testing.T) {
	s := OpenSession()

	file := s.ParseFile("demo.lx", "demo.lx", `
struct Point
{
	i32 x;
	i32 y;
};

void main()
{
	i32 total = 0;
}
`)

	require.False(t, file.Log.HasErrors())
	require.Len(t, s.Files, 1)

	var typeNames []string
	for _, ty := range file.DefinedTypes {
		typeNames = append(typeNames, ty.Name)
	}
	assert.Contains(t, typeNames, "Point")

	var funcNames []string
	for _, fn := range file.DefinedFuncs {
		funcNames = append(funcNames, fn.Name)
	}
	assert.Contains(t, funcNames, "main")

	assert.True(t, file.MustEmitC)
	assert.False(t, file.IsLinxcHeader)
}

func TestParseFileMarksLinxcHeader(t *testing.T) {
	s := OpenSession()
	file := s.ParseFile("Linxc.h", "Linxc.h", `struct Empty { };`)

	assert.True(t, file.IsLinxcHeader)
	assert.False(t, file.MustEmitC)
}

func TestFullPathFromIncludeNameSearchesRegisteredDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets.lx"), []byte("struct Widget { };"), 0o644))

	s := OpenSession()
	require.NoError(t, s.AddIncludeDir(dir))

	path, ok := s.FullPathFromIncludeName("widgets.lx")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "widgets.lx"), path)

	_, ok = s.FullPathFromIncludeName("missing.lx")
	assert.False(t, ok)
}

func TestFullPathFromIncludeNameFallsBackToStdlib(t *testing.T) {
	stdlib := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(stdlib, "Linxc.h"), []byte(""), 0o644))

	s := OpenSession()
	s.SetStdlibLocation(stdlib)

	path, ok := s.FullPathFromIncludeName("Linxc.h")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(stdlib, "Linxc.h"), path)
}

func TestAddIncludeDirExpandsGlobs(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "vendor", "pkg", "include")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	s := OpenSession()
	require.NoError(t, s.AddIncludeDir(filepath.Join(root, "vendor", "**", "include")))

	require.Len(t, s.includeDirs, 1)
	assert.Equal(t, nested, s.includeDirs[0])
}

func TestCompileWritesGeneratedUnits(t *testing.T) {
	s := OpenSession()
	s.ParseFile("demo.lx", "demo.lx", `
namespace demo
{
	i32 add(i32 a, i32 b)
	{
		return a + b;
	}
}
`)

	outDir := t.TempDir()
	results, ok := s.Compile(outDir)
	require.True(t, ok)
	require.Len(t, results, 1)

	headerPath := filepath.Join(outDir, results[0].Unit.HeaderName)
	implPath := filepath.Join(outDir, results[0].Unit.ImplName)

	_, err := os.Stat(headerPath)
	require.NoError(t, err)
	_, err = os.Stat(implPath)
	require.NoError(t, err)
}

func TestCompileSkipsFilesWithoutMustEmitC(t *testing.T) {
	s := OpenSession()
	s.ParseFile("Linxc.h", "Linxc.h", `struct Empty { };`)

	results, ok := s.Compile(t.TempDir())
	assert.True(t, ok)
	assert.Empty(t, results)
}
