// Package session implements the driver-facing file pipeline (spec.md §6's
// "Driver ↔ core" API): opening a session, registering include directories
// and a stdlib location, parsing files against the session's shared
// namespace tree, and compiling every parsed file to C.
package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/linxc-lang/linxc/internal/emitc"
	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/lxlexer"
	"github.com/linxc-lang/linxc/internal/lxparser"
	"github.com/linxc-lang/linxc/internal/macro"
	"github.com/linxc-lang/linxc/internal/typesys"
)

// Session owns the namespace tree shared by every file parsed through it,
// plus the include-directory search list and stdlib location used to
// resolve "#include" targets (spec.md §6's Session).
type Session struct {
	ID string

	Root       *lxast.Namespace
	Primitives *typesys.Primitives

	includeDirs    []string
	stdlibLocation string

	Files []*lxast.ParsedFile
}

// OpenSession implements spec.md §6's "openSession(rootAllocator) →
// Session". Go's garbage collector is this session's allocator (DESIGN.md
// Open Question 4); there is no explicit rootAllocator argument to take.
func OpenSession() *Session {
	root := lxast.NewNamespace("", nil)
	return &Session{
		ID:         uuid.NewString(),
		Root:       root,
		Primitives: typesys.Seed(root),
	}
}

// AddIncludeDir registers a search root for "#include" resolution. path may
// be a glob (e.g. "vendor/**/include") per SPEC_FULL.md §3's doublestar
// wiring; it is expanded immediately against the current working directory
// rather than lazily at lookup time, so a directory that starts empty and
// later gains subdirectories is not retroactively discovered.
func (s *Session) AddIncludeDir(path string) error {
	if !strings.ContainsAny(path, "*?[") {
		s.includeDirs = append(s.includeDirs, path)
		return nil
	}

	matches, err := doublestar.FilepathGlob(path)
	if err != nil {
		return err
	}
	s.includeDirs = append(s.includeDirs, matches...)
	return nil
}

// SetStdlibLocation records the directory searched last when resolving an
// include name that no registered include directory satisfies.
func (s *Session) SetStdlibLocation(path string) {
	s.stdlibLocation = path
}

// FullPathFromIncludeName implements spec.md §6's "walks registered include
// directories", falling back to the stdlib location last.
func (s *Session) FullPathFromIncludeName(includeName string) (string, bool) {
	for _, dir := range s.includeDirs {
		candidate := filepath.Join(dir, includeName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	if s.stdlibLocation != "" {
		candidate := filepath.Join(s.stdlibLocation, includeName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// ParseFile implements spec.md §6's "parseFile(Session, fullPath,
// includeName, contents) → ParsedFile&": tokenize, expand macros, then parse
// statements against the session's shared namespace tree. The returned
// ParsedFile is also retained on the session for Compile.
func (s *Session) ParseFile(fullPath, includeName, contents string) *lxast.ParsedFile {
	log := logger.NewDeferLog()
	addMsg := log.AddMsg
	log.AddMsg = func(msg logger.Msg) {
		msg.Data.UserDetail = s.ID
		addMsg(msg)
	}
	source := logger.Source{Contents: contents, PrettyPath: fullPath}

	lexemes := lxlexer.Tokenize(log, source)
	lexemes, macros := macro.Expand(log, source, lexemes)

	fileNs := lxast.NewPhoneyNamespace(s.Root)
	file := lxast.NewParsedFile(fullPath, includeName, fileNs, log)
	file.IsLinxcHeader = includeName == "Linxc.h"
	file.MustEmitC = strings.HasSuffix(includeName, ".lx")
	for _, m := range macros.Macros {
		file.Macros = append(file.Macros, &lxast.MacroDef{Name: m.Name, IsFunctionLike: m.Params != nil, Params: m.Params, Variadic: m.Variadic})
	}
	for _, m := range macros.Attributes {
		file.AttributeMacros = append(file.AttributeMacros, &lxast.MacroDef{Name: m.Name, IsFunctionLike: m.Params != nil, Params: m.Params, Variadic: m.Variadic})
	}

	ctx := &lxparser.Context{Root: s.Root, Primitives: s.Primitives}
	lxparser.Parse(log, source, lexemes, ctx, file)

	file.DefinedVars = collectDefinedVars(file)

	s.Files = append(s.Files, file)
	return file
}

// collectDefinedVars walks a file's top-level statement list for file-scope
// variable declarations (spec.md §6's "symbol-table external view" names
// definedVars alongside definedFuncs/definedTypes).
func collectDefinedVars(file *lxast.ParsedFile) []*lxast.Variable {
	var vars []*lxast.Variable
	for _, stmt := range file.AST {
		if d, ok := stmt.Data.(*lxast.SVarDecl); ok {
			vars = append(vars, d.Target)
		}
	}
	return vars
}

// CompileResult is one file's emitted output, or its errors if it failed to
// compile cleanly.
type CompileResult struct {
	File   *lxast.ParsedFile
	Unit   emitc.Unit
	OK     bool
}

// Compile implements spec.md §6's "compile(Session, outputDir) →
// ok|errors": transpile every parsed file that needs C output, writing
// nothing for any file that carries errors (spec.md §7).
func (s *Session) Compile(outputDir string) ([]CompileResult, bool) {
	var results []CompileResult
	allOK := true

	for _, file := range s.Files {
		if !file.MustEmitC {
			continue
		}

		unit, ok := emitc.Emit(file)
		results = append(results, CompileResult{File: file, Unit: unit, OK: ok})
		if !ok {
			allOK = false
			continue
		}

		if err := writeUnit(outputDir, unit); err != nil {
			allOK = false
		}
	}

	return results, allOK
}

func writeUnit(outputDir string, unit emitc.Unit) error {
	headerPath := filepath.Join(outputDir, unit.HeaderName)
	implPath := filepath.Join(outputDir, unit.ImplName)

	if err := os.MkdirAll(filepath.Dir(headerPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(headerPath, unit.Header, 0o644); err != nil {
		return err
	}
	return os.WriteFile(implPath, unit.Impl, 0o644)
}
