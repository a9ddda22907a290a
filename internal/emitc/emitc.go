// Package emitc renders a parsed file's typed AST back out as a C89/C99
// header/implementation pair (spec.md §6). Formatting fidelity with any
// particular human style is not a contract; only the structural
// requirements spec.md §6 names are — pragma once, include rewriting,
// typedef/mangling rules, and the implicit "this" parameter on methods.
package emitc

import (
	"fmt"
	"strings"

	"github.com/linxc-lang/linxc/internal/helpers"
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/token"
)

// Unit is the emitted pair for one source file (spec.md §6: "Per input
// path/foo.lx, emit outputDir/path/foo.h and outputDir/path/foo.c").
type Unit struct {
	HeaderName string
	ImplName   string
	Header     []byte
	Impl       []byte
}

// Emit renders file's header/implementation pair. It returns ok=false
// without emitting anything if the file's log carries any errors (spec.md
// §7: "On any error, no output files are written for the affected
// translation unit").
func Emit(file *lxast.ParsedFile) (Unit, bool) {
	if file.Log.HasErrors() {
		return Unit{}, false
	}

	headerName := rewriteExtension(file.IncludeName, ".h")
	implName := rewriteExtension(file.IncludeName, ".c")

	header := emitHeader(file, headerName)
	impl := emitImpl(file, headerName)

	return Unit{HeaderName: headerName, ImplName: implName, Header: header, Impl: impl}, true
}

func rewriteExtension(name, newExt string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[:idx] + newExt
	}
	return name + newExt
}

// rewriteIncludeTarget implements spec.md §6's "`.lx` → `.h` extension
// rewriting and `\` → `/` path normalization" for a re-emitted
// "#include <...>" line.
func rewriteIncludeTarget(target string) string {
	target = strings.ReplaceAll(target, "\\", "/")
	if strings.HasSuffix(target, ".lx") {
		target = strings.TrimSuffix(target, ".lx") + ".h"
	}
	return target
}

func emitHeader(file *lxast.ParsedFile, headerName string) []byte {
	var j helpers.Joiner
	j.AddString("#pragma once\n")

	for _, stmt := range file.AST {
		inc, ok := stmt.Data.(*lxast.SInclude)
		if !ok {
			continue
		}
		target := rewriteIncludeTarget(inc.IncludeString)
		j.AddString(fmt.Sprintf("#include <%s>\n", target))
		if target == "Linxc.h" {
			j.AddString("#include <stdbool.h>\n")
		}
	}
	j.AddString("\n")

	for _, t := range file.DefinedTypes {
		j.AddString(printTypedef(t))
	}

	for _, f := range file.DefinedFuncs {
		j.AddString(printSignature(f))
		j.AddString(";\n")
	}

	j.EnsureNewlineAtEnd()
	return j.Done()
}

func emitImpl(file *lxast.ParsedFile, headerName string) []byte {
	var j helpers.Joiner
	j.AddString(fmt.Sprintf("#include \"%s\"\n\n", baseName(headerName)))

	for _, f := range file.DefinedFuncs {
		j.AddString(printSignature(f))
		j.AddString(" {\n")
		printBlock(&j, f.Body, 1)
		j.AddString("}\n\n")
	}

	j.EnsureNewlineAtEnd()
	return j.Done()
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

// printTypedef implements spec.md §6's "Type declarations emit as `typedef
// struct { ... } CName;`".
func printTypedef(t *lxast.Type) string {
	var sb strings.Builder
	sb.WriteString("typedef struct {\n")
	for _, v := range t.Variables {
		sb.WriteString("    ")
		sb.WriteString(cDeclaration(v.Type, v.Name))
		sb.WriteString(";\n")
	}
	sb.WriteString("} ")
	sb.WriteString(t.CName())
	sb.WriteString(";\n\n")
	return sb.String()
}

// printSignature implements spec.md §6's "Free functions emit with CName
// mangling; methods emit with an implicit first parameter `SelfCName
// *this`."
func printSignature(f *lxast.Function) string {
	var params []string
	if f.MethodOf != nil {
		params = append(params, f.MethodOf.CName()+" *this")
	}
	for _, a := range f.Arguments {
		if a.Name == "..." {
			params = append(params, "...")
			continue
		}
		params = append(params, cDeclaration(a.Type, a.Name))
	}
	if len(params) == 0 {
		params = append(params, "void")
	}

	return fmt.Sprintf("%s %s(%s)", cTypeName(f.ReturnType), f.CName(), strings.Join(params, ", "))
}

// cDeclaration renders "Type name" for a variable or parameter, pointer
// stars bound to the name per C convention.
func cDeclaration(ref lxast.TypeReference, name string) string {
	return fmt.Sprintf("%s %s", cTypeName(stripPointers(ref)), strings.Repeat("*", ref.PointerDepth)+name)
}

func stripPointers(ref lxast.TypeReference) lxast.TypeReference {
	ref.PointerDepth = 0
	return ref
}

var primitiveCNames = map[string]string{
	"u8": "unsigned char", "u16": "unsigned short", "u32": "unsigned int", "u64": "unsigned long long",
	"i8": "signed char", "i16": "short", "i32": "int", "i64": "long long",
	"float": "float", "double": "double", "char": "char", "void": "void", "bool": "bool",
}

// cTypeName renders a TypeReference's base type plus its pointer stars and
// const qualifier, without a trailing name (used for return types and
// cast targets).
func cTypeName(ref lxast.TypeReference) string {
	var sb strings.Builder
	if ref.IsConst {
		sb.WriteString("const ")
	}
	if ref.Target != nil {
		if name, ok := primitiveCNames[ref.Target.Name]; ok {
			sb.WriteString(name)
		} else {
			sb.WriteString(ref.Target.CName())
		}
	} else {
		sb.WriteString(ref.GenericName)
	}
	for i := 0; i < ref.PointerDepth; i++ {
		sb.WriteString(" *")
	}
	return sb.String()
}

// printBlock prints a statement list at the given indent depth (spec.md §6:
// "The `.c` file ... emits only function bodies").
func printBlock(j *helpers.Joiner, stmts []lxast.Statement, depth int) {
	indent := strings.Repeat("    ", depth)
	for _, stmt := range stmts {
		printStatement(j, stmt, indent)
	}
}

func printStatement(j *helpers.Joiner, stmt lxast.Statement, indent string) {
	switch d := stmt.Data.(type) {
	case *lxast.SVarDecl:
		j.AddString(indent)
		j.AddString(cDeclaration(d.Target.Type, d.Target.Name))
		if d.Target.DefaultValue != nil {
			j.AddString(" = ")
			j.AddString(printExpr(*d.Target.DefaultValue))
		}
		j.AddString(";\n")

	case *lxast.SExpr:
		j.AddString(indent)
		j.AddString(printExpr(d.Value))
		j.AddString(";\n")

	case *lxast.SReturn:
		j.AddString(indent)
		if d.Value == nil {
			j.AddString("return;\n")
		} else {
			j.AddString("return ")
			j.AddString(printExpr(*d.Value))
			j.AddString(";\n")
		}

	case *lxast.SIf:
		j.AddString(indent)
		j.AddString("if (")
		j.AddString(printExpr(d.Condition))
		j.AddString(") {\n")
		printBlock(j, d.Body, depthOf(indent)+1)
		j.AddString(indent)
		j.AddString("}\n")

	case *lxast.SElse:
		j.AddString(indent)
		j.AddString("else {\n")
		printBlock(j, d.Body, depthOf(indent)+1)
		j.AddString(indent)
		j.AddString("}\n")

	case *lxast.SFor:
		j.AddString(indent)
		j.AddString("for (")
		j.AddString(printClauseList(d.Init))
		j.AddString("; ")
		if d.Condition.Data != nil {
			j.AddString(printExpr(d.Condition))
		}
		j.AddString("; ")
		j.AddString(printClauseList(d.Step))
		j.AddString(") {\n")
		printBlock(j, d.Body, depthOf(indent)+1)
		j.AddString(indent)
		j.AddString("}\n")

	case *lxast.SUseLang:
		j.AddString(indent)
		j.AddString(printUseLangBody(d.Body))
		j.AddString("\n")

	case *lxast.STypeDecl, *lxast.SFuncDecl, *lxast.SNamespaceScope, *lxast.SInclude:
		// Declarations are emitted once from the file's flat
		// DefinedTypes/DefinedFuncs lists, so one that appears inside a
		// function body is not printed again here.
	}
}

func depthOf(indent string) int {
	return len(indent) / 4
}

func printClauseList(stmts []lxast.Statement) string {
	var parts []string
	for _, stmt := range stmts {
		switch d := stmt.Data.(type) {
		case *lxast.SVarDecl:
			text := cDeclaration(d.Target.Type, d.Target.Name)
			if d.Target.DefaultValue != nil {
				text += " = " + printExpr(*d.Target.DefaultValue)
			}
			parts = append(parts, text)
		case *lxast.SExpr:
			parts = append(parts, printExpr(d.Value))
		}
	}
	return strings.Join(parts, ", ")
}

// printUseLangBody re-emits a verbatim token run unevaluated (spec.md §4.6's
// UseLang is opaque to this compiler; its text passes through as written).
func printUseLangBody(body []token.Lexeme) string {
	var parts []string
	for _, l := range body {
		if l.Kind == token.TNewline {
			continue
		}
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, " ")
}

var unaryOpText = map[token.T]string{
	token.TAsterisk: "*", token.TMinus: "-", token.TBang: "!", token.TTilde: "~",
	token.TAmpersand: "&", token.TPlusPlus: "++", token.TMinusMinus: "--",
}

// printExpr renders an Expression as C source text. Binary operators are
// always fully parenthesized rather than precedence-aware, which is always
// correct C even if it over-parenthesizes (formatting fidelity is not a
// contract per spec.md §6's framing).
func printExpr(e lxast.Expression) string {
	switch d := e.Data.(type) {
	case *lxast.ELiteral:
		return printLiteral(e.ResolvesTo, d.Text)

	case *lxast.EVariableRef:
		return variableRefText(d.Target)

	case *lxast.EFunctionRef:
		return d.Target.CName()

	case *lxast.ETypeRef:
		return cTypeName(d.Ref)

	case *lxast.EEnumMemberRef:
		return d.Target.Name

	case *lxast.ENamespaceRef:
		return d.Target.Name

	case *lxast.ETypeCast:
		ref, _ := d.CastTo.AsTypeReference()
		return fmt.Sprintf("(%s)%s", cTypeName(ref), printExpr(d.Value))

	case *lxast.EModified:
		return unaryOpText[d.Modification] + printExpr(d.Value)

	case *lxast.EIndexer:
		return fmt.Sprintf("%s[%s]", printExpr(d.Value), printExpr(d.Index))

	case *lxast.EIndexerCall:
		return fmt.Sprintf("%s[%s]", variableRefText(d.Variable), printExpr(d.Index))

	case *lxast.EFuncCall:
		return printFuncCall(d)

	case *lxast.EFuncPointerCall:
		return fmt.Sprintf("%s(%s)", variableRefText(d.Variable), printExprList(d.Arguments))

	case *lxast.ESizeof:
		return fmt.Sprintf("sizeof(%s)", cTypeName(d.Ref))

	case *lxast.ENameof:
		return fmt.Sprintf("%q", d.Ref.String())

	case *lxast.ETypeof:
		return cTypeName(d.Ref)

	case *lxast.EOperatorCall:
		return printOperatorCall(d)

	case *lxast.ENone:
		return ""
	}
	return ""
}

// variableRefText implements the emergent "this->" rule: any Variable that
// is a struct member (MemberOf != nil) is accessed through the implicit
// "this" parameter, since this dialect resolves member names directly
// without requiring a qualifying receiver in source (spec.md §8 scenario
// 2's "return x + y" emits as "return this->x + this->y").
func variableRefText(v *lxast.Variable) string {
	if v.MemberOf != nil {
		return "this->" + v.Name
	}
	return v.Name
}

// printLiteral re-quotes string/char literals for C output. ELiteral.Text
// holds the already-decoded value with no surrounding quotes (the lexer
// strips them into StringValue before the parser ever builds the literal),
// so the emitter is the only place that knows C syntax needs them back.
func printLiteral(resolvesTo lxast.TypeReference, text string) string {
	if resolvesTo.Target == nil || resolvesTo.Target.Name != "u8" {
		return text
	}
	if resolvesTo.PointerDepth == 1 {
		return fmt.Sprintf("%q", text)
	}
	return "'" + strings.ReplaceAll(strings.ReplaceAll(text, `\`, `\\`), `'`, `\'`) + "'"
}

func printFuncCall(d *lxast.EFuncCall) string {
	var args []string
	if d.Func.MethodOf != nil {
		if d.ThisArg != nil {
			args = append(args, printExpr(*d.ThisArg))
		} else {
			args = append(args, "this")
		}
	}
	for _, a := range d.Arguments {
		args = append(args, printExpr(a))
	}
	return fmt.Sprintf("%s(%s)", d.Func.CName(), strings.Join(args, ", "))
}

func printExprList(exprs []lxast.Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = printExpr(e)
	}
	return strings.Join(parts, ", ")
}

// printOperatorCall re-derives whether "lhs op rhs" dispatched to a
// user-defined overload (spec.md §8 scenario 6: "the emitted C calls the
// synthesized operator function with a and b") by looking the pair up
// again rather than caching the resolution on EOperatorCall, exactly as
// spec.md §3 defines the Expression's fields (no OperatorFunc field on
// OperatorCall, only the Op token).
func printOperatorCall(d *lxast.EOperatorCall) string {
	switch d.Op {
	case token.TPeriod, token.TArrow:
		return fmt.Sprintf("%s%s%s", printExpr(d.Left), memberAccessOp(d.Op), bareMemberText(d.Right))
	case token.TColonColon:
		return fmt.Sprintf("%s_%s", printExpr(d.Left), bareMemberText(d.Right))
	}

	if of, ok := lxast.LookupOperator(d.Op, d.Left.ResolvesTo, d.Right.ResolvesTo); ok && of.Function.MethodOf != nil {
		return fmt.Sprintf("%s(%s, %s)", of.Function.CName(), printExpr(d.Left), printExpr(d.Right))
	}

	return fmt.Sprintf("(%s %s %s)", printExpr(d.Left), d.Op.String(), printExpr(d.Right))
}

func memberAccessOp(op token.T) string {
	if op == token.TArrow {
		return "->"
	}
	return "."
}

// bareMemberText prints the right-hand side of a "." / "::" chain by its
// bare name, since the left-hand side already supplies the receiver
// (avoids double-prefixing a member with "this->" when it is reached
// through an explicit qualifier instead of bare-name resolution).
func bareMemberText(e lxast.Expression) string {
	switch d := e.Data.(type) {
	case *lxast.EVariableRef:
		return d.Target.Name
	case *lxast.EFunctionRef:
		return d.Target.Name
	case *lxast.EEnumMemberRef:
		return d.Target.Name
	case *lxast.ENamespaceRef:
		return d.Target.Name
	}
	return printExpr(e)
}
