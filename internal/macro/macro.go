// Package macro expands "#define" object-like and function-like macros over
// a flat token stream produced by internal/lxlexer. Expansion is a single
// pass with no rescan: a macro body is copied into the output verbatim
// (after argument substitution for function-like macros), and tokens that
// result from that substitution are never themselves checked against the
// macro table again — spec.md §4.2, confirmed against the non-recursive
// substitution loop in original_source/src/parser.cpp's TokenizeFile.
package macro

import (
	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/token"
)

// Macro is a single "#define"d name: either object-like (Params == nil) or
// function-like (Params != nil, possibly empty for "NAME()").
type Macro struct {
	Name       string
	Params     []string
	Variadic   bool
	Body       []token.Lexeme
	IsAttribute bool
}

// Table holds every macro defined so far in a file, in definition order, plus
// the name lookup used during expansion. Attribute macros (spec.md §4.2's
// "attribute #define") are recorded separately: they carry reflection
// metadata for a downstream consumer this repo doesn't implement, and unlike
// ordinary macros they are never expanded inline.
type Table struct {
	Macros     []*Macro
	Attributes []*Macro
	byName     map[string]*Macro
}

func NewTable() *Table {
	return &Table{byName: make(map[string]*Macro)}
}

func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.byName[name]
	return m, ok
}

func (t *Table) define(m *Macro, isAttribute bool) {
	if isAttribute {
		m.IsAttribute = true
		t.Attributes = append(t.Attributes, m)
		return
	}
	t.Macros = append(t.Macros, m)
	t.byName[m.Name] = m
}

// Expand consumes a fully lexed token sequence (comments already stripped by
// lxlexer.Tokenize) and returns the macro-free token sequence plus the macro
// table accumulated along the way. "#include <...>" lines are passed through
// untouched — the parser's file pipeline resolves them, this package never
// looks inside them (spec.md §4.1/§8).
func Expand(log logger.Log, source logger.Source, in []token.Lexeme) ([]token.Lexeme, *Table) {
	x := &expander{log: log, source: source, in: in, table: NewTable()}
	x.run()
	return x.out, x.table
}

type expander struct {
	log    logger.Log
	source logger.Source
	in     []token.Lexeme
	pos    int
	out    []token.Lexeme
	table  *Table

	nextMacroIsAttribute bool
}

func (x *expander) peek() token.Lexeme {
	if x.pos >= len(x.in) {
		return token.Lexeme{Kind: token.TEndOfFile}
	}
	return x.in[x.pos]
}

func (x *expander) next() token.Lexeme {
	l := x.peek()
	if x.pos < len(x.in) {
		x.pos++
	}
	return l
}

func (x *expander) addError(loc logger.Loc, text string) {
	if x.log.AddMsg != nil {
		x.log.AddError(&x.source, loc, text)
	}
}

func (x *expander) run() {
	for {
		l := x.next()

		switch l.Kind {
		case token.TEndOfFile:
			return

		case token.TAttribute:
			x.nextMacroIsAttribute = true
			continue

		case token.THash:
			x.handlePreprocessorLine(l)
			continue

		case token.TIdentifier:
			if m, ok := x.table.Lookup(l.Text); ok {
				x.expandInvocation(l, m)
				continue
			}
			x.out = append(x.out, l)

		default:
			x.out = append(x.out, l)
		}
	}
}

// handlePreprocessorLine runs after a bare "#" has just been consumed. Only
// "#define" and "#include" require macro-expander attention; every other
// preprocessor line (#ifdef, #pragma, #error, ...) is passed through
// untouched for the parser/session layer to interpret (spec.md §4.1).
func (x *expander) handlePreprocessorLine(hash token.Lexeme) {
	directive := x.next()

	switch directive.Kind {
	case token.TPPDefine:
		x.handleDefine()

	case token.TPPInclude:
		x.out = append(x.out, hash, directive)
		target := x.next()
		if target.Kind != token.TMacroString {
			x.addError(hash.Range.Loc, "Expected <file to be included> after #include directive")
			return
		}
		x.out = append(x.out, target)

	default:
		x.out = append(x.out, hash, directive)
	}
}

func (x *expander) handleDefine() {
	isAttribute := x.nextMacroIsAttribute
	x.nextMacroIsAttribute = false

	name := x.next()
	if name.Kind != token.TIdentifier {
		x.addError(name.Range.Loc, "Expected non-reserved identifier name after #define directive")
		return
	}

	next := x.next()

	if next.Kind == token.TLParen {
		m := &Macro{Name: name.Text}
		if x.peek().Kind != token.TRParen {
			for {
				arg := x.next()
				if arg.Kind == token.TEllipsis {
					m.Variadic = true
				} else if arg.Kind == token.TIdentifier {
					if m.Variadic {
						x.addError(arg.Range.Loc, "No macro arguments allowed after open-ended argument ...")
						return
					}
					m.Params = append(m.Params, arg.Text)
				}
				after := x.next()
				if after.Kind == token.TRParen {
					break
				} else if after.Kind != token.TComma {
					x.addError(after.Range.Loc, "Unexpected token after macro argument: expected , or )")
					return
				}
			}
		} else {
			x.next() // consume ")"
		}
		if m.Params == nil {
			m.Params = []string{}
		}
		for x.peek().Kind != token.TEndOfFile && x.peek().Kind != token.TNewline {
			m.Body = append(m.Body, x.next())
		}
		x.table.define(m, isAttribute)
		return
	}

	m := &Macro{Name: name.Text}
	for next.Kind != token.TEndOfFile && next.Kind != token.TNewline {
		m.Body = append(m.Body, next)
		next = x.next()
	}
	x.table.define(m, isAttribute)
}

// expandInvocation substitutes a macro use-site into the output. For
// function-like macros the arguments are collected first (top-level commas
// separate arguments; nested parens are tracked so a "," or ")" inside them
// stays part of the current argument), then the body is copied with each
// parameter-name token replaced by its argument's token run.
func (x *expander) expandInvocation(site token.Lexeme, m *Macro) {
	if m.Params == nil {
		x.out = append(x.out, m.Body...)
		return
	}

	open := x.next()
	if open.Kind != token.TLParen {
		x.addError(site.Range.Loc, "Expected ( after function macro identifier")
		return
	}

	if len(m.Params) == 0 {
		if x.peek().Kind != token.TRParen {
			x.addError(site.Range.Loc, "This macro does not have arguments")
			return
		}
		x.next() // consume ")"
		x.out = append(x.out, m.Body...)
		return
	}

	args := map[string][]token.Lexeme{}
	var order []string
	var current []token.Lexeme
	argIndex := 0

	flush := func() {
		name := ""
		if argIndex < len(m.Params) {
			name = m.Params[argIndex]
		}
		args[name] = current
		order = append(order, name)
		current = nil
		argIndex++
	}

	depth := 0
	for {
		l := x.next()
		if l.Kind == token.TEndOfFile {
			x.addError(site.Range.Loc, "Unterminated macro invocation")
			return
		}
		if l.Kind == token.TLParen {
			depth++
		}
		if l.Kind == token.TRParen {
			if depth == 0 {
				flush()
				break
			}
			depth--
		}
		if l.Kind == token.TComma && depth == 0 {
			flush()
			continue
		}
		current = append(current, l)
	}

	expectedArgs := len(m.Params)
	if m.Variadic {
		if len(order) < expectedArgs {
			x.addError(site.Range.Loc, "Improper amount of arguments provided to macro")
			return
		}
	} else if len(order) != expectedArgs {
		x.addError(site.Range.Loc, "Improper amount of arguments provided to macro")
		return
	}

	for _, bodyTok := range m.Body {
		if bodyTok.Kind == token.TIdentifier {
			if sub, ok := args[bodyTok.Text]; ok {
				x.out = append(x.out, sub...)
				continue
			}
		}
		x.out = append(x.out, bodyTok)
	}
}
