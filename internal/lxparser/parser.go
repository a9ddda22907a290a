// Package lxparser implements the combined expression/statement parser:
// precedence-climbing expression parsing (spec.md §4.4) with name
// resolution and type checking integrated directly into parsing, and a
// compound-statement driver (spec.md §4.6) that recognizes includes,
// namespaces, type/function/variable declarations, returns, and standalone
// expressions. Errors are accumulated on the owning ParsedFile's log and
// parsing recovers at the next synchronization point rather than aborting
// (spec.md §7).
package lxparser

import (
	"fmt"

	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/token"
	"github.com/linxc-lang/linxc/internal/typesys"
)

// Context is the session-wide state every parse shares: the root namespace
// and the pre-seeded primitive lattice (spec.md §4.3's "root namespace
// created once per compilation").
type Context struct {
	Root       *lxast.Namespace
	Primitives *typesys.Primitives
}

// Parser holds one file's parse state. scopeChain is the active lookup
// chain from innermost to outermost PhoneyNamespace view (spec.md §4.3);
// locals is the current function body's variable scope, reset per function.
type Parser struct {
	log    logger.Log
	source logger.Source
	stream *token.Stream
	ctx    *Context
	file   *lxast.ParsedFile

	scopeChain        []*lxast.PhoneyNamespace
	locals            map[string]*lxast.Variable
	enclosingType     *lxast.Type
	enclosingFunction *lxast.Function

	externFuncs map[string]*lxast.Function
}

func New(log logger.Log, source logger.Source, lexemes []token.Lexeme, ctx *Context, file *lxast.ParsedFile) *Parser {
	// Newline tokens only matter to the macro expander's line-based
	// "#define" handling; the grammar below is free-form, so drop them here.
	filtered := make([]token.Lexeme, 0, len(lexemes))
	for _, l := range lexemes {
		if l.Kind != token.TNewline {
			filtered = append(filtered, l)
		}
	}
	return &Parser{
		log:        log,
		source:     source,
		stream:     token.NewStream(filtered),
		ctx:        ctx,
		file:       file,
		scopeChain: []*lxast.PhoneyNamespace{file.FileNamespace},
	}
}

func (p *Parser) addError(loc logger.Loc, text string) {
	if p.log.AddMsg != nil {
		p.log.AddError(&p.source, loc, text)
	}
}

func (p *Parser) errorf(rng logger.Range, format string, args ...interface{}) {
	p.addError(rng.Loc, fmt.Sprintf(format, args...))
}

func (p *Parser) peek() token.Lexeme  { return p.stream.Peek() }
func (p *Parser) next() token.Lexeme  { return p.stream.Next() }
func (p *Parser) back()               { p.stream.Back() }

func (p *Parser) expect(kind token.T) (token.Lexeme, bool) {
	l := p.next()
	if l.Kind != kind {
		p.errorf(l.Range, "Expected %q but found %q", kind.String(), l.Text)
		p.back()
		return l, false
	}
	return l, true
}

// synchronize implements spec.md §7's recovery: skip to the next ";", "}",
// or "#", then stop (the caller decides whether to consume the
// synchronization token itself).
func (p *Parser) synchronize() {
	for {
		l := p.peek()
		switch l.Kind {
		case token.TSemicolon, token.TRBrace, token.THash, token.TEndOfFile:
			return
		}
		p.next()
	}
}

// pushScope/popScope manage the scope chain for nested namespace/type
// bodies (spec.md §4.3's scope chain S1 ⊃ S2 ⊃ ... ⊃ root).
func (p *Parser) pushScope(view *lxast.PhoneyNamespace) {
	p.scopeChain = append([]*lxast.PhoneyNamespace{view}, p.scopeChain...)
}

func (p *Parser) popScope() {
	p.scopeChain = p.scopeChain[1:]
}

func (p *Parser) currentScope() *lxast.PhoneyNamespace {
	return p.scopeChain[0]
}

// Parse drives the top-level compound-statement loop until EOF (spec.md
// §4.6's "compound block until... EOF").
func Parse(log logger.Log, source logger.Source, lexemes []token.Lexeme, ctx *Context, file *lxast.ParsedFile) {
	p := New(log, source, lexemes, ctx, file)
	file.AST = p.parseStatements(token.TEndOfFile)
}
