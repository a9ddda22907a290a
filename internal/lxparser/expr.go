package lxparser

import (
	"github.com/linxc-lang/linxc/internal/logger"
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/token"
	"github.com/linxc-lang/linxc/internal/typesys"
)

// precedenceOf and leftAssociative implement spec.md §4.4's table exactly,
// including its documented asymmetry: "*" (multiplicative) is absent from
// the left-to-right associativity list alongside the bitwise operators, so
// it is treated as right-associative here, as literally specified. "<="/">="
// carry no precedence at all (DESIGN.md Open Questions), matching
// original_source/src/include/parser.hpp's GetPrecedence(), which never
// returns a defined level for Linxc_AngleBracketLeftEqual/RightEqual —
// those two tokens cannot appear as binary operators in an expression.
func precedenceOf(kind token.T) (int, bool) {
	switch kind {
	case token.TColonColon:
		return 6, true
	case token.TArrow, token.TPeriod:
		return 5, true
	case token.TAsterisk, token.TSlash, token.TPercent:
		return 3, true
	case token.TPlus, token.TMinus, token.TAmpersand, token.TCaret, token.TTilde, token.TPipe,
		token.TLess, token.TGreater:
		return 2, true
	case token.TPipePipe, token.TBangEqual, token.TEqualEqual, token.TAmpersandAmpersand:
		return 1, true
	case token.TEqual, token.TPlusEqual, token.TMinusEqual, token.TAsteriskEqual, token.TPercentEqual, token.TSlashEqual:
		return 0, true
	}
	return 0, false
}

func leftAssociative(kind token.T) bool {
	switch kind {
	case token.TArrow, token.TMinus, token.TPlus, token.TSlash, token.TPercent,
		token.TAmpersandAmpersand, token.TPipePipe, token.TEqualEqual, token.TBangEqual,
		token.TLess, token.TGreater,
		token.TPeriod, token.TColonColon:
		return true
	}
	return false
}

// parseExpr is the precedence-climbing entry point: parse a primary, then
// climb consuming binary operators whose precedence is >= minPrec.
func (p *Parser) parseExpr(minPrec int) lxast.Expression {
	left := p.parsePrimary()
	return p.climb(left, minPrec)
}

func (p *Parser) climb(left lxast.Expression, minPrec int) lxast.Expression {
	for {
		opTok := p.peek()
		level, ok := precedenceOf(opTok.Kind)
		if !ok || level < minPrec {
			return left
		}
		p.next()

		nextMinPrec := level + 1
		if !leftAssociative(opTok.Kind) {
			nextMinPrec = level
		}
		right := p.parseExpr(nextMinPrec)
		left = p.combine(left, opTok, right)
	}
}

// combine implements spec.md §4.4's operator-dispatch algorithm for
// joining "lhs op rhs".
func (p *Parser) combine(left lxast.Expression, opTok token.Lexeme, right lxast.Expression) lxast.Expression {
	op := opTok.Kind
	result := lxast.Expression{
		Range: spanRanges(left.Range, right.Range),
		Data:  &lxast.EOperatorCall{Left: left, Op: op, Right: right},
	}

	switch {
	case op == token.TColonColon || op == token.TPeriod || op == token.TArrow:
		result.ResolvesTo = right.ResolvesTo

	case op == token.TEqual:
		if left.ResolvesTo.Equal(right.ResolvesTo) {
			result.ResolvesTo = left.ResolvesTo
		} else if of, ok := lxast.LookupCast(right.ResolvesTo, left.ResolvesTo, true); ok {
			result.ResolvesTo = of.Function.ReturnType
		} else {
			p.errorf(opTok.Range, "Type %s cannot be assigned with %s", left.ResolvesTo.String(), right.ResolvesTo.String())
		}

	default:
		if of, ok := lxast.LookupOperator(op, left.ResolvesTo, right.ResolvesTo); ok {
			result.ResolvesTo = of.Function.ReturnType
		} else {
			p.errorf(opTok.Range, "Type %s cannot be %s'd with %s", left.ResolvesTo.String(), op.String(), right.ResolvesTo.String())
		}
	}

	return result
}

// spanRanges returns a Range covering from a's start to b's end, used to
// give a combined binary-operator Expression a Range wide enough to
// underline the whole "lhs op rhs" in a diagnostic.
func spanRanges(a, b logger.Range) logger.Range {
	end := b.Loc.Start + b.Len
	return logger.Range{Loc: a.Loc, Len: end - a.Loc.Start}
}

// parsePrimary implements spec.md §4.4's Primary: unary prefixes, grouped/
// cast parens, identifiers, literals, and primitive-type keywords.
func (p *Parser) parsePrimary() lxast.Expression {
	tok := p.peek()

	switch tok.Kind {
	case token.TAsterisk, token.TMinus, token.TBang, token.TTilde, token.TAmpersand,
		token.TPlusPlus, token.TMinusMinus:
		p.next()
		operand := p.parseExpr(4)
		return p.applyUnary(tok, operand)

	case token.TLParen:
		return p.parseParenOrCast()

	case token.TIdentifier:
		return p.parseIdentifierExpr()

	case token.TTrue, token.TFalse:
		p.next()
		return lxast.Expression{Range: tok.Range, ResolvesTo: p.ctx.Primitives.Ref("bool"), Data: &lxast.ELiteral{Text: tok.Text}}

	case token.TIntegerLiteral:
		p.next()
		return lxast.Expression{Range: tok.Range, ResolvesTo: p.ctx.Primitives.Ref("i32"), Data: &lxast.ELiteral{Text: tok.Text}}

	case token.TFloatLiteral:
		p.next()
		return lxast.Expression{Range: tok.Range, ResolvesTo: p.ctx.Primitives.Ref("float"), Data: &lxast.ELiteral{Text: tok.Text}}

	case token.TCharLiteral:
		p.next()
		return lxast.Expression{Range: tok.Range, ResolvesTo: p.ctx.Primitives.Ref("u8"), Data: &lxast.ELiteral{Text: tok.StringValue}}

	case token.TStringLiteral:
		p.next()
		ref := p.ctx.Primitives.Ref("u8")
		ref.PointerDepth = 1
		ref.IsConst = true
		return lxast.Expression{Range: tok.Range, ResolvesTo: ref, Data: &lxast.ELiteral{Text: tok.StringValue}}

	case token.TSizeof, token.TNameof, token.TTypeof:
		return p.parseIntrospection()
	}

	if tok.Kind.IsPrimitiveKeyword() {
		return p.parsePrimitiveTypeRef()
	}

	p.errorf(tok.Range, "Unexpected token %q", tok.Text)
	p.next()
	return lxast.Expression{Range: tok.Range, Data: &lxast.ENone{}}
}

func (p *Parser) applyUnary(opTok token.Lexeme, operand lxast.Expression) lxast.Expression {
	resolvesTo := operand.ResolvesTo
	switch opTok.Kind {
	case token.TAsterisk:
		if resolvesTo.PointerDepth == 0 {
			p.errorf(opTok.Range, "Cannot dereference a non-pointer")
		} else {
			resolvesTo.PointerDepth--
		}
	case token.TAmpersand:
		resolvesTo.PointerDepth++
	}
	return lxast.Expression{
		Range:      opTok.Range,
		ResolvesTo: resolvesTo,
		Data:       &lxast.EModified{Value: operand, Modification: opTok.Kind},
	}
}

// parseParenOrCast implements spec.md §4.4's Cast assembly: "(T) expr" if
// the parenthesized content resolves to a type, otherwise a grouped
// expression.
func (p *Parser) parseParenOrCast() lxast.Expression {
	open := p.next() // consume "("
	mark := p.stream.Mark()

	inner := p.parseExpr(0)
	if _, ok := p.expect(token.TRParen); !ok {
		return inner
	}

	if typeRef, ok := inner.AsTypeReference(); ok && p.peekStartsExpr() {
		target := p.parseExpr(3)
		return lxast.Expression{
			Range:      open.Range,
			ResolvesTo: typeRef,
			Data:       &lxast.ETypeCast{CastTo: inner, Value: target},
		}
	}

	p.stream.Reset(mark)
	grouped := p.parseExpr(0)
	p.expect(token.TRParen)
	return grouped
}

// peekStartsExpr reports whether the next token could begin a cast's
// target expression, as opposed to ending the enclosing construct (the
// parenthesized form is a cast only when something follows to cast).
func (p *Parser) peekStartsExpr() bool {
	switch p.peek().Kind {
	case token.TSemicolon, token.TRParen, token.TComma, token.TEndOfFile:
		return false
	}
	return true
}

// parseIdentifierExpr resolves a bare identifier via spec.md §4.3, then
// hands off to call assembly if "(" follows a function resolution.
func (p *Parser) parseIdentifierExpr() lxast.Expression {
	tok := p.next()

	res := lxast.Resolve(tok.Text, p.locals, p.scopeChain, p.enclosingType)

	switch res.Kind {
	case lxast.ResolveVariable:
		expr := lxast.Expression{Range: tok.Range, ResolvesTo: res.Variable.Type, Data: &lxast.EVariableRef{Target: res.Variable}}
		var fp *lxast.FuncPtr
		if res.Variable.Type.Target != nil {
			fp = res.Variable.Type.Target.FuncPtrSignature
		}
		return p.maybeIndexOrCall(expr, res.Variable, fp)

	case lxast.ResolveFunction:
		if p.peek().Kind == token.TLParen {
			return p.parseCall(res.Function, tok)
		}
		return lxast.Expression{Range: tok.Range, ResolvesTo: res.Function.ReturnType, Data: &lxast.EFunctionRef{Target: res.Function}}

	case lxast.ResolveType:
		ref := lxast.TypeReference{Target: res.Type}
		p.consumePointerSuffix(&ref)
		return lxast.Expression{Range: tok.Range, Data: &lxast.ETypeRef{Ref: ref}}

	case lxast.ResolveNamespace:
		return lxast.Expression{Range: tok.Range, Data: &lxast.ENamespaceRef{Target: res.Namespace}}

	case lxast.ResolveEnumMember:
		i32 := p.ctx.Primitives.Ref("i32")
		return lxast.Expression{Range: tok.Range, ResolvesTo: i32, Data: &lxast.EEnumMemberRef{Target: res.EnumMember}}

	default:
		if p.peek().Kind == token.TLParen {
			return p.parseCall(p.implicitExternFunc(tok.Text), tok)
		}
		p.errorf(tok.Range, "Unknown identifier %q", tok.Text)
		return lxast.Expression{Range: tok.Range, Data: &lxast.ENone{}}
	}
}

// implicitExternFunc synthesizes a call-site declaration for a name that
// resolves to nothing but is immediately called, e.g. "printf(...)" after
// "#include <stdio.h>" without this dialect ever loading the included
// header's own declarations (DESIGN.md Open Question 8: "#include" only
// records the directive, it does not pull in symbols). Matches C89's implicit-int rule:
// unknown return type defaults to i32, and the argument list is left wide
// open (Variadic, no required/declared arguments) since the real signature
// is never seen. One Function is reused per name per file so repeated calls
// resolve to the same declaration instead of silently fabricating a fresh
// one each time, and it is registered at file (root) scope rather than
// whatever namespace the call happens to sit in — an extern C declaration
// like "printf" is global, not a member of the namespace that first
// happened to call it.
func (p *Parser) implicitExternFunc(name string) *lxast.Function {
	if p.externFuncs == nil {
		p.externFuncs = make(map[string]*lxast.Function)
	}
	if fn, ok := p.externFuncs[name]; ok {
		return fn
	}
	root := p.scopeChain[len(p.scopeChain)-1]
	fn := &lxast.Function{
		Name:       name,
		Namespace:  root.Actual,
		ReturnType: p.ctx.Primitives.Ref("i32"),
		Variadic:   true,
	}
	p.externFuncs[name] = fn
	root.AddFunctionToOrigin(name, fn)
	return fn
}

// maybeIndexOrCall handles "variable[index]" (dispatched through the same
// Operator([], ...) table as any other binary operator — SPEC_FULL.md
// §4.3) and "variable(...)" through a FuncPtr-typed variable
// (SPEC_FULL.md §4.2).
func (p *Parser) maybeIndexOrCall(expr lxast.Expression, v *lxast.Variable, fp *lxast.FuncPtr) lxast.Expression {
	if p.peek().Kind == token.TLBracket {
		open := p.next()
		index := p.parseExpr(0)
		p.expect(token.TRBracket)

		of, ok := lxast.LookupOperator(token.TLBracket, expr.ResolvesTo, index.ResolvesTo)
		if !ok {
			p.errorf(open.Range, "Type %s has no indexer defined for %s", expr.ResolvesTo.String(), index.ResolvesTo.String())
			return lxast.Expression{Range: open.Range, Data: &lxast.ENone{}}
		}
		return lxast.Expression{
			Range:      open.Range,
			ResolvesTo: of.Function.ReturnType,
			Data:       &lxast.EIndexerCall{Operator: of, Variable: v, Index: index},
		}
	}

	if fp != nil && p.peek().Kind == token.TLParen {
		return p.parseFuncPointerCall(v, fp)
	}

	return expr
}

func (p *Parser) parseFuncPointerCall(v *lxast.Variable, fp *lxast.FuncPtr) lxast.Expression {
	open := p.next() // consume "("
	var args []lxast.Expression
	if p.peek().Kind != token.TRParen {
		for {
			args = append(args, p.parseExpr(0))
			if p.peek().Kind != token.TComma {
				break
			}
			p.next()
		}
	}
	p.expect(token.TRParen)

	if len(args) < fp.NecessaryArguments {
		p.errorf(open.Range, "Too few arguments passed to function pointer call")
	}
	for i, arg := range args {
		if i >= len(fp.Arguments) {
			break
		}
		if !canAssignExpr(fp.Arguments[i], arg) {
			p.errorf(arg.Range, "Cannot pass %s as argument %d", arg.ResolvesTo.String(), i+1)
		}
	}

	return lxast.Expression{
		Range:      open.Range,
		ResolvesTo: fp.ReturnType,
		Data:       &lxast.EFuncPointerCall{Variable: v, FuncPtrType: fp, Arguments: args},
	}
}

// parseCall implements spec.md §4.4's Call assembly: for each argument
// position i, canAssign(param_i.type, arg_i.resolvesTo); on failure,
// record an error and continue rather than aborting the call. A trailing
// "..." parameter consumes all remaining arguments without per-argument
// checking. Enforce actual >= requiredCount.
func (p *Parser) parseCall(fn *lxast.Function, nameTok token.Lexeme) lxast.Expression {
	p.next() // consume "("
	var args []lxast.Expression
	if p.peek().Kind != token.TRParen {
		for {
			args = append(args, p.parseExpr(0))
			if p.peek().Kind != token.TComma {
				break
			}
			p.next()
		}
	}
	closeTok, _ := p.expect(token.TRParen)

	if len(args) < fn.RequiredArguments {
		p.errorf(closeTok.Range, "Too few arguments provided to function %q", fn.Name)
	}

	for i, arg := range args {
		if fn.Variadic && i >= len(fn.Arguments)-1 {
			continue
		}
		if i >= len(fn.Arguments) {
			p.errorf(arg.Range, "Too many arguments provided to function %q", fn.Name)
			continue
		}
		if !canAssignExpr(fn.Arguments[i].Type, arg) {
			p.errorf(arg.Range, "Cannot pass %s as argument %d of %q", arg.ResolvesTo.String(), i+1, fn.Name)
		}
	}

	return lxast.Expression{
		Range:      nameTok.Range,
		ResolvesTo: fn.ReturnType,
		Data:       &lxast.EFuncCall{Func: fn, Arguments: args},
	}
}

func canAssignExpr(dst lxast.TypeReference, arg lxast.Expression) bool {
	_, isLiteral := arg.Data.(*lxast.ELiteral)
	isStringLiteral := isLiteral && arg.ResolvesTo.PointerDepth == 1 && arg.ResolvesTo.IsConst
	return typesys.CanAssign(dst, arg.ResolvesTo, isStringLiteral)
}

func (p *Parser) parseIntrospection() lxast.Expression {
	tok := p.next()
	p.expect(token.TLParen)
	inner := p.parseExpr(0)
	p.expect(token.TRParen)

	ref, _ := inner.AsTypeReference()

	switch tok.Kind {
	case token.TSizeof:
		return lxast.Expression{Range: tok.Range, ResolvesTo: p.ctx.Primitives.Ref("u64"), Data: &lxast.ESizeof{Ref: ref}}
	case token.TNameof:
		nameRef := p.ctx.Primitives.Ref("u8")
		nameRef.PointerDepth = 1
		nameRef.IsConst = true
		return lxast.Expression{Range: tok.Range, ResolvesTo: nameRef, Data: &lxast.ENameof{Ref: ref}}
	default: // TTypeof
		return lxast.Expression{Range: tok.Range, Data: &lxast.ETypeof{Ref: ref}}
	}
}

// parsePrimitiveTypeRef implements "primitive-type keywords that begin a
// TypeRef. After a TypeRef, greedily consume trailing '*' to raise pointer
// depth" (spec.md §4.4).
func (p *Parser) parsePrimitiveTypeRef() lxast.Expression {
	tok := p.next()
	name := token.PrimitiveKeywords[tok.Kind]
	ref := p.ctx.Primitives.Ref(name)
	p.consumePointerSuffix(&ref)
	return lxast.Expression{Range: tok.Range, Data: &lxast.ETypeRef{Ref: ref}}
}

// consumePointerSuffix greedily raises a TypeReference's pointer depth for
// every trailing "*" (spec.md §4.4; grounded on original_source's
// ParseIdentifier, which runs this same loop after resolving to a TypeRef).
func (p *Parser) consumePointerSuffix(ref *lxast.TypeReference) {
	for p.peek().Kind == token.TAsterisk {
		p.next()
		ref.PointerDepth++
	}
}

