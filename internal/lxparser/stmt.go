package lxparser

import (
	"github.com/linxc-lang/linxc/internal/lxast"
	"github.com/linxc-lang/linxc/internal/token"
)

// parseStatements drives a compound block until the caller-specified
// terminator is reached (spec.md §4.6): "}" for a namespace/struct/function
// body, end of file for the top level. A malformed construct is recovered
// at the next synchronization point rather than aborting the whole block
// (spec.md §7).
func (p *Parser) parseStatements(terminator token.T) []lxast.Statement {
	var result []lxast.Statement

	for {
		p.skipNewlines()
		head := p.peek()

		if head.Kind == token.TEndOfFile {
			if terminator == token.TRBrace {
				p.errorf(head.Range, "Expected }")
			}
			return result
		}
		if terminator == token.TRBrace && head.Kind == token.TRBrace {
			p.next()
			return result
		}

		if stmt, ok := p.parseOneStatement(); ok {
			result = append(result, stmt)
		}
	}
}

func (p *Parser) skipNewlines() {
	for p.peek().Kind == token.TNewline {
		p.next()
	}
}

// parseOneStatement recognizes a single statement head (spec.md §4.6's
// list: include, namespace, struct, return, if/else/for, uselang, a
// type-expression head, or a standalone expression) and is also used
// directly for an if/else/for body that isn't braced.
func (p *Parser) parseOneStatement() (lxast.Statement, bool) {
	p.skipNewlines()
	head := p.peek()

	isConst := false
	if head.Kind == token.TConst {
		p.next()
		isConst = true
		p.skipNewlines()
		head = p.peek()
	}

	switch {
	case head.Kind == token.THash:
		return p.parseHash(isConst)

	case head.Kind == token.TNamespace:
		if isConst {
			p.errorf(head.Range, "Cannot declare a namespace as const")
		}
		return p.parseNamespaceScope()

	case head.Kind == token.TStruct:
		if isConst {
			p.errorf(head.Range, "Cannot declare a struct as const in Linxc")
		}
		return p.parseStructDecl()

	case head.Kind == token.TReturn:
		return p.parseReturnStmt()

	case head.Kind == token.TIf:
		return p.parseIfStmt()

	case head.Kind == token.TElse:
		return p.parseElseStmt()

	case head.Kind == token.TFor:
		return p.parseForStmt()

	case head.Kind == token.TUseLang:
		return p.parseUseLangStmt()

	case head.Kind == token.TRBrace:
		p.errorf(head.Range, "Unexpected }")
		p.next()
		return lxast.Statement{}, false

	case head.Kind == token.TIdentifier, head.Kind == token.TAsterisk, head.Kind.IsPrimitiveKeyword():
		return p.parseTypeHeadOrExpr(isConst)

	default:
		p.errorf(head.Range, "Unexpected token %q", head.Text)
		p.next()
		p.synchronize()
		return lxast.Statement{}, false
	}
}

// parseHash handles a bare "#" line. Only "#include <...>" is interpreted
// here; every other preprocessor directive is out of scope (spec.md §1's
// "#define" is already gone by the time the parser sees it, handled
// upstream by internal/macro).
func (p *Parser) parseHash(isConst bool) (lxast.Statement, bool) {
	hash := p.next() // consume "#"
	directive := p.next()

	if directive.Kind != token.TPPInclude {
		p.errorf(directive.Range, "Unsupported preprocessor directive here")
		p.synchronize()
		return lxast.Statement{}, false
	}

	if isConst {
		p.errorf(hash.Range, "Cannot declare a include statement as const")
	}

	target, ok := p.expect(token.TMacroString)
	if !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}
	if target.StringValue == "" {
		p.errorf(target.Range, "#include directive is empty!")
	}

	return lxast.Statement{
		Range: hash.Range,
		Data:  &lxast.SInclude{IncludeString: target.StringValue},
	}, true
}

// parseNamespaceScope implements "namespace NAME { ... }": find-or-create
// the sub-namespace under the current scope, push it, and recurse (spec.md
// §4.6). A namespace body always starts a fresh type context — namespaces
// nest inside namespaces, never inside a struct.
func (p *Parser) parseNamespaceScope() (lxast.Statement, bool) {
	nsTok := p.next() // consume "namespace"

	nameTok, ok := p.expect(token.TIdentifier)
	if !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}

	view := p.currentScope().FindOrCreateChildView(nameTok.Text)
	p.expect(token.TLBrace)

	p.pushScope(view)
	savedType := p.enclosingType
	p.enclosingType = nil

	body := p.parseStatements(token.TRBrace)

	p.enclosingType = savedType
	p.popScope()

	return lxast.Statement{
		Range: nsTok.Range,
		Data:  &lxast.SNamespaceScope{Target: view.Actual, Body: body},
	}, true
}

// parseStructDecl implements "struct NAME { ... } ;": declares a new Type
// under the current namespace or enclosing type, then recurses with it as
// the enclosing type so member var/func declarations attach to it
// (spec.md §4.6).
func (p *Parser) parseStructDecl() (lxast.Statement, bool) {
	structTok := p.next() // consume "struct"

	nameTok, ok := p.expect(token.TIdentifier)
	if !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}

	t := lxast.NewType(nameTok.Text, p.currentScope().Actual, p.enclosingType)
	if p.enclosingType != nil {
		p.enclosingType.SubTypes = append(p.enclosingType.SubTypes, t)
	} else {
		p.currentScope().AddTypeToOrigin(nameTok.Text, t)
	}
	p.file.DefinedTypes = append(p.file.DefinedTypes, t)

	p.expect(token.TLBrace)

	savedType := p.enclosingType
	p.enclosingType = t
	p.parseStatements(token.TRBrace)
	p.enclosingType = savedType

	p.expect(token.TSemicolon)

	return lxast.Statement{Range: structTok.Range, Data: &lxast.STypeDecl{Target: t}}, true
}

// parseReturnStmt implements "return [expr] ;" (spec.md §4.6): valid only
// inside a function, and the empty form is valid only when the enclosing
// function's return type is void.
func (p *Parser) parseReturnStmt() (lxast.Statement, bool) {
	retTok := p.next() // consume "return"

	if p.enclosingFunction == nil {
		p.errorf(retTok.Range, "Attempting to use return statement outside of a function body")
		p.synchronize()
		return lxast.Statement{}, false
	}

	if p.peek().Kind == token.TSemicolon {
		p.next()
		returnType := p.enclosingFunction.ReturnType
		if returnType.Target == nil || returnType.Target.Name != "void" {
			p.errorf(retTok.Range, "Empty return statement not allowed in function that expects a return type")
		}
		return lxast.Statement{Range: retTok.Range, Data: &lxast.SReturn{}}, true
	}

	value := p.parseExpr(0)
	if _, ok := value.AsTypeReference(); ok {
		p.errorf(value.Range, "Cannot return a type name")
		p.expect(token.TSemicolon)
		return lxast.Statement{}, false
	}

	if !canAssignExpr(p.enclosingFunction.ReturnType, value) {
		p.errorf(value.Range, "Returned type does not match expected function return type, and cannot be converted to it")
	}

	p.expect(token.TSemicolon)
	return lxast.Statement{Range: retTok.Range, Data: &lxast.SReturn{Value: &value}}, true
}

// parseIfStmt and parseElseStmt implement "if ( cond ) body" and
// "else body" as sibling statements, matching ast.hpp's LinxcIfStatement /
// the separate LinxcStmt_Else rather than a nested if/else tree
// (SPEC_FULL.md §4; the original's ParseCompoundStmt never reached these
// cases, so the statement grammar itself is this repo's own, grounded only
// on the AST shape spec.md §3 already names).
func (p *Parser) parseIfStmt() (lxast.Statement, bool) {
	ifTok := p.next() // consume "if"

	if _, ok := p.expect(token.TLParen); !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}
	cond := p.parseExpr(0)
	p.expect(token.TRParen)

	body := p.parseBracedOrSingleStatement()

	return lxast.Statement{Range: ifTok.Range, Data: &lxast.SIf{Condition: cond, Body: body}}, true
}

func (p *Parser) parseElseStmt() (lxast.Statement, bool) {
	elseTok := p.next() // consume "else"
	body := p.parseBracedOrSingleStatement()
	return lxast.Statement{Range: elseTok.Range, Data: &lxast.SElse{Body: body}}, true
}

// parseForStmt implements "for ( init ; cond ; step ) body". Init/step each
// hold at most one clause: ast.hpp's LinxcForLoopStatement stores these as
// vectors for future comma-separated clauses, but no grammar for that was
// ever implemented upstream, so this repo covers the single-clause case.
func (p *Parser) parseForStmt() (lxast.Statement, bool) {
	forTok := p.next() // consume "for"

	if _, ok := p.expect(token.TLParen); !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}

	var init []lxast.Statement
	if p.peek().Kind != token.TSemicolon {
		if stmt, ok := p.parseForClause(); ok {
			init = append(init, stmt)
		}
	}
	p.expect(token.TSemicolon)

	var cond lxast.Expression
	if p.peek().Kind != token.TSemicolon {
		cond = p.parseExpr(0)
	}
	p.expect(token.TSemicolon)

	var step []lxast.Statement
	if p.peek().Kind != token.TRParen {
		if stmt, ok := p.parseForClause(); ok {
			step = append(step, stmt)
		}
	}
	p.expect(token.TRParen)

	body := p.parseBracedOrSingleStatement()

	return lxast.Statement{
		Range: forTok.Range,
		Data:  &lxast.SFor{Init: init, Condition: cond, Step: step, Body: body},
	}, true
}

// parseForClause parses one for-loop init/step clause: a variable
// declaration with an initializer, or a bare expression. Unlike a top-level
// VarDecl/ExprStmt, it does not consume a trailing ";" itself — the
// for-loop's own punctuation delimits clauses.
func (p *Parser) parseForClause() (lxast.Statement, bool) {
	head := p.peek()
	if head.Kind == token.TIdentifier || head.Kind.IsPrimitiveKeyword() {
		mark := p.stream.Mark()
		typeExpr := p.parseExpr(0)
		if typeRef, ok := typeExpr.AsTypeReference(); ok {
			nameTok, ok := p.expect(token.TIdentifier)
			if !ok {
				return lxast.Statement{}, false
			}
			v := &lxast.Variable{Name: nameTok.Text, Type: typeRef}
			if p.peek().Kind == token.TEqual {
				p.next()
				def := p.parseExpr(0)
				if !canAssignExpr(typeRef, def) {
					p.errorf(def.Range, "Variable's initial value is not of the same type as the variable itself, and no implicit cast was found.")
				}
				v.DefaultValue = &def
			}
			if p.locals != nil {
				p.locals[v.Name] = v
			}
			return lxast.Statement{Range: nameTok.Range, Data: &lxast.SVarDecl{Target: v}}, true
		}
		p.stream.Reset(mark)
	}

	expr := p.parseExpr(0)
	return lxast.Statement{Range: expr.Range, Data: &lxast.SExpr{Value: expr}}, true
}

// parseBracedOrSingleStatement implements spec.md §4.6's "one statement"
// compound-block terminator alongside the usual "{ ... }" form, used for
// if/else/for bodies.
func (p *Parser) parseBracedOrSingleStatement() []lxast.Statement {
	p.skipNewlines()
	if p.peek().Kind == token.TLBrace {
		p.next()
		return p.parseStatements(token.TRBrace)
	}
	stmt, ok := p.parseOneStatement()
	if !ok {
		return nil
	}
	return []lxast.Statement{stmt}
}

// parseUseLangStmt implements "uselang NAME ... enduselang": the body
// between the two keywords is stored verbatim and unevaluated
// (SPEC_FULL.md §4.5, grounded on ast.hpp's LinxcUseLang).
func (p *Parser) parseUseLangStmt() (lxast.Statement, bool) {
	tok := p.next() // consume "uselang"

	nameTok, ok := p.expect(token.TIdentifier)
	if !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}

	var body []token.Lexeme
	for {
		l := p.peek()
		if l.Kind == token.TEndUseLang || l.Kind == token.TEndOfFile {
			break
		}
		body = append(body, p.next())
	}
	if _, ok := p.expect(token.TEndUseLang); !ok {
		p.errorf(tok.Range, "Expected enduselang to close uselang block")
	}

	return lxast.Statement{
		Range: tok.Range,
		Data:  &lxast.SUseLang{Language: nameTok.Text, Body: body},
	}, true
}

// parseTypeHeadOrExpr implements spec.md §4.6's central dispatch: parse a
// full expression, and if it resolves to a type name, it's the head of a
// variable or function declaration; otherwise it's a standalone expression
// statement, only valid inside a function body.
func (p *Parser) parseTypeHeadOrExpr(isConst bool) (lxast.Statement, bool) {
	head := p.parseExpr(0)

	typeRef, isTypeHead := head.AsTypeReference()
	if !isTypeHead {
		if isConst {
			p.errorf(head.Range, "Cannot declare an expression as const")
		}
		if p.enclosingFunction == nil {
			p.errorf(head.Range, "Standalone expressions are only allowed within the body of a function")
			p.expect(token.TSemicolon)
			return lxast.Statement{}, false
		}
		p.expect(token.TSemicolon)
		return lxast.Statement{Range: head.Range, Data: &lxast.SExpr{Value: head}}, true
	}

	if isConst {
		typeRef.IsConst = true
	}

	if p.peek().Kind == token.TOperatorKeyword {
		return p.parseOperatorOverloadTail(typeRef)
	}

	nameTok, ok := p.expect(token.TIdentifier)
	if !ok {
		p.errorf(nameTok.Range, "Expected identifier after type name")
		p.synchronize()
		return lxast.Statement{}, false
	}

	switch p.peek().Kind {
	case token.TLParen:
		return p.parseFuncDeclTail(typeRef, nameTok)
	default:
		return p.parseVarDeclTail(typeRef, nameTok)
	}
}

// operatorOverloadableOps lists the binary operators a member function may
// overload via "ReturnType operator<op>(Param other) { ... }" (spec.md
// §4.5: "user-defined overloads are inserted into the left-operand's
// Type's operator map").
var operatorOverloadableOps = map[token.T]bool{
	token.TPlus: true, token.TMinus: true, token.TAsterisk: true, token.TSlash: true,
	token.TPercent: true, token.TEqualEqual: true, token.TBangEqual: true,
	token.TLess: true, token.TLessEqual: true, token.TGreater: true, token.TGreaterEqual: true,
	token.TAmpersandAmpersand: true, token.TPipePipe: true, token.TLBracket: true,
}

// parseOperatorOverloadTail implements "ReturnType operator+(Param other)
// { ... }": only valid as a member of a struct, it parses like any other
// method but additionally registers a left(enclosingType)/right(param)
// OperatorFunc in the enclosing Type's overload map (spec.md §4.5).
func (p *Parser) parseOperatorOverloadTail(returnType lxast.TypeReference) (lxast.Statement, bool) {
	opTok := p.next() // consume "operator"

	symTok := p.next()
	if !operatorOverloadableOps[symTok.Kind] {
		p.errorf(symTok.Range, "%q is not an overloadable operator", symTok.Text)
		p.synchronize()
		return lxast.Statement{}, false
	}
	if symTok.Kind == token.TLBracket {
		p.expect(token.TRBracket)
		symTok.Text = "[]"
	}

	if p.enclosingType == nil {
		p.errorf(opTok.Range, "Operator overloads may only be declared as members of a struct")
	}

	nameTok := token.Lexeme{Range: opTok.Range, Text: "operator" + symTok.Text, Kind: token.TIdentifier}

	if _, ok := p.expect(token.TLParen); !ok {
		p.synchronize()
		return lxast.Statement{}, false
	}
	args, required := p.parseFunctionArgs()

	fn := &lxast.Function{Name: nameTok.Text, ReturnType: returnType, Arguments: args, RequiredArguments: required}

	if p.enclosingType != nil {
		fn.MethodOf = p.enclosingType
		p.enclosingType.Methods = append(p.enclosingType.Methods, fn)

		if len(args) > 0 {
			leftRef := lxast.TypeReference{Target: p.enclosingType}
			key := lxast.OperatorKey(symTok.Kind, leftRef, args[0].Type)
			p.enclosingType.OperatorOverloads[key] = &lxast.OperatorFunc{Key: key, Function: fn}
		}
	}

	body := p.parseMethodBody(fn, args)

	return lxast.Statement{Range: opTok.Range, Data: &lxast.SFuncDecl{Target: fn, Body: body}}, true
}

// parseVarDeclTail implements "Type name [= expr] ;" (spec.md §4.6), adding
// the new Variable to the function's locals, the enclosing Type's members,
// or the current namespace, depending on where it was declared.
func (p *Parser) parseVarDeclTail(typeRef lxast.TypeReference, nameTok token.Lexeme) (lxast.Statement, bool) {
	v := &lxast.Variable{Name: nameTok.Text, Type: typeRef, IsConst: typeRef.IsConst}

	if p.peek().Kind == token.TEqual {
		p.next()
		def := p.parseExpr(0)
		if !canAssignExpr(typeRef, def) {
			msg := "Variable's initial value is not of the same type as the variable itself, and no implicit cast was found."
			if _, ok := lxast.LookupCast(def.ResolvesTo, typeRef, false); ok {
				msg += " An explicit cast is required."
			} else if isU8Pointer(typeRef) && isU8Pointer(def.ResolvesTo) && def.ResolvesTo.IsConst && !typeRef.IsConst {
				msg += " String literals (eg: \"Hello World\") may only be assigned to const u8*."
			}
			p.addError(def.Range.Loc, msg)
		}
		v.DefaultValue = &def
	}
	p.expect(token.TSemicolon)

	switch {
	case p.enclosingFunction != nil:
		p.locals[v.Name] = v
	case p.enclosingType != nil:
		v.MemberOf = p.enclosingType
		p.enclosingType.Variables = append(p.enclosingType.Variables, v)
	default:
		p.currentScope().AddVariableToOrigin(v.Name, v)
		p.file.DefinedVars = append(p.file.DefinedVars, v)
	}

	return lxast.Statement{Range: nameTok.Range, Data: &lxast.SVarDecl{Target: v}}, true
}

// parseFuncDeclTail implements "Type name ( args ) { body }" (spec.md
// §4.6). Inside a Type, it synthesizes a "this" variable of Type* and adds
// every member variable into the body's local scope, exactly as the
// original does right before parsing a method body.
func (p *Parser) parseFuncDeclTail(returnType lxast.TypeReference, nameTok token.Lexeme) (lxast.Statement, bool) {
	p.next() // consume "("
	args, required := p.parseFunctionArgs()

	fn := &lxast.Function{Name: nameTok.Text, ReturnType: returnType, Arguments: args, RequiredArguments: required}
	for _, a := range args {
		if a.Name == "..." {
			fn.Variadic = true
		}
	}

	if p.enclosingType != nil {
		fn.MethodOf = p.enclosingType
		p.enclosingType.Methods = append(p.enclosingType.Methods, fn)
	} else {
		fn.Namespace = p.currentScope().Actual
		p.currentScope().AddFunctionToOrigin(fn.Name, fn)
	}

	body := p.parseMethodBody(fn, args)

	return lxast.Statement{Range: nameTok.Range, Data: &lxast.SFuncDecl{Target: fn, Body: body}}, true
}

// parseMethodBody expects the opening "{", synthesizes "this" plus a copy
// of every enclosing-Type member variable into locals when fn is a method
// (exactly as the original does right before parsing a method body), parses
// the body, restores the previous local scope, and records fn on the owning
// file's DefinedFuncs list.
func (p *Parser) parseMethodBody(fn *lxast.Function, args []*lxast.Variable) []lxast.Statement {
	p.expect(token.TLBrace)

	savedLocals := p.locals
	savedFn := p.enclosingFunction
	p.locals = make(map[string]*lxast.Variable)
	p.enclosingFunction = fn

	for _, a := range args {
		if a.Name != "..." {
			p.locals[a.Name] = a
		}
	}
	if p.enclosingType != nil {
		p.locals["this"] = &lxast.Variable{
			Name: "this",
			Type: lxast.TypeReference{Target: p.enclosingType, PointerDepth: 1},
		}
		for _, member := range p.enclosingType.Variables {
			p.locals[member.Name] = member
		}
	}

	body := p.parseStatements(token.TRBrace)
	fn.Body = body

	p.locals = savedLocals
	p.enclosingFunction = savedFn
	p.file.DefinedFuncs = append(p.file.DefinedFuncs, fn)

	return body
}

// parseFunctionArgs implements spec.md §4.6's argument-list grammar: zero
// or more "[const] Type name [= default]", optionally ending in a typeless
// "...", separated by commas. Required arguments must precede any with a
// default value (grounded on ParseFunctionArgs in
// original_source/src/parser.cpp).
func (p *Parser) parseFunctionArgs() ([]*lxast.Variable, int) {
	var args []*lxast.Variable
	required := 0

	if p.peek().Kind == token.TRParen {
		p.next()
		return args, required
	}

	foundOptional := false
	foundEllipsis := false

	for {
		isConst := false
		for p.peek().Kind == token.TConst {
			p.next()
			isConst = true
		}

		if p.peek().Kind == token.TEllipsis {
			ellipsisTok := p.next()
			foundEllipsis = true
			args = append(args, &lxast.Variable{Name: "...", IsConst: isConst})
			if p.peek().Kind != token.TRParen {
				p.errorf(ellipsisTok.Range, "Input params after open-ended argument (...) are not allowed")
			}
			break
		}

		typeExpr := p.parseExpr(0)
		typeRef, ok := typeExpr.AsTypeReference()
		if !ok {
			p.errorf(typeExpr.Range, "Expression not valid as a variable type")
			break
		}
		typeRef.IsConst = isConst

		nameTok, ok := p.expect(token.TIdentifier)
		if !ok {
			break
		}

		v := &lxast.Variable{Name: nameTok.Text, Type: typeRef, IsConst: isConst}

		if p.peek().Kind == token.TEqual {
			if foundEllipsis {
				p.errorf(p.peek().Range, "Open-ended arguments (...) cannot have default values")
			}
			p.next()
			def := p.parseExpr(0)
			if canAssignExpr(typeRef, def) {
				v.DefaultValue = &def
			} else {
				p.errorf(def.Range, "Input argument's initial value is not of the same type as the argument itself, and no implicit cast was found.")
			}
			foundOptional = true
		} else {
			if foundOptional {
				p.errorf(nameTok.Range, "All function arguments without default values must be placed before those that have")
			} else {
				required++
			}
		}

		args = append(args, v)

		if p.peek().Kind == token.TRParen {
			p.next()
			break
		}
		if _, ok := p.expect(token.TComma); !ok {
			break
		}
	}

	return args, required
}

func isU8Pointer(ref lxast.TypeReference) bool {
	return ref.PointerDepth == 1 && ref.Target != nil && ref.Target.Name == "u8"
}
