// Package parser implements a recursive-descent, one-token-lookahead parser
// for the State Transition Language, producing an *ast.Module.
package parser

import (
	"fmt"
	"strconv"

	"github.com/stl-run/stl/ast"
	"github.com/stl-run/stl/lexer"
)

// ParseError reports a syntax violation at a source position.
type ParseError struct {
	Pos     lexer.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Parser holds lexer state plus the current and lookahead token.
type Parser struct {
	lex     *lexer.Lexer
	cur     lexer.Token
	peek    lexer.Token
	lexErr  error
}

// New constructs a Parser over STL source text.
func New(src string) *Parser {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	p.advance()
	return p
}

// Parse parses a complete module from src.
func Parse(src string) (*ast.Module, error) {
	return New(src).ParseModule()
}

func (p *Parser) advance() {
	p.cur = p.peek
	tok, err := p.lex.Next()
	if err != nil && p.lexErr == nil {
		p.lexErr = err
	}
	p.peek = tok
}

func (p *Parser) fail(format string, args ...interface{}) error {
	return &ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) expect(t lexer.TokenType) (lexer.Token, error) {
	if p.cur.Type != t {
		return lexer.Token{}, p.fail("expected %v, got %q", t, p.cur.Literal)
	}
	tok := p.cur
	p.advance()
	return tok, nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur.Type != lexer.IDENT {
		return "", p.fail("expected identifier, got %q", p.cur.Literal)
	}
	name := p.cur.Literal
	p.advance()
	return name, nil
}

func (p *Parser) at(t lexer.TokenType) bool { return p.cur.Type == t }

// ParseModule parses `module <name>;` followed by any ordering of
// declarations, until EOF.
func (p *Parser) ParseModule() (*ast.Module, error) {
	if p.lexErr != nil {
		return nil, p.lexErr
	}
	if _, err := p.expect(lexer.MODULE); err != nil {
		return nil, err
	}
	pos := p.cur.Pos
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}

	mod := &ast.Module{Name: name, Pos: pos}
	for p.cur.Type != lexer.EOF {
		if p.lexErr != nil {
			return nil, p.lexErr
		}
		switch p.cur.Type {
		case lexer.CONST:
			d, err := p.parseConst()
			if err != nil {
				return nil, err
			}
			mod.Constants = append(mod.Constants, d)
		case lexer.STATE:
			d, err := p.parseState()
			if err != nil {
				return nil, err
			}
			mod.States = append(mod.States, d)
		case lexer.ROLE:
			d, err := p.parseRole()
			if err != nil {
				return nil, err
			}
			mod.Roles = append(mod.Roles, d)
		case lexer.MESSAGE:
			d, err := p.parseMessage()
			if err != nil {
				return nil, err
			}
			mod.Messages = append(mod.Messages, d)
		case lexer.QUALIFIER:
			d, err := p.parseQualifier()
			if err != nil {
				return nil, err
			}
			mod.Qualifiers = append(mod.Qualifiers, d)
		case lexer.EVENT:
			d, err := p.parseEvent()
			if err != nil {
				return nil, err
			}
			mod.Events = append(mod.Events, d)
		case lexer.TRANSITION:
			d, err := p.parseTransition()
			if err != nil {
				return nil, err
			}
			mod.Transitions = append(mod.Transitions, d)
		default:
			return nil, p.fail("unexpected token %q at top level", p.cur.Literal)
		}
	}
	return mod, nil
}

func (p *Parser) parseType() (ast.Type, error) {
	switch p.cur.Type {
	case lexer.INTTYPE:
		p.advance()
		return ast.Type{Kind: "int"}, nil
	case lexer.BOOLTYPE:
		p.advance()
		return ast.Type{Kind: "bool"}, nil
	case lexer.STRINGTYPE:
		p.advance()
		return ast.Type{Kind: "string"}, nil
	case lexer.IDENT:
		name := p.cur.Literal
		p.advance()
		return ast.Type{Kind: "message", Message: name}, nil
	default:
		return ast.Type{}, p.fail("expected type, got %q", p.cur.Literal)
	}
}

func (p *Parser) parseConst() (*ast.ConstDecl, error) {
	pos := p.cur.Pos
	p.advance() // const
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return nil, err
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return &ast.ConstDecl{Pos: pos, Name: name, Type: typ, Value: val}, nil
}

func (p *Parser) parseLiteral() (ast.Expr, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case lexer.INT:
		v, err := strconv.ParseInt(p.cur.Literal, 10, 64)
		if err != nil {
			return nil, p.fail("invalid integer literal %q", p.cur.Literal)
		}
		p.advance()
		return &ast.IntLit{Pos: pos, Value: v}, nil
	case lexer.STRING:
		v := p.cur.Literal
		p.advance()
		return &ast.StringLit{Pos: pos, Value: v}, nil
	case lexer.BOOL:
		v := p.cur.Literal == "true"
		p.advance()
		return &ast.BoolLit{Pos: pos, Value: v}, nil
	default:
		return nil, p.fail("expected literal, got %q", p.cur.Literal)
	}
}

func (p *Parser) parseTypeList() ([]ast.Type, error) {
	var types []ast.Type
	for p.cur.Type != lexer.RPAREN {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, t)
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return types, nil
}

func (p *Parser) parseIdentList() ([]string, error) {
	var idents []string
	for p.cur.Type != lexer.RBRACE {
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		idents = append(idents, name)
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return idents, nil
}

func (p *Parser) parseState() (*ast.StateDecl, error) {
	pos := p.cur.Pos
	p.advance() // state
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	decl := &ast.StateDecl{Pos: pos, Name: name}
	if p.cur.Type == lexer.LPAREN {
		p.advance()
		types, err := p.parseTypeList()
		if err != nil {
			return nil, err
		}
		decl.ParamTypes = types
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	values, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	decl.Values = values
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.SEMI {
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseRole() (*ast.RoleDecl, error) {
	pos := p.cur.Pos
	p.advance() // role
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	decl := &ast.RoleDecl{Pos: pos, Name: name}
	for p.cur.Type != lexer.RBRACE {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, ast.RoleField{Name: fname, Type: typ})
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseMultiplicity() ast.FieldMultiplicity {
	switch p.cur.Type {
	case lexer.OPTIONAL:
		p.advance()
		return ast.Optional
	case lexer.REPEATED:
		p.advance()
		return ast.Repeated
	case lexer.REQUIRED:
		p.advance()
		return ast.Required
	default:
		return ast.Required
	}
}

func (p *Parser) parseMessage() (*ast.MessageDecl, error) {
	pos := p.cur.Pos
	p.advance() // message
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	decl := &ast.MessageDecl{Pos: pos, Name: name}
	if p.cur.Type == lexer.LBRACKET {
		p.advance()
		if _, err := p.expect(lexer.RBRACKET); err != nil {
			return nil, err
		}
		decl.IsArray = true
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	for p.cur.Type != lexer.RBRACE {
		switch p.cur.Type {
		case lexer.ENCODE:
			p.advance()
			tok, err := p.expect(lexer.STRING)
			if err != nil {
				return nil, err
			}
			decl.Encode = tok.Literal
			if _, err := p.expect(lexer.SEMI); err != nil {
				return nil, err
			}
		case lexer.EXTERNAL:
			p.advance()
			tok, err := p.expect(lexer.STRING)
			if err != nil {
				return nil, err
			}
			decl.External = tok.Literal
			if _, err := p.expect(lexer.SEMI); err != nil {
				return nil, err
			}
		case lexer.MESSAGE:
			nested, err := p.parseMessage()
			if err != nil {
				return nil, err
			}
			decl.Nested = append(decl.Nested, nested)
		default:
			mult := p.parseMultiplicity()
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			fname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.SEMI); err != nil {
				return nil, err
			}
			decl.Fields = append(decl.Fields, ast.FieldDecl{Name: fname, Type: typ, Multiplicity: mult})
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.SEMI {
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseQualifier() (*ast.QualifierDecl, error) {
	pos := p.cur.Pos
	p.advance() // qualifier
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	types, err := p.parseTypeList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}
	decl := &ast.QualifierDecl{Pos: pos, Name: name, ParamTypes: types, ReturnType: ret}
	if p.cur.Type == lexer.EXTERNAL {
		p.advance()
		tok, err := p.expect(lexer.STRING)
		if err != nil {
			return nil, err
		}
		decl.External = tok.Literal
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseParamList() ([]ast.EventParam, error) {
	var params []ast.EventParam
	for p.cur.Type != lexer.RPAREN {
		byRef := false
		if p.cur.Type == lexer.AMP {
			byRef = true
			p.advance()
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.EventParam{Name: name, Type: typ, ByRef: byRef})
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return params, nil
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	var args []ast.Expr
	for p.cur.Type != lexer.RPAREN {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	return args, nil
}

func (p *Parser) parseEvent() (*ast.EventDecl, error) {
	pos := p.cur.Pos
	p.advance() // event
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.RPAREN); err != nil {
		return nil, err
	}
	decl := &ast.EventDecl{Pos: pos, Name: name, Params: params, BodyKind: ast.NoOpBody}
	if p.cur.Type == lexer.ASSIGN {
		p.advance()
		if p.cur.Type == lexer.EXTERNAL {
			p.advance()
			tok, err := p.expect(lexer.STRING)
			if err != nil {
				return nil, err
			}
			decl.BodyKind = ast.ExternalEventBody
			decl.External = tok.Literal
		} else {
			callee, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.LPAREN); err != nil {
				return nil, err
			}
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			decl.BodyKind = ast.CompositeEventBody
			decl.Callee = callee
			decl.Args = args
		}
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	pos := p.cur.Pos
	switch p.cur.Type {
	case lexer.INT, lexer.STRING, lexer.BOOL:
		return p.parseLiteral()
	case lexer.DOLLAR:
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		field := ""
		if p.cur.Type == lexer.DOT {
			p.advance()
			field, err = p.expectIdent()
			if err != nil {
				return nil, err
			}
		}
		return &ast.GetRef{Pos: pos, Name: name, Field: field}, nil
	case lexer.AMP:
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		field := ""
		if p.cur.Type == lexer.DOT {
			p.advance()
			field, err = p.expectIdent()
			if err != nil {
				return nil, err
			}
		}
		return &ast.SetRef{Pos: pos, Name: name, Field: field}, nil
	case lexer.IDENT:
		name := p.cur.Literal
		p.advance()
		switch p.cur.Type {
		case lexer.LBRACE:
			return p.parseMessageLiteralFields(pos, name)
		case lexer.LBRACKET:
			return p.parseMessageArrayLiteral(pos, name)
		case lexer.LPAREN:
			p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.RPAREN); err != nil {
				return nil, err
			}
			return &ast.QualifierCallExpr{Pos: pos, Name: name, Args: args}, nil
		default:
			return &ast.Ident{Pos: pos, Name: name}, nil
		}
	default:
		return nil, p.fail("expected expression, got %q", p.cur.Literal)
	}
}

func (p *Parser) parseMessageLiteralFields(pos lexer.Position, name string) (*ast.MessageLiteral, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	lit := &ast.MessageLiteral{Pos: pos, Name: name}
	for p.cur.Type != lexer.RBRACE {
		fa, err := p.parseFieldAssign()
		if err != nil {
			return nil, err
		}
		lit.Fields = append(lit.Fields, fa)
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	return lit, nil
}

func (p *Parser) parseFieldAssign() (ast.FieldAssign, error) {
	pos := p.cur.Pos
	fname, err := p.expectIdent()
	if err != nil {
		return ast.FieldAssign{}, err
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return ast.FieldAssign{}, err
	}
	fa := ast.FieldAssign{Pos: pos, Field: fname}

	// A call `Ident(args)` is ambiguous between a qualifier-write
	// (`Qualifier(args) -> localVar`) and a plain qualifier-call value
	// expression; both share the same prefix, so parse the call once and
	// decide based on whether an arrow follows.
	if p.cur.Type == lexer.IDENT && p.peek.Type == lexer.LPAREN {
		qname := p.cur.Literal
		p.advance()
		p.advance() // consume '('
		args, err := p.parseArgList()
		if err != nil {
			return ast.FieldAssign{}, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return ast.FieldAssign{}, err
		}
		if p.cur.Type == lexer.ARROW {
			p.advance()
			target, err := p.expectIdent()
			if err != nil {
				return ast.FieldAssign{}, err
			}
			if _, err := p.expect(lexer.SEMI); err != nil {
				return ast.FieldAssign{}, err
			}
			fa.Qualifier = qname
			fa.QualArgs = args
			fa.WriteTo = &ast.SetRef{Pos: pos, Name: target}
			return fa, nil
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return ast.FieldAssign{}, err
		}
		fa.Value = &ast.QualifierCallExpr{Pos: pos, Name: qname, Args: args}
		return fa, nil
	}

	val, err := p.parseExpr()
	if err != nil {
		return ast.FieldAssign{}, err
	}
	if _, err := p.expect(lexer.SEMI); err != nil {
		return ast.FieldAssign{}, err
	}
	fa.Value = val
	return fa, nil
}

func (p *Parser) parseMessageArrayLiteral(pos lexer.Position, name string) (*ast.MessageArrayLiteral, error) {
	if _, err := p.expect(lexer.LBRACKET); err != nil {
		return nil, err
	}
	arr := &ast.MessageArrayLiteral{Pos: pos, Name: name}
	for p.cur.Type != lexer.RBRACKET {
		elemPos := p.cur.Pos
		elem, err := p.parseMessageLiteralFields(elemPos, name)
		if err != nil {
			return nil, err
		}
		arr.Elements = append(arr.Elements, elem)
		if p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACKET); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *Parser) parseTransition() (*ast.TransitionDecl, error) {
	pos := p.cur.Pos
	p.advance() // transition
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	decl := &ast.TransitionDecl{Pos: pos, Name: name}
	if p.cur.Type == lexer.LPAREN {
		p.advance()
		params, err := p.parseParamList()
		if err != nil {
			return nil, err
		}
		decl.Params = params
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	for p.cur.Type != lexer.RBRACE {
		switch p.cur.Type {
		case lexer.PRE_STATES:
			p.advance()
			states, err := p.parseStateRefOrSetBlock()
			if err != nil {
				return nil, err
			}
			decl.PreStates = states
		case lexer.POST_STATES:
			p.advance()
			states, err := p.parseStateRefBlock()
			if err != nil {
				return nil, err
			}
			decl.PostStates = states
		case lexer.ERROR_STATES:
			p.advance()
			states, err := p.parseStateRefBlock()
			if err != nil {
				return nil, err
			}
			decl.ErrorStates = states
		case lexer.EVENTS:
			p.advance()
			events, err := p.parseTransitionEventsBlock()
			if err != nil {
				return nil, err
			}
			decl.Events = events
		case lexer.INTTYPE, lexer.BOOLTYPE, lexer.STRINGTYPE, lexer.IDENT:
			typ, err := p.parseType()
			if err != nil {
				return nil, err
			}
			lname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.SEMI); err != nil {
				return nil, err
			}
			decl.Locals = append(decl.Locals, ast.TransitionLocal{Name: lname, Type: typ})
		default:
			return nil, p.fail("unexpected token %q in transition body", p.cur.Literal)
		}
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.SEMI {
		p.advance()
	}
	return decl, nil
}

func (p *Parser) parseStateRef() (ast.StateRef, error) {
	pos := p.cur.Pos
	name, err := p.expectIdent()
	if err != nil {
		return ast.StateRef{}, err
	}
	ref := ast.StateRef{Pos: pos, Name: name}
	if p.cur.Type == lexer.LPAREN {
		p.advance()
		args, err := p.parseArgList()
		if err != nil {
			return ast.StateRef{}, err
		}
		ref.Params = args
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return ast.StateRef{}, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN); err != nil {
		return ast.StateRef{}, err
	}
	value, err := p.expectIdent()
	if err != nil {
		return ast.StateRef{}, err
	}
	ref.Value = value
	return ref, nil
}

func (p *Parser) parseStateRefBlock() ([]ast.StateRef, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var refs []ast.StateRef
	for p.cur.Type != lexer.RBRACE {
		ref, err := p.parseStateRef()
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
		if p.cur.Type == lexer.SEMI || p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.SEMI {
		p.advance()
	}
	return refs, nil
}

func (p *Parser) parseStateRefOrSetBlock() ([]ast.StateRefOrSet, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var sets []ast.StateRefOrSet
	for p.cur.Type != lexer.RBRACE {
		first, err := p.parseStateRef()
		if err != nil {
			return nil, err
		}
		set := ast.StateRefOrSet{Alternatives: []ast.StateRef{first}}
		for p.cur.Type == lexer.STAR {
			p.advance()
			alt, err := p.parseAltValue(first)
			if err != nil {
				return nil, err
			}
			set.Alternatives = append(set.Alternatives, alt)
		}
		sets = append(sets, set)
		if p.cur.Type == lexer.SEMI || p.cur.Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.SEMI {
		p.advance()
	}
	return sets, nil
}

// parseAltValue reads an additional OR-set value name sharing base's
// instance identity (decl name and params).
func (p *Parser) parseAltValue(base ast.StateRef) (ast.StateRef, error) {
	value, err := p.expectIdent()
	if err != nil {
		return ast.StateRef{}, err
	}
	alt := base
	alt.Value = value
	return alt, nil
}

func (p *Parser) parseTransitionEventsBlock() ([]ast.TransitionEvent, error) {
	if _, err := p.expect(lexer.LBRACE); err != nil {
		return nil, err
	}
	var events []ast.TransitionEvent
	for p.cur.Type != lexer.RBRACE {
		pos := p.cur.Pos
		source, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ARROW); err != nil {
			return nil, err
		}
		callee, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.LPAREN); err != nil {
			return nil, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RPAREN); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ARROW); err != nil {
			return nil, err
		}
		target, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI); err != nil {
			return nil, err
		}
		events = append(events, ast.TransitionEvent{
			Pos: pos, Source: source, Callee: callee, Args: args, Target: target,
		})
	}
	if _, err := p.expect(lexer.RBRACE); err != nil {
		return nil, err
	}
	if p.cur.Type == lexer.SEMI {
		p.advance()
	}
	return events, nil
}
