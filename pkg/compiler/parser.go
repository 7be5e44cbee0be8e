package compiler

// Parser consumes the flat token slice produced by the Lexer and builds the
// syntax tree.
//
// Grammar:
//
//	program        = (funcDecl | statement)* EOF
//	funcDecl       = type IDENTIFIER "(" [param ("," param)*] ")" block
//	param          = type IDENTIFIER
//	statement      = varDecl | assignment | returnStmt | ifStmt | block | callStmt
//	varDecl        = type IDENTIFIER ";"
//	assignment     = IDENTIFIER "=" expression ";"
//	returnStmt     = "return" [expression] ";"
//	ifStmt         = "if" "(" expression ")" block ["else" block]
//	block          = "{" statement* "}"
//	callStmt       = IDENTIFIER "(" [args] ")" ";"
//	type           = "int" | "float" | "char" | "void"
//	expression     = logical_or
//	logical_or     = logical_and ("||" logical_and)*
//	logical_and    = equality ("&&" equality)*
//	equality       = relational (("==" | "!=") relational)*
//	relational     = additive (("<" | ">" | "<=" | ">=") additive)*
//	additive       = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = unary (("*" | "/" | "%") unary)*
//	unary          = "!" unary | primary
//	primary        = INTEGER | DECIMAL | CHARACTER | IDENTIFIER
//	               | IDENTIFIER "(" [args] ")" | "(" expression ")"
type Parser struct {
	tokens      []Token
	pos         int
	sourceLines []string
}

func NewParser(tokens []Token, rawSource string) *Parser {
	return &Parser{tokens: tokens, sourceLines: splitLines(rawSource)}
}

// fmtError wraps an error message with the source line where the token appears.
func (p *Parser) fmtError(tok Token, format string, args ...any) error {
	return newSourceError(StageSyntactic, tok.Line, tok.Col, snippetAt(p.sourceLines, tok.Line), format, args...)
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos]
}

// peekAt returns the token at the given offset from the current position.
func (p *Parser) peekAt(offset int) Token {
	if p.pos+offset >= len(p.tokens) {
		return Token{Type: EOF}
	}
	return p.tokens[p.pos+offset]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the current token if it matches tt, otherwise returns an error.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.advance()
	if tok.Type != tt {
		return tok, p.fmtError(tok, "expected %s, got %s (%q)", tt, tok.Type, tok.Lexeme)
	}
	return tok, nil
}

// atFunctionDecl reports whether the upcoming tokens start `type name (`.
func (p *Parser) atFunctionDecl() bool {
	return p.peek().Type.IsType() && p.peekAt(1).Type == IDENTIFIER && p.peekAt(2).Type == LPAREN
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseBinary(0)
}

// precedence lists the binary operator levels from loosest to tightest.
var precedence = [][]TokenType{
	{OR_LOGICAL},
	{AND_LOGICAL},
	{EQUALS, NOT_EQ},
	{LESS, GREATER, LESS_EQ, GREATER_EQ},
	{PLUS, MINUS},
	{STAR, SLASH, PERCENT},
}

func atLevel(level int, tt TokenType) bool {
	for _, op := range precedence[level] {
		if op == tt {
			return true
		}
	}
	return false
}

// parseBinary parses a left-associative chain of operators at the given
// precedence level, delegating operands to the next tighter level.
func (p *Parser) parseBinary(level int) (Expr, error) {
	if level == len(precedence) {
		return p.parseUnary()
	}
	expr, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for atLevel(level, p.peek().Type) {
		opTok := p.advance()
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		expr = &BinaryExpr{Op: opTok.Type, Left: expr, Right: right, Line: opTok.Line}
	}
	return expr, nil
}

// parseUnary handles prefix "!".
func (p *Parser) parseUnary() (Expr, error) {
	if p.peek().Type == NOT {
		tok := p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{X: x, Line: tok.Line}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parseCallArgs() ([]Expr, error) {
	var args []Expr
	if p.peek().Type == RPAREN {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.peek().Type != COMMA {
			break
		}
		p.advance()
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.advance()
	switch tok.Type {
	case INTEGER:
		return &IntLit{Text: tok.Lexeme, Line: tok.Line}, nil
	case DECIMAL:
		return &DecimalLit{Text: tok.Lexeme, Line: tok.Line}, nil
	case CHARACTER:
		return &CharLit{Text: tok.Lexeme, Line: tok.Line}, nil
	case IDENTIFIER:
		if p.peek().Type == LPAREN {
			p.advance()
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Name: tok.Lexeme, Args: args, Line: tok.Line}, nil
		}
		return &Ident{Name: tok.Lexeme, Line: tok.Line}, nil
	case LPAREN:
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return &ParenExpr{X: inner}, nil
	}
	return nil, p.fmtError(tok, "unexpected %s (%q) in expression", tok.Type, tok.Lexeme)
}

func (p *Parser) parseVarDecl() (Stmt, error) {
	typeTok := p.advance()
	nameTok, err := p.expect(IDENTIFIER)
	if err != nil {
		return nil, err
	}
	if p.peek().Type == ASSIGN {
		return nil, p.fmtError(p.peek(), "declarations cannot have an initializer; assign %s separately", nameTok.Lexeme)
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &VarDecl{Type: typeTok.Type, Name: nameTok.Lexeme, Line: nameTok.Line}, nil
}

func (p *Parser) parseAssignment() (Stmt, error) {
	nameTok := p.advance()
	p.advance() // =
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Assignment{Name: nameTok.Lexeme, Value: value, Line: nameTok.Line}, nil
}

func (p *Parser) parseCallStmt() (Stmt, error) {
	nameTok := p.advance()
	p.advance() // (
	args, err := p.parseCallArgs()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &CallStmt{Call: &CallExpr{Name: nameTok.Lexeme, Args: args, Line: nameTok.Line}}, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	tok := p.advance() // return
	if p.peek().Type == SEMICOLON {
		p.advance()
		return &ReturnStmt{Line: tok.Line}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &ReturnStmt{Value: value, Line: tok.Line}, nil
}

// parseBlock parses { statement* }. The opening brace must be next.
func (p *Parser) parseBlock() (*BlockStmt, error) {
	open, err := p.expect(LBRACE)
	if err != nil {
		return nil, err
	}
	block := &BlockStmt{Line: open.Line}
	for p.peek().Type != RBRACE && p.peek().Type != EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Stmts = append(block.Stmts, stmt)
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return block, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	tok := p.advance() // if
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	stmt := &IfStmt{Cond: cond, Then: then, Line: tok.Line}
	if p.peek().Type == ELSE {
		p.advance()
		if stmt.Else, err = p.parseBlock(); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.peek()
	switch tok.Type {
	case LBRACE:
		return p.parseBlock()

	case IF:
		return p.parseIf()

	case RETURN:
		return p.parseReturn()

	case INT, FLOAT, CHAR, VOID:
		if p.atFunctionDecl() {
			return nil, p.fmtError(p.peekAt(1), "function %s must be declared at top level", p.peekAt(1).Lexeme)
		}
		return p.parseVarDecl()

	case IDENTIFIER:
		switch p.peekAt(1).Type {
		case ASSIGN:
			return p.parseAssignment()
		case LPAREN:
			return p.parseCallStmt()
		}
		next := p.peekAt(1)
		return nil, p.fmtError(next, "expected '=' or '(' after %s, got %s (%q)", tok.Lexeme, next.Type, next.Lexeme)
	}

	p.advance()
	return nil, p.fmtError(tok, "unexpected token %s (%q)", tok.Type, tok.Lexeme)
}

func (p *Parser) parseFunctionDecl() (*FunctionDecl, error) {
	typeTok := p.advance()
	nameTok := p.advance()
	p.advance() // (

	fn := &FunctionDecl{Name: nameTok.Lexeme, ReturnType: typeTok.Type, Line: nameTok.Line}
	if p.peek().Type != RPAREN {
		for {
			ptype := p.advance()
			if !ptype.Type.IsType() {
				return nil, p.fmtError(ptype, "expected parameter type, got %s (%q)", ptype.Type, ptype.Lexeme)
			}
			if ptype.Type == VOID {
				return nil, p.fmtError(ptype, "parameter cannot have type void")
			}
			pname, err := p.expect(IDENTIFIER)
			if err != nil {
				return nil, err
			}
			fn.Params = append(fn.Params, Param{Type: ptype.Type, Name: pname.Lexeme, Line: pname.Line})

			if p.peek().Type != COMMA {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	fn.Body = body
	return fn, nil
}

// Parse builds the syntax tree for a whole program. It stops at the first
// syntax error and returns it as a *SourceError.
func Parse(tokens []Token, rawSource string) (*Program, error) {
	p := NewParser(tokens, rawSource)
	prog := &Program{}
	for p.peek().Type != EOF {
		if p.atFunctionDecl() {
			f, err := p.parseFunctionDecl()
			if err != nil {
				return nil, err
			}
			prog.Stmts = append(prog.Stmts, f)
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog, nil
}

// ParseSource lexes and parses src in one step.
func ParseSource(src string) (*Program, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, src)
}
