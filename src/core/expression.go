package core

import (
	"minic/src/token"

	"tinygo.org/x/go-llvm"
)

// compileExpression lowers one source expression to an IR value. The
// returnHint is threaded through as the symbolic name of the produced
// value purely for readable IR; it has no semantic effect (§4.5).
func (c *Compiler) compileExpression(cur *TokenCursor, local map[string]Symbol, returnHint string) (llvm.Value, error) {
	lead, err := cur.advance()
	if err != nil {
		return llvm.Value{}, err
	}
	if lead.Kind != token.Ident {
		return llvm.Value{}, mismatch("call, literal, or a variable name", lead)
	}

	switch lead.Text {
	case "call":
		return c.compileCall(cur, local, returnHint)
	case "literal":
		return c.compileLiteral(cur, local)
	default:
		sym, err := c.env.Lookup(lead.Text, local, lead.Span)
		if err != nil {
			return llvm.Value{}, err
		}
		if sym.Addressable {
			return c.builder.CreateLoad(sym.Value, ""), nil
		}
		return sym.Value, nil
	}
}

// operators maps the closed set of recognized operator strings to the
// instruction they lower to (§4.5.1). Each entry's build function emits
// that instruction; comparisons call CreateICmp with their predicate.
type binOp struct {
	build func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value
}

var operators = map[string]binOp{
	"+": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value { return b.CreateAdd(a, bv, name) }},
	"-": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value { return b.CreateSub(a, bv, name) }},
	"*": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value { return b.CreateMul(a, bv, name) }},
	"/": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value { return b.CreateSDiv(a, bv, name) }},
	"&": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value { return b.CreateAnd(a, bv, name) }},
	"|": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value { return b.CreateOr(a, bv, name) }},
	">": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value {
		return b.CreateICmp(llvm.IntSGT, a, bv, name)
	}},
	">=": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value {
		return b.CreateICmp(llvm.IntSGE, a, bv, name)
	}},
	"<": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value {
		return b.CreateICmp(llvm.IntSLT, a, bv, name)
	}},
	"<=": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value {
		return b.CreateICmp(llvm.IntSLE, a, bv, name)
	}},
	"==": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value {
		return b.CreateICmp(llvm.IntEQ, a, bv, name)
	}},
	"!=": {func(b llvm.Builder, a, bv llvm.Value, name string) llvm.Value {
		return b.CreateICmp(llvm.IntNE, a, bv, name)
	}},
}

// compileCall parses `call <callee> ( "with" <arg>* "end" | "end" )` and
// emits either an operator instruction or a named function call.
func (c *Compiler) compileCall(cur *TokenCursor, local map[string]Symbol, returnHint string) (llvm.Value, error) {
	calleeTok, err := cur.peek()
	if err != nil {
		return llvm.Value{}, err
	}

	var calleeName string
	isOperator := calleeTok.Kind == token.Particle
	if isOperator {
		calleeName, err = c.readOperator(cur)
		if err != nil {
			return llvm.Value{}, err
		}
	} else {
		t, err := cur.advance()
		if err != nil {
			return llvm.Value{}, err
		}
		if t.Kind != token.Ident {
			return llvm.Value{}, mismatch("callee", t)
		}
		calleeName = t.Text
	}

	term, err := cur.advance()
	if err != nil {
		return llvm.Value{}, err
	}
	if term.Kind != token.Ident {
		return llvm.Value{}, mismatch("with or end", term)
	}

	var args []llvm.Value
	if term.Text == "with" {
		for {
			peeked, err := cur.peek()
			if err != nil {
				return llvm.Value{}, err
			}
			if peeked.Kind == token.Ident && peeked.Text == "end" {
				cur.advance()
				break
			}
			v, err := c.compileExpression(cur, local, "")
			if err != nil {
				return llvm.Value{}, err
			}
			args = append(args, v)
		}
	} else if term.Text != "end" {
		return llvm.Value{}, mismatch("with or end", term)
	}

	if isOperator {
		op, ok := operators[calleeName]
		if !ok {
			return llvm.Value{}, &Error{Kind: Unimplemented, Span: calleeTok.Span, Feature: "operator " + calleeName}
		}
		if len(args) != 2 {
			return llvm.Value{}, mismatch("exactly two operands for operator "+calleeName, term)
		}
		// §4.5.1: the last parsed argument is the right-hand operand.
		lhs, rhs := args[0], args[1]
		return op.build(c.builder, lhs, rhs, returnHint), nil
	}

	sym, err := c.env.Lookup(calleeName, local, calleeTok.Span)
	if err != nil {
		return llvm.Value{}, err
	}
	return c.builder.CreateCall(sym.Value, args, returnHint), nil
}

// readOperator coalesces the leading Particle token with every
// immediately-following Particle whose preceding token's JoinedToNext
// flag is true, reconstructing multi-character operators like >=.
func (c *Compiler) readOperator(cur *TokenCursor) (string, error) {
	first, err := cur.advance()
	if err != nil {
		return "", err
	}
	op := first.Text
	joined := first.JoinedToNext
	for joined {
		next, err := cur.peek()
		if err != nil {
			return "", err
		}
		if next.Kind != token.Particle {
			break
		}
		cur.advance()
		op += next.Text
		joined = next.JoinedToNext
	}
	return op, nil
}

// compileLiteral lowers `literal <type> <literal-token>` (§4.5.2).
func (c *Compiler) compileLiteral(cur *TokenCursor, local map[string]Symbol) (llvm.Value, error) {
	typTok, err := cur.advance()
	if err != nil {
		return llvm.Value{}, err
	}
	if typTok.Kind != token.Ident {
		return llvm.Value{}, mismatch("type keyword", typTok)
	}
	ty, err := typeOf(c.ctx, typTok.Text, typTok.Span)
	if err != nil {
		return llvm.Value{}, err
	}

	litTok, err := cur.advance()
	if err != nil {
		return llvm.Value{}, err
	}
	if litTok.Kind != token.Literal {
		return llvm.Value{}, &Error{Kind: MalformedLiteral, Span: litTok.Span}
	}

	switch litTok.Lit.Kind {
	case token.LitString:
		return c.builder.CreateGlobalStringPtr(litTok.Lit.Str, ""), nil
	case token.LitInteger:
		return llvm.ConstInt(ty, uint64(litTok.Lit.Int), false), nil
	case token.LitBool:
		v := uint64(0)
		if litTok.Lit.Bool {
			v = 1
		}
		return llvm.ConstInt(c.ctx.Int1Type(), v, false), nil
	case token.LitChar:
		return llvm.Value{}, &Error{Kind: Unimplemented, Span: litTok.Span, Feature: "char literals"}
	case token.LitFloat:
		return llvm.Value{}, &Error{Kind: Unimplemented, Span: litTok.Span, Feature: "float literals"}
	default:
		return llvm.Value{}, &Error{Kind: MalformedLiteral, Span: litTok.Span}
	}
}
