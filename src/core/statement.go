package core

import "minic/src/token"

// compileStatement reads one leading identifier and dispatches (§4.6). It
// returns whether the statement unconditionally diverges — terminates the
// current basic block — which ControlFlowEmitter uses to suppress dead
// join edges.
func (c *Compiler) compileStatement(cur *TokenCursor, local map[string]Symbol) (bool, error) {
	lead, err := cur.advance()
	if err != nil {
		return false, err
	}
	if lead.Kind != token.Ident {
		return false, mismatch("a statement", lead)
	}

	switch lead.Text {
	case "var":
		return false, c.compileVarCreate(cur, local)
	case "let":
		return false, c.compileLetCreate(cur, local)
	case "update":
		return false, c.compileUpdate(cur, local)
	case "return":
		return true, c.compileReturn(cur, local)
	case "if":
		return c.compileIf(cur, local)
	case "while":
		return false, c.compileWhile(cur, local)
	default:
		cur.rewind()
		_, err := c.compileExpression(cur, local, "")
		return false, err
	}
}

// compileVarCreate lowers `var <type> <name> is <expr>`: allocate a stack
// slot, store the expression's value into it, bind name addressable.
func (c *Compiler) compileVarCreate(cur *TokenCursor, local map[string]Symbol) error {
	typTok, err := cur.advance()
	if err != nil {
		return err
	}
	if typTok.Kind != token.Ident {
		return mismatch("type", typTok)
	}
	ty, err := typeOf(c.ctx, typTok.Text, typTok.Span)
	if err != nil {
		return err
	}

	nameTok, err := cur.advance()
	if err != nil {
		return err
	}
	if nameTok.Kind != token.Ident {
		return mismatch("variable name", nameTok)
	}

	if err := c.expectIdent(cur, "is"); err != nil {
		return err
	}
	v, err := c.compileExpression(cur, local, nameTok.Text)
	if err != nil {
		return err
	}

	slot := c.builder.CreateAlloca(ty, nameTok.Text)
	c.builder.CreateStore(v, slot)
	local[nameTok.Text] = Symbol{Value: slot, Addressable: true}
	return nil
}

// compileLetCreate lowers `let <type> <name> be <expr>`: evaluate the
// expression and bind name directly to the resulting value. The
// declared type is validated (an unknown keyword is still UnknownType)
// but, matching the original's untyped varmap, no coercion is performed
// and the type itself is not retained on the binding.
func (c *Compiler) compileLetCreate(cur *TokenCursor, local map[string]Symbol) error {
	typTok, err := cur.advance()
	if err != nil {
		return err
	}
	if typTok.Kind != token.Ident {
		return mismatch("type", typTok)
	}
	if _, err := typeOf(c.ctx, typTok.Text, typTok.Span); err != nil {
		return err
	}

	nameTok, err := cur.advance()
	if err != nil {
		return err
	}
	if nameTok.Kind != token.Ident {
		return mismatch("variable name", nameTok)
	}

	if err := c.expectIdent(cur, "be"); err != nil {
		return err
	}
	v, err := c.compileExpression(cur, local, nameTok.Text)
	if err != nil {
		return err
	}

	local[nameTok.Text] = Symbol{Value: v, Addressable: false}
	return nil
}

// compileUpdate lowers `update <name> to <expr>`: resolve name (expected
// addressable — not formally enforced, §9), evaluate, store.
func (c *Compiler) compileUpdate(cur *TokenCursor, local map[string]Symbol) error {
	nameTok, err := cur.advance()
	if err != nil {
		return err
	}
	if nameTok.Kind != token.Ident {
		return mismatch("variable name", nameTok)
	}
	sym, err := c.env.Lookup(nameTok.Text, local, nameTok.Span)
	if err != nil {
		return err
	}

	if err := c.expectIdent(cur, "to"); err != nil {
		return err
	}
	v, err := c.compileExpression(cur, local, nameTok.Text)
	if err != nil {
		return err
	}

	c.builder.CreateStore(v, sym.Value)
	return nil
}

// compileReturn lowers `return end` or `return <expr>`. A returned value
// is emitted as is: it is not checked against the enclosing function's
// declared return type, so a void function may return a value.
func (c *Compiler) compileReturn(cur *TokenCursor, local map[string]Symbol) error {
	peeked, err := cur.peek()
	if err != nil {
		return err
	}
	if peeked.Kind == token.Ident && peeked.Text == "end" {
		cur.advance()
		c.builder.CreateRetVoid()
		return nil
	}
	v, err := c.compileExpression(cur, local, "")
	if err != nil {
		return err
	}
	c.builder.CreateRet(v)
	return nil
}

// expectIdent consumes the next token and fails unless it is the Ident
// kind with the given text.
func (c *Compiler) expectIdent(cur *TokenCursor, text string) error {
	t, err := cur.advance()
	if err != nil {
		return err
	}
	if t.Kind != token.Ident || t.Text != text {
		return mismatch(text, t)
	}
	return nil
}
