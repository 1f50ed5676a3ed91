package core

import (
	"minic/src/token"

	"tinygo.org/x/go-llvm"
)

// compileStatementsUntil compiles statements against env until the next
// token is one of the given stop keywords (peeked, not consumed). It
// returns true if any compiled statement diverged — once set, later
// statements in the same arm do not clear it, matching the source: a
// dead statement following a `return` is still parsed (and still
// emitted, landing after the block's terminator) rather than skipped.
func (c *Compiler) compileStatementsUntil(cur *TokenCursor, env map[string]Symbol, stop ...string) (bool, error) {
	diverges := false
	for {
		peeked, err := cur.peek()
		if err != nil {
			return diverges, err
		}
		if peeked.Kind == token.Ident {
			for _, s := range stop {
				if peeked.Text == s {
					return diverges, nil
				}
			}
		}
		d, err := c.compileStatement(cur, env)
		if err != nil {
			return diverges, err
		}
		if d {
			diverges = true
		}
	}
}

// compileIf lowers the top-level `if` of §4.7.1. Exactly one `end`
// token closes the entire if/elif*/else? chain per the grammar; elif
// arms are handled by compileIfArm recursing without separately
// expecting their own `end` — only the innermost arm that terminates
// in a plain `else`/`end` consumes it.
func (c *Compiler) compileIf(cur *TokenCursor, local map[string]Symbol) (bool, error) {
	return c.compileIfArm(cur, local)
}

func (c *Compiler) compileIfArm(cur *TokenCursor, local map[string]Symbol) (bool, error) {
	condVal, err := c.compileExpression(cur, local, "")
	if err != nil {
		return false, err
	}
	if err := c.expectIdent(cur, "do"); err != nil {
		return false, err
	}

	thenBlock := llvm.AddBasicBlock(c.fn, "then")
	elseBlock := llvm.AddBasicBlock(c.fn, "else")
	contBlock := llvm.AddBasicBlock(c.fn, "cont")

	c.builder.CreateCondBr(condVal, thenBlock, elseBlock)

	c.builder.SetInsertPointAtEnd(thenBlock)
	thenEnv := cloneScope(local)
	thenDiverges, err := c.compileStatementsUntil(cur, thenEnv, "end", "else", "elif")
	if err != nil {
		return false, err
	}
	if !thenDiverges {
		c.builder.CreateBr(contBlock)
	}

	continuator, err := cur.advance()
	if err != nil {
		return false, err
	}
	if continuator.Kind != token.Ident {
		return false, mismatch("end, else, or elif", continuator)
	}

	c.builder.SetInsertPointAtEnd(elseBlock)
	elseEnv := cloneScope(local)
	var elseDiverges bool
	switch continuator.Text {
	case "end":
		// Empty else block: falls straight through to cont.
	case "elif":
		elseDiverges, err = c.compileIfArm(cur, elseEnv)
		if err != nil {
			return false, err
		}
	case "else":
		elseDiverges, err = c.compileStatementsUntil(cur, elseEnv, "end")
		if err != nil {
			return false, err
		}
		if err := c.expectIdent(cur, "end"); err != nil {
			return false, err
		}
	default:
		return false, mismatch("end, else, or elif", continuator)
	}

	if !elseDiverges {
		c.builder.CreateBr(contBlock)
	}
	c.builder.SetInsertPointAtEnd(contBlock)
	return thenDiverges && elseDiverges, nil
}

// compileWhile lowers `while <cond-expr> do <stmt>* end` (§4.7.2). While
// never diverges: control always reaches the continuation block,
// whether by the condition failing or by falling out of a non-
// terminating body.
func (c *Compiler) compileWhile(cur *TokenCursor, local map[string]Symbol) error {
	condBlock := llvm.AddBasicBlock(c.fn, "cond")
	bodyBlock := llvm.AddBasicBlock(c.fn, "body")
	contBlock := llvm.AddBasicBlock(c.fn, "whilecont")

	c.builder.CreateBr(condBlock)
	c.builder.SetInsertPointAtEnd(condBlock)
	condVal, err := c.compileExpression(cur, local, "")
	if err != nil {
		return err
	}
	if err := c.expectIdent(cur, "do"); err != nil {
		return err
	}
	c.builder.CreateCondBr(condVal, bodyBlock, contBlock)

	c.builder.SetInsertPointAtEnd(bodyBlock)
	bodyEnv := cloneScope(local)
	diverges, err := c.compileStatementsUntil(cur, bodyEnv, "end")
	if err != nil {
		return err
	}
	if err := c.expectIdent(cur, "end"); err != nil {
		return err
	}
	if !diverges {
		c.builder.CreateBr(condBlock)
	}

	c.builder.SetInsertPointAtEnd(contBlock)
	return nil
}
