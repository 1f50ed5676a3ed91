// Package core implements the single-pass recursive-descent parser and
// LLVM IR code generator at the heart of minic: the component that walks
// a token.Token stream, maintains the two-level symbol environment,
// constructs typed IR values, lays out basic blocks for if/elif/else and
// while, lowers operators, and synthesizes the entry point that calls the
// user's main.
package core

import (
	"minic/src/token"

	"tinygo.org/x/go-llvm"
)

// entryUserMainIRName is the IR-level name given to a user-defined
// function named "main", so it never collides with the synthesized IR
// entry point (also named "main" in the emitted module). Source-level
// lookups still use the name "main" — only the IR symbol is renamed; see
// SPEC_FULL.md's "Entry-point name collision" resolution.
const entryUserMainIRName = "__user_main"

// Compiler holds the single-threaded, exclusively-owned state of one
// compile: the LLVM context/module/builder, the global symbol
// environment, and (while a function body is being compiled) the
// function currently being emitted into. Nothing here is touched
// concurrently — §5 requires the whole core be synchronous.
type Compiler struct {
	ctx     llvm.Context
	module  llvm.Module
	builder llvm.Builder
	env     *Env
	fn      llvm.Value
}

// Compile consumes the entire token stream and returns a completed LLVM
// module, or the first structured Error encountered. There is no partial
// recovery: the first failure aborts the whole compile (§7).
func Compile(ctx llvm.Context, moduleName string, toks []token.Token) (llvm.Module, error) {
	c := &Compiler{
		ctx:    ctx,
		module: ctx.NewModule(moduleName),
		env:    NewEnv(),
	}
	c.builder = ctx.NewBuilder()
	defer c.builder.Dispose()

	cur := NewTokenCursor(toks)
	for {
		_, err := cur.peek()
		if err != nil {
			break // UnexpectedEOF from peek just means "no more top-level forms".
		}
		lead, err := cur.advance()
		if err != nil {
			return llvm.Module{}, err
		}
		if lead.Kind != token.Ident {
			return llvm.Module{}, mismatch("const, extern, or fn", lead)
		}
		switch lead.Text {
		case "const":
			if err := c.compileGlobalConst(cur); err != nil {
				return llvm.Module{}, err
			}
		case "extern":
			if err := c.compileExtern(cur); err != nil {
				return llvm.Module{}, err
			}
		case "fn":
			if err := c.compileFn(cur); err != nil {
				return llvm.Module{}, err
			}
		default:
			return llvm.Module{}, mismatch("const, extern, or fn", lead)
		}
	}

	if err := c.synthesizeEntry(); err != nil {
		return llvm.Module{}, err
	}
	return c.module, nil
}

// compileGlobalConst lowers `const <type> <name> is <string-literal>`.
// Only string constants are supported — the original this spec is
// grounded on (compile_global_const) only ever matches Literal::String,
// so any other literal kind here is MalformedLiteral, not silently
// coerced. The <type-keyword> is parsed but unused, matching the
// original exactly.
func (c *Compiler) compileGlobalConst(cur *TokenCursor) error {
	if _, err := c.expectIdentAny(cur, "type keyword"); err != nil {
		return err
	}
	nameTok, err := cur.advance()
	if err != nil {
		return err
	}
	if nameTok.Kind != token.Ident {
		return mismatch("constant name", nameTok)
	}
	if err := c.expectIdent(cur, "is"); err != nil {
		return err
	}
	litTok, err := cur.advance()
	if err != nil {
		return err
	}
	if litTok.Kind != token.Literal || litTok.Lit.Kind != token.LitString {
		return &Error{Kind: MalformedLiteral, Span: litTok.Span}
	}

	// The top-level builder has no insertion block here, so the global is
	// added to the module directly instead of through CreateGlobalStringPtr.
	str := c.ctx.ConstString(litTok.Lit.Str, true)
	g := llvm.AddGlobal(c.module, str.Type(), nameTok.Text)
	g.SetInitializer(str)
	g.SetGlobalConstant(true)
	g.SetLinkage(llvm.PrivateLinkage)
	p := llvm.ConstBitCast(g, llvm.PointerType(c.ctx.Int8Type(), 0))
	c.env.BindGlobal(nameTok.Text, Symbol{Value: p, Addressable: false})
	return nil
}

// compileExtern lowers `extern <fn-signature>`, registering a function
// declaration (no body) in the module and in the global symbol table.
// Vararg functions are expressible only here in practice, though the
// grammar does not forbid the marker on `fn` either (the original this
// is grounded on applies it uniformly).
func (c *Compiler) compileExtern(cur *TokenCursor) error {
	sig, err := parseSignature(cur)
	if err != nil {
		return err
	}
	fnTy, err := c.functionType(sig)
	if err != nil {
		return err
	}
	fn := llvm.AddFunction(c.module, sig.Name, fnTy)
	c.env.BindGlobal(sig.Name, Symbol{Value: fn, Addressable: false})
	return nil
}

// compileFn lowers `fn <fn-signature> <stmt>* end`. The function symbol
// is added to the global map before the body is compiled so recursive
// self-calls resolve (§3 invariant, §9 "cyclic reference").
func (c *Compiler) compileFn(cur *TokenCursor) error {
	sig, err := parseSignature(cur)
	if err != nil {
		return err
	}
	fnTy, err := c.functionType(sig)
	if err != nil {
		return err
	}

	irName := sig.Name
	if sig.Name == "main" {
		irName = entryUserMainIRName
	}
	fn := llvm.AddFunction(c.module, irName, fnTy)
	c.env.BindGlobal(sig.Name, Symbol{Value: fn, Addressable: false})

	local := make(map[string]Symbol, len(sig.Params))
	for i, p := range sig.Params {
		if _, err := typeOf(c.ctx, p.Type, token.Span{}); err != nil {
			return err
		}
		v := fn.Param(i)
		v.SetName(p.Name)
		local[p.Name] = Symbol{Value: v, Addressable: false}
	}

	outerFn, outerBuilder := c.fn, c.builder
	c.fn = fn
	c.builder = c.ctx.NewBuilder()
	fnBuilder := c.builder
	defer func() {
		fnBuilder.Dispose()
		c.fn, c.builder = outerFn, outerBuilder
	}()

	bb := llvm.AddBasicBlock(fn, "entry")
	c.builder.SetInsertPointAtEnd(bb)

	diverges, err := c.compileStatementsUntil(cur, local, "end")
	if err != nil {
		return err
	}
	if !sig.HasRet && !diverges {
		c.builder.CreateRetVoid()
	}
	return c.expectIdent(cur, "end")
}

// functionType builds the IR function type for a signature, resolving
// its declared return type (void if absent) and parameter types.
func (c *Compiler) functionType(sig Signature) (llvm.Type, error) {
	ret := c.ctx.VoidType()
	if sig.HasRet {
		var err error
		ret, err = typeOf(c.ctx, sig.RetType, token.Span{})
		if err != nil {
			return llvm.Type{}, err
		}
	}
	params := make([]llvm.Type, len(sig.Params))
	for i, p := range sig.Params {
		ty, err := typeOf(c.ctx, p.Type, token.Span{})
		if err != nil {
			return llvm.Type{}, err
		}
		params[i] = ty
	}
	return llvm.FunctionType(ret, params, sig.Vararg), nil
}

// synthesizeEntry builds the fixed `main` function the emitted module
// always contains: void()->void, its single basic block calling the
// user-defined main (renamed __user_main in IR, see
// entryUserMainIRName) and returning void. The user-defined main is
// required; its absence is fatal (§3, §7 MissingEntryPoint).
func (c *Compiler) synthesizeEntry() error {
	userMain, ok := c.env.LookupGlobal("main")
	if !ok {
		return &Error{Kind: MissingEntryPoint}
	}

	entryTy := llvm.FunctionType(c.ctx.VoidType(), nil, false)
	entry := llvm.AddFunction(c.module, "main", entryTy)
	bb := llvm.AddBasicBlock(entry, "entry")
	c.builder.SetInsertPointAtEnd(bb)
	c.builder.CreateCall(userMain.Value, nil, "")
	c.builder.CreateRetVoid()
	return nil
}

// expectIdentAny consumes the next token and fails unless it is an
// Ident, without constraining its text — used where the grammar
// requires "some identifier here" (e.g. a const's type keyword) but the
// value itself is not semantically used.
func (c *Compiler) expectIdentAny(cur *TokenCursor, expected string) (token.Token, error) {
	t, err := cur.advance()
	if err != nil {
		return t, err
	}
	if t.Kind != token.Ident {
		return t, mismatch(expected, t)
	}
	return t, nil
}
