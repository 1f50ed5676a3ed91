package core

import (
	"minic/src/token"

	"tinygo.org/x/go-llvm"
)

// typeOf maps a source type keyword to an IR type handle. It is total
// over the closed set in §3; any other keyword fails with UnknownType.
// Pointer type is always ptr-to-i8 regardless of pointee, because the
// source language has no pointee types.
func typeOf(ctx llvm.Context, keyword string, span token.Span) (llvm.Type, error) {
	switch keyword {
	case "void":
		return ctx.VoidType(), nil
	case "bool":
		return ctx.Int1Type(), nil
	case "ptr":
		return llvm.PointerType(ctx.Int8Type(), 0), nil
	case "i8":
		return ctx.Int8Type(), nil
	case "i32":
		return ctx.Int32Type(), nil
	case "i64":
		return ctx.Int64Type(), nil
	case "i128":
		return ctx.IntType(128), nil
	default:
		return llvm.Type{}, &Error{Kind: UnknownType, Span: span, Found: keyword}
	}
}
