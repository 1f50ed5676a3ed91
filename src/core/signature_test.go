package core

import (
	"testing"

	"minic/src/token"
)

func sigToks(words ...string) *TokenCursor {
	toks := make([]token.Token, len(words))
	for i, w := range words {
		toks[i] = token.Token{Kind: token.Ident, Text: w}
	}
	return NewTokenCursor(toks)
}

// TestParseSignatureBare verifies a signature with no return type and no
// parameters: `name do`.
func TestParseSignatureBare(t *testing.T) {
	sig, err := parseSignature(sigToks("greet", "do"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sig.Name != "greet" || sig.HasRet || len(sig.Params) != 0 || sig.Vararg {
		t.Fatalf("unexpected signature: %+v", sig)
	}
}

// TestParseSignatureReturnAndParams verifies `name ret with type name type
// name do`.
func TestParseSignatureReturnAndParams(t *testing.T) {
	sig, err := parseSignature(sigToks("add", "i32", "with", "i32", "a", "i32", "b", "do"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sig.Name != "add" || !sig.HasRet || sig.RetType != "i32" {
		t.Fatalf("unexpected signature: %+v", sig)
	}
	if len(sig.Params) != 2 || sig.Params[0].Name != "a" || sig.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", sig.Params)
	}
	if sig.Vararg {
		t.Fatalf("did not expect vararg")
	}
}

// TestParseSignatureVararg verifies the "vararg" marker must appear
// immediately after "with" to be recognized, and toggles Signature.Vararg.
func TestParseSignatureVararg(t *testing.T) {
	sig, err := parseSignature(sigToks("printf", "with", "vararg", "ptr", "fmt", "end"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !sig.Vararg {
		t.Fatalf("expected vararg to be set")
	}
	if len(sig.Params) != 1 || sig.Params[0].Name != "fmt" {
		t.Fatalf("unexpected params: %+v", sig.Params)
	}
}

// TestParseSignatureNoVarargMarkerMidList verifies that when the token
// after "with" is not the "vararg" marker, Vararg stays unset and that
// token is rewound and parsed as the first parameter's type.
func TestParseSignatureNoVarargMarkerMidList(t *testing.T) {
	sig, err := parseSignature(sigToks("f", "with", "i32", "a", "end"))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if sig.Vararg {
		t.Fatalf("did not expect vararg when marker is absent")
	}
	if len(sig.Params) != 1 || sig.Params[0].Type != "i32" || sig.Params[0].Name != "a" {
		t.Fatalf("unexpected params: %+v", sig.Params)
	}
}
