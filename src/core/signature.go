package core

import "minic/src/token"

// Param is one `type name` entry of a function signature's parameter
// list.
type Param struct {
	Type string
	Name string
}

// Signature is the parsed result of the grammar in §4.4:
//
//	name ( return_type )? ( "with" ("vararg")? ( type name )+ )? ( "do" | "end" )
type Signature struct {
	Name    string
	HasRet  bool
	RetType string
	Params  []Param
	Vararg  bool
}

// parseSignature consumes the token sequence following `fn` or `extern`
// (that keyword itself must already have been consumed by the caller).
// It consumes through and including the terminating `do`/`end` token.
func parseSignature(c *TokenCursor) (Signature, error) {
	nameTok, err := c.advance()
	if err != nil {
		return Signature{}, err
	}
	if nameTok.Kind != token.Ident {
		return Signature{}, mismatch("function name", nameTok)
	}
	name := nameTok.Text

	next, err := c.advance()
	if err != nil {
		return Signature{}, err
	}
	if next.Kind != token.Ident {
		return Signature{}, mismatch("do, end, with, or a type keyword", next)
	}

	switch next.Text {
	case "do", "end":
		return Signature{Name: name}, nil
	case "with":
		params, vararg, err := parseParamList(c)
		if err != nil {
			return Signature{}, err
		}
		return Signature{Name: name, Params: params, Vararg: vararg}, nil
	default:
		// next is the return type keyword.
		retType := next.Text
		term, err := c.advance()
		if err != nil {
			return Signature{}, err
		}
		if term.Kind != token.Ident {
			return Signature{}, mismatch("with, do, or end", term)
		}
		switch term.Text {
		case "do", "end":
			return Signature{Name: name, HasRet: true, RetType: retType}, nil
		case "with":
			params, vararg, err := parseParamList(c)
			if err != nil {
				return Signature{}, err
			}
			return Signature{Name: name, HasRet: true, RetType: retType, Params: params, Vararg: vararg}, nil
		default:
			return Signature{}, mismatch("with, do, or end", term)
		}
	}
}

// parseParamList consumes the "vararg"? (type name)+ portion of a
// signature, stopping at and consuming the first `do`/`end`. The
// "vararg" marker, if present, must appear immediately after `with` —
// parseParamList is only ever called having just consumed `with`.
func parseParamList(c *TokenCursor) ([]Param, bool, error) {
	marker, err := c.advance()
	if err != nil {
		return nil, false, err
	}
	vararg := marker.Kind == token.Ident && marker.Text == "vararg"
	if !vararg {
		c.rewind()
	}

	var params []Param
	for {
		typTok, err := c.advance()
		if err != nil {
			return nil, false, err
		}
		if typTok.Kind != token.Ident {
			return nil, false, mismatch("parameter type", typTok)
		}
		nameTok, err := c.advance()
		if err != nil {
			return nil, false, err
		}
		if nameTok.Kind != token.Ident {
			return nil, false, mismatch("parameter name", nameTok)
		}
		params = append(params, Param{Type: typTok.Text, Name: nameTok.Text})

		term, err := c.advance()
		if err != nil {
			return nil, false, err
		}
		if term.Kind == token.Ident && (term.Text == "do" || term.Text == "end") {
			break
		}
		c.rewind()
	}
	return params, vararg, nil
}
