// Copyright the metac authors
//
// SPDX-License-Identifier: Apache-2.0
package parser

import "github.com/metac-lang/metac/pkg/source"

// LexedToken is the dumpable view of one lexical token, exposed so
// pkg/dump's `-emit-tokens` mode (SPEC_FULL.md §6: the original's
// TokenDumper dumps the lexer's token stream directly, bypassing the
// layout/reader pipeline entirely) can render the lexer's raw output
// without reaching into this package's unexported token type.
type LexedToken struct {
	Kind string
	Span source.Span
	Text string
}

// LexTokens lexes content in full for dump purposes only, independent of
// ParseCompilationUnit. Returns the first lexical error encountered, if
// any.
func LexTokens(content string) ([]LexedToken, error) {
	toks, lerr := lex(content)
	if lerr != nil {
		return nil, lerr
	}

	out := make([]LexedToken, 0, len(toks))

	for _, t := range toks {
		out = append(out, LexedToken{Kind: t.kind.String(), Span: t.span, Text: t.text})
	}

	return out, nil
}
