// Package lexer turns a source.File into Spring tokens.
//
// Every rule looks at most one rune past the end of the token it
// produces. Together with the per-token State this is what lets
// tokenbuf restart lexing one token before an edit and trust the
// tokens in front of it.
//
// Block comments are emitted one line at a time; the mode "inside a
// comment" is what Token.State carries between lines.
package lexer
