// Package token defines lexical token kinds for the Spring language.
// Invariants:
//   - Trivia (whitespace, comments) are ordinary tokens; a token stream
//     covers its text without gaps.
//   - Token.Span is never empty; EOF is the only zero-length token.
//   - Token.State is the lexer mode after the token and is a plain
//     value: it can be copied, compared and stored across snapshots.
//   - Keywords are matched case-insensitively; Begin and BEGIN are
//     both KwBegin.
package token
