package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates a character no rule accepts.
	Invalid Kind = iota
	// EOF marks the end of the token stream.
	EOF

	// Whitespace is a run of blanks and line breaks.
	Whitespace
	// Comment is a line comment or one line of a block comment.
	Comment

	// Ident represents an identifier token.
	Ident
	// Number is an integer, real or $hex literal.
	Number
	// String is a quoted literal with '' escapes.
	String
	// BadString is a string literal not closed before the end of line.
	BadString

	KwAnd       // and
	KwArray     // array
	KwBegin     // begin
	KwCase      // case
	KwConst     // const
	KwDiv       // div
	KwDo        // do
	KwDownto    // downto
	KwElse      // else
	KwEnd       // end
	KwFor       // for
	KwFunction  // function
	KwIf        // if
	KwMod       // mod
	KwNil       // nil
	KwNot       // not
	KwOf        // of
	KwOr        // or
	KwProcedure // procedure
	KwProgram   // program
	KwRecord    // record
	KwRepeat    // repeat
	KwThen      // then
	KwTo        // to
	KwType      // type
	KwUntil     // until
	KwVar       // var
	KwWhile     // while

	Plus      // +
	Minus     // -
	Star      // *
	Slash     // /
	Assign    // :=
	Colon     // :
	Semicolon // ;
	Comma     // ,
	Dot       // .
	DotDot    // ..
	LParen    // (
	RParen    // )
	LBracket  // [
	RBracket  // ]
	Eq        // =
	NotEq     // <>
	Lt        // <
	LtEq      // <=
	Gt        // >
	GtEq      // >=
	Caret     // ^
	At        // @

	kindCount
)

var kindNames = [...]string{
	Invalid:    "Invalid",
	EOF:        "EOF",
	Whitespace: "Whitespace",
	Comment:    "Comment",
	Ident:      "Ident",
	Number:     "Number",
	String:     "String",
	BadString:  "BadString",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Assign:     ":=",
	Colon:      ":",
	Semicolon:  ";",
	Comma:      ",",
	Dot:        ".",
	DotDot:     "..",
	LParen:     "(",
	RParen:     ")",
	LBracket:   "[",
	RBracket:   "]",
	Eq:         "=",
	NotEq:      "<>",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	Caret:      "^",
	At:         "@",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "Kind(?)"
	}
	if name := kindNames[k]; name != "" {
		return name
	}
	if kw, ok := keywordText[k]; ok {
		return kw
	}
	return "Kind(?)"
}

// Kinds returns every defined kind except EOF, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Invalid; k < kindCount; k++ {
		if k != EOF {
			out = append(out, k)
		}
	}
	return out
}
