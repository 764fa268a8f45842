package token

// Классификация по виду токена: чистые функции без доступа к тексту.

func IsComment(k Kind) bool { return k == Comment }

func IsString(k Kind) bool { return k == String || k == BadString }

func IsNumber(k Kind) bool { return k == Number }

func IsKeyword(k Kind) bool { return k >= KwAnd && k <= KwWhile }

func IsWhitespace(k Kind) bool { return k == Whitespace }

// IsTrivia reports whether the grammar skips tokens of this kind.
func IsTrivia(k Kind) bool { return k == Whitespace || k == Comment }

// IsOperator reports whether k is punctuation or an operator.
func IsOperator(k Kind) bool { return k >= Plus && k <= At }

// IsError reports whether k is produced only for malformed input.
func IsError(k Kind) bool { return k == Invalid || k == BadString }
