package token

var keywords = map[string]Kind{
	"and":       KwAnd,
	"array":     KwArray,
	"begin":     KwBegin,
	"case":      KwCase,
	"const":     KwConst,
	"div":       KwDiv,
	"do":        KwDo,
	"downto":    KwDownto,
	"else":      KwElse,
	"end":       KwEnd,
	"for":       KwFor,
	"function":  KwFunction,
	"if":        KwIf,
	"mod":       KwMod,
	"nil":       KwNil,
	"not":       KwNot,
	"of":        KwOf,
	"or":        KwOr,
	"procedure": KwProcedure,
	"program":   KwProgram,
	"record":    KwRecord,
	"repeat":    KwRepeat,
	"then":      KwThen,
	"to":        KwTo,
	"type":      KwType,
	"until":     KwUntil,
	"var":       KwVar,
	"while":     KwWhile,
}

var keywordText = func() map[Kind]string {
	out := make(map[Kind]string, len(keywords))
	for text, k := range keywords {
		out[k] = text
	}
	return out
}()

// maxKeywordLen bounds the identifiers worth folding.
const maxKeywordLen = len("procedure")

// KeywordMatcher folds identifiers and looks them up in the keyword
// table. Only ASCII letters fold: an identifier with any non-ASCII byte
// is never a keyword. A matcher reuses its buffer and must not be
// shared between goroutines; use NewKeywordMatcher.
type KeywordMatcher struct {
	buf [maxKeywordLen]byte
}

func NewKeywordMatcher() *KeywordMatcher {
	return &KeywordMatcher{}
}

// Lookup returns the keyword kind for ident, if any.
func (m *KeywordMatcher) Lookup(ident []byte) (Kind, bool) {
	if len(ident) > maxKeywordLen {
		return Ident, false
	}
	for i, c := range ident {
		switch {
		case c >= 0x80:
			return Ident, false
		case 'A' <= c && c <= 'Z':
			c += 'a' - 'A'
		}
		m.buf[i] = c
	}
	// the map index does not allocate the string
	k, ok := keywords[string(m.buf[:len(ident)])]
	if !ok {
		return Ident, false
	}
	return k, true
}

// LookupKeyword is the allocation-happy convenience form of KeywordMatcher.Lookup.
func LookupKeyword(ident string) (Kind, bool) {
	return NewKeywordMatcher().Lookup([]byte(ident))
}
