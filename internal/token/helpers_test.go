package token_test

import "spring/internal/source"

func sourceSpan(start, end uint32) source.Span {
	return source.Span{Start: start, End: end}
}
