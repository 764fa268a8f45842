// Package fuzztests houses Go fuzz harnesses for the front end of
// Spring: lexer, token buffer rescans and the parser. They guard
// against panics, hangs and divergence between incremental and full
// tokenization on arbitrary input.
//
// Назначение: прогонять произвольные байты через лексер, ReScan и парсер
// и проверять инварианты из internal/testkit.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
