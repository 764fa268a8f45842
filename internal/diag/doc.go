// Package diag defines the diagnostic model shared by the lexer-facing
// checks, the parser and the CLI.
//
// Diagnostic is the central record: Severity, a numeric Code with a
// stable string form (LEX/SYN/IO/OBS ranges), a Message, the Primary
// span, optional Notes and optional Fixes. Spans are offsets in the
// snapshot the diagnostic was produced for; a diagnostic never outlives
// that snapshot's parse.
//
// The parser attaches diagnostics to the tree and can also stream them
// through a Reporter: BagReporter collects into a Bag (sorting,
// filtering, hard limit), MultiReporter fans out, Dedup drops repeats.
//
// Formatting lives in internal/diagfmt; FormatGoldenDiagnostics here is
// the one canonical text form used by tests and parse comparisons.
package diag
