// Package trace records what the engine did and how long it took.
//
// Tracing is off by default; a disabled tracer costs one context lookup
// per span. The CLI enables it with:
//
//	spring parse --trace=- --trace-level=detail file.pas
//
// Levels, from quiet to noisy: off, error, phase (lex, rescan, parse
// passes), detail (per-file work, resync fallbacks), debug.
//
//	span, ctx := trace.Start(ctx, trace.ScopePass, "rescan")
//	defer span.End("")
package trace
