// Package parser builds syntax trees with a mark/done protocol over a
// token stream.
//
// Builder keeps an explicit stack of open markers. Mark opens a node at
// the next significant token, Done closes the innermost marker into a
// node, Precede reopens around an already completed node (left folds)
// and Drop dissolves a marker into its parent. Closing anything but the
// innermost marker is a programming error and panics.
//
// Parser owns the lexer and the token buffer of the current snapshot.
// Update combines tokenbuf's ReScan with a full reparse over the
// replayed tokens: the grammar pass always runs from the start, the
// saving comes from relexing only around the edit.
package parser
