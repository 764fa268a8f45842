package tokenbuf

import (
	"fmt"

	"spring/internal/source"
	"spring/internal/token"
)

// Snapshot is the flat form of a Buffer used by caches. Spans are
// stored as end offsets only; starts follow from coverage.
type Snapshot struct {
	Hash   [32]byte
	Kinds  []uint8
	Ends   []uint32
	States []uint32
}

// Snapshot flattens the buffer.
func (b *Buffer) Snapshot() Snapshot {
	s := Snapshot{
		Hash:   b.file.Hash,
		Kinds:  make([]uint8, len(b.tokens)),
		Ends:   make([]uint32, len(b.tokens)),
		States: make([]uint32, len(b.tokens)),
	}
	for i, tok := range b.tokens {
		s.Kinds[i] = uint8(tok.Kind)
		s.Ends[i] = tok.Span.End
		s.States[i] = uint32(tok.State)
	}
	return s
}

// FromSnapshot rebuilds a buffer for f. The snapshot must have been
// taken from a buffer over the same content.
func FromSnapshot(f *source.File, s Snapshot) (*Buffer, error) {
	if s.Hash != f.Hash {
		return nil, fmt.Errorf("%w: content hash differs", ErrSnapshotMismatch)
	}
	if len(s.Ends) != len(s.Kinds) || len(s.States) != len(s.Kinds) {
		return nil, fmt.Errorf("%w: column lengths %d/%d/%d", ErrSnapshotMismatch, len(s.Kinds), len(s.Ends), len(s.States))
	}
	toks := make([]token.Token, len(s.Kinds))
	var start uint32
	for i := range toks {
		toks[i] = token.Token{
			Kind:  token.Kind(s.Kinds[i]),
			Span:  source.Span{Start: start, End: s.Ends[i]},
			State: token.State(s.States[i]),
		}
		start = s.Ends[i]
	}
	return FromTokens(f, toks)
}
