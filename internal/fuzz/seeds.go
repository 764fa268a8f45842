package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

// inlineSeeds cover the lexer states that the sample programs do not:
// open comments and strings at EOF, stray characters, bare CR.
var inlineSeeds = []string{
	"",
	"{",
	"{ open\ncomment",
	"(* a\n*) b",
	"'abc",
	"'it''s'",
	"x := 1\r\ny := 2",
	"~#?",
	"begin end",
	"begin begin begin x := (((1 end end end",
	"$FF + 1.5e10 - 007",
	"x := -(-(a)) div b mod c;",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range inlineSeeds {
		f.Add([]byte(s))
	}
	for _, src := range programSeeds() {
		f.Add(src)
	}
}

// programSeeds reads the sample programs under testdata/programs.
func programSeeds() [][]byte {
	root := filepath.Join("..", "..", "testdata", "programs")
	var out [][]byte
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".pas" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		out = append(out, clampSeed(src))
		return nil
	})
	return out
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return src
	}
	return src[:maxSeedBytes]
}
