package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
)

// FileSet keeps every snapshot it has seen. Snapshots are immutable,
// so readers may hold *File values across later edits.
type FileSet struct {
	mu    sync.RWMutex
	files []*File
	index map[string]FileID // path -> latest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]*File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a snapshot, computes LineIdx and Hash, and returns its FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	return fileSet.addLocked(path, content, flags, 0).ID
}

func (fileSet *FileSet) addLocked(path string, content []byte, flags FileFlags, version uint32) *File {
	normalizedPath := normalizePath(path)
	f := &File{
		ID:      FileID(offset(len(fileSet.files))),
		Path:    normalizedPath,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
		Version: version,
	}
	fileSet.files = append(fileSet.files, f)
	// Всегда обновляем индекс на последнюю версию файла
	fileSet.index[normalizedPath] = f.ID
	return f
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags := Normalize(content)
	return fileSet.Add(path, content, flags), nil
}

// Normalize strips a UTF-8 BOM and folds CRLF into LF.
func Normalize(content []byte) ([]byte, FileFlags) {
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return content, flags
}

// AddVirtual adds a virtual file (stdin, test, or editor buffer) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the snapshot for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return fileSet.files[id]
}

// GetLatest returns the latest file ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// GetByPath returns the latest snapshot stored under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	fileSet.mu.RLock()
	defer fileSet.mu.RUnlock()
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return fileSet.files[id], true
	}
	return nil, false
}

// Edit replaces old (in id's coordinates) with text and registers the
// result as the next version of the same path.
func (fileSet *FileSet) Edit(id FileID, old Span, text []byte) (*File, Edit, error) {
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	if int(id) >= len(fileSet.files) {
		return nil, Edit{}, fmt.Errorf("edit: unknown file id %d", id)
	}
	prev := fileSet.files[id]
	content, err := splice(prev.Content, old, text)
	if err != nil {
		return nil, Edit{}, err
	}
	next := fileSet.addLocked(prev.Path, content, prev.Flags|FileEdited, prev.Version+1)
	return next, Edit{Old: prev, Range: old, New: next}, nil
}

// Replace registers content as the next version of path and derives
// the single edit that turns the previous version into it.
func (fileSet *FileSet) Replace(path string, content []byte) (*File, Edit, bool) {
	fileSet.mu.Lock()
	defer fileSet.mu.Unlock()
	id, ok := fileSet.index[normalizePath(path)]
	if !ok {
		return fileSet.addLocked(path, content, 0, 0), Edit{}, false
	}
	prev := fileSet.files[id]
	next := fileSet.addLocked(prev.Path, content, prev.Flags|FileEdited, prev.Version+1)
	return next, DiffEdit(prev, next), true
}

// Resolve converts a span of the given snapshot into line/column positions.
func (fileSet *FileSet) Resolve(id FileID, span Span) (start, end LineCol) {
	f := fileSet.Get(id)
	if f == nil {
		return LineCol{}, LineCol{}
	}
	return f.Position(span.Start), f.Position(span.End)
}

// GetLine возвращает строку с заданным номером (1-based) без '\n'.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	start, ok := f.LineStart(lineNum)
	if !ok {
		return ""
	}
	end := f.Len()
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}
