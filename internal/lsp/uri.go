package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath maps a file:// URI to a local path. Other schemes (and
// untitled editor buffers) keep the raw URI as their name.
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		return uri
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return uri
	}
	return filepath.Clean(filepath.FromSlash(parsed.Path))
}
