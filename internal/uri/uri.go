// Package uri canonicalizes filesystem paths into the file:// keys that
// index every repository map.
package uri

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

// DocURI is a canonical file:// key. Percent-encoded hex digits are always
// upper case, so two URIs that differ only in escape-digit case compare
// equal as strings.
type DocURI string

var percentEscape = regexp.MustCompile(`%[0-9a-fA-F]{2}`)

// Normalize upper-cases every %xx escape triplet. Idempotent:
// Normalize(Normalize(u)) == Normalize(u) for every u.
func Normalize(u DocURI) DocURI {
	return DocURI(percentEscape.ReplaceAllStringFunc(string(u), strings.ToUpper))
}

// FromPath builds the canonical DocURI for an absolute filesystem path.
func FromPath(absPath string) DocURI {
	slashed := filepath.ToSlash(absPath)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	u := url.URL{Scheme: "file", Path: slashed}
	return Normalize(DocURI(u.String()))
}

// Path extracts the filesystem path encoded by a DocURI. Returns "" if u is
// not a well-formed file:// URI.
func (u DocURI) Path() string {
	parsed, err := url.Parse(string(u))
	if err != nil || parsed.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(parsed.Path)
}

// Join resolves a relative link path segment-by-segment against a root
// directory URI, percent-encoding each segment and normalizing escape case.
// It does not append any suffix; callers needing the ".pn" file extension
// add it themselves (see repository.LinkToURI).
func Join(rootURI DocURI, relLink string) DocURI {
	segments := strings.Split(filepath.ToSlash(relLink), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	base := strings.TrimSuffix(string(rootURI), "/")
	return Normalize(DocURI(base + "/" + strings.Join(segments, "/")))
}
