package types

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/objectfs/iofs/pkg/errors"
)

// Path is an immutable, normalized, slash-separated sequence of non-empty
// segments with an implicit root. It never contains "." or ".." segments, a
// backslash, or an empty internal segment, and it never applies
// percent-encoding — that belongs to whichever transport renders it onto the
// wire (the S3 backend's canonical URI, for instance).
type Path struct {
	segments []string
}

// RootPath is the empty path: zero segments, rendering as "/".
var RootPath = Path{}

// NewPath parses a host filesystem path into a Path, rejecting NUL bytes and
// non-UTF-8 input.
func NewPath(hostPath string) (Path, error) {
	if !utf8.ValidString(hostPath) {
		return Path{}, errors.New(errors.InvalidData, "path is not valid UTF-8")
	}
	if strings.ContainsRune(hostPath, 0) {
		return Path{}, errors.New(errors.InvalidData, "path contains NUL byte")
	}
	return parseSegments(hostPath)
}

// NewPathFromURL parses a URL-like string into a Path, discarding the scheme
// and authority and keeping only the path component.
func NewPathFromURL(raw string) (Path, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Path{}, errors.New(errors.InvalidData, "malformed URL").WithCause(err)
	}
	return parseSegments(u.Path)
}

func parseSegments(raw string) (Path, error) {
	if strings.Contains(raw, "\\") {
		return Path{}, errors.New(errors.InvalidData, "path contains backslash")
	}
	parts := strings.Split(raw, "/")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		if p == ".." {
			return Path{}, errors.New(errors.InvalidData, "path contains .. segment")
		}
		segments = append(segments, p)
	}
	return Path{segments: segments}, nil
}

// Child appends a normalized segment and returns the resulting Path. The
// segment has leading/trailing separators stripped; an embedded separator is
// rejected.
func (p Path) Child(segment string) (Path, error) {
	trimmed := strings.Trim(segment, "/")
	if trimmed == "" {
		return p, nil
	}
	if strings.Contains(trimmed, "/") {
		return Path{}, errors.New(errors.InvalidData, "child segment contains an embedded separator")
	}
	if trimmed == "." {
		return p, nil
	}
	if trimmed == ".." {
		return Path{}, errors.New(errors.InvalidData, "child segment is ..")
	}
	next := make([]string, len(p.segments), len(p.segments)+1)
	copy(next, p.segments)
	next = append(next, trimmed)
	return Path{segments: next}, nil
}

// String renders the path with forward slashes regardless of host, prefixed
// with a leading slash.
func (p Path) String() string {
	if len(p.segments) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.segments, "/")
}

// Key renders the path the way the S3 backend wants it: no leading slash,
// segments joined by "/". The root path renders as the empty string.
func (p Path) Key() string {
	return strings.Join(p.segments, "/")
}

// Segments returns a copy of the path's segment sequence.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// IsRoot reports whether the path has zero segments.
func (p Path) IsRoot() bool {
	return len(p.segments) == 0
}

// Equal reports segment-wise equality.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}
	for i := range p.segments {
		if p.segments[i] != other.segments[i] {
			return false
		}
	}
	return true
}
