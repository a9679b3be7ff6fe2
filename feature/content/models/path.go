package models

import (
	"path"
	"strings"
)

// NormalizePath returns p as a clean, slash-rooted path without a trailing slash.
// Backslashes are treated as separators so Windows-relative paths normalize too.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// Segments splits a normalized path into its non-empty segments.
func Segments(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Depth is the number of segments of p.
func Depth(p string) int {
	return len(Segments(p))
}

// ParentPath returns the path one segment shorter than p, or "" for root-level paths.
func ParentPath(p string) string {
	segs := Segments(p)
	if len(segs) <= 1 {
		return ""
	}
	return "/" + strings.Join(segs[:len(segs)-1], "/")
}

// BaseName returns the last segment of p.
func BaseName(p string) string {
	segs := Segments(p)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// IsDirectChild reports whether child sits exactly one segment below parent.
func IsDirectChild(parent, child string) bool {
	return parent != "" && ParentPath(child) == parent
}

// HasPathPrefix reports whether p equals prefix or sits below it.
func HasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
