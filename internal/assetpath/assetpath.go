// Package assetpath classifies request paths as static assets by extension.
package assetpath

import (
	"path"
	"strings"
)

// extensions are lower-case, without the leading dot.
var extensions = map[string]struct{}{
	// images
	"apng": {}, "avif": {}, "bmp": {}, "gif": {}, "ico": {}, "jpeg": {}, "jpg": {},
	"png": {}, "svg": {}, "tif": {}, "tiff": {}, "webp": {},
	// fonts
	"eot": {}, "otf": {}, "ttf": {}, "woff": {}, "woff2": {},
	// styles, scripts and maps
	"css": {}, "js": {}, "mjs": {}, "map": {}, "wasm": {},
	// audio
	"aac": {}, "flac": {}, "m4a": {}, "mp3": {}, "oga": {}, "ogg": {}, "opus": {}, "wav": {},
	// video
	"avi": {}, "m4v": {}, "mov": {}, "mp4": {}, "mpeg": {}, "ogv": {}, "webm": {},
	// documents and archives
	"gz": {}, "pdf": {}, "zip": {},
	// feeds and manifests served alongside pages
	"txt": {}, "xml": {}, "webmanifest": {},
}

// IsAsset reports whether p refers to a static asset rather than a document.
// Only the extension of the last path segment is considered; paths without
// an extension (including "/" and "dir/") are documents.
func IsAsset(p string) bool {
	ext := Ext(p)
	if ext == "" {
		return false
	}
	_, ok := extensions[ext]
	return ok
}

// Ext returns the lower-cased extension of the last segment of p without
// the dot, ignoring any query string or fragment.
func Ext(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	ext := path.Ext(path.Base(p))
	if len(ext) < 2 {
		return ""
	}
	return strings.ToLower(ext[1:])
}
