package sitehandler

import (
	"io/fs"
	"path"
	"strings"

	"github.com/vicompany/hardened-web/internal/assetpath"
	"github.com/vicompany/hardened-web/internal/pathutil"
)

// resolvePath maps a URL path to a file in fsys. file has no leading slash.
// A non-empty redirectTo is the canonical slash-terminated URL for a
// directory requested without one.
func resolvePath(urlPath string, fsys fs.FS) (file string, redirectTo string, ok bool) {
	p := urlPath
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}

	if strings.Contains(p, "\x00") || strings.Contains(p, "\\") || strings.Contains(p, "..") {
		return "", "", false
	}
	if pathutil.HasDotSegments(p) {
		return "", "", false
	}

	trailingSlash := strings.HasSuffix(p, "/")

	clean := path.Clean(p)
	if trailingSlash && clean != "/" {
		clean += "/"
	}

	if strings.HasSuffix(clean, "/") {
		name := strings.TrimPrefix(clean, "/") + "index.html"
		if existsFile(fsys, name) {
			return name, "", true
		}
		return "", "", false
	}

	if assetpath.Ext(clean) != "" {
		name := strings.TrimPrefix(clean, "/")
		if existsFile(fsys, name) {
			return name, "", true
		}
		return "", "", false
	}

	// extensionless: a directory with an index redirects to its slash form,
	// otherwise try <path>.html
	dirIndex := strings.TrimPrefix(clean, "/") + "/index.html"
	if existsFile(fsys, dirIndex) {
		return "", clean + "/", true
	}

	if name := strings.TrimPrefix(clean, "/") + ".html"; existsFile(fsys, name) {
		return name, "", true
	}
	return "", "", false
}

func existsFile(fsys fs.FS, name string) bool {
	if name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
