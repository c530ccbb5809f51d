// Package webassets embeds the default site and the fallback pages into
// the binary.
package webassets

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed fallback site
var embedded embed.FS

// FallbackFS holds maintenance.html and a generic 404.html.
func FallbackFS() fs.FS {
	return mustSub("fallback")
}

// SiteFS is the site served when no -site-dir is configured.
func SiteFS() fs.FS {
	return mustSub("site")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(embedded, dir)
	if err != nil {
		panic(fmt.Errorf("webassets: %s subfs: %w", dir, err))
	}
	return sub
}
