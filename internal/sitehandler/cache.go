package sitehandler

import (
	"github.com/vicompany/hardened-web/internal/assetpath"
)

// immutable lists the extensions of build output that is safe to cache
// forever. Other assets (robots.txt, feeds, pdfs) get the shorter policy.
var immutable = map[string]bool{
	"css": true, "js": true, "mjs": true, "map": true, "wasm": true,
	"png": true, "jpg": true, "jpeg": true, "webp": true, "avif": true, "gif": true, "svg": true, "ico": true,
	"woff": true, "woff2": true, "ttf": true, "otf": true, "eot": true,
}

func cacheControlForFile(name string, o Options) string {
	ext := assetpath.Ext(name)
	switch {
	case ext == "" || ext == "html" || ext == "htm":
		return o.HTMLCacheControl
	case immutable[ext]:
		return o.AssetCacheControl
	default:
		return o.OtherCacheControl
	}
}
