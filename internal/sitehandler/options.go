package sitehandler

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/vicompany/hardened-web/internal/log"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

type Options struct {
	Logger log.Logger

	// Site is the document root. A nil Site, or one without index.html,
	// puts the handler in maintenance mode.
	Site fs.FS
	// FallbackFS holds the maintenance page and an optional generic 404.
	FallbackFS fs.FS

	MaintenanceFile string // in FallbackFS, default "maintenance.html"
	Fallback404File string // in FallbackFS, default "404.html"
	Site404File     string // in Site, default "404.html"

	HTMLCacheControl  string // default "no-cache"
	AssetCacheControl string // default "public, max-age=31536000, immutable"
	OtherCacheControl string // default "public, max-age=3600"
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.MaintenanceFile == "" {
		o.MaintenanceFile = "maintenance.html"
	}
	if o.Fallback404File == "" {
		o.Fallback404File = "404.html"
	}
	if o.Site404File == "" {
		o.Site404File = "404.html"
	}
	if o.HTMLCacheControl == "" {
		o.HTMLCacheControl = "no-cache"
	}
	if o.AssetCacheControl == "" {
		o.AssetCacheControl = "public, max-age=31536000, immutable"
	}
	if o.OtherCacheControl == "" {
		o.OtherCacheControl = "public, max-age=3600"
	}
}

// validate fails fast on a mispackaged binary: the maintenance page has to
// exist even if it is never served.
func (o *Options) validate() error {
	if o.FallbackFS == nil {
		return fmt.Errorf("%w: FallbackFS is nil", ErrInvalidOptions)
	}
	if _, err := fs.Stat(o.FallbackFS, o.MaintenanceFile); err != nil {
		return fmt.Errorf("%w: missing %q in fallback FS: %w", ErrInvalidOptions, o.MaintenanceFile, err)
	}
	return nil
}
