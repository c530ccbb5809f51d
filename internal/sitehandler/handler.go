// Package sitehandler serves a static site from an fs.FS: index resolution,
// canonical directory redirects, themed 404s, a maintenance page and
// extension based Cache-Control.
package sitehandler

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/vicompany/hardened-web/internal/xerrors"
)

type Handler struct {
	opts Options
	// site is nil in maintenance mode
	site fs.FS
}

func New(opts Options) (*Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	h := &Handler{opts: opts}
	if opts.Site != nil && existsFile(opts.Site, "index.html") {
		h.site = opts.Site
	} else {
		opts.Logger.Warn(context.Background(), "site has no index.html, serving maintenance page")
	}
	return h, nil
}

// Check is a readiness probe: it fails while in maintenance mode.
func (h *Handler) Check(context.Context) error {
	if h.site == nil {
		return xerrors.New("site: no document root loaded")
	}
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if h.site == nil {
		h.serveMaintenance(w, r)
		return
	}

	file, redirectTo, found := resolvePath(r.URL.Path, h.site)
	if redirectTo != "" {
		// 308 keeps the method
		http.Redirect(w, r, redirectTo, http.StatusPermanentRedirect)
		return
	}
	if !found {
		h.serveNotFound(w, r)
		return
	}

	if cc := cacheControlForFile(file, h.opts); cc != "" {
		w.Header().Set("Cache-Control", cc)
	}
	http.ServeFileFS(w, r, h.site, file)
}

func (h *Handler) serveMaintenance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", "60")
	serveFileWithStatus(w, r, http.StatusServiceUnavailable, h.opts.FallbackFS, h.opts.MaintenanceFile)
}

// serveNotFound prefers the site's own 404 page, then the embedded one,
// then plain text.
func (h *Handler) serveNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")

	if existsFile(h.site, h.opts.Site404File) {
		serveFileWithStatus(w, r, http.StatusNotFound, h.site, h.opts.Site404File)
		return
	}
	if existsFile(h.opts.FallbackFS, h.opts.Fallback404File) {
		serveFileWithStatus(w, r, http.StatusNotFound, h.opts.FallbackFS, h.opts.Fallback404File)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("404 page not found"))
}

// statusOverrideWriter replaces the first status http.ServeFileFS writes,
// so a 404 or 503 page can be served from a file.
type statusOverrideWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusOverrideWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *statusOverrideWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(w.status)
	}
	return w.ResponseWriter.Write(b)
}

func serveFileWithStatus(w http.ResponseWriter, r *http.Request, status int, fsys fs.FS, name string) {
	// ServeFileFS would answer conditional requests with 304, ranges with
	// 206 and .../index.html with a redirect; none fit an error page
	r2 := r.Clone(r.Context())
	r2.URL.Path = "/" + name
	for _, k := range []string{"If-Modified-Since", "If-None-Match", "Range", "If-Range"} {
		r2.Header.Del(k)
	}
	http.ServeFileFS(&statusOverrideWriter{ResponseWriter: w, status: status}, r2, fsys, name)
}
