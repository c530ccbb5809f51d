package httpserver

import (
	"net/http"

	"github.com/vicompany/hardened-web/internal/health"
	"github.com/vicompany/hardened-web/internal/httpmw"
	"github.com/vicompany/hardened-web/internal/log"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	OnPanic      func()
	MetricsMW    func(http.Handler) http.Handler
	RateLimitMW  func(http.Handler) http.Handler
	Health       health.Probe
	Readiness    health.Probe

	// SiteHandler answers every request no route matched. nil leaves chi's
	// plain 404/405.
	SiteHandler http.Handler

	ClientIPOpts httpmw.ClientIPOptions

	// Harden configures the outermost middleware. AllowOrigin or Origin
	// should be set; an empty origin is sent as-is.
	Harden httpmw.HardenOptions

	// MaxBodyBytes caps request bodies, default 1KB.
	MaxBodyBytes int64
}
