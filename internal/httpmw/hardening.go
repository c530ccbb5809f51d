package httpmw

import (
	"net/http"

	"github.com/vicompany/hardened-web/internal/assetpath"
	"github.com/vicompany/hardened-web/internal/policy"
)

// Fixed values set on every response.
const (
	EnforceCT               = "enforce, max-age=7776000"
	ReferrerPolicy          = "no-referrer"
	StrictTransportSecurity = "max-age=31536000; includeSubDomains"
	ContentTypeOptions      = "nosniff"
	FrameOptions            = "DENY"
	XSSProtection           = "1; mode=block"
	UpgradeInsecureRequests = "1"
)

// Cross-origin isolation values set on document (non-asset) responses only.
const (
	CrossOriginEmbedderPolicy = "require-corp"
	CrossOriginOpenerPolicy   = "unsafe-none"
	CrossOriginResourcePolicy = "same-site"
)

// HardenOptions configures Harden.
type HardenOptions struct {
	// AllowOrigin is the Access-Control-Allow-Origin value. Supplied by the
	// operator; cfg.Validate refuses to start without one.
	AllowOrigin string

	// Origin, when set, is consulted per request and overrides AllowOrigin.
	// It lets a watcher swap the value without rebuilding the chain.
	Origin func() string

	// Policies are the pre-rendered CSP / Feature-Policy / Permissions-Policy
	// values. Zero value means policy.Default().
	Policies *policy.Headers

	// IsAsset classifies request paths. Defaults to assetpath.IsAsset.
	IsAsset func(path string) bool

	// OnHarden is called once per request after headers are set, with the
	// asset classification. Used for metrics.
	OnHarden func(asset bool)
}

// Harden strips identifying headers and sets the browser security headers on
// every response. Documents (non-asset paths) additionally get the CSP,
// Feature-Policy, Permissions-Policy and cross-origin isolation headers.
// Headers are set before next runs and next is always called exactly once.
func Harden(opts HardenOptions) func(http.Handler) http.Handler {
	isAsset := opts.IsAsset
	if isAsset == nil {
		isAsset = assetpath.IsAsset
	}
	var policies policy.Headers
	if opts.Policies != nil {
		policies = *opts.Policies
	} else {
		policies = policy.Default()
	}
	origin := opts.Origin
	if origin == nil {
		static := opts.AllowOrigin
		origin = func() string { return static }
	}
	onHarden := opts.OnHarden

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			h.Del("Server")
			h.Del("X-Powered-By")

			h.Set("Access-Control-Allow-Origin", origin())
			h.Set("Enforce-CT", EnforceCT)
			h.Set("Referrer-Policy", ReferrerPolicy)
			h.Set("Strict-Transport-Security", StrictTransportSecurity)
			h.Set("X-Content-Type-Options", ContentTypeOptions)
			h.Set("X-Frame-Options", FrameOptions)
			h.Set("X-XSS-Protection", XSSProtection)
			h.Set("Upgrade-Insecure-Requests", UpgradeInsecureRequests)

			asset := isAsset(r.URL.Path)
			if !asset {
				h.Set("Cross-Origin-Embedder-Policy", CrossOriginEmbedderPolicy)
				h.Set("Cross-Origin-Opener-Policy", CrossOriginOpenerPolicy)
				h.Set("Cross-Origin-Resource-Policy", CrossOriginResourcePolicy)

				h.Set("Content-Security-Policy", policies.ContentSecurityPolicy)
				h.Set("Feature-Policy", policies.FeaturePolicy)
				h.Set("Permissions-Policy", policies.PermissionsPolicy)
			}

			if onHarden != nil {
				onHarden(asset)
			}

			next.ServeHTTP(w, r)
		})
	}
}
