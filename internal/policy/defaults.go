package policy

// CSPReportURI receives CSP violation reports from browsers.
const CSPReportURI = "https://vicompany.report-uri.com/r/d/csp/enforce"

// permissionFeatures are denied for every origin by default.
var permissionFeatures = []string{
	"accelerometer",
	"ambient-light-sensor",
	"autoplay",
	"battery",
	"camera",
	"clipboard-read",
	"clipboard-write",
	"conversion-measurement",
	"cross-origin-isolated",
	"display-capture",
	"document-domain",
	"encrypted-media",
	"execution-while-not-rendered",
	"execution-while-out-of-viewport",
	"focus-without-user-activation",
	"fullscreen",
	"gamepad",
	"geolocation",
	"gyroscope",
	"hid",
	"idle-detection",
	"magnetometer",
	"microphone",
	"midi",
	"navigation-override",
	"payment",
	"picture-in-picture",
	"publickey-credentials-get",
	"screen-wake-lock",
	"serial",
	"speaker-selection",
	"sync-script",
	"sync-xhr",
	"trust-token-redemption",
	"usb",
	"vertical-scroll",
	"web-share",
	"xr-spatial-tracking",
}

// DefaultCSP returns a fresh copy of the default Content-Security-Policy table.
func DefaultCSP() Table {
	return NewTable(
		Directive{Name: "default-src", Tokens: []string{"'self'"}},
		Directive{Name: "frame-ancestors", Tokens: []string{"'none'"}},
		Directive{Name: "object-src", Tokens: []string{"'none'"}},
		Directive{Name: "report-uri", Tokens: []string{CSPReportURI}},
	)
}

// DefaultPermissions returns a fresh copy of the default permissions table.
// Every feature has an empty allow-list.
func DefaultPermissions() Table {
	t := make(Table, len(permissionFeatures))
	for i, name := range permissionFeatures {
		t[i] = Directive{Name: name, Tokens: []string{}}
	}
	return t
}
