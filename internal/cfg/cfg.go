// Package cfg binds server configuration to flags, with HARDENED_* env
// overrides, and validates it as a whole.
package cfg

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"

	"github.com/vicompany/hardened-web/internal/log"
	"github.com/vicompany/hardened-web/internal/originsource"
)

// EnvPrefix is prepended to upper-cased flag names for env overrides.
const EnvPrefix = "HARDENED_"

type App struct {
	LogJSON           bool
	LogLevel          string
	StacktraceLevel   string
	IncludeErrorLinks bool
	MaxErrorLinks     int

	HTTPPort    int
	AdminPort   int
	EnablePprof bool

	EnableTracing bool
	OTLPEndpoint  string
	TraceSample   float64

	EnablePyroscope bool
	PyroServer      string
	PyroTenantID    string

	AllowOrigin         string
	AllowOriginSSMParam string
	SiteDir             string
	TrustedHops         int

	RateLimitRPS        float64
	RateLimitBurst      int
	RateLimitMaxClients int
}

// Register binds all config fields to fs with defaults inline.
func Register(fs *flag.FlagSet, c *App) {
	fs.BoolVar(&c.LogJSON, "log-json", true, "JSON logs (true) or logfmt (false)")
	fs.StringVar(&c.LogLevel, "log-level", "info", "debug|info|warn|error")
	fs.StringVar(&c.StacktraceLevel, "stacktrace-level", "error", "debug|info|warn|error")
	fs.BoolVar(&c.IncludeErrorLinks, "include-error-links", true, "include wrap sites of the error chain in error logs")
	fs.IntVar(&c.MaxErrorLinks, "max-error-links", 5, "max error chain depth (1..64)")

	fs.IntVar(&c.HTTPPort, "http-port", 8080, "public listen TCP port (1..65535)")
	fs.IntVar(&c.AdminPort, "admin-port", 9000, "admin listen TCP port (1..65535)")
	fs.BoolVar(&c.EnablePprof, "enable-pprof", false, "serve pprof on the admin port")

	fs.BoolVar(&c.EnableTracing, "enable-tracing", false, "export OTLP traces to otlp-endpoint")
	fs.StringVar(&c.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint (host:port)")
	fs.Float64Var(&c.TraceSample, "trace-sample", 0.0, "trace sampling ratio (0..1)")

	fs.BoolVar(&c.EnablePyroscope, "enable-pyroscope", false, "push profiles to pyro-server")
	fs.StringVar(&c.PyroServer, "pyro-server", "", "pyroscope server url")
	fs.StringVar(&c.PyroTenantID, "pyro-tenant", "", "tenant (x-scope-orgid) for pyro-server")

	fs.StringVar(&c.AllowOrigin, "allow-origin", "", "Access-Control-Allow-Origin value: *, null or scheme://host[:port]")
	fs.StringVar(&c.AllowOriginSSMParam, "allow-origin-ssm-param", "", "SSM parameter holding the allowed origin, overrides allow-origin")
	fs.StringVar(&c.SiteDir, "site-dir", "", "serve this directory instead of the embedded site")
	fs.IntVar(&c.TrustedHops, "trusted-hops", 0, "reverse proxies in front of the server whose X-Forwarded-For is trusted (0..8)")

	fs.Float64Var(&c.RateLimitRPS, "rate-limit-rps", 10, "per client request refill rate, 0 disables limiting")
	fs.IntVar(&c.RateLimitBurst, "rate-limit-burst", 30, "per client burst size")
	fs.IntVar(&c.RateLimitMaxClients, "rate-limit-max-clients", 100000, "max tracked clients, 0 for no cap")
}

// FillFromEnv sets every flag not passed on the command line from its
// environment variable. Flag "foo-bar" maps to PREFIX_FOO_BAR.
// Precedence: cli flag > env var > default.
func FillFromEnv(fs *flag.FlagSet, prefix string, logf func(string, ...any)) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fs.VisitAll(func(f *flag.Flag) {
		key := EnvKey(prefix, f.Name)
		envVal, ok := os.LookupEnv(key)
		if !ok {
			return
		}
		if explicit[f.Name] {
			if logf != nil {
				logf("flag -%s: cli value %q overrides env %s=%q", f.Name, f.Value.String(), key, envVal)
			}
			return
		}
		prev := f.Value.String()
		if err := fs.Set(f.Name, envVal); err != nil {
			_ = fs.Set(f.Name, prev)
			if logf != nil {
				logf("flag -%s: ignoring invalid env %s=%q: %v", f.Name, key, envVal, err)
			}
		}
	})
}

// EnvKey returns the environment variable consulted for flag name.
func EnvKey(prefix, name string) string {
	return prefix + strings.ReplaceAll(strings.ToUpper(name), "-", "_")
}

// Validate reports every invalid field at once, or nil.
func Validate(c App) error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.HTTPPort))
	}
	if c.AdminPort < 1 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 1..65535)", c.AdminPort))
	}
	if c.AdminPort == c.HTTPPort {
		errs = append(errs, fmt.Errorf("ADMIN_PORT and HTTP_PORT must differ (both %d)", c.HTTPPort))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err))
	}
	if c.StacktraceLevel != "" {
		if _, err := log.ParseLevel(c.StacktraceLevel); err != nil {
			errs = append(errs, fmt.Errorf("invalid STACKTRACE_LEVEL %q: %w", c.StacktraceLevel, err))
		}
	}
	if c.IncludeErrorLinks && (c.MaxErrorLinks < 1 || c.MaxErrorLinks > 64) {
		errs = append(errs, fmt.Errorf("MAX_ERROR_LINKS must be 1..64 (got %d)", c.MaxErrorLinks))
	}

	if c.TraceSample < 0 || c.TraceSample > 1 {
		errs = append(errs, fmt.Errorf("invalid TRACE_SAMPLE %.3f (must be 0..1)", c.TraceSample))
	}
	// the grpc exporter wants host:port, no scheme
	if c.EnableTracing {
		if c.OTLPEndpoint == "" {
			errs = append(errs, errors.New("OTLP_ENDPOINT required when ENABLE_TRACING=true"))
		} else if _, _, err := net.SplitHostPort(c.OTLPEndpoint); err != nil {
			errs = append(errs, fmt.Errorf("OTLP_ENDPOINT must be host:port (got %q): %w", c.OTLPEndpoint, err))
		}
	}

	if c.EnablePyroscope {
		if c.PyroServer == "" {
			errs = append(errs, errors.New("PYRO_SERVER required when ENABLE_PYROSCOPE=true"))
		} else if u, err := url.Parse(c.PyroServer); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("PYRO_SERVER must be a URL (got %q)", c.PyroServer))
		}
		if c.PyroTenantID == "" {
			errs = append(errs, errors.New("PYRO_TENANT required when ENABLE_PYROSCOPE=true"))
		}
	}

	// no built-in default: a deployment has to name its origin
	switch {
	case c.AllowOriginSSMParam != "":
		if !strings.HasPrefix(c.AllowOriginSSMParam, "/") {
			errs = append(errs, fmt.Errorf("ALLOW_ORIGIN_SSM_PARAM must be an absolute parameter path (got %q)", c.AllowOriginSSMParam))
		}
	case c.AllowOrigin == "":
		errs = append(errs, errors.New("one of ALLOW_ORIGIN or ALLOW_ORIGIN_SSM_PARAM is required"))
	}
	if c.AllowOrigin != "" {
		if err := originsource.ValidateOrigin(c.AllowOrigin); err != nil {
			errs = append(errs, fmt.Errorf("invalid ALLOW_ORIGIN: %w", err))
		}
	}

	if c.SiteDir != "" {
		if fi, err := os.Stat(c.SiteDir); err != nil || !fi.IsDir() {
			errs = append(errs, fmt.Errorf("SITE_DIR %q is not a readable directory", c.SiteDir))
		}
	}
	if c.TrustedHops < 0 || c.TrustedHops > 8 {
		errs = append(errs, fmt.Errorf("TRUSTED_HOPS must be 0..8 (got %d)", c.TrustedHops))
	}

	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be >= 0 (got %v)", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be >= 1 when limiting (got %d)", c.RateLimitBurst))
	}
	if c.RateLimitMaxClients < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_MAX_CLIENTS must be >= 0 (got %d)", c.RateLimitMaxClients))
	}

	return errors.Join(errs...)
}
