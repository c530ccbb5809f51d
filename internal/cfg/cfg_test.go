package cfg

import (
	"flag"
	"fmt"
	"strings"
	"testing"
)

func wantErrContains(t *testing.T, err error, sub string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got <nil>", sub)
	}
	if !strings.Contains(err.Error(), sub) {
		t.Fatalf("error %q does not contain %q", err.Error(), sub)
	}
}

func parse(t *testing.T, args ...string) (App, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var c App
	Register(fs, &c)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("flag parse: %v", err)
	}
	return c, fs
}

func TestRegister_Defaults(t *testing.T) {
	c, _ := parse(t)

	if !c.LogJSON || c.LogLevel != "info" || c.StacktraceLevel != "error" {
		t.Errorf("log defaults = %v/%q/%q", c.LogJSON, c.LogLevel, c.StacktraceLevel)
	}
	if c.HTTPPort != 8080 || c.AdminPort != 9000 {
		t.Errorf("ports = %d/%d", c.HTTPPort, c.AdminPort)
	}
	if c.EnablePprof || c.EnableTracing || c.EnablePyroscope {
		t.Error("optional subsystems should default off")
	}
	if c.AllowOrigin != "" || c.AllowOriginSSMParam != "" {
		t.Error("origin must have no default")
	}
	if c.TrustedHops != 0 {
		t.Errorf("TrustedHops = %d", c.TrustedHops)
	}
	if c.RateLimitRPS != 10 || c.RateLimitBurst != 30 || c.RateLimitMaxClients != 100000 {
		t.Errorf("rate limit defaults = %v/%d/%d", c.RateLimitRPS, c.RateLimitBurst, c.RateLimitMaxClients)
	}
}

func TestEnvKey(t *testing.T) {
	if got := EnvKey(EnvPrefix, "allow-origin-ssm-param"); got != "HARDENED_ALLOW_ORIGIN_SSM_PARAM" {
		t.Fatalf("EnvKey = %q", got)
	}
}

func TestFillFromEnv(t *testing.T) {
	pfx := "TESTCFG_"
	t.Setenv(pfx+"LOG_JSON", "false")
	t.Setenv(pfx+"HTTP_PORT", "8088")
	t.Setenv(pfx+"TRACE_SAMPLE", "0.25")
	t.Setenv(pfx+"ALLOW_ORIGIN", "https://www.example.com")
	t.Setenv(pfx+"TRUSTED_HOPS", "1")
	t.Setenv(pfx+"RATE_LIMIT_RPS", "2.5")

	c, fs := parse(t)
	FillFromEnv(fs, pfx, nil)

	if c.LogJSON {
		t.Error("LogJSON: want false from env")
	}
	if c.HTTPPort != 8088 {
		t.Errorf("HTTPPort = %d", c.HTTPPort)
	}
	if c.TraceSample != 0.25 {
		t.Errorf("TraceSample = %v", c.TraceSample)
	}
	if c.AllowOrigin != "https://www.example.com" {
		t.Errorf("AllowOrigin = %q", c.AllowOrigin)
	}
	if c.TrustedHops != 1 || c.RateLimitRPS != 2.5 {
		t.Errorf("TrustedHops=%d RateLimitRPS=%v", c.TrustedHops, c.RateLimitRPS)
	}
}

func TestFillFromEnv_CLITakesPrecedence(t *testing.T) {
	pfx := "TESTCFG2_"
	t.Setenv(pfx+"HTTP_PORT", "7777")
	t.Setenv(pfx+"ALLOW_ORIGIN", "https://env.example.com")

	c, fs := parse(t, "-http-port=9090", "-allow-origin=https://cli.example.com")
	var msgs []string
	FillFromEnv(fs, pfx, func(format string, args ...any) {
		msgs = append(msgs, fmt.Sprintf(format, args...))
	})

	if c.HTTPPort != 9090 || c.AllowOrigin != "https://cli.example.com" {
		t.Errorf("cli lost: port=%d origin=%q", c.HTTPPort, c.AllowOrigin)
	}
	if len(msgs) != 2 {
		t.Fatalf("override messages = %v", msgs)
	}
	for _, m := range msgs {
		if !strings.Contains(m, "overrides env") {
			t.Errorf("message = %q", m)
		}
	}
}

func TestFillFromEnv_InvalidEnvIgnored(t *testing.T) {
	pfx := "TESTCFG3_"
	t.Setenv(pfx+"HTTP_PORT", "not-a-number")

	c, fs := parse(t)
	var msgs []string
	FillFromEnv(fs, pfx, func(format string, args ...any) {
		msgs = append(msgs, fmt.Sprintf(format, args...))
	})

	if c.HTTPPort != 8080 {
		t.Errorf("HTTPPort = %d, want default", c.HTTPPort)
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "ignoring invalid env") {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestValidate_OK(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"static origin", []string{"-allow-origin=https://www.example.com"}},
		{"wildcard", []string{"-allow-origin=*"}},
		{"ssm only", []string{"-allow-origin-ssm-param=/hardened-web/allow-origin"}},
		{"site dir", []string{"-allow-origin=null", "-site-dir=" + t.TempDir()}},
		{"everything on", []string{
			"-allow-origin=https://www.example.com:8443",
			"-enable-pyroscope=true",
			"-pyro-server=https://pyro:4040",
			"-pyro-tenant=web",
			"-enable-tracing=true",
			"-otlp-endpoint=otel:4317",
			"-trace-sample=0.2",
			"-trusted-hops=2",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := parse(t, tt.args...)
			if err := Validate(c); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestValidate_OriginRequired(t *testing.T) {
	c, _ := parse(t)
	wantErrContains(t, Validate(c), "one of ALLOW_ORIGIN or ALLOW_ORIGIN_SSM_PARAM is required")
}

func TestValidate_InvalidCombined(t *testing.T) {
	c, _ := parse(t,
		"-http-port=0",
		"-admin-port=70000",
		"-log-level=nope",
		"-stacktrace-level=alsonope",
		"-trace-sample=2.0",
		"-enable-pyroscope=true",
		"-pyro-server=not-a-url",
		"-enable-tracing=true",
		"-otlp-endpoint=otel",
		"-max-error-links=0",
		"-allow-origin=https://www.example.com/path",
		"-allow-origin-ssm-param=relative/name",
		"-site-dir=/nonexistent/hardened-web",
		"-trusted-hops=-1",
		"-rate-limit-rps=-1",
		"-rate-limit-max-clients=-5",
	)

	err := Validate(c)
	for _, sub := range []string{
		"invalid HTTP_PORT",
		"invalid ADMIN_PORT",
		"invalid LOG_LEVEL",
		"invalid STACKTRACE_LEVEL",
		"invalid TRACE_SAMPLE",
		"PYRO_SERVER must be a URL",
		"PYRO_TENANT required",
		"OTLP_ENDPOINT must be host:port",
		"MAX_ERROR_LINKS",
		"invalid ALLOW_ORIGIN",
		"ALLOW_ORIGIN_SSM_PARAM must be an absolute",
		"SITE_DIR",
		"TRUSTED_HOPS",
		"RATE_LIMIT_RPS",
		"RATE_LIMIT_MAX_CLIENTS",
	} {
		wantErrContains(t, err, sub)
	}
}

func TestValidate_SamePorts(t *testing.T) {
	c, _ := parse(t, "-allow-origin=*", "-http-port=9000")
	wantErrContains(t, Validate(c), "must differ")
}
