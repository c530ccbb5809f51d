package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/vicompany/hardened-web/internal/cfg"
	"github.com/vicompany/hardened-web/internal/health"
	"github.com/vicompany/hardened-web/internal/httpmw"
	"github.com/vicompany/hardened-web/internal/httpserver"
	"github.com/vicompany/hardened-web/internal/log"
	"github.com/vicompany/hardened-web/internal/metrics"
	"github.com/vicompany/hardened-web/internal/opshttp"
	"github.com/vicompany/hardened-web/internal/originsource"
	"github.com/vicompany/hardened-web/internal/otelx"
	"github.com/vicompany/hardened-web/internal/policy"
	"github.com/vicompany/hardened-web/internal/prof"
	"github.com/vicompany/hardened-web/internal/ratelimit"
	"github.com/vicompany/hardened-web/internal/sitehandler"
	v "github.com/vicompany/hardened-web/internal/version"
	"github.com/vicompany/hardened-web/internal/webassets"
)

const component = "server"

// drainPeriod is how long readiness fails before listeners close, so the
// load balancer stops routing to this instance first.
const drainPeriod = 30 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vi := v.Get()

	var conf cfg.App
	var showVersion bool

	cfg.Register(flag.CommandLine, &conf)
	flag.BoolVar(&showVersion, "V", false, "Print version+build information and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(vi.String())
		os.Exit(0)
	}

	cfg.FillFromEnv(flag.CommandLine, cfg.EnvPrefix, func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	})

	if err := cfg.Validate(conf); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	// levels were checked by Validate
	lvl, _ := log.ParseLevel(conf.LogLevel)
	stackLvl, _ := log.ParseLevel(conf.StacktraceLevel)
	lg, err := log.New(log.Options{
		App:               v.AppName,
		Version:           vi.Version,
		Level:             lvl,
		StacktraceLevel:   stackLvl,
		JSON:              conf.LogJSON,
		IncludeErrorLinks: conf.IncludeErrorLinks,
		MaxErrorLinks:     conf.MaxErrorLinks,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init error:", err)
		os.Exit(1)
	}
	defer lg.Sync()
	L := lg.With("component", component)
	ctx = log.WithContext(ctx, L)

	L.Info(ctx, "initializing application",
		"version", vi.Version,
		"commit", vi.Commit,
		"commit_date", vi.CommitDate,
		"build_id", vi.BuildID,
		"build_date", vi.BuildDate,
		"go_version", vi.GoVersion,
		"vcs_dirty", vi.VCSDirty,
		"http_port", conf.HTTPPort,
		"admin_port", conf.AdminPort,
		"enable_pprof", conf.EnablePprof,
		"enable_pyroscope", conf.EnablePyroscope,
		"enable_tracing", conf.EnableTracing,
		"otlp_endpoint", conf.OTLPEndpoint,
		"trace_sample", conf.TraceSample,
		"allow_origin", conf.AllowOrigin,
		"allow_origin_ssm_param", conf.AllowOriginSSMParam,
		"site_dir", conf.SiteDir,
		"trusted_hops", conf.TrustedHops,
		"rate_limit_rps", conf.RateLimitRPS,
		"rate_limit_burst", conf.RateLimitBurst,
	)

	m := metrics.New()
	m.SetBuildInfoFromVersion(v.AppName, component, vi)

	stopProf, err := prof.Start(ctx, prof.Options{
		Enabled:       conf.EnablePyroscope,
		AppName:       v.AppName,
		ServerAddress: conf.PyroServer,
		TenantID:      conf.PyroTenantID,
		Tags: map[string]string{
			"app":       v.AppName,
			"component": component,
			"version":   vi.Version,
			"commit":    vi.Commit,
		},
	})
	if err != nil {
		L.Error(ctx, err, "pyroscope start failed", "pyro_server", conf.PyroServer)
	}
	m.SetProfilingActive(conf.EnablePyroscope && err == nil)

	// collector runs on localhost
	shutdownOTEL, err := otelx.Init(ctx, otelx.Options{
		Enabled:   conf.EnableTracing,
		Endpoint:  conf.OTLPEndpoint,
		Insecure:  true,
		Sample:    conf.TraceSample,
		Service:   v.AppName,
		Component: component,
		Version:   vi.Version,
	})
	if err != nil {
		L.Error(ctx, err, "otel init failed")
	}
	defer func() { _ = shutdownOTEL(context.Background()) }()

	origin, err := startOriginSource(ctx, L, conf, m)
	if err != nil {
		L.Error(ctx, err, "failed to resolve allowed origin")
		os.Exit(1)
	}

	site, err := sitehandler.New(sitehandler.Options{
		Logger:     L,
		Site:       siteFS(ctx, L, conf.SiteDir),
		FallbackFS: webassets.FallbackFS(),
	})
	if err != nil {
		L.Error(ctx, err, "failed to create site handler")
		os.Exit(1)
	}

	var gate health.ShutdownGate
	readiness := health.All(gate.Probe(), site)

	var rateLimitMW func(next http.Handler) http.Handler
	if conf.RateLimitRPS > 0 {
		limiter := ratelimit.New(ctx,
			ratelimit.WithRate(conf.RateLimitRPS, conf.RateLimitBurst),
			ratelimit.WithMaxVisitors(conf.RateLimitMaxClients),
			ratelimit.WithOnDenied(func(string) { m.IncRateLimitDenied() }),
			// logged once per visitor until it is evicted
			ratelimit.WithOnFirstDenied(func(ip string) {
				L.Warn(ctx, "rate limit triggered", "ip", ip)
			}),
			ratelimit.WithOnCapacity(func() {
				m.IncRateLimitCapacity()
				L.Warn(ctx, "rate limit capacity reached, rejecting new visitors until some are evicted")
			}),
		)
		rateLimitMW = limiter.Middleware
	}

	policies := policy.Default()

	siteHTTPStop, err := httpserver.Start(ctx, &httpserver.Options{
		Logger:       L,
		Port:         conf.HTTPPort,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
		MetricsMW:    m.Middleware,
		RateLimitMW:  rateLimitMW,
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		SiteHandler:  site,
		ClientIPOpts: httpmw.ClientIPOptions{TrustedHops: conf.TrustedHops},
		Harden: httpmw.HardenOptions{
			Origin:   origin.Current,
			Policies: &policies,
			OnHarden: m.ObserveHarden,
		},
	})
	if err != nil {
		L.Error(ctx, err, "failed to start site http listener")
		os.Exit(1)
	}
	defer func() { _ = siteHTTPStop(context.Background()) }()

	// the admin port is for internal monitoring only; opshttp also rejects
	// public peers in case a security group is misconfigured
	opsHTTPStop, err := opshttp.Start(ctx, L, opshttp.Options{
		Port:         conf.AdminPort,
		Metrics:      m.Handler(),
		EnablePprof:  conf.EnablePprof,
		Health:       health.Fixed(true, ""),
		Readiness:    readiness,
		UseRecoverMW: true,
		OnPanic:      m.IncHttpPanic,
	})
	if err != nil {
		L.Error(ctx, err, "failed to start ops http listener")
		os.Exit(1)
	}
	defer func() { _ = opsHTTPStop(context.Background()) }()

	if err := notifySystemd(); err != nil {
		// worst case systemd kills us after its start timeout
		L.Warn(ctx, "failed to notify systemd of readiness", "error", err)
	}

	<-ctx.Done()
	stop()

	bg := context.Background()
	L.Info(bg, "shutdown signal received")

	gate.Set("draining")
	L.Info(bg, "shutdown gate closed, draining", "period", drainPeriod.String())

	forceCh := make(chan os.Signal, 1)
	signal.Notify(forceCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-time.After(drainPeriod):
		L.Info(bg, "drain period complete")
	case <-forceCh:
		L.Warn(bg, "second signal received, skipping drain")
	}
	signal.Stop(forceCh)

	shutdownCtx, cancel := context.WithTimeout(bg, 10*time.Second)
	defer cancel()

	if err := siteHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "site http server shutdown")
	}
	if err := opsHTTPStop(shutdownCtx); err != nil {
		L.Error(bg, err, "ops http server shutdown")
	}
	if err := shutdownOTEL(shutdownCtx); err != nil {
		L.Error(bg, err, "otel shutdown")
	}
	stopProf()

	L.Info(bg, "shutdown complete")
}

// startOriginSource returns the static origin, or loads it from SSM and
// keeps it fresh in the background until ctx ends.
func startOriginSource(ctx context.Context, L log.Logger, conf cfg.App, m *metrics.ServerMetrics) (*originsource.Source, error) {
	if conf.AllowOriginSSMParam == "" {
		src, err := originsource.NewStatic(conf.AllowOrigin)
		if err != nil {
			return nil, err
		}
		m.SetOriginSource(src.Kind())
		return src, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	fetcher, err := originsource.NewSSMFetcher(ssm.NewFromConfig(awsCfg), conf.AllowOriginSSMParam)
	if err != nil {
		return nil, err
	}
	src, err := originsource.NewFromFetcher(ctx, fetcher)
	if err != nil {
		return nil, err
	}
	m.SetOriginSource(src.Kind())
	m.SetOriginStale(false)
	L.Info(ctx, "allowed origin loaded from ssm", "param", conf.AllowOriginSSMParam, "origin", src.Current())

	w := originsource.NewWatcher(originsource.WatcherOptions{
		Logger:  L,
		Fetcher: fetcher,
		Source:  src,
		OnSwap: func(old, new string) {
			L.Info(ctx, "allowed origin changed", "old", old, "new", new)
		},
		OnStale: m.SetOriginStale,
	})
	go func() { _ = w.Run(ctx) }()
	return src, nil
}

// siteFS serves dir when set, otherwise the embedded site.
func siteFS(ctx context.Context, L log.Logger, dir string) fs.FS {
	if dir == "" {
		L.Info(ctx, "serving embedded site")
		return webassets.SiteFS()
	}
	L.Info(ctx, "serving site from directory", "dir", dir)
	return os.DirFS(dir)
}

func notifySystemd() error {
	// set by systemd for Type=notify units
	addr := os.Getenv("NOTIFY_SOCKET")
	if addr == "" {
		return nil
	}
	conn, err := net.Dial("unixgram", addr)
	if err != nil {
		return fmt.Errorf("systemd notify: dial: %w", err)
	}
	if _, err := conn.Write([]byte("READY=1")); err != nil {
		conn.Close()
		return fmt.Errorf("systemd notify: write: %w", err)
	}
	return conn.Close()
}
