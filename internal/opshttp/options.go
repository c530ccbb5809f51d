package opshttp

import (
	"net/http"

	"github.com/vicompany/hardened-web/internal/health"
)

type Options struct {
	Port        int
	Metrics     http.Handler
	EnablePprof bool
	Health      health.Probe
	Readiness   health.Probe

	// AllowPublic skips the private-network check. Tests and local runs only.
	AllowPublic bool

	UseRecoverMW bool
	// OnPanic runs after a panic is recovered, e.g. to count it.
	OnPanic func()
}
