package otelx

import (
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Options{Enabled: false})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	if !span.SpanContext().IsValid() {
		t.Fatal("disabled provider should still mint span contexts")
	}
	if span.SpanContext().IsSampled() {
		t.Fatal("disabled provider should not sample")
	}
	fields := otel.GetTextMapPropagator().Fields()
	if len(fields) == 0 || !strings.Contains(strings.Join(fields, ","), "traceparent") {
		t.Fatalf("propagator fields = %v", fields)
	}
}

func TestInit_EnabledWithoutEndpoint(t *testing.T) {
	if _, err := Init(context.Background(), Options{Enabled: true}); err == nil {
		t.Fatal("expected error without endpoint")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{-1, "AlwaysOffSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
		{1, "AlwaysOnSampler"},
		{5, "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		if got := sampler(tt.ratio).Description(); !strings.Contains(got, tt.want) || !strings.HasPrefix(got, "ParentBased") {
			t.Errorf("sampler(%v) = %q, want ParentBased root %s", tt.ratio, got, tt.want)
		}
	}
}

func TestServiceName(t *testing.T) {
	if got := serviceName(Options{Service: "hardened-web", Component: "server"}); got != "hardened-web.server" {
		t.Errorf("serviceName = %q", got)
	}
	if got := serviceName(Options{Service: "hardened-web"}); got != "hardened-web" {
		t.Errorf("serviceName = %q", got)
	}
}
