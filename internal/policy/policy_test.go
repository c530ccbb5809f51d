package policy

import (
	"strings"
	"testing"
)

func TestFormatCSP_Default(t *testing.T) {
	want := "default-src 'self'; frame-ancestors 'none'; object-src 'none'; report-uri https://vicompany.report-uri.com/r/d/csp/enforce"
	if got := FormatCSP(DefaultCSP()); got != want {
		t.Fatalf("FormatCSP = %q\nwant        %q", got, want)
	}
}

func TestFormatters(t *testing.T) {
	tests := []struct {
		name        string
		table       Table
		csp         string
		permissions string
	}{
		{
			name:        "empty table",
			table:       Table{},
			csp:         "",
			permissions: "",
		},
		{
			name:        "single directive no tokens",
			table:       NewTable(Directive{Name: "camera"}),
			csp:         "camera ",
			permissions: "camera=()",
		},
		{
			name: "multiple tokens are space joined",
			table: NewTable(
				Directive{Name: "script-src", Tokens: []string{"'self'", "https://cdn.example.com"}},
				Directive{Name: "img-src", Tokens: []string{"data:"}},
			),
			csp:         "script-src 'self' https://cdn.example.com; img-src data:",
			permissions: "script-src=('self' https://cdn.example.com), img-src=(data:)",
		},
		{
			name: "mixed empty and populated",
			table: NewTable(
				Directive{Name: "camera"},
				Directive{Name: "geolocation", Tokens: []string{"self"}},
				Directive{Name: "usb", Tokens: []string{}},
			),
			csp:         "camera ; geolocation self; usb ",
			permissions: "camera=(), geolocation=(self), usb=()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCSP(tt.table); got != tt.csp {
				t.Errorf("FormatCSP = %q, want %q", got, tt.csp)
			}
			if got := FormatFeaturePolicy(tt.table); got != tt.csp {
				t.Errorf("FormatFeaturePolicy = %q, want %q", got, tt.csp)
			}
			if got := FormatPermissionsPolicy(tt.table); got != tt.permissions {
				t.Errorf("FormatPermissionsPolicy = %q, want %q", got, tt.permissions)
			}
		})
	}
}

func TestDefaultPermissions_AllDenied(t *testing.T) {
	p := DefaultPermissions()
	if len(p) != 38 {
		t.Fatalf("len = %d, want 38", len(p))
	}
	for _, d := range p {
		if len(d.Tokens) != 0 {
			t.Errorf("%s has tokens %v, want none", d.Name, d.Tokens)
		}
	}
	if p[0].Name != "accelerometer" || p[len(p)-1].Name != "xr-spatial-tracking" {
		t.Fatalf("unexpected order: first=%s last=%s", p[0].Name, p[len(p)-1].Name)
	}
}

func TestFormatPermissionsPolicy_Default(t *testing.T) {
	got := FormatPermissionsPolicy(DefaultPermissions())

	if !strings.HasPrefix(got, "accelerometer=(), ambient-light-sensor=(), autoplay=()") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if !strings.HasSuffix(got, "web-share=(), xr-spatial-tracking=()") {
		t.Errorf("unexpected suffix: %q", got)
	}
	if !strings.Contains(got, "camera=()") {
		t.Error("missing camera=()")
	}
	if n := strings.Count(got, ", "); n != 37 {
		t.Errorf("separator count = %d, want 37", n)
	}
}

func TestFormatFeaturePolicy_Default(t *testing.T) {
	got := FormatFeaturePolicy(DefaultPermissions())

	if !strings.HasPrefix(got, "accelerometer ; ambient-light-sensor ; ") {
		t.Errorf("unexpected prefix: %q", got)
	}
	if !strings.HasSuffix(got, "; xr-spatial-tracking ") {
		t.Errorf("unexpected suffix: %q", got)
	}
}

func TestNewTable_CopiesInput(t *testing.T) {
	tokens := []string{"'self'"}
	tbl := NewTable(Directive{Name: "default-src", Tokens: tokens})

	tokens[0] = "'unsafe-inline'"
	if got := FormatCSP(tbl); got != "default-src 'self'" {
		t.Fatalf("table mutated through caller slice: %q", got)
	}
}

func TestDefaultCSP_FreshCopy(t *testing.T) {
	a := DefaultCSP()
	a[0].Tokens[0] = "*"
	a[1].Name = "changed"

	if got := FormatCSP(DefaultCSP()); strings.Contains(got, "*") || strings.Contains(got, "changed") {
		t.Fatalf("DefaultCSP shares state between calls: %q", got)
	}
}

func TestClone_Nil(t *testing.T) {
	var tbl Table
	if tbl.Clone() != nil {
		t.Fatal("Clone of nil table should be nil")
	}
}

func TestNames(t *testing.T) {
	got := strings.Join(DefaultCSP().Names(), ",")
	if got != "default-src,frame-ancestors,object-src,report-uri" {
		t.Fatalf("Names = %q", got)
	}
}

func TestRender(t *testing.T) {
	h := Render(DefaultCSP(), DefaultPermissions())

	if h.ContentSecurityPolicy != FormatCSP(DefaultCSP()) {
		t.Error("ContentSecurityPolicy mismatch")
	}
	if h.FeaturePolicy != FormatFeaturePolicy(DefaultPermissions()) {
		t.Error("FeaturePolicy mismatch")
	}
	if h.PermissionsPolicy != FormatPermissionsPolicy(DefaultPermissions()) {
		t.Error("PermissionsPolicy mismatch")
	}
	if Default() != h {
		t.Error("Default() differs from Render of default tables")
	}
}
