package policy

import "strings"

// FormatCSP renders a Content-Security-Policy value.
// Each directive becomes "<name> <tokens...>" and directives are joined with "; ".
// A directive without tokens keeps its trailing space ("<name> ").
func FormatCSP(t Table) string {
	return join(t, "; ", func(b *strings.Builder, d Directive) {
		b.WriteString(d.Name)
		b.WriteByte(' ')
		b.WriteString(strings.Join(d.Tokens, " "))
	})
}

// FormatFeaturePolicy renders the legacy Feature-Policy value, which shares
// the CSP syntax.
func FormatFeaturePolicy(t Table) string {
	return FormatCSP(t)
}

// FormatPermissionsPolicy renders a Permissions-Policy value:
// "<name>=(<tokens...>)" per feature, joined with ", ".
func FormatPermissionsPolicy(t Table) string {
	return join(t, ", ", func(b *strings.Builder, d Directive) {
		b.WriteString(d.Name)
		b.WriteString("=(")
		b.WriteString(strings.Join(d.Tokens, " "))
		b.WriteByte(')')
	})
}

func join(t Table, sep string, write func(*strings.Builder, Directive)) string {
	var b strings.Builder
	for i, d := range t {
		if i > 0 {
			b.WriteString(sep)
		}
		write(&b, d)
	}
	return b.String()
}
