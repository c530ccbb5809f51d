package policy

// Headers holds the rendered policy header values. It is built once at
// startup and shared read-only by every request.
type Headers struct {
	ContentSecurityPolicy string
	FeaturePolicy         string
	PermissionsPolicy     string
}

// Render builds the header values from a CSP table and a permissions table.
// The same permissions table feeds both Feature-Policy and Permissions-Policy.
func Render(csp, permissions Table) Headers {
	return Headers{
		ContentSecurityPolicy: FormatCSP(csp),
		FeaturePolicy:         FormatFeaturePolicy(permissions),
		PermissionsPolicy:     FormatPermissionsPolicy(permissions),
	}
}

// Default renders the built-in tables.
func Default() Headers {
	return Render(DefaultCSP(), DefaultPermissions())
}
