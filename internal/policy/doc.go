// Package policy holds the Content-Security-Policy and permissions tables
// and the formatters that turn them into header values.
//
// Tables are ordered; rendering preserves that order. The permissions table
// is rendered twice: once in the legacy Feature-Policy syntax
// ("camera ; geolocation ") and once in Permissions-Policy syntax
// ("camera=(), geolocation=()"). Nothing here touches net/http, so the
// formatters can be tested on plain values.
package policy
