// Package originsource resolves the Access-Control-Allow-Origin value the
// hardening middleware sends: a static value from config, or an SSM
// parameter that a [Watcher] keeps current.
package originsource
