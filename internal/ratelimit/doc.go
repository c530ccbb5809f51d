// Package ratelimit is per-client-IP token bucket limiting for the public
// listener.
//
// State is in memory and local to one process. It caps what a single
// address can consume and gives one log line per offender; distributed
// floods and bandwidth abuse are left to the edge in front of the server.
//
// Denied requests still pass through the hardening middleware, which sits
// outside the limiter, so a 429 carries the same security headers as any
// other response.
package ratelimit
