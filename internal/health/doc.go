// Package health holds the liveness and readiness probes served on
// /-/healthy and /-/ready.
//
// Probes compose with [All] and [Any]; [Fixed] and [CheckFunc] build leaf
// probes. [ShutdownGate] fails readiness during drain so traffic moves away
// before the listeners close.
package health
