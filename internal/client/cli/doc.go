// Package cli implements the interactive terminal client for Memora.
//
// App wires the client core to a read-eval-print loop. Every command opens a
// route, and the auth gate decides whether that route may be shown before the
// command runs.
package cli
