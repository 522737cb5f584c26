// Package app bootstraps and runs the stackbridge server.
//
// Bootstrap wires configuration, logging, the upstream Stack Overflow
// client, the authentication manager and the HTTP surface; Run owns the
// listener lifecycle including graceful shutdown on SIGINT/SIGTERM.
package app
