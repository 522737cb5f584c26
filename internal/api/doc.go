// Package api is the HTTP surface of stackbridge.
//
// It mounts the authentication lifecycle endpoints next to the Stack
// Overflow list and write endpoints. List endpoints never talk to the
// upstream directly: they go through page caches that translate small
// display pages onto the upstream's larger API pages, deduplicate
// concurrent fetches for the same page, and bound staleness with a TTL.
package api
