//go:build integration

// Package integration provides integration tests for the image cache.
//
// These tests require Docker and spin up a real MinIO server using
// testcontainers. Run with: go test -tags=integration ./integration/...
package integration
