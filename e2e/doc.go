//go:build e2e

// Package e2e runs the Łatynkatar scenarios in a real Chromium.
//
// These tests are isolated from the standard test suite via build tags.
// They require a Chrome browser (auto-downloaded by Rod if not present)
// and are intended for CI pipelines or explicit local testing.
//
// Running E2E tests against a deployment:
//
//	BASE_URL=https://latynkatar.org/ go test -tags=e2e ./e2e/...
//
// Without BASE_URL the tests run against the in-process stand-in page
// from cmd/latynkatar-e2e/fixture. Every other setting is read the same
// way the latynkatar-e2e command reads it (environment, then .env).
//
// Running all tests except E2E:
//
//	go test ./...
//
// Test isolation:
// Each scenario launches its own browser and tears it down on every
// exit path. TestMain kills any browser process that outlived its
// session and fails the run if it finds one.
package e2e
