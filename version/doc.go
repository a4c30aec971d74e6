// Package version reports build information for the dictate binary.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/dictate/version.Version=1.0.0" ./cmd/dictate
//
// Unset fields fall back to the module build info stamped by the Go toolchain.
package version
