// Package version reports build information for the meditai binary.
//
// The version, commit and build time are injected at link time:
//
//	go build -ldflags "-X github.com/bleitz/meditai/version.Version=v1.2.0 \
//	    -X github.com/bleitz/meditai/version.Commit=$(git rev-parse --short HEAD)"
package version
