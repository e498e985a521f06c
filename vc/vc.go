// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package vc holds the build information stamped into the binary at link
// time. All values are empty in plain `go build` binaries.
package vc // import "github.com/nodemeter/nodemeter/vc"

// Set via -ldflags "-X github.com/nodemeter/nodemeter/vc.version=...".
var (
	version        = ""
	revision       = ""
	buildTimestamp = ""
)

// Version returns the release version in vX.Y.Z{-N-abbrev} format, as
// produced by git-describe --tags.
func Version() string {
	return version
}

// Revision returns the VCS revision the binary was built from.
func Revision() string {
	return revision
}

// BuildTimestamp returns the timestamp of the build.
func BuildTimestamp() string {
	return buildTimestamp
}
