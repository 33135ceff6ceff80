// Package version exposes the worklift build version.
package version

// Version is stamped at build time:
//
//	go build -ldflags "-X github.com/worklift/worklift/pkg/version.Version=v1.2.0"
var Version = "1.0.0"

// GetVersion returns the stamped build version.
func GetVersion() string {
	return Version
}
