package utils

import "runtime/debug"

var version = "dev"

// SetVersion lets the build override the version stamp, e.g. through
// -ldflags "-X main.version=...".
func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// Version returns the build stamp recorded in activity logs and printed by
// the cli.
func Version() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
