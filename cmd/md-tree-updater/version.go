package main

import "runtime/debug"

// version is reported by the version command and in the MCP handshake. A
// binary built with go install carries its module tag; a local build falls
// back to the short commit hash, marked -dirty for uncommitted changes.
var version = buildVersion()

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if tag := info.Main.Version; tag != "" && tag != "(devel)" {
		return tag
	}

	vcs := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}

	rev := vcs["vcs.revision"]
	if rev == "" {
		return "dev"
	}
	rev = rev[:min(len(rev), 7)]
	if vcs["vcs.modified"] == "true" {
		rev += "-dirty"
	}
	return rev
}
