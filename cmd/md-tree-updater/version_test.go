package main

import "testing"

func TestBuildVersion(t *testing.T) {
	// Test binaries carry no module tag, so a revision or "dev" is expected.
	if got := buildVersion(); got == "" {
		t.Error("buildVersion() returned an empty string")
	}
}
