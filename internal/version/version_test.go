package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.Commit != Commit {
		t.Errorf("Commit = %q, want %q", info.Commit, Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
	if want := runtime.GOOS + "/" + runtime.GOARCH; info.Platform != want {
		t.Errorf("Platform = %q, want %q", info.Platform, want)
	}
}

func TestFull(t *testing.T) {
	got := Full()
	if !strings.HasPrefix(got, Version) || !strings.Contains(got, "(commit: "+Commit+")") {
		t.Errorf("Full() = %q, want version and commit", got)
	}
	if Version == "" || Commit == "" {
		t.Errorf("Version = %q, Commit = %q, want both filled in", Version, Commit)
	}
}
