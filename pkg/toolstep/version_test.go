package toolstep

import (
	"strings"
	"testing"
)

func TestSortVersionsDesc(t *testing.T) {
	versions := []string{"1.2.0", "1.10.0", "1.9.9", "2.0.0"}
	SortVersionsDesc(versions)
	want := []string{"2.0.0", "1.10.0", "1.9.9", "1.2.0"}
	for i := range want {
		if versions[i] != want[i] {
			t.Fatalf("SortVersionsDesc() = %v, want %v", versions, want)
		}
	}
}

func TestVersionLess(t *testing.T) {
	cases := []struct {
		a, b string
		less bool
	}{
		{"1.2.0", "1.10.0", true},
		{"1.10.0", "1.2.0", false},
		{"1.2.0", "1.2.0", false},
		{"1.2", "1.2.1", true},
	}
	for _, c := range cases {
		if got := versionLess(c.a, c.b); got != c.less {
			t.Errorf("versionLess(%q, %q) = %v, want %v", c.a, c.b, got, c.less)
		}
	}
}

func TestMatchesPlatform(t *testing.T) {
	if !matchesPlatformFor("linux", "amd64", "tool_linux_x86_64.tar.gz") {
		t.Error("expected linux/amd64 asset to match")
	}
	if matchesPlatformFor("linux", "amd64", "tool_darwin_arm64.tar.gz") {
		t.Error("did not expect darwin/arm64 asset to match linux/amd64")
	}
}

// matchesPlatformFor restates matchesPlatform's matching rules for an
// arbitrary (goos, goarch) pair instead of the build's actual
// runtime.GOOS/GOARCH, which the unexported function is pinned to. It
// does not call matchesPlatform itself.
func matchesPlatformFor(goos, goarch, name string) bool {
	lower := strings.ToLower(name)
	osOK := strings.Contains(lower, goos) || (goos == "darwin" && strings.Contains(lower, "macos"))
	archOK := strings.Contains(lower, goarch) ||
		(goarch == "amd64" && (strings.Contains(lower, "x86_64") || strings.Contains(lower, "x64"))) ||
		(goarch == "arm64" && strings.Contains(lower, "aarch64"))
	return osOK && archOK
}
