package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "omni.sqlite")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='tool_install'`).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "tool_install", name)
}

func TestToolInstallAddAndFind(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddToolInstall("wd-1", ToolInstall{
		Tool: "nodejs", ToolType: "asdf", Version: "20.11.0",
		BinPath: "/data/asdf/installs/nodejs/20.11.0/bin/node",
		InstallPath: "/data/asdf/installs/nodejs/20.11.0",
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	found, err := s.FindToolInstall("nodejs", "asdf", "20.11.0", false)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, id, found.ID)

	missing, err := s.FindToolInstall("nodejs", "asdf", "18.0.0", false)
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestToolInstallOrphanSweep(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddToolInstall("wd-1", ToolInstall{
		Tool: "python", ToolType: "asdf", Version: "3.12.0",
		BinPath: "/x/bin/python", InstallPath: "/x",
	})
	require.NoError(t, err)

	require.NoError(t, s.RemoveRequiredBy("wd-1", id))

	removed, err := s.SweepOrphanInstalls(0)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	require.Equal(t, "/x", removed[0].InstallPath)
	require.Equal(t, "python", removed[0].Tool)

	gone, err := s.FindToolInstall("python", "asdf", "3.12.0", false)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestToolInstallOrphanSweepRespectsTTL(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddToolInstall("wd-1", ToolInstall{
		Tool: "python", ToolType: "asdf", Version: "3.12.0",
		BinPath: "/x/bin/python", InstallPath: "/x",
	})
	require.NoError(t, err)
	require.NoError(t, s.RemoveRequiredBy("wd-1", id))

	// A second workdir picking the same install back up moments later
	// (or the same one mid-re-up) must not lose it to the sweep.
	removed, err := s.SweepOrphanInstalls(DefaultOrphanTTL)
	require.NoError(t, err)
	require.Empty(t, removed)

	still, err := s.FindToolInstall("python", "asdf", "3.12.0", false)
	require.NoError(t, err)
	require.NotNil(t, still)

	removed, err = s.SweepOrphanInstalls(-time.Hour)
	require.NoError(t, err)
	require.Len(t, removed, 1)
}

func TestEnvVersionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ev := EnvVersion{
		ID: "ev-abc", WorkdirID: "wd-1", ConfigHash: "hash1",
		Versions: map[string]string{"nodejs": "20.11.0"},
		Paths:    []string{"/data/asdf/installs/nodejs/20.11.0/bin"},
		EnvVars:  map[string]string{"NODE_ENV": "development"},
	}
	require.NoError(t, s.PutEnvVersion(ev))
	require.NoError(t, s.SetWorkdirEnv("wd-1", ev.ID))

	got, err := s.CurrentEnvVersion("wd-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "20.11.0", got.Versions["nodejs"])

	require.NoError(t, s.ClearWorkdirEnv("wd-1"))
	cleared, err := s.CurrentEnvVersion("wd-1")
	require.NoError(t, err)
	require.Nil(t, cleared)
}

// TestEnvVersionRoundTripStructural diffs the stored EnvVersion against
// what went in, field by field, rather than spot-checking one map entry
// the way TestEnvVersionRoundTrip does: it would have caught a PutEnvVersion
// that silently dropped Paths or EnvVars.
func TestEnvVersionRoundTripStructural(t *testing.T) {
	s := openTestStore(t)

	want := EnvVersion{
		ID: "ev-struct", WorkdirID: "wd-2", ConfigHash: "hash2",
		Versions: map[string]string{"nodejs": "20.11.0", "python": "3.12.0"},
		Paths:    []string{"/data/asdf/installs/nodejs/20.11.0/bin", "/data/asdf/installs/python/3.12.0/bin"},
		EnvVars:  map[string]string{"NODE_ENV": "development"},
	}
	require.NoError(t, s.PutEnvVersion(want))
	require.NoError(t, s.SetWorkdirEnv("wd-2", want.ID))

	got, err := s.CurrentEnvVersion("wd-2")
	require.NoError(t, err)
	require.NotNil(t, got)

	if diff := cmp.Diff(want, *got, cmpopts.IgnoreFields(EnvVersion{}, "CreatedAt")); diff != "" {
		t.Errorf("EnvVersion round-trip mismatch (-want +got):\n%s", diff)
	}
}

// TestToolInstallRoundTripStructural mirrors the EnvVersion structural
// check for ToolInstall.
func TestToolInstallRoundTripStructural(t *testing.T) {
	s := openTestStore(t)

	want := ToolInstall{
		Tool: "ruby", ToolType: "asdf", Version: "3.3.0",
		BinPath:     "/data/asdf/installs/ruby/3.3.0/bin/ruby",
		InstallPath: "/data/asdf/installs/ruby/3.3.0",
		Cask:        false,
	}
	id, err := s.AddToolInstall("wd-3", want)
	require.NoError(t, err)
	want.ID = id

	got, err := s.FindToolInstall("ruby", "asdf", "3.3.0", false)
	require.NoError(t, err)
	require.NotNil(t, got)

	if diff := cmp.Diff(want, *got, cmpopts.IgnoreFields(ToolInstall{}, "CreatedAt", "LastUsedAt")); diff != "" {
		t.Errorf("ToolInstall round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTrustAndFingerprint(t *testing.T) {
	s := openTestStore(t)

	trusted, err := s.IsTrusted("wd-1")
	require.NoError(t, err)
	require.False(t, trusted)

	require.NoError(t, s.SetTrusted("wd-1"))
	trusted, err = s.IsTrusted("wd-1")
	require.NoError(t, err)
	require.True(t, trusted)

	match, err := s.CheckFingerprint("wd-1", "up", "fp1")
	require.NoError(t, err)
	require.False(t, match)

	require.NoError(t, s.UpdateFingerprint("wd-1", "up", "fp1"))
	match, err = s.CheckFingerprint("wd-1", "up", "fp1")
	require.NoError(t, err)
	require.True(t, match)
}

func TestPromptAnswerRoundTrip(t *testing.T) {
	s := openTestStore(t)

	var out string
	found, err := s.GetPromptAnswer("org", "acme-corp", "", &out)
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, s.SetPromptAnswer("org", "acme-corp", "", "acme"))
	found, err = s.GetPromptAnswer("org", "acme-corp", "", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "acme", out)
}

func TestPromptAnswerRepositoryOverridesOrganization(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetPromptAnswer("org", "acme-corp", "", "acme"))
	require.NoError(t, s.SetPromptAnswer("org", "acme-corp", "github.com:acme-corp/widgets", "acme-widgets"))

	var out string
	found, err := s.GetPromptAnswer("org", "acme-corp", "github.com:acme-corp/widgets", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "acme-widgets", out)

	found, err = s.GetPromptAnswer("org", "acme-corp", "github.com:acme-corp/other", &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "acme", out, "falls back to the organization-scoped answer when no repository override exists")
}

func TestHomebrewTapAddIsIdempotent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddHomebrewTap("homebrew/cask"))
	require.NoError(t, s.AddHomebrewTap("homebrew/cask"))

	taps, err := s.ListHomebrewTaps()
	require.NoError(t, err)
	require.Equal(t, []string{"homebrew/cask"}, taps)
}

func TestAsdfPluginAddKeepsExistingURLWhenNotSupplied(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.AddAsdfPlugin("nodejs", "https://github.com/asdf-vm/asdf-nodejs"))
	require.NoError(t, s.AddAsdfPlugin("nodejs", ""))

	plugins, err := s.ListAsdfPlugins()
	require.NoError(t, err)
	require.Equal(t, "https://github.com/asdf-vm/asdf-nodejs", plugins["nodejs"])
}
