package toolstep

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/gitutil"
	"github.com/omnicli/omni/pkg/progress"
	"github.com/omnicli/omni/pkg/ratelimit"
	"github.com/omnicli/omni/pkg/sliceutil"
)

// GithubReleaseStep installs a single binary extracted from a tagged
// GitHub release asset, the "package from release" variant named in
// spec.md §1/§4.6. Asset selection is a best-effort match against the
// current OS/arch, since the concrete naming convention of a given
// repository's release assets is the kind of per-tool detail the real
// omni leaves to its plugin layer (out of scope per spec.md §1).
type GithubReleaseStep struct {
	// Repo is "owner/repo".
	Repo string
	// BinName is the executable name to extract from the downloaded
	// archive; defaults to the repo's own name (the path segment after
	// the last "/") when empty.
	BinName string
	Store   *cache.Store
	Client  *http.Client
}

func (s GithubReleaseStep) ToolType() string { return "github_release" }

func (s GithubReleaseStep) Tool() string { return s.Repo }

func (s GithubReleaseStep) IsAvailable() bool { return true } // no local tool manager dependency

func (s GithubReleaseStep) binName() string {
	if s.BinName != "" {
		return s.BinName
	}
	parts := strings.Split(s.Repo, "/")
	return parts[len(parts)-1]
}

type ghRelease struct {
	TagName string    `json:"tag_name"`
	Assets  []ghAsset `json:"assets"`
}

type ghAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

const releaseCacheTTL = 15 * time.Minute

// fetchReleases returns the release list for s.Repo, preferring the
// cache.Store's TTL-bounded ReleaseCache table (spec.md §3 ReleaseCache)
// over the network.
func (s GithubReleaseStep) fetchReleases(ctx context.Context) ([]ghRelease, error) {
	var releases []ghRelease
	if s.Store != nil {
		if found, _ := s.Store.GetReleaseCache("github", s.Repo, &releases); found {
			return releases, nil
		}
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	url := fmt.Sprintf("https://api.github.com/repos/%s/releases", s.Repo)

	// The unauthenticated GitHub API caps out at 60 requests/hour per
	// source IP, shared across every tool this step resolves across every
	// workdir on the machine; ExecuteWithRetry backs off on 403/429s
	// instead of letting `up` fail outright the moment several tools
	// resolve in the same run.
	var body []byte
	var status string
	err := ratelimit.ExecuteWithRetry(ctx, ratelimit.OperationGitHubAPI, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/vnd.github+json")
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching releases for %s: %w", s.Repo, err)
		}
		defer resp.Body.Close()
		status = resp.Status
		if resp.StatusCode != http.StatusOK {
			msg := fmt.Sprintf("fetching releases for %s: unexpected status %s", s.Repo, resp.Status)
			if gitutil.IsAuthError(resp.Status) || resp.StatusCode == http.StatusForbidden {
				msg += " (set GH_TOKEN or GITHUB_TOKEN to raise the unauthenticated rate limit)"
			}
			return fmt.Errorf("%s", msg)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("decoding releases for %s (status %s): %w", s.Repo, status, err)
	}

	if s.Store != nil {
		_ = s.Store.PutReleaseCache("github", s.Repo, releases, releaseCacheTTL)
	}
	return releases, nil
}

// Resolve fetches the release list and picks the highest tag satisfying
// versionExpr under the shared Matches predicate, tolerating a leading
// "v" in tag names the way most Go/Rust tool repos tag releases.
func (s GithubReleaseStep) Resolve(ctx context.Context, versionExpr string) (string, error) {
	releases, err := s.fetchReleases(ctx)
	if err != nil {
		return "", err
	}

	var candidates []string
	byVersion := map[string]string{}
	for _, r := range releases {
		v := strings.TrimPrefix(r.TagName, "v")
		candidates = append(candidates, v)
		byVersion[v] = r.TagName
	}
	SortVersionsDesc(candidates)

	for _, c := range candidates {
		if Matches(versionExpr, c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("no release of %s satisfying %q (%d releases fetched)", s.Repo, versionExpr, len(releases))
}

// Install downloads the release asset matching the current GOOS/GOARCH,
// extracts it into installDir, and returns installDir/bin.
func (s GithubReleaseStep) Install(ctx context.Context, version, installDir string, h progress.Handler) (string, error) {
	releases, err := s.fetchReleases(ctx)
	if err != nil {
		return "", err
	}

	var tag string
	for _, r := range releases {
		if strings.TrimPrefix(r.TagName, "v") == version {
			tag = r.TagName
		}
	}
	if tag == "" {
		return "", fmt.Errorf("release %s not found for %s after resolve", version, s.Repo)
	}

	var chosen *ghAsset
	for i, r := range releases {
		if r.TagName != tag {
			continue
		}
		for j := range releases[i].Assets {
			a := &releases[i].Assets[j]
			if matchesPlatform(a.Name) {
				chosen = a
			}
		}
	}
	if chosen == nil {
		return "", fmt.Errorf("no release asset of %s matches %s/%s", s.Repo, runtime.GOOS, runtime.GOARCH)
	}

	h.Update(fmt.Sprintf("downloading %s", chosen.Name))
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, chosen.BrowserDownloadURL, nil)
	if err != nil {
		return "", &DownloadError{Tool: s.Repo, URL: chosen.BrowserDownloadURL, Cause: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &DownloadError{Tool: s.Repo, URL: chosen.BrowserDownloadURL, Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &DownloadError{Tool: s.Repo, URL: chosen.BrowserDownloadURL, Cause: fmt.Errorf("status %s", resp.Status)}
	}
	if resp.ContentLength > 0 {
		h.Update(fmt.Sprintf("downloading %s (%s)", chosen.Name, humanize.Bytes(uint64(resp.ContentLength))))
	}

	binDir := filepath.Join(installDir, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return "", &InstallError{Tool: s.Repo, Version: version, Cause: err}
	}

	h.Update(fmt.Sprintf("extracting %s", chosen.Name))
	if err := extractArchive(chosen.Name, resp.Body, binDir, s.binName()); err != nil {
		_ = os.RemoveAll(installDir)
		return "", &InstallError{Tool: s.Repo, Version: version, Cause: err}
	}
	return binDir, nil
}

func matchesPlatform(name string) bool {
	lower := strings.ToLower(name)
	osNames := []string{runtime.GOOS}
	if runtime.GOOS == "darwin" {
		osNames = append(osNames, "macos")
	}
	archNames := []string{runtime.GOARCH}
	switch runtime.GOARCH {
	case "amd64":
		archNames = append(archNames, "x86_64", "x64")
	case "arm64":
		archNames = append(archNames, "aarch64")
	}
	return sliceutil.ContainsAny(lower, osNames...) && sliceutil.ContainsAny(lower, archNames...)
}

// extractArchive unpacks a .tar.gz or .zip archive read from r, copying
// only the entry named binName into destDir with executable permissions.
// An archive with no entry named binName is an error.
func extractArchive(archiveName string, r io.Reader, destDir, binName string) error {
	switch {
	case strings.HasSuffix(archiveName, ".tar.gz") || strings.HasSuffix(archiveName, ".tgz"):
		return extractTarGz(r, destDir, binName)
	case strings.HasSuffix(archiveName, ".zip"):
		return extractZip(r, destDir, binName)
	default:
		// A bare binary asset, not an archive.
		return writeExecutable(filepath.Join(destDir, binName), r)
	}
}

func extractTarGz(r io.Reader, destDir, binName string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()
	tr := tar.NewReader(gz)
	found := false
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if filepath.Base(hdr.Name) != binName {
			continue
		}
		if err := writeExecutable(filepath.Join(destDir, binName), tr); err != nil {
			return err
		}
		found = true
	}
	if !found {
		return fmt.Errorf("binary %q not found in archive", binName)
	}
	return nil
}

func extractZip(r io.Reader, destDir, binName string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(strings.NewReader(string(data)), int64(len(data)))
	if err != nil {
		return fmt.Errorf("opening zip stream: %w", err)
	}
	for _, f := range zr.File {
		if filepath.Base(f.Name) != binName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeExecutable(filepath.Join(destDir, binName), rc)
		rc.Close()
		return err
	}
	return fmt.Errorf("binary %q not found in archive", binName)
}

func writeExecutable(path string, r io.Reader) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}
