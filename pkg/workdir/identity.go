// Package workdir resolves a directory to a stable WorkdirId (spec.md
// §4.2, component C2) and locates its on-disk data directory.
package workdir

import (
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cli/go-gh/v2/pkg/repository"
	"github.com/google/uuid"

	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/constants"
	"github.com/omnicli/omni/pkg/logger"
)

var log = logger.New("workdir:identity")

// scpLikePattern matches git's scp-like syntax, e.g.
// git@github.com:owner/repo.git or git@gitlab.example.com:group/sub/repo.
var scpLikePattern = regexp.MustCompile(`^(?:[\w.-]+@)?([\w.-]+):(.+?)(?:\.git)?/?$`)

// Root walks up from dir looking for a `.git` directory, mirroring `git
// rev-parse --show-toplevel` without shelling out when a plain directory
// walk suffices. It falls back to invoking git itself for worktrees and
// submodules, where `.git` is a file rather than a directory.
func Root(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for cur := abs; ; {
		if info, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			if info.IsDir() {
				return cur, true
			}
			// `.git` file: worktree or submodule, defer to git itself.
			return gitToplevel(cur)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		cur = parent
	}
}

func gitToplevel(dir string) (string, bool) {
	cmd := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel")
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(out)), true
}

// originURL returns `git remote get-url origin` for root, or "" if there
// is no origin remote (a purely local repo).
func originURL(root string) string {
	cmd := exec.Command("git", "-C", root, "remote", "get-url", "origin")
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// ParseRemoteURL extracts (host, owner/repo-path) from a git remote URL,
// generalized beyond GitHub to any host: SSH (`git@host:path.git`),
// scp-like, and HTTPS/git/ssh:// URLs all resolve to the same shape.
// Unlike the teacher's GitHub-only parser, this never special-cases a
// hostname; any host is accepted as long as the path segment is
// non-empty.
func ParseRemoteURL(remote string) (host, path string, err error) {
	if remote == "" {
		return "", "", fmt.Errorf("empty remote URL")
	}

	if strings.Contains(remote, "://") {
		u, perr := url.Parse(remote)
		if perr != nil {
			return "", "", fmt.Errorf("parsing remote URL %q: %w", remote, perr)
		}
		p := strings.Trim(strings.TrimSuffix(u.Path, ".git"), "/")
		if u.Host == "" || p == "" {
			return "", "", fmt.Errorf("remote URL %q missing host or path", remote)
		}
		return u.Host, p, nil
	}

	if m := scpLikePattern.FindStringSubmatch(remote); m != nil {
		p := strings.Trim(strings.TrimSuffix(m[2], ".git"), "/")
		if m[1] == "" || p == "" {
			return "", "", fmt.Errorf("remote URL %q missing host or path", remote)
		}
		return m[1], p, nil
	}

	return "", "", fmt.Errorf("unrecognized remote URL format: %q", remote)
}

// Id computes a workdir's WorkdirId (spec.md §4.2): `<host>:<path>` for a
// git repo with an origin remote, or a synthesized UUID sentinel for
// anything else (a non-git directory, or a git repo with no remote).
// The sentinel is persisted in `constants.IdentitySentinelFile` inside the
// workdir so it survives across invocations.
func Id(root string) (string, error) {
	if host, path, ok := currentRepoHostPath(root); ok {
		return host + ":" + path, nil
	}
	if remote := originURL(root); remote != "" {
		host, path, err := ParseRemoteURL(remote)
		if err == nil {
			return host + ":" + path, nil
		}
		log.Printf("origin remote %q did not parse as host:path (%v), falling back to sentinel", remote, err)
	}
	return sentinelId(root)
}

// currentRepoHostPath resolves root's origin via go-gh's repository.Current,
// the same helper the teacher uses in pkg/campaign/loader.go to avoid
// hand-parsing remote URLs for the common case. repository.Current reads
// the process's own working directory rather than an arbitrary path, so
// this only applies when root is (or contains) the process cwd; anything
// else falls through to originURL's explicit `-C root` invocation.
func currentRepoHostPath(root string) (host, path string, ok bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", "", false
	}
	rel, err := filepath.Rel(root, cwd)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", false
	}
	repo, err := repository.Current()
	if err != nil {
		return "", "", false
	}
	return repo.Host, repo.Owner + "/" + repo.Name, true
}

// OrgRepo splits a WorkdirId of the `<host>:<owner>/<name>` shape produced
// by Id into an organization (the owner segment) and a repository scope
// (the full id, so two repos under the same owner still get distinct
// repository-level prompt answers). A sentinel UUID id (no git remote)
// has no owner to group by, so organization is "" and only the
// repository-scoped answer applies.
func OrgRepo(workdirID string) (organization, repository string) {
	_, path, ok := strings.Cut(workdirID, ":")
	if !ok {
		return "", workdirID
	}
	owner, _, ok := strings.Cut(path, "/")
	if !ok {
		return "", workdirID
	}
	return owner, workdirID
}

func sentinelId(root string) (string, error) {
	sentinelPath := filepath.Join(root, constants.IdentitySentinelFile)
	if data, err := os.ReadFile(sentinelPath); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	if err := os.WriteFile(sentinelPath, []byte(id+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing identity sentinel %s: %w", sentinelPath, err)
	}
	return id, nil
}

// DataPath returns the on-disk directory holding workdirId's persistent
// state (env history JSON backups, shim metadata, etc.), rooted under
// omni's XDG data home.
func DataPath(workdirId string) string {
	return filepath.Join(config.DataHome(), "workdirs", safeForFilename(workdirId))
}

func safeForFilename(id string) string {
	return strings.NewReplacer("/", "-", ":", "_").Replace(id)
}
