package migration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// monolith mirrors the single cache.json omni wrote before 0.0.15, before
// the per-category JSON files (and later, the relational store) existed.
type monolith struct {
	AsdfOperation          *asdfOperationFile          `json:"asdf_operation"`
	GithubReleaseOperation *githubReleaseOperationFile `json:"github_release_operation"`
	HomebrewOperation      *homebrewOperationFile      `json:"homebrew_operation"`
	UpEnvironments         *upEnvironmentsFile         `json:"up_environments"`
	Prompts                *promptsFile                `json:"prompts"`
	Omnipath               *omnipathFile               `json:"omnipath"`
	Repositories           *repositoriesFile           `json:"repositories"`
}

// categoryFiles lists the per-category filenames MigratePre0015 produces,
// matched by field name to monolith above.
var categoryFiles = map[string]string{
	"asdf_operation":           "asdf_operation.json",
	"github_release_operation": "github_release_operation.json",
	"homebrew_operation":       "homebrew_operation.json",
	"up_environments":          "up_environments.json",
	"prompts":                  "prompts.json",
	"omnipath":                 "omnipath.json",
	"repositories":             "repositories.json",
}

// MigratePre0015 splits a legacy monolithic cache.json in dataDir into the
// per-category files ReplayLegacyJSON expects, then renames the monolith
// aside so it won't be reread. If the monolith is already gone,
// MigratePre0015 is a no-op. A per-category file that already exists is
// left untouched while the other categories are still written, and the
// monolith is renamed aside only if this call wrote at least one file.
// spec.md §9 calls out a prior race
// where two concurrent omni invocations both attempted the split and the
// second clobbered the first's output, so here the destination files are
// only ever written with O_EXCL, and any AlreadyExists is swallowed as
// "someone else won the race" rather than surfaced as an error.
func MigratePre0015(dataDir string) error {
	monolithPath := filepath.Join(dataDir, "cache.json")
	data, err := os.ReadFile(monolithPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading legacy monolith: %w", err)
	}

	var m monolith
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("legacy monolith %s is unparsable, leaving in place: %v", monolithPath, err)
		return nil
	}

	wrote := false
	if m.AsdfOperation != nil {
		if writeExclusive(dataDir, "asdf_operation", m.AsdfOperation) {
			wrote = true
		}
	}
	if m.GithubReleaseOperation != nil {
		if writeExclusive(dataDir, "github_release_operation", m.GithubReleaseOperation) {
			wrote = true
		}
	}
	if m.HomebrewOperation != nil {
		if writeExclusive(dataDir, "homebrew_operation", m.HomebrewOperation) {
			wrote = true
		}
	}
	if m.UpEnvironments != nil {
		if writeExclusive(dataDir, "up_environments", m.UpEnvironments) {
			wrote = true
		}
	}
	if m.Prompts != nil {
		if writeExclusive(dataDir, "prompts", m.Prompts) {
			wrote = true
		}
	}
	if m.Omnipath != nil {
		if writeExclusive(dataDir, "omnipath", m.Omnipath) {
			wrote = true
		}
	}
	if m.Repositories != nil {
		if writeExclusive(dataDir, "repositories", m.Repositories) {
			wrote = true
		}
	}

	renameAside(monolithPath, wrote)
	return nil
}

// writeExclusive marshals v to dataDir/categoryFiles[category] using
// O_EXCL, so a concurrent splitter racing on the same dataDir loses
// cleanly instead of overwriting the winner's file. Returns true if this
// call won the race and wrote the file.
func writeExclusive(dataDir, category string, v any) bool {
	path := filepath.Join(dataDir, categoryFiles[category])
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("encoding split %s: %v", category, err)
		return false
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false // another process already split this category
		}
		log.Printf("writing split %s: %v", category, err)
		return false
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		log.Printf("writing split %s: %v", category, err)
		return false
	}
	return true
}

// renameAside moves the consumed monolith to cache.json.pre0015 so a
// second process that reads it concurrently during the split still sees
// consistent content, and it's kept around rather than deleted in case the
// split needs to be redone by hand. If this process lost every write race
// (wrote==false), the monolith is left in place for whichever process did
// win to rename aside itself.
func renameAside(monolithPath string, wrote bool) {
	if !wrote {
		return
	}
	dest := monolithPath + ".pre0015"
	if err := os.Rename(monolithPath, dest); err != nil && !os.IsNotExist(err) {
		log.Printf("renaming legacy monolith aside: %v", err)
	}
}
