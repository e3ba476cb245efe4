package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/stringutil"
)

// BootstrapChoice is the user's answer to the apply-all/skip/split
// prompt spec.md §4.7 describes for `up --bootstrap`.
type BootstrapChoice string

const (
	BootstrapApplyAll BootstrapChoice = "apply-all"
	BootstrapSkip     BootstrapChoice = "skip"
	BootstrapSplit    BootstrapChoice = "split"
)

// RenderConfigDiff produces a unified diff between the user's current
// config and the repo's suggest_config sub-tree, both rendered as
// indented "key: value" lines since the concrete YAML grammar is out of
// scope (spec.md §1's Non-goals) — this is enough for a human to review
// what would change without needing a real YAML re-serializer.
func RenderConfigDiff(userConfig, suggestConfig config.Value) string {
	a := renderLines(userConfig, 0)
	b := renderLines(suggestConfig, 0)
	diff := difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "current config",
		ToFile:   "suggested config",
		Context:  3,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	if text == "" {
		return text
	}
	return stringutil.NormalizeWhitespace(text)
}

func renderLines(v config.Value, indent int) []string {
	prefix := strings.Repeat("  ", indent)
	if m, ok := v.Map(); ok {
		var lines []string
		for k, val := range m {
			if sub, ok := val.Map(); ok && len(sub) > 0 {
				lines = append(lines, prefix+k+":")
				lines = append(lines, renderLines(val, indent+1)...)
			} else {
				lines = append(lines, fmt.Sprintf("%s%s: %v", prefix, k, val.Raw()))
			}
		}
		return lines
	}
	if s, ok := v.Slice(); ok {
		var lines []string
		for _, item := range s {
			lines = append(lines, prefix+"- "+fmt.Sprint(item.Raw()))
		}
		return lines
	}
	return []string{fmt.Sprintf("%s%v", prefix, v.Raw())}
}

// PromptBootstrapChoice asks the user how to apply a repo's
// suggest_config, per spec.md §4.7.
func PromptBootstrapChoice() (BootstrapChoice, error) {
	choice, err := console.PromptSelect(
		"How should the suggested configuration be applied?",
		[]string{string(BootstrapApplyAll), string(BootstrapSplit), string(BootstrapSkip)},
	)
	if err != nil {
		return "", &UserAbortError{Prompt: "bootstrap"}
	}
	return BootstrapChoice(choice), nil
}

// SplitApply presents one multiselect over suggestConfig's top-level
// keys and returns a Value containing only the chosen ones merged onto
// userConfig, per spec.md §4.7's "split" mode.
func SplitApply(userConfig, suggestConfig config.Value) (config.Value, error) {
	m, ok := suggestConfig.Map()
	if !ok || len(m) == 0 {
		return userConfig, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	chosen, err := console.PromptMultiSelect("Which top-level keys should be applied?", keys)
	if err != nil {
		return config.Value{}, &UserAbortError{Prompt: "bootstrap split"}
	}
	chosenSet := map[string]struct{}{}
	for _, k := range chosen {
		chosenSet[k] = struct{}{}
	}

	merged := userConfig
	for k := range chosenSet {
		merged = config.Merge(merged, config.NewValue(map[string]any{k: m[k].Raw()}), config.StrategyDefault)
	}
	return merged, nil
}

// CloneSpec is one entry from a repo's suggest_clone list: a repository
// to offer cloning alongside the current one.
type CloneSpec struct {
	URL         string
	IntoPackage bool // clone into a shared package directory rather than a sibling worktree
}

// cloneOutcome records whether a suggested clone happened, for the
// caller to report and for recursion bookkeeping.
type cloneOutcome struct {
	Spec    CloneSpec
	Path    string
	Skipped bool
	Err     error
}

// cloneRepo performs the actual `git clone`; overridden in tests so the
// recursion/cycle-detection logic can be exercised without touching the
// network or the filesystem.
var cloneRepo = func(ctx context.Context, url, dest string) error {
	return exec.CommandContext(ctx, "git", "clone", url, dest).Run()
}

// CloneSuggested recursively clones every CloneSpec from suggest_clone,
// descending into each freshly cloned repo to discover further
// suggestions, per spec.md §9's cyclic-suggestion note: a visited set
// keyed by the canonicalized clone URL guarantees termination even when
// repos suggest each other in a cycle.
func CloneSuggested(ctx context.Context, specs []CloneSpec, destRoot string, mode string, readSuggestions func(repoPath string) ([]CloneSpec, error)) []cloneOutcome {
	visited := map[string]struct{}{}
	var outcomes []cloneOutcome
	cloneSuggestedRec(ctx, specs, destRoot, mode, readSuggestions, visited, &outcomes)
	return outcomes
}

func cloneSuggestedRec(ctx context.Context, specs []CloneSpec, destRoot, mode string, readSuggestions func(string) ([]CloneSpec, error), visited map[string]struct{}, outcomes *[]cloneOutcome) {
	for _, spec := range specs {
		canon := canonicalCloneURL(spec.URL)
		if _, seen := visited[canon]; seen {
			continue
		}
		visited[canon] = struct{}{}

		if mode == "no" {
			*outcomes = append(*outcomes, cloneOutcome{Spec: spec, Skipped: true})
			continue
		}
		if mode == "ask" {
			ok, err := console.ConfirmAction(fmt.Sprintf("Clone suggested repository %s?", spec.URL), "Clone", "Skip")
			if err != nil || !ok {
				*outcomes = append(*outcomes, cloneOutcome{Spec: spec, Skipped: true})
				continue
			}
		}

		dest := filepath.Join(destRoot, repoBaseName(spec.URL))
		err := cloneRepo(ctx, spec.URL, dest)
		*outcomes = append(*outcomes, cloneOutcome{Spec: spec, Path: dest, Err: err})
		if err != nil || readSuggestions == nil {
			continue
		}

		nested, nerr := readSuggestions(dest)
		if nerr != nil || len(nested) == 0 {
			continue
		}
		cloneSuggestedRec(ctx, nested, destRoot, mode, readSuggestions, visited, outcomes)
	}
}

func canonicalCloneURL(url string) string {
	u := strings.TrimSuffix(strings.TrimSpace(url), ".git")
	u = strings.TrimSuffix(u, "/")
	return strings.ToLower(u)
}

func repoBaseName(url string) string {
	u := canonicalCloneURL(url)
	parts := strings.Split(u, "/")
	return parts[len(parts)-1]
}

// FingerprintKind names the config sub-trees spec.md §3's Trust &
// Fingerprints section tracks per workdir.
type FingerprintKind string

const (
	FingerprintSuggestConfig FingerprintKind = "suggest_config"
	FingerprintSuggestClone  FingerprintKind = "suggest_clone"
	FingerprintHeadCommit    FingerprintKind = "head_commit"
)

// NeedsRePrompt reports whether the stored fingerprint for
// (workdirID, kind) differs from current. RunBootstrap uses it to skip
// the prompt for a suggestion set that has not changed since it was last
// acted on; `up` without --bootstrap does not check it and prints no
// notice about changed suggestions.
func NeedsRePrompt(store *cache.Store, workdirID string, kind FingerprintKind, current string) (bool, error) {
	match, err := store.CheckFingerprint(workdirID, string(kind), current)
	if err != nil {
		return false, err
	}
	return !match, nil
}

// RecordFingerprint updates the stored fingerprint after the user has
// acted on (or explicitly skipped) a bootstrap prompt.
func RecordFingerprint(store *cache.Store, workdirID string, kind FingerprintKind, current string) error {
	return store.UpdateFingerprint(workdirID, string(kind), current)
}

// BootstrapOptions carries `up --bootstrap`'s optional write-back flags
// (spec.md §6): whether an accepted suggest_config gets persisted into
// the repo's own config file, the user's global config file, both, or
// neither (left as an in-memory-only merge for this run).
type BootstrapOptions struct {
	CloneSuggested   string // "yes" | "ask" | "no"
	UpdateRepository bool
	UpdateUserConfig string // "yes" | "ask" | "no" | ""
	// CloneDestRoot overrides where suggested clones land; empty keeps
	// the default sibling-of-workdir placement. `config bootstrap
	// --worktree` sets this to the worktrees layout used elsewhere
	// (pkg/cli/cd.go's reposRoot, config.NewConfigPathSwitchCommand).
	CloneDestRoot string
}

// RunBootstrap implements spec.md §4.7's bootstrap side-effects, invoked
// by `up --bootstrap`: offer to apply the repo's suggest_config, then
// recursively offer to clone its suggest_clone list, gated by
// NeedsRePrompt so an `up` against an unchanged repo doesn't re-prompt
// every single run.
func RunBootstrap(ctx context.Context, store *cache.Store, workdirID, workdirRoot string, cfg config.Value, opts BootstrapOptions) error {
	if suggestConfig := cfg.Get("suggest_config"); !suggestConfig.IsZero() {
		fp := hashValue(suggestConfig)
		needs, err := NeedsRePrompt(store, workdirID, FingerprintSuggestConfig, fp)
		if err != nil {
			return err
		}
		if needs {
			if diff := RenderConfigDiff(cfg, suggestConfig); diff != "" {
				fmt.Fprintln(os.Stderr, diff)
				choice, err := PromptBootstrapChoice()
				if err != nil {
					return err
				}
				if choice != BootstrapSkip {
					merged := cfg
					if choice == BootstrapSplit {
						merged, err = SplitApply(cfg, suggestConfig)
						if err != nil {
							return err
						}
					} else {
						merged = config.Merge(cfg, suggestConfig, config.StrategyDefault)
					}
					if err := writeBootstrapTarget(workdirRoot, merged, opts); err != nil {
						return err
					}
				}
			}
			if err := RecordFingerprint(store, workdirID, FingerprintSuggestConfig, fp); err != nil {
				return err
			}
		}
	}

	if opts.CloneSuggested == "" || opts.CloneSuggested == "no" {
		return nil
	}
	suggestClone := cfg.Get("suggest_clone")
	specs := parseCloneSpecs(suggestClone)
	if len(specs) == 0 {
		return nil
	}
	fp := hashValue(suggestClone)
	needs, err := NeedsRePrompt(store, workdirID, FingerprintSuggestClone, fp)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}
	destRoot := opts.CloneDestRoot
	if destRoot == "" {
		destRoot = filepath.Dir(workdirRoot)
	}
	CloneSuggested(ctx, specs, destRoot, opts.CloneSuggested, nil)
	return RecordFingerprint(store, workdirID, FingerprintSuggestClone, fp)
}

// writeBootstrapTarget persists merged (the user's config with an accepted
// suggest_config applied) to whichever file(s) opts selects. "ask" prompts
// once per target; "no"/"" (the zero value for UpdateUserConfig) leaves
// the merge in memory for this run only, matching a plain `up --bootstrap`
// with neither write-back flag given.
func writeBootstrapTarget(workdirRoot string, merged config.Value, opts BootstrapOptions) error {
	if opts.UpdateRepository {
		if err := config.WriteYAML(config.RepoConfigPath(workdirRoot), merged); err != nil {
			return err
		}
	}
	switch opts.UpdateUserConfig {
	case "yes":
		return config.WriteYAML(config.UserConfigPath(), merged)
	case "ask":
		ok, err := console.ConfirmAction("Save this configuration to your user config too?", "Save", "Skip")
		if err != nil {
			return &UserAbortError{Prompt: "update-user-config"}
		}
		if ok {
			return config.WriteYAML(config.UserConfigPath(), merged)
		}
	}
	return nil
}

// parseCloneSpecs reads suggest_clone as either a plain list of URL
// strings or a list of {url, into_package} maps, per spec.md §4.7's
// "each optionally into a shared package directory or a worktree
// sibling".
func parseCloneSpecs(v config.Value) []CloneSpec {
	items, ok := v.Slice()
	if !ok {
		return nil
	}
	specs := make([]CloneSpec, 0, len(items))
	for _, item := range items {
		if url, ok := item.String(); ok {
			specs = append(specs, CloneSpec{URL: url})
			continue
		}
		m, ok := item.Map()
		if !ok {
			continue
		}
		url, ok := m["url"].String()
		if !ok {
			continue
		}
		intoPackage := false
		if b, ok := m["into_package"].Raw().(bool); ok {
			intoPackage = b
		}
		specs = append(specs, CloneSpec{URL: url, IntoPackage: intoPackage})
	}
	return specs
}
