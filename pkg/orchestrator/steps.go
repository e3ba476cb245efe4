// Package orchestrator implements the Up/Down Orchestrator (spec.md
// §4.7, component C7): it parses a workdir's `up:` config section into an
// ordered list of tool steps, runs them, gates on trust, and performs the
// bootstrap side-effects (config diff/apply/split, recursive suggest_clone)
// spec.md §4.7 and the expansion's SUPPLEMENTED FEATURES describe.
package orchestrator

import (
	"fmt"

	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/toolstep"
)

// StepSpec is one resolved entry from the `up:` list: the tool.Step to
// run plus the version expression and cask flag parsed out of its config
// shape.
type StepSpec struct {
	Step        toolstep.Step
	VersionExpr string
	Cask        bool
}

// ParseUpSteps converts the `up:` sequence (spec.md §4.7: each element is
// either a bare tool-name scalar or a single-key {tool: config} mapping)
// into an ordered []StepSpec. A malformed entry (neither a scalar nor a
// single-key mapping, or missing a required field) produces a
// *config.ParseError collected into the returned Report rather than
// aborting — later, valid entries still run. Any tool name other than the
// homebrew and github-release kinds is taken as an asdf plugin name (see
// stepForKind), so an unknown tool name produces no error here.
func ParseUpSteps(up config.Value) ([]StepSpec, *config.Report) {
	report := &config.Report{}
	items, ok := up.Slice()
	if !ok {
		if !up.IsZero() {
			report.Add(&config.ParseError{Message: "up: must be a sequence"})
		}
		return nil, report
	}

	var specs []StepSpec
	for i, item := range items {
		spec, err := parseStepItem(item)
		if err != nil {
			report.Add(&config.ParseError{Message: fmt.Sprintf("up[%d]: %v", i, err)})
			continue
		}
		specs = append(specs, spec)
	}
	return specs, report
}

func parseStepItem(item config.Value) (StepSpec, error) {
	if name, ok := item.String(); ok {
		return stepForKind(name, config.Value{})
	}

	m, ok := item.Map()
	if !ok || len(m) != 1 {
		return StepSpec{}, fmt.Errorf("expected a tool name or a single-key {tool: config} mapping")
	}
	for kind, conf := range m {
		return stepForKind(kind, conf)
	}
	return StepSpec{}, fmt.Errorf("unreachable")
}

// stepForKind builds a StepSpec for kind, recognizing the two structured
// tool kinds ("homebrew", "github-release") and otherwise treating kind as
// an asdf-style language-runtime plugin name — the common case, since
// most `up:` entries in practice name a plugin directly ("nodejs",
// "python", "golang").
func stepForKind(kind string, conf config.Value) (StepSpec, error) {
	switch kind {
	case "homebrew", "brew":
		return parseHomebrewStep(conf)
	case "github-release", "github_release":
		return parseGithubReleaseStep(conf)
	default:
		return parseAsdfStep(kind, conf)
	}
}

func parseAsdfStep(plugin string, conf config.Value) (StepSpec, error) {
	versionExpr := "latest"
	subdir := ""
	if s, ok := conf.String(); ok {
		versionExpr = s
	} else if m, ok := conf.Map(); ok {
		if v, ok := m["version"].String(); ok {
			versionExpr = v
		}
		if v, ok := m["dir"].String(); ok {
			subdir = v
		}
	}
	return StepSpec{
		Step:        toolstep.AsdfStep{Plugin: plugin, Subdir: subdir},
		VersionExpr: versionExpr,
	}, nil
}

func parseHomebrewStep(conf config.Value) (StepSpec, error) {
	m, ok := conf.Map()
	if !ok {
		return StepSpec{}, fmt.Errorf("homebrew step requires a mapping with at least `name`")
	}
	name, ok := m["name"].String()
	if !ok || name == "" {
		return StepSpec{}, fmt.Errorf("homebrew step missing required `name`")
	}
	cask := false
	if c, ok := m["cask"].Raw().(bool); ok {
		cask = c
	}
	tap, _ := m["tap"].String()
	return StepSpec{
		Step:        toolstep.HomebrewStep{Name: name, Cask: cask, Tap: tap},
		VersionExpr: "latest",
		Cask:        cask,
	}, nil
}

func parseGithubReleaseStep(conf config.Value) (StepSpec, error) {
	m, ok := conf.Map()
	if !ok {
		return StepSpec{}, fmt.Errorf("github-release step requires a mapping with at least `repo`")
	}
	repo, ok := m["repo"].String()
	if !ok || repo == "" {
		return StepSpec{}, fmt.Errorf("github-release step missing required `repo`")
	}
	versionExpr := "latest"
	if v, ok := m["version"].String(); ok {
		versionExpr = v
	}
	bin, _ := m["bin"].String()
	return StepSpec{
		Step:        toolstep.GithubReleaseStep{Repo: repo, BinName: bin},
		VersionExpr: versionExpr,
	}, nil
}
