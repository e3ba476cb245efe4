package orchestrator

import (
	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
	"github.com/omnicli/omni/pkg/console"
	"github.com/omnicli/omni/pkg/workdir"
)

// PromptSpec is one entry from a workdir's `prompts:` config list: a
// question the user answers once, cached per spec.md §3's
// (prompt_id, organization, repository?) tuple and made available to
// config commands through config.TemplateContext.Prompts.
type PromptSpec struct {
	ID       string
	Question string
	Masked   bool
}

// ParsePromptSpecs reads the `prompts:` config section into an ordered
// list, skipping entries missing an id or question rather than failing
// the whole parse (config errors here aren't fatal to `up`, spec.md §9).
func ParsePromptSpecs(prompts config.Value) []PromptSpec {
	items, ok := prompts.Slice()
	if !ok {
		return nil
	}
	var specs []PromptSpec
	for _, item := range items {
		m, ok := item.Map()
		if !ok {
			continue
		}
		id, ok := m["id"].String()
		if !ok || id == "" {
			continue
		}
		question, _ := m["question"].String()
		masked, _ := m["masked"].Raw().(bool)
		specs = append(specs, PromptSpec{ID: id, Question: question, Masked: masked})
	}
	return specs
}

// CachedPromptAnswers reads back whatever answers are already on record
// for specs without asking the user, for the dispatch path (spec.md §4.9's
// `{prompts.<id>}` template substitution): by the time a config command
// runs, `up` has already resolved every prompt it declares, so dispatch
// only needs the read side.
func CachedPromptAnswers(store *cache.Store, workdirID string, specs []PromptSpec) (map[string]string, error) {
	organization, repository := workdir.OrgRepo(workdirID)
	answers := make(map[string]string, len(specs))
	for _, spec := range specs {
		var answer string
		if found, err := store.GetPromptAnswer(spec.ID, organization, repository, &answer); err != nil {
			return nil, err
		} else if found {
			answers[spec.ID] = answer
		}
	}
	return answers, nil
}

// ResolvePrompts answers every spec, reusing a cached answer unless
// forceAll or forceIDs names that prompt (spec.md §6's `--prompt <id>`
// and `--prompt-all` flags), and persists any freshly asked answer as a
// repository-scoped override for workdirID's organization. The returned
// map feeds config.TemplateContext.Prompts for `{prompts.<id>}`
// substitution in a config command's `run` string.
func ResolvePrompts(store *cache.Store, workdirID string, specs []PromptSpec, forceIDs map[string]bool, forceAll bool) (map[string]string, error) {
	organization, repository := workdir.OrgRepo(workdirID)
	answers := make(map[string]string, len(specs))
	for _, spec := range specs {
		var answer string
		found, err := store.GetPromptAnswer(spec.ID, organization, repository, &answer)
		if err != nil {
			return nil, err
		}
		if !found || forceAll || forceIDs[spec.ID] {
			answered, err := console.PromptInput(spec.Question, spec.Masked)
			if err != nil {
				return nil, &UserAbortError{Prompt: spec.ID}
			}
			answer = answered
			if err := store.SetPromptAnswer(spec.ID, organization, repository, answer); err != nil {
				return nil, err
			}
		}
		answers[spec.ID] = answer
	}
	return answers, nil
}
