package config

import "strings"

// TemplateContext carries the variables a config command's `run` string may
// reference ({id}, {root}, {repo}, {env}, {prompts}), threaded explicitly
// rather than resolved through ambient global state (spec.md §9).
type TemplateContext struct {
	ID      string
	Root    string
	Repo    string
	Env     map[string]string
	Prompts map[string]string
}

// Render substitutes {name} placeholders in a run string with values from
// ctx. Unknown placeholders are left untouched rather than erroring, since
// the exact placeholder grammar belongs to the (out-of-scope) config
// schema; this implements only the substitution mechanics.
func Render(run string, ctx TemplateContext) string {
	replacer := strings.NewReplacer(
		"{id}", ctx.ID,
		"{root}", ctx.Root,
		"{repo}", ctx.Repo,
	)
	out := replacer.Replace(run)
	out = renderNamespace(out, "env", ctx.Env)
	out = renderNamespace(out, "prompts", ctx.Prompts)
	return out
}

// renderNamespace substitutes {namespace.key} placeholders from a map.
func renderNamespace(s, namespace string, values map[string]string) string {
	if len(values) == 0 {
		return s
	}
	for k, v := range values {
		s = strings.ReplaceAll(s, "{"+namespace+"."+k+"}", v)
	}
	return s
}
