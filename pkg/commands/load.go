package commands

// Registry holds every resolved Command, deduplicated by name across
// sources in priority order: if two sources produce the same canonical
// name, the higher-priority one wins and the other is dropped (spec.md
// §4.8 doesn't define cross-source collision behavior beyond the
// within-FromPath real-path collapse, so the natural "higher priority
// source shadows" reading is applied uniformly).
type Registry struct {
	Commands []Command
}

// Load builds a Registry from already-enumerated per-source command
// lists, applying the fixed priority order. Each loader (Builtins,
// FromConfig, FromPath, FromMakefile) is called independently by the
// caller, since each needs different inputs (omnipath dirs, a Makefile
// ancestor-walk start directory, merged config); Load only does the
// combine-and-dedup step.
func Load(builtins, fromConfig, fromPath, fromMakefile []Command) *Registry {
	seen := map[string]struct{}{}
	var all []Command
	for _, group := range [][]Command{builtins, fromConfig, fromPath, fromMakefile} {
		for _, c := range group {
			if _, dup := seen[c.Name]; dup {
				continue
			}
			seen[c.Name] = struct{}{}
			all = append(all, c)
		}
	}
	return &Registry{Commands: all}
}

// Resolve finds the command that serves argv, the longest-prefix match
// per spec.md §4.8.
func (r *Registry) Resolve(argv []string) (Command, int, bool) {
	return Serves(r.Commands, argv)
}

// FindFuzzy runs fuzzy disambiguation against every loaded command.
func (r *Registry) FindFuzzy(argv []string, cfg FuzzyConfig) []Candidate {
	return FindCommand(r.Commands, argv, cfg)
}
