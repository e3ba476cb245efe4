package commands

// Builtins returns the fixed list of Commands the CLI always provides,
// regardless of config or omnipath, per spec.md §4.8/§6. cmd/omni wires
// each entry's BuiltinRun to its cobra command's RunE so the loader's
// resolution/completion logic can treat built-ins uniformly with
// sourced commands.
func Builtins(run map[string]func([]string) error) []Command {
	names := []string{
		"up", "down", "cd", "clone",
		"config bootstrap", "config check", "config path switch",
		"help", "hook env", "hook init", "hook uuid",
		"scope", "status", "tidy",
	}
	cmds := make([]Command, 0, len(names))
	for _, name := range names {
		cmds = append(cmds, Command{
			Name:         name,
			Source:       SourceBuiltin,
			Autocomplete: true,
			BuiltinRun:   run[name],
		})
	}
	return cmds
}
