package commands

import "github.com/omnicli/omni/pkg/config"

// FromConfig reads the `commands:` section of merged config into
// Commands, per spec.md §4.8. Each entry is a mapping whose key is the
// command name and whose value holds `run` (the shell template C9
// renders) plus the same metadata fields a path command's header
// comments would supply.
func FromConfig(commands config.Value, sourceDir string) []Command {
	m, ok := commands.Map()
	if !ok {
		return nil
	}
	cmds := make([]Command, 0, len(m))
	for name, conf := range m {
		run, _ := conf.Get("run").String()
		cmd := Command{
			Name:      name,
			Source:    SourceConfig,
			RunTmpl:   run,
			SourceDir: sourceDir,
		}
		if s, ok := conf.Get("help").String(); ok {
			cmd.Help = s
		}
		if b, ok := conf.Get("autocompletion").Raw().(bool); ok {
			cmd.Autocomplete = b
		}
		if cats, ok := conf.Get("category").Slice(); ok {
			for _, c := range cats {
				if s, ok := c.String(); ok {
					cmd.Category = append(cmd.Category, s)
				}
			}
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
