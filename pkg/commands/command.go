// Package commands implements the Command Loader (C8): it enumerates
// commands from four sources — built-ins, config-declared commands,
// executables on the omnipath, and Makefile targets — and resolves an
// argv prefix to the command that serves it, falling back to fuzzy
// "did you mean?" disambiguation (spec.md §4.8).
package commands

// Source identifies which of the four loader sources produced a Command,
// in the priority order spec.md §4.8 fixes: Builtin beats FromConfig
// beats FromPath beats FromMakefile.
type Source int

const (
	SourceBuiltin Source = iota
	SourceConfig
	SourcePath
	SourceMakefile
)

func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceConfig:
		return "config"
	case SourcePath:
		return "path"
	case SourceMakefile:
		return "makefile"
	default:
		return "unknown"
	}
}

// Arg documents one positional argument or option a Command accepts,
// parsed from a path-command's header comments or inferred from its
// `--help` output (spec.md §4.8).
type Arg struct {
	Name        string
	Description string
	Option      bool // true for `# opt:`, false for `# arg:`
	Required    bool
}

// Command is one dispatchable unit, regardless of which source produced
// it. The canonical Name is space-joined words ("docker build"); Serve
// reports how many leading words of argv this command's name matches.
type Command struct {
	Name         string
	Source       Source
	Category     []string
	Help         string
	Autocomplete bool
	Args         []Arg
	Aliases      []string // other paths/targets that collapsed onto this command

	// Dispatch payload: exactly one of these is populated, selected by
	// Source.
	PathExec   string // SourcePath: absolute path to the executable
	RunTmpl    string // SourceConfig: unrendered `run` template
	MakeFile   string // SourceMakefile: path to the Makefile-like file
	MakeTarget string // SourceMakefile: the literal target name passed to `make`
	SourceDir  string // directory C9 loads the dynamic environment for

	// BuiltinRun, when set (SourceBuiltin), is invoked directly by the
	// dispatcher instead of going through a process/shell/make exec model.
	BuiltinRun func(args []string) error
}

// words splits a canonical command name into its constituent words
// ("docker build" -> ["docker", "build"]).
func (c Command) words() []string {
	return splitWords(c.Name)
}

// Serve returns the number of leading words of argv that match this
// command's canonical name, or 0 if it doesn't serve argv at all. Per
// spec.md §4.8's `serves(argv)`, the caller picks the command with the
// greatest such length.
func (c Command) Serve(argv []string) int {
	words := c.words()
	if len(words) == 0 || len(argv) < len(words) {
		return 0
	}
	for i, w := range words {
		if argv[i] != w {
			return 0
		}
	}
	return len(words)
}
