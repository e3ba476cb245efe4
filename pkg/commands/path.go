package commands

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/omnicli/omni/pkg/logger"
)

var logPath = logger.New("commands:path")

// FromPath walks every directory in omnipath (in order) looking for
// executable files, per spec.md §4.8: a `.d` suffix on a non-leaf path
// component is stripped from the command name, a file extension on the
// leaf is stripped, and entries that resolve (via EvalSymlinks) to the
// same real path are collapsed — the first one found wins as the
// canonical Command, later ones become Aliases rather than separate
// commands.
func FromPath(omnipath []string) ([]Command, error) {
	byRealPath := map[string]*Command{}
	var order []string

	for _, dir := range omnipath {
		if err := walkPathDir(dir, dir, byRealPath, &order); err != nil {
			logPath.Printf("walking omnipath dir %s: %v", dir, err)
		}
	}

	cmds := make([]Command, 0, len(order))
	for _, real := range order {
		cmds = append(cmds, *byRealPath[real])
	}
	sort.SliceStable(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds, nil
}

func walkPathDir(root, dir string, byRealPath map[string]*Command, order *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if err := walkPathDir(root, full, byRealPath, order); err != nil {
				logPath.Printf("walking %s: %v", full, err)
			}
			continue
		}
		info, err := e.Info()
		if err != nil || info.Mode()&0111 == 0 {
			continue
		}

		real, err := filepath.EvalSymlinks(full)
		if err != nil {
			real = full
		}

		name := commandNameFromPath(root, full)
		if existing, ok := byRealPath[real]; ok {
			existing.Aliases = append(existing.Aliases, name)
			continue
		}

		cmd := Command{
			Name:      name,
			Source:    SourcePath,
			PathExec:  full,
			SourceDir: filepath.Dir(full),
		}
		parseHeaderComments(full, &cmd)
		byRealPath[real] = &cmd
		*order = append(*order, real)
	}
	return nil
}

// commandNameFromPath derives a command's canonical name from its
// location relative to root: each path component's `.d` suffix is
// stripped (it marks a directory of sibling scripts for the same
// command group), and the leaf's file extension is stripped.
func commandNameFromPath(root, full string) string {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		rel = filepath.Base(full)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for i, p := range parts {
		p = strings.TrimSuffix(p, ".d")
		if i == len(parts)-1 {
			p = strings.TrimSuffix(p, filepath.Ext(p))
		}
		parts[i] = p
	}
	return strings.Join(parts, " ")
}

// parseHeaderComments reads the `#`-prefixed header lines at the top of
// a path command's file, per spec.md §4.8: `# category: a, b`,
// `# autocompletion: true`, `# help: …`, `# arg:name: description`,
// `# opt:name: description`. Reading stops at the first non-comment,
// non-blank line.
func parseHeaderComments(path string, cmd *Command) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var help []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "#") {
			break
		}
		body := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if body == "" || body == "!" || strings.HasPrefix(body, "!/") {
			continue // shebang or bare comment marker
		}

		switch {
		case strings.HasPrefix(body, "category:"):
			raw := strings.TrimSpace(strings.TrimPrefix(body, "category:"))
			for _, c := range strings.Split(raw, ",") {
				if c = strings.TrimSpace(c); c != "" {
					cmd.Category = append(cmd.Category, c)
				}
			}
		case strings.HasPrefix(body, "autocompletion:"):
			raw := strings.TrimSpace(strings.TrimPrefix(body, "autocompletion:"))
			cmd.Autocomplete = raw == "true"
		case strings.HasPrefix(body, "help:"):
			help = append(help, strings.TrimSpace(strings.TrimPrefix(body, "help:")))
		case strings.HasPrefix(body, "arg:"):
			if a, ok := parseArgHeader(body, "arg:", false); ok {
				cmd.Args = append(cmd.Args, a)
			}
		case strings.HasPrefix(body, "opt:"):
			if a, ok := parseArgHeader(body, "opt:", true); ok {
				cmd.Args = append(cmd.Args, a)
			}
		}
	}
	cmd.Help = strings.Join(help, "\n")
}

// parseArgHeader parses `<prefix>name: description` into an Arg.
func parseArgHeader(body, prefix string, option bool) (Arg, bool) {
	rest := strings.TrimPrefix(body, prefix)
	name, desc, found := strings.Cut(rest, ":")
	if !found {
		return Arg{}, false
	}
	return Arg{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(desc),
		Option:      option,
		Required:    !option,
	}, true
}
