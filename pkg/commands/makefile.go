package commands

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// targetPattern matches a Makefile target definition line, per spec.md
// §4.8/§6: `name: prereqs... ## description`. The description group is
// optional.
var targetPattern = regexp.MustCompile(`^([A-Za-z0-9_/\-]+):.*?(?:##\s*(.+))?$`)

// FromMakefile ancestor-walks from startDir up to (and including) root
// looking for a file named "Makefile", parsing every one found into
// Commands, per spec.md §4.8. splitOnSlash/splitOnDash control whether a
// target name like "docker/build" becomes the two-word command
// "docker build" (spec.md §8 scenario 5) while the literal Makefile
// target stays "docker/build".
func FromMakefile(startDir, root string, splitOnSlash, splitOnDash bool) ([]Command, error) {
	var cmds []Command
	for dir := startDir; ; {
		path := filepath.Join(dir, "Makefile")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			found, err := parseMakefile(path, splitOnSlash, splitOnDash)
			if err == nil {
				cmds = append(cmds, found...)
			}
		}
		if dir == root || dir == filepath.Dir(dir) {
			break
		}
		dir = filepath.Dir(dir)
	}
	return cmds, nil
}

func parseMakefile(path string, splitOnSlash, splitOnDash bool) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cmds []Command
	var category []string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "##@") {
			cat := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "##@"))
			if cat == "" {
				category = nil
			} else {
				category = []string{cat}
			}
			continue
		}
		m := targetPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		target := m[1]
		if strings.HasPrefix(target, ".") {
			continue // ignore special targets like .PHONY
		}
		desc := strings.TrimSpace(m[2])

		cmds = append(cmds, Command{
			Name:       splitTargetName(target, splitOnSlash, splitOnDash),
			Source:     SourceMakefile,
			Category:   append([]string(nil), category...),
			Help:       desc,
			MakeFile:   path,
			MakeTarget: target,
			SourceDir:  filepath.Dir(path),
		})
	}
	return cmds, scanner.Err()
}

// splitTargetName turns a Makefile target into a multi-word command name
// when splitting is enabled, per spec.md §8 scenario 5.
func splitTargetName(target string, splitOnSlash, splitOnDash bool) string {
	name := target
	if splitOnSlash {
		name = strings.ReplaceAll(name, "/", " ")
	}
	if splitOnDash {
		name = strings.ReplaceAll(name, "-", " ")
	}
	return name
}
