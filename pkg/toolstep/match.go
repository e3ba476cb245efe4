package toolstep

import (
	"strconv"
	"strings"
)

// Matches implements the version-match predicate from spec.md §4.6:
// expect=="latest" always matches; otherwise v matches expect when v
// starts with expect and everything after that prefix is itself a
// dotted, all-numeric suffix (so "20" matches "20.11.0" but "2" does not
// match "20.11.0", and "20.11.0-rc1" does not match "20.11").
func Matches(expect, v string) bool {
	if expect == "latest" {
		return true
	}
	if v == expect {
		return true
	}
	if !strings.HasPrefix(v, expect) {
		return false
	}
	rest := strings.TrimPrefix(v, expect)
	if rest == "" {
		return true
	}
	if rest[0] != '.' {
		return false
	}
	return isDottedNumeric(rest[1:])
}

func isDottedNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}
