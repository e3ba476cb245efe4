package commands

import (
	"sort"
	"strings"
)

// FuzzyConfig carries the thresholds spec.md §4.8's find_command uses to
// decide between auto-selecting a fuzzy match and prompting the user.
type FuzzyConfig struct {
	// MinScore discards any candidate scoring below this normalized
	// similarity.
	MinScore float64
	// FirstMin is the score the top candidate must exceed (strictly) to be
	// auto-selected at all.
	FirstMin float64
	// SecondMax is the maximum the runner-up may score for the top pick
	// to still be auto-selected unambiguously.
	SecondMax float64
}

// DefaultFuzzyConfig matches the thresholds spec.md §8's scenario 4 uses.
var DefaultFuzzyConfig = FuzzyConfig{MinScore: 0.50, FirstMin: 0.80, SecondMax: 0.60}

// Candidate is one scored match produced by FindCommand.
type Candidate struct {
	Command Command
	Score   float64
}

// Serves returns the command among cmds with the greatest Serve(argv)
// match length, or (Command{}, 0, false) if none serve argv at all. Ties
// are broken by source priority (Builtin > Config > Path > Makefile),
// the order cmds is conventionally built in by Load.
func Serves(cmds []Command, argv []string) (Command, int, bool) {
	var best Command
	bestLen := 0
	found := false
	for _, c := range cmds {
		n := c.Serve(argv)
		if n > bestLen {
			bestLen = n
			best = c
			found = true
		}
	}
	return best, bestLen, found
}

// FindCommand computes normalized Damerau-Levenshtein similarity between
// argv joined by spaces (trying every prefix length k) and each command's
// canonical name, per spec.md §4.8. It returns candidates scoring at or
// above cfg.MinScore, sorted by descending score.
func FindCommand(cmds []Command, argv []string, cfg FuzzyConfig) []Candidate {
	var candidates []Candidate
	for _, c := range cmds {
		best := 0.0
		for k := 1; k <= len(argv); k++ {
			input := strings.Join(argv[:k], " ")
			score := normalizedSimilarity(input, c.Name)
			if score > best {
				best = score
			}
		}
		if best >= cfg.MinScore {
			candidates = append(candidates, Candidate{Command: c, Score: best})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	return candidates
}

// ResolveFuzzy applies spec.md §4.8's auto-select rule: if the top
// candidate's score exceeds FirstMin and no other candidate exceeds
// SecondMax, it is auto-selected (ok=true, ambiguous=false); otherwise
// the caller must prompt among the candidates (ambiguous=true). An exact
// name match (score 1) is always auto-selected, whatever the runner-up
// scores.
func ResolveFuzzy(candidates []Candidate, cfg FuzzyConfig) (top Candidate, ok bool, ambiguous bool) {
	if len(candidates) == 0 {
		return Candidate{}, false, false
	}
	top = candidates[0]
	if top.Score >= 1 {
		return top, true, false
	}
	if top.Score <= cfg.FirstMin {
		return top, false, true
	}
	for _, c := range candidates[1:] {
		if c.Score > cfg.SecondMax {
			return top, false, true
		}
	}
	return top, true, false
}

// normalizedSimilarity converts Damerau-Levenshtein edit distance into a
// [0,1] similarity score: 1 - distance/max(len(a), len(b)).
func normalizedSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist := damerauLevenshtein(a, b)
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// damerauLevenshtein computes the optimal string alignment distance
// (insertions, deletions, substitutions, and adjacent transpositions)
// between a and b. No pack example imports a Levenshtein/fuzzy-distance
// library providing this exact variant, so it's implemented directly on
// stdlib data structures (a small dynamic-programming table).
func damerauLevenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	la, lb := len(ar), len(br)

	d := make([][]int, la+1)
	for i := range d {
		d[i] = make([]int, lb+1)
		d[i][0] = i
	}
	for j := 0; j <= lb; j++ {
		d[0][j] = j
	}

	for i := 1; i <= la; i++ {
		for j := 1; j <= lb; j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			del := d[i-1][j] + 1
			ins := d[i][j-1] + 1
			sub := d[i-1][j-1] + cost
			best := del
			if ins < best {
				best = ins
			}
			if sub < best {
				best = sub
			}
			if i > 1 && j > 1 && ar[i-1] == br[j-2] && ar[i-2] == br[j-1] {
				if trans := d[i-2][j-2] + cost; trans < best {
					best = trans
				}
			}
			d[i][j] = best
		}
	}
	return d[la][lb]
}

// splitWords splits a canonical command name on whitespace.
func splitWords(name string) []string {
	return strings.Fields(name)
}

// CompletionWords computes, per spec.md §4.8's Completion algorithm, the
// set of completions for the word at position cword (0-indexed; argv may
// or may not already contain a partial token at that position). Every
// earlier word must match its command word exactly; the word at cword
// itself, if a partial token is present, must match as a prefix. Returns
// the candidate words at position cword for every command still in
// play, deduplicated.
func CompletionWords(cmds []Command, argv []string, cword int) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, c := range cmds {
		words := c.words()
		if len(words) <= cword {
			continue
		}
		disqualified := false
		for i := 0; i < cword; i++ {
			if i >= len(words) || words[i] != argv[i] {
				disqualified = true
				break
			}
		}
		if disqualified {
			continue
		}
		if cword < len(argv) && !strings.HasPrefix(words[cword], argv[cword]) {
			continue
		}
		next := words[cword]
		if _, ok := seen[next]; !ok {
			seen[next] = struct{}{}
			out = append(out, next)
		}
	}
	sort.Strings(out)
	return out
}
