package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServesLongestPrefixWins(t *testing.T) {
	cmds := []Command{
		{Name: "config"},
		{Name: "config bootstrap"},
		{Name: "config path switch"},
	}
	cmd, n, ok := Serves(cmds, []string{"config", "path", "switch", "extra"})
	require.True(t, ok)
	assert.Equal(t, "config path switch", cmd.Name)
	assert.Equal(t, 3, n)
}

func TestServesNoMatch(t *testing.T) {
	cmds := []Command{{Name: "up"}, {Name: "down"}}
	_, _, ok := Serves(cmds, []string{"status"})
	assert.False(t, ok)
}

func TestDamerauLevenshteinExact(t *testing.T) {
	assert.Equal(t, 0, damerauLevenshtein("build", "build"))
}

func TestDamerauLevenshteinTransposition(t *testing.T) {
	// "ab" -> "ba" is a single adjacent transposition under Damerau-Levenshtein.
	assert.Equal(t, 1, damerauLevenshtein("ab", "ba"))
}

func TestNormalizedSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, normalizedSimilarity("build", "build"), 0.0001)
	assert.Less(t, normalizedSimilarity("buidl", "build"), 1.0)
	assert.Greater(t, normalizedSimilarity("buidl", "build"), 0.5)
}

func TestFindCommandAutoSelectsClearWinner(t *testing.T) {
	cmds := []Command{{Name: "build"}, {Name: "clean"}}
	candidates := FindCommand(cmds, []string{"buidl"}, DefaultFuzzyConfig)
	require.NotEmpty(t, candidates)

	top, ok, ambiguous := ResolveFuzzy(candidates, DefaultFuzzyConfig)
	require.True(t, ok)
	assert.False(t, ambiguous)
	assert.Equal(t, "build", top.Command.Name)
}

func TestFindCommandExactMatchNeverPrompts(t *testing.T) {
	cmds := []Command{{Name: "build"}, {Name: "buildx"}}
	candidates := FindCommand(cmds, []string{"build"}, DefaultFuzzyConfig)
	top, ok, _ := ResolveFuzzy(candidates, DefaultFuzzyConfig)
	assert.True(t, ok)
	assert.Equal(t, "build", top.Command.Name)
}

func TestResolveFuzzyAmbiguousWhenClose(t *testing.T) {
	candidates := []Candidate{
		{Command: Command{Name: "build"}, Score: 0.85},
		{Command: Command{Name: "bundle"}, Score: 0.70},
	}
	_, ok, ambiguous := ResolveFuzzy(candidates, DefaultFuzzyConfig)
	assert.False(t, ok)
	assert.True(t, ambiguous)
}

func TestCompletionWordsPrefixMatch(t *testing.T) {
	cmds := []Command{
		{Name: "config bootstrap"},
		{Name: "config check"},
		{Name: "config path switch"},
	}
	words := CompletionWords(cmds, []string{"config", "p"}, 1)
	assert.Equal(t, []string{"path"}, words)
}

func TestCompletionWordsFullMatchDescendsOneLevel(t *testing.T) {
	cmds := []Command{
		{Name: "config bootstrap"},
		{Name: "config check"},
	}
	words := CompletionWords(cmds, []string{"config"}, 1)
	assert.ElementsMatch(t, []string{"bootstrap", "check"}, words)
}
