package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicli/omni/pkg/config"
)

func TestFromConfigParsesEntries(t *testing.T) {
	v := config.NewValue(map[string]any{
		"deploy": map[string]any{
			"run":            "deploy.sh {env}",
			"help":           "deploy the app",
			"autocompletion": true,
			"category":       []any{"ops"},
		},
	})

	cmds := FromConfig(v, "/repo")
	require.Len(t, cmds, 1)
	c := cmds[0]
	assert.Equal(t, "deploy", c.Name)
	assert.Equal(t, "deploy.sh {env}", c.RunTmpl)
	assert.Equal(t, "deploy the app", c.Help)
	assert.True(t, c.Autocomplete)
	assert.Equal(t, []string{"ops"}, c.Category)
	assert.Equal(t, "/repo", c.SourceDir)
}

func TestFromConfigEmptyIsNil(t *testing.T) {
	cmds := FromConfig(config.Value{}, "/repo")
	assert.Empty(t, cmds)
}
