package orchestrator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnicli/omni/pkg/cache"
	"github.com/omnicli/omni/pkg/config"
)

func TestParsePromptSpecs(t *testing.T) {
	cfg := config.NewValue(map[string]any{
		"prompts": []any{
			map[string]any{"id": "docker_registry", "question": "Which registry?"},
			map[string]any{"id": "token", "question": "API token?", "masked": true},
			map[string]any{"question": "missing id, dropped"},
		},
	})
	specs := ParsePromptSpecs(cfg.Get("prompts"))
	require.Len(t, specs, 2)
	assert.Equal(t, "docker_registry", specs[0].ID)
	assert.False(t, specs[0].Masked)
	assert.Equal(t, "token", specs[1].ID)
	assert.True(t, specs[1].Masked)
}

func TestCachedPromptAnswersPrefersRepositoryOverOrganization(t *testing.T) {
	s, err := cache.Open(filepath.Join(t.TempDir(), "omni.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	const workdirID = "github.com:acme-corp/widgets"
	require.NoError(t, s.SetPromptAnswer("docker_registry", "acme-corp", "", "registry.acme.example/default"))
	require.NoError(t, s.SetPromptAnswer("docker_registry", "acme-corp", workdirID, "registry.acme.example/widgets"))

	specs := []PromptSpec{{ID: "docker_registry"}, {ID: "unanswered"}}
	answers, err := CachedPromptAnswers(s, workdirID, specs)
	require.NoError(t, err)
	assert.Equal(t, "registry.acme.example/widgets", answers["docker_registry"])
	_, hasUnanswered := answers["unanswered"]
	assert.False(t, hasUnanswered)
}
