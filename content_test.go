package speedlaunch

import (
	"testing"

	"github.com/livetemplate/speedlaunch/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGuide(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "AI Speed-Launch System", g.Title)
	assert.Equal(t, DefaultGuideName, g.SourceFile)
	require.Len(t, g.Steps, 3)
	assert.Equal(t, "I'm Ready", g.Steps[0].DoneLabel)
	assert.Equal(t, "I Published It!", g.Steps[1].DoneLabel)

	for _, w := range state.Workflows {
		assert.NotNil(t, g.Workflow(w), "workflow %s", w)
	}

	for _, id := range []string{"setup-etsy", "glowup-1", "final-7", "ref-gc-9", "ref-tc-8", "ref-npc-9"} {
		_, ok := g.Checkbox(id)
		assert.True(t, ok, "checkbox %s", id)
	}
	for _, id := range []string{"p1", "p2", "p3", "ref-tp4", "ref-npp2", "app-1", "app-3", "app-5", "app-6"} {
		_, ok := g.Prompt(id)
		assert.True(t, ok, "prompt %s", id)
	}

	assert.True(t, g.SectionDefault("ref-glowup-prompts"))
	assert.False(t, g.SectionDefault("stuck-glowup"))
	assert.True(t, g.HasSection("faq-5"))

	require.NotNil(t, g.Appendix)
	assert.Equal(t, "All Prompts", g.Appendix.Title)
	rewrite, ok := g.Prompt("app-3")
	require.True(t, ok)
	assert.Equal(t, "Rewrite with Style", rewrite.Label)
	assert.Contains(t, string(g.Footer), "The point is to ship.")
}

func TestDefaultGuideProgress(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)

	progress := g.Progress(nil)
	require.Len(t, progress, 3)
	assert.Equal(t, 6, progress[0].Total)
	assert.Equal(t, 15, progress[1].Total)
	assert.Equal(t, 0, progress[2].Total)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	g, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultGuideName, g.SourceFile)
}
