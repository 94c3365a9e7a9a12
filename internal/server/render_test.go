package server

import (
	"strings"
	"testing"

	"github.com/livetemplate/speedlaunch"
	"github.com/livetemplate/speedlaunch/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderApp(t *testing.T, snap state.Snapshot) string {
	t.Helper()
	g, err := speedlaunch.Default()
	require.NoError(t, err)
	r, err := NewRenderer()
	require.NoError(t, err)
	html, err := r.App(g, snap)
	require.NoError(t, err)
	return string(html)
}

func defaultSnapshot() state.Snapshot {
	return state.Snapshot{
		Mode:             state.ModeChallenge,
		ChallengeStep:    1,
		CompletedSteps:   map[int]bool{},
		CheckboxStates:   map[string]bool{},
		SelectedWorkflow: state.WorkflowGlowUp,
		ExpandedSections: map[string]bool{},
	}
}

func TestRenderChallengeLocksFutureSteps(t *testing.T) {
	html := renderApp(t, defaultSnapshot())

	assert.Contains(t, html, `id="setup" class="sl-step current"`)
	assert.Contains(t, html, `id="glowup" class="sl-step locked"`)
	assert.Contains(t, html, `data-action="setChallengeStep" data-step="1">`)
	assert.Contains(t, html, `data-action="setChallengeStep" data-step="3" disabled>`)
	assert.Contains(t, html, "0/6")
}

func TestRenderCompletedStep(t *testing.T) {
	snap := defaultSnapshot()
	snap.ChallengeStep = 2
	snap.CompletedSteps[1] = true

	html := renderApp(t, snap)
	assert.Contains(t, html, "✓ Completed")
	assert.Contains(t, html, `id="glowup" class="sl-step current"`)
	assert.NotContains(t, html, `data-action="setChallengeStep" data-step="2" disabled`)
}

func TestRenderPromptPlaceholders(t *testing.T) {
	html := renderApp(t, defaultSnapshot())
	assert.Contains(t, html, `id="prompt-p1"`)
	assert.Contains(t, html, `<span class="sl-placeholder">`)
}

func TestRenderReferenceMode(t *testing.T) {
	snap := defaultSnapshot()
	snap.Mode = state.ModeReference
	snap.SelectedWorkflow = state.WorkflowTrend

	html := renderApp(t, snap)
	assert.Contains(t, html, `sl-workflow active" data-action="setSelectedWorkflow" data-workflow="trend"`)
	assert.Contains(t, html, `class="sl-reference"`)
	assert.NotContains(t, html, `class="sl-step`)
	assert.Equal(t, 3, strings.Count(html, `data-action="setSelectedWorkflow"`))
}

func TestRenderSectionHonorsExpandedState(t *testing.T) {
	snap := defaultSnapshot()
	html := renderApp(t, snap)
	assert.NotContains(t, html, `data-id="faq-1"`)
	assert.Contains(t, html, `data-id="stuck-glowup" aria-expanded="false"`)

	snap.ExpandedSections["stuck-glowup"] = true
	html = renderApp(t, snap)
	assert.Contains(t, html, `data-id="faq-1"`)
	assert.Contains(t, html, `data-id="stuck-glowup" aria-expanded="true"`)
}

func TestRenderAppendixAndFooterInBothModes(t *testing.T) {
	for _, mode := range []state.Mode{state.ModeChallenge, state.ModeReference} {
		t.Run(string(mode), func(t *testing.T) {
			snap := defaultSnapshot()
			snap.Mode = mode
			html := renderApp(t, snap)

			appendix := strings.Index(html, `id="all-prompts" class="sl-appendix"`)
			require.GreaterOrEqual(t, appendix, 0)
			footer := strings.Index(html, `<footer class="sl-footer">`)
			require.Greater(t, footer, appendix, "footer follows the appendix")

			view := strings.LastIndex(html, `class="sl-step`)
			if mode == state.ModeReference {
				view = strings.LastIndex(html, `class="sl-reference"`)
			}
			assert.Greater(t, appendix, view, "appendix follows the mode view")

			for _, id := range []string{"app-1", "app-2", "app-3", "app-4", "app-5", "app-6"} {
				assert.Contains(t, html, `data-action="copyPrompt" data-id="`+id+`"`)
			}
			assert.Contains(t, html, "Rewrite with Style")
			assert.Contains(t, html, "Batch Variations")
			assert.Contains(t, html[footer:], "The point is to ship.")
		})
	}
}

func TestRenderCopiedAppendixPrompt(t *testing.T) {
	snap := defaultSnapshot()
	snap.CopiedPromptID = "app-5"
	html := renderApp(t, snap)

	appendix := html[strings.Index(html, `class="sl-appendix"`):]
	assert.Contains(t, appendix, `class="sl-copy copied" data-action="copyPrompt" data-id="app-5"`)
	assert.Equal(t, 1, strings.Count(html, "Copied!"))
}
