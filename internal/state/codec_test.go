package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepCodec(t *testing.T) {
	for n := FirstStep; n <= LastStep; n++ {
		got, err := decodeStep(encodeStep(n))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}

	for _, raw := range []string{"", "0", "4", "1.5", " 2"} {
		_, err := decodeStep(raw)
		assert.Error(t, err, raw)
	}
}

func TestCompletedEncoding(t *testing.T) {
	raw, err := encodeCompleted(map[int]bool{1: true, 2: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":true,"2":true}`, raw)

	got, err := decodeCompleted(`{"1":true,"2":false,"3":true}`)
	require.NoError(t, err)
	assert.Equal(t, map[int]bool{1: true, 3: true}, got, "false entries are dropped")

	got, err = decodeCompleted(`{}`)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckboxEncoding(t *testing.T) {
	raw, err := encodeCheckboxes(map[string]bool{"x": true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":true}`, raw)

	raw, err = encodeCheckboxes(map[string]bool{})
	require.NoError(t, err)
	assert.Equal(t, "{}", raw)
}

func TestParseModeAndWorkflow(t *testing.T) {
	m, err := ParseMode("reference")
	require.NoError(t, err)
	assert.Equal(t, ModeReference, m)

	_, err = ParseMode("REFERENCE")
	assert.ErrorIs(t, err, ErrInvalidMode)

	w, err := ParseWorkflow("niche-pack")
	require.NoError(t, err)
	assert.Equal(t, WorkflowNichePack, w)

	_, err = ParseWorkflow("nichepack")
	assert.ErrorIs(t, err, ErrInvalidWorkflow)
}

func TestStorageKeysMatchExistingBrowserData(t *testing.T) {
	// Progress saved by earlier versions lives under these names.
	assert.Equal(t, []string{
		"speedlaunch-mode",
		"speedlaunch-step",
		"speedlaunch-completed",
		"speedlaunch-checkboxes",
	}, PersistedKeys)
}
