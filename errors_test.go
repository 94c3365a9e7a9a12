package speedlaunch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseErrorFormatting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "guide.md")
	content := "## Step 1: A\n\n- [ ] One {#x}\n- [ ] Two {#x}\n\n## Step 2: B\n## Step 3: C\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ParseFile(path)
	require.Error(t, err)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "❌ Error in "+path))
	assert.Contains(t, msg, `Line 4: duplicate checkbox id "x"`)
	assert.Contains(t, msg, ">   4 | - [ ] Two {#x}")
	assert.Contains(t, msg, "💡 Tip:")
	assert.Contains(t, msg, "🔗 First defined at line 3")
}

func TestParseErrorWithContext(t *testing.T) {
	err := NewParseError("/path/to/guide.md", 42, "Something went wrong").
		WithHint("Try doing X instead").
		WithRelated("See line 10 for related issue")

	msg := err.Error()
	assert.Contains(t, msg, "❌ Error in /path/to/guide.md")
	assert.Contains(t, msg, "Line 42: Something went wrong")
	assert.Contains(t, msg, "💡 Tip: Try doing X instead")
	assert.Contains(t, msg, "🔗 See line 10 for related issue")
}

func TestParseErrorWithoutLine(t *testing.T) {
	err := NewParseError(DefaultGuideName, 0, "guide has 2 steps")
	msg := err.Error()
	assert.NotContains(t, msg, "Line 0")
	assert.Contains(t, msg, "guide has 2 steps")
}

func TestParseErrorContextFromSource(t *testing.T) {
	src := []byte("one\ntwo\nthree\nfour\nfive\nsix\n")
	err := NewParseError("embedded:test.md", 4, "bad").withSource(src)

	msg := err.Error()
	assert.Contains(t, msg, "    2 | two")
	assert.Contains(t, msg, ">   4 | four")
	assert.Contains(t, msg, "    6 | six")
	assert.NotContains(t, msg, "one")
}
