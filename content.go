package speedlaunch

import (
	_ "embed"
)

//go:embed content/speedlaunch.md
var defaultGuide []byte

// DefaultGuideName identifies the embedded guide in errors and logs.
const DefaultGuideName = "embedded:speedlaunch.md"

// DefaultSource returns the markdown of the embedded guide.
func DefaultSource() []byte {
	return defaultGuide
}

// Default parses the embedded guide.
func Default() (*Guide, error) {
	return Parse(DefaultGuideName, defaultGuide)
}

// Load parses the guide at path, or the embedded guide when path is empty.
func Load(path string) (*Guide, error) {
	if path == "" {
		return Default()
	}
	return ParseFile(path)
}
