package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandRejectsUnknownFormat(t *testing.T) {
	rulesDir, templatePath := writeStoreFixture(t)

	_, _, err := runCommand(t, "validate", rulesDir, "--template", templatePath, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestIsValidFormat(t *testing.T) {
	for _, f := range ValidFormats {
		assert.True(t, isValidFormat(f))
	}
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}
