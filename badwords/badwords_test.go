package badwords

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joy095/servicehub/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAndMatch(t *testing.T) {
	t.Cleanup(Reset)

	file := filepath.Join(t.TempDir(), "en.txt")
	require.NoError(t, os.WriteFile(file, []byte("Scam\n\n  fraudster \n"), 0o600))
	require.NoError(t, LoadBadWords(file))

	assert.True(t, ContainsBadWords("total SCAM, avoid"))
	assert.True(t, ContainsBadWords("the fraudster left"))
	assert.False(t, ContainsBadWords("scammed"), "only whole words match")
	assert.False(t, ContainsBadWords("paid in full"))
}

func TestEmptySetAllowsEverything(t *testing.T) {
	Reset()
	assert.False(t, ContainsBadWords("anything at all"))
	assert.NoError(t, Check("reason", "anything at all"))
}

func TestCheckNamesField(t *testing.T) {
	t.Cleanup(Reset)
	AddBadWord("Idiot")

	assert.NoError(t, Check("title", "Fix sink", "description", "kitchen"))

	err := Check("title", "Fix sink", "description", "you idiot")
	require.Error(t, err)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
	assert.Contains(t, err.Error(), "description")
}

func TestLoadMissingFile(t *testing.T) {
	assert.Error(t, LoadBadWords(filepath.Join(t.TempDir(), "missing.txt")))
}
