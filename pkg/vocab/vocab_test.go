package vocab

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIgnoresCommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := "# Kommentar\n\nDatenschutz\n  Lob  \n   # eingerückter Kommentar\nUnklar\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keywords_config_v3.txt"), []byte(content), 0o644))

	labels, err := Load(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Datenschutz", "Lob", "Unklar"}, labels)
}

func TestLoadMissingVersion(t *testing.T) {
	_, err := Load(t.TempDir(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "v7")
}

func TestLoadEmptyVocabulary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keywords_config_v1.txt"), []byte("# nur Kommentare\n"), 0o644))

	_, err := Load(dir, 1)
	require.Error(t, err)
}
