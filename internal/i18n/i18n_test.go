package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	m, err := Load("en")
	require.NoError(t, err)

	tr := m.Translator("en-US")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Get started", tr.T("buttons.get_started"))
	assert.Equal(t, "You're now first in line for Lamp!", tr.F("offer.promoted", "title", "Lamp"))
	assert.Len(t, tr.List("faq.questions"), 3)
	assert.Equal(t, "missing.key", tr.T("missing.key"))
}

func TestLoadFromDir_FallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("en:\n  a:\n    b: hello {name}\n  list:\n    - one\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yml"), []byte("de:\n  a:\n    c: hallo\n"), 0o600))

	m, err := LoadFromDir(dir, "en")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "de"}, m.Languages())

	de := m.Translator("de")
	assert.Equal(t, "hallo", de.T("a.c"))
	assert.Equal(t, "hello Ana", de.F("a.b", "name", "Ana"))
	assert.Equal(t, []string{"one"}, de.List("list"))

	assert.Equal(t, "en", m.Translator("fr").Lang())
}

func TestLoadFromDir_Errors(t *testing.T) {
	_, err := LoadFromDir(t.TempDir(), "en")
	assert.Error(t, err)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "de.yaml"), []byte("de:\n  a: b\n"), 0o600))
	_, err = LoadFromDir(dir, "en")
	assert.Error(t, err)
}
