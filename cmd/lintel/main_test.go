package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestResolveDBPath(t *testing.T) {
	defer func() { flagDB = "" }()

	flagDB = ""
	assert.Equal(t, filepath.Join("/repo", ".lintel", "results.db"), resolveDBPath("/repo"))
	flagDB = "out/r.db"
	assert.Equal(t, filepath.Join("/repo", "out", "r.db"), resolveDBPath("/repo"))
	flagDB = "/abs/r.db"
	assert.Equal(t, "/abs/r.db", resolveDBPath("/repo"))
}

func TestParseLanguages(t *testing.T) {
	t.Parallel()
	assert.Nil(t, parseLanguages(""))
	assert.Equal(t, []string{"csharp", "java"}, parseLanguages(" csharp, java ,"))
}

func TestWithin(t *testing.T) {
	t.Parallel()
	assert.True(t, within("/src", "/src"))
	assert.True(t, within("/src", "/src/a/B.cs"))
	assert.False(t, within("/src", "/srcgen/B.cs"))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	assert.Error(t, validateFormat("xml"))
}
