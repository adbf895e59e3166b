package openscad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDependencies(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.scad"), "use <lib/parts.scad>\n// include <ignored.scad>\ncube(1);\n")
	writeFile(t, filepath.Join(dir, "lib", "parts.scad"), "include <./shared.scad>\n")
	writeFile(t, filepath.Join(dir, "lib", "shared.scad"), "use <../main.scad>\n")

	deps, err := NewRenderer(dir).ResolveDependencies("main.scad")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "main.scad"),
		filepath.Join(dir, "lib", "parts.scad"),
		filepath.Join(dir, "lib", "shared.scad"),
	}, deps)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
