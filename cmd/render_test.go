// -- cmd/render_test.go --
package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs a fresh command tree with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd := newRootCmd()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeTempDoc drops an HTML fixture into a temp dir and returns its path.
func writeTempDoc(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.html")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRenderCommand_JSON(t *testing.T) {
	path := writeTempDoc(t, `<html><body><div><a href="next.html">go</a></div></body></html>`)

	out, err := executeCommand(t, "render", path, "--format", "json",
		"--base", "http://example.net/page.html")
	require.NoError(t, err)

	var tree map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	assert.Equal(t, "BLOCK", tree["type"])
	assert.Equal(t, "html", tree["element"])
	assert.NotEmpty(t, tree["children"])
	assert.Contains(t, out, `"href": "next.html"`)
}

func TestRenderCommand_Text(t *testing.T) {
	path := writeTempDoc(t, `<html><body><p>hello world</p></body></html>`)

	out, err := executeCommand(t, "render", path, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "BLOCK <html>")
	assert.Contains(t, out, `"hello world"`)
}

func TestRenderCommand_OutputFile(t *testing.T) {
	path := writeTempDoc(t, `<html><body>x</body></html>`)
	outPath := filepath.Join(t.TempDir(), "tree.json")

	_, err := executeCommand(t, "render", path, "--format", "json", "-o", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type": "BLOCK"`)
}

func TestRenderCommand_FlagStateDoesNotLeak(t *testing.T) {
	path := writeTempDoc(t, `<html><body>x</body></html>`)
	outPath := filepath.Join(t.TempDir(), "tree.json")

	_, err := executeCommand(t, "render", path, "-o", outPath)
	require.NoError(t, err)

	// The second run must not inherit the first run's output path.
	out, err := executeCommand(t, "render", path, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "BLOCK <html>")
}

func TestRenderCommand_Errors(t *testing.T) {
	t.Run("missing input file", func(t *testing.T) {
		_, err := executeCommand(t, "render", filepath.Join(t.TempDir(), "nope.html"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening input")
	})

	t.Run("unknown format", func(t *testing.T) {
		path := writeTempDoc(t, `<html></html>`)
		_, err := executeCommand(t, "render", path, "--format", "yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})

	t.Run("bad base URL", func(t *testing.T) {
		path := writeTempDoc(t, `<html></html>`)
		_, err := executeCommand(t, "render", path, "--base", "http://bad url:80/")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid base URL")
	})
}
