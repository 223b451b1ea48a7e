package icon

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeTool installs a stand-in resource editor script and returns its path.
func writeTool(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stand-in tool requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "rcedit")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	return path
}

// TestEmbedRunsTool verifies the resource editor is invoked with the
// executable and the icon in rcedit argument order.
func TestEmbedRunsTool(t *testing.T) {
	t.Parallel()

	argsFile := filepath.Join(t.TempDir(), "args.txt")
	tool := writeTool(t, `echo "$@" > `+argsFile+"\n")

	embedder := &Exec{Tool: tool}
	require.NoError(t, embedder.Embed(context.Background(), "release/app.exe", "assets/app.ico"))

	recorded, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, "release/app.exe --set-icon assets/app.ico", strings.TrimSpace(string(recorded)))
}

// TestEmbedFailureMentionsCompatibilityLayer ensures tool failures surface
// the tool output and, on non-Windows hosts, the wine hint.
func TestEmbedFailureMentionsCompatibilityLayer(t *testing.T) {
	t.Parallel()

	tool := writeTool(t, "echo 'unable to load icon' >&2\nexit 1\n")

	err := (&Exec{Tool: tool}).Embed(context.Background(), "release/app.exe", "assets/app.ico")
	require.Error(t, err)
	require.ErrorContains(t, err, "unable to load icon")
	require.ErrorContains(t, err, "wine")
}

// TestEmbedMissingTool ensures an absent editor fails with the lookup error.
func TestEmbedMissingTool(t *testing.T) {
	t.Parallel()

	embedder := &Exec{Tool: filepath.Join(t.TempDir(), "no-such-tool")}

	err := embedder.Embed(context.Background(), "release/app.exe", "assets/app.ico")
	require.Error(t, err)
}
