package icon

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// DefaultTool is the resource editor used to embed icons into Windows executables.
const DefaultTool = "rcedit"

// Embedder injects an icon resource into a native executable.
type Embedder interface {
	// Embed replaces the executable's icon with the .ico file at iconPath.
	Embed(ctx context.Context, exePath, iconPath string) error
}

// Exec embeds icons by shelling out to a Windows resource editor.
// On non-Windows hosts the tool must run under a compatibility layer such
// as wine, with the editor available on PATH.
type Exec struct {
	// Tool is the resource editor executable. Defaults to DefaultTool.
	Tool string
}

// NewExec returns an embedder using the default resource editor.
func NewExec() *Exec {
	return &Exec{Tool: DefaultTool}
}

// Embed rewrites the executable's icon resource in place.
func (e *Exec) Embed(ctx context.Context, exePath, iconPath string) error {
	tool := e.Tool
	if tool == "" {
		tool = DefaultTool
	}

	cmd := exec.CommandContext(ctx, tool, exePath, "--set-icon", iconPath)

	output, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	err = fmt.Errorf("run %s on %s: %w: %s", tool, exePath, err, bytes.TrimSpace(output))

	if runtime.GOOS != "windows" {
		return fmt.Errorf("%w (embedding Windows icons from %s requires %s under a compatibility layer such as wine)",
			err, runtime.GOOS, tool)
	}

	return err
}
