package builder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"sync"

	"github.com/mitchellh/go-ps"

	"github.com/nwpack/nwpack/internal/logger"
)

// Child process output lines are capped at 1 MiB.
const maxOutputLineSize = 1 << 20

// RunApp launches the application on the host platform without packaging it.
// The runtime is resolved and cached the same way a build would, then started
// with the application's source directory as its first argument. Child output
// is forwarded line by line to the observer. The returned int is the
// application's exit code; a non-zero code is not an error.
func (b *Builder) RunApp(ctx context.Context) (int, error) {
	ctx = logger.WithName(ctx, "run")

	if err := b.collectFiles(ctx); err != nil {
		return 0, fmt.Errorf("collect application files: %w", err)
	}

	// The run workflow always targets the host, whatever the settings select.
	states, err := b.catalog.Select([]string{hostPlatformName()})
	if err != nil {
		return 0, fmt.Errorf("select host platform: %w", err)
	}

	b.states = states

	if err := b.resolveVersion(ctx); err != nil {
		return 0, fmt.Errorf("resolve runtime version: %w", err)
	}

	if err := b.forEachPlatform(ctx, b.ensureCache); err != nil {
		return 0, fmt.Errorf("ensure runtime cache: %w", err)
	}

	state := b.states[0]
	runnable := filepath.Join(state.CacheDir,
		filepath.FromSlash(state.Descriptor.RunnablePath(state.Files[0])))

	b.terminateStaleInstances(ctx, filepath.Base(runnable))

	appDir := filepath.Dir(b.listing.ManifestPath)
	b.events.Log(fmt.Sprintf("Launching %s with %s", b.cfg.AppName, runnable))

	return b.startAndStream(ctx, runnable, appDir)
}

// startAndStream starts the runtime and forwards its output until it exits.
func (b *Builder) startAndStream(ctx context.Context, runnable, appDir string) (int, error) {
	args := append([]string{appDir}, b.cfg.RunArgs...)
	cmd := exec.CommandContext(ctx, runnable, args...) //nolint:gosec // Deliberately runs the cached runtime.

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("attach to runtime stdout: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("attach to runtime stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("launch runtime: %w", err)
	}

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()
		forwardLines(ctx, stdout, "stdout", b.events.Stdout)
	}()

	go func() {
		defer wg.Done()
		forwardLines(ctx, stderr, "stderr", b.events.Stderr)
	}()

	// Drain the pipes before Wait closes them.
	wg.Wait()

	err = cmd.Wait()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	if err != nil {
		return 0, fmt.Errorf("wait for runtime: %w", err)
	}

	return 0, nil
}

// forwardLines emits each line read from r until it is exhausted. A line
// over the cap stops the scan early, so the failure is logged and the
// remainder drained, keeping the child from blocking on a full pipe.
func forwardLines(ctx context.Context, r io.Reader, stream string, emit func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxOutputLineSize)

	for scanner.Scan() {
		emit(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		logger.WarnKV(ctx, "Stopped forwarding runtime output",
			"stream", stream, "error", err)

		_, _ = io.Copy(io.Discard, r)
	}
}

// terminateStaleInstances kills still-running copies of the runtime
// executable so a fresh launch does not fight them over the profile or, on
// Windows, file locks. Failures are logged and ignored.
func (b *Builder) terminateStaleInstances(ctx context.Context, executable string) {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to list processes", "error", err)
		return
	}

	currentPID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == currentPID || process.Executable() != executable {
			continue
		}

		running, err := os.FindProcess(process.Pid())
		if err != nil {
			continue
		}

		if err = running.Kill(); err != nil {
			logger.WarnKV(ctx, "Unable to terminate stale runtime instance",
				"pid", process.Pid(), "error", err)
			continue
		}

		logger.InfoKV(ctx, "Terminated stale runtime instance", "pid", process.Pid())
	}
}

// hostPlatformName maps the host operating system and architecture onto a
// catalog platform name.
func hostPlatformName() string {
	switch goruntime.GOOS {
	case "windows":
		return "win"
	case "darwin":
		return "osx"
	default:
		if goruntime.GOARCH == "386" || goruntime.GOARCH == "arm" {
			return "linux32"
		}

		return "linux64"
	}
}
