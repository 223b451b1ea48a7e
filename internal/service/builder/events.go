package builder

import (
	"go.uber.org/zap"

	"github.com/nwpack/nwpack/internal/logger"
)

// Observer receives progress messages and child process output from the
// pipeline. Implementations must be safe for concurrent use: stages fan out
// per platform, and the run workflow forwards the application's stdout and
// stderr from separate goroutines.
type Observer interface {
	// Log receives a pipeline progress message.
	Log(message string)
	// Stdout receives one line of the running application's standard output.
	Stdout(line string)
	// Stderr receives one line of the running application's standard error.
	Stderr(line string)
}

// logObserver is the default Observer, forwarding everything to the process logger.
type logObserver struct {
	log *zap.SugaredLogger
}

func newLogObserver() *logObserver {
	return &logObserver{log: logger.Logger()}
}

// Log writes a progress message at info level.
func (o *logObserver) Log(message string) {
	o.log.Info(message)
}

// Stdout writes an application output line at info level.
func (o *logObserver) Stdout(line string) {
	o.log.Infow(line, "stream", "stdout")
}

// Stderr writes an application error line at warn level.
func (o *logObserver) Stderr(line string) {
	o.log.Warnw(line, "stream", "stderr")
}
