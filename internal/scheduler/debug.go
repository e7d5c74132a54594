//go:build debug

package scheduler

import (
	"fmt"
	"log"
	"os"
)

var debugLogger = log.New(os.Stderr, "[TASKQUEUE POOL] ", log.Ltime|log.Lmicroseconds|log.Lshortfile)

// debugLog writes worker tracing when built with -tags debug.
func debugLog(format string, args ...any) {
	_ = debugLogger.Output(2, fmt.Sprintf(format, args...))
}
