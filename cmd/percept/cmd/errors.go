package cmd

import (
	"errors"
	"fmt"
	"os"

	bolt "go.etcd.io/bbolt"

	"github.com/corey/percept/internal/adapters/socket"
)

// isDBLockError returns true if the error chain contains a bbolt lock timeout.
func isDBLockError(err error) bool {
	return errors.Is(err, bolt.ErrTimeout)
}

// diagnoseDBLock checks the daemon state and returns actionable guidance
// when a bbolt open fails due to lock contention.
func diagnoseDBLock(sockPath string) string {
	client := socket.NewClient(sockPath)

	if client.Ping() {
		return "corpus file is locked by a running daemon build\n" +
			"  → retry in a moment, or stop it first:  percept stop"
	}

	if _, err := os.Stat(sockPath); err == nil {
		return fmt.Sprintf("corpus file is locked, and the daemon socket exists but is not responding\n"+
			"  → a previous daemon may have crashed\n"+
			"  → find the process:  ps aux | grep 'percept serve'\n"+
			"  → kill it:           kill <PID>\n"+
			"  → clean up socket:   rm %s", sockPath)
	}

	return "corpus file is locked by another process\n" +
		"  → find the process:  ps aux | grep percept\n" +
		"  → kill it:           kill <PID>\n" +
		"  → then retry your command"
}
