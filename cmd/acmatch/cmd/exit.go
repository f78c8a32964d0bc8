package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/acmatch/internal/adapters/bbolt"
	"github.com/corey/acmatch/internal/adapters/socket"
)

// Exit codes follow grep: 0 = matched, 1 = no match, 2 = error.
const (
	exitMatch   = 0
	exitNoMatch = 1
	exitError   = 2
)

// matchExit is returned by find and search to signal a specific exit code
// without printing an error.
type matchExit struct{ code int }

func (e matchExit) Error() string {
	switch e.code {
	case exitMatch:
		return ""
	case exitNoMatch:
		return "no match"
	default:
		return fmt.Sprintf("exit %d", e.code)
	}
}

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return exitMatch
	}
	var me matchExit
	if errors.As(err, &me) {
		return me.code
	}
	return exitError
}

// matchResult turns a match count into the command's result.
func matchResult(count int) error {
	if count == 0 {
		return matchExit{code: exitNoMatch}
	}
	return nil
}

// storeOpenError explains a failed database open. A held lock is almost
// always the daemon, so the message says which process to stop.
func storeOpenError(root string, err error) error {
	if !errors.Is(err, bbolt.ErrLocked) {
		return fmt.Errorf("open store: %w", err)
	}
	sockPath := socket.SocketPath(root)
	if socket.NewClient(sockPath).Ping() {
		return fmt.Errorf("%w by the running daemon\n  stop it with `acmatch daemon stop`, or use the daemon-backed commands", err)
	}
	return fmt.Errorf("%w and no daemon answers on %s\n  a crashed daemon may still hold it: check `ps aux | grep acmatch`", err, sockPath)
}
