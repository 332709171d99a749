package store

import (
	"os"
	"time"

	"github.com/cuemby/foreman/pkg/metrics"
)

const (
	// staleAfter is how long an unreleased lock directory is treated as
	// abandoned by a crashed writer and stolen outright.
	staleAfter = 5 * time.Second

	// pollInterval is how often a blocked writer re-checks the lock.
	pollInterval = 10 * time.Millisecond

	// maxContentionCycles bounds how long a writer waits behind a live
	// holder before force-stealing regardless of the holder's age, so a
	// wedged (but not yet stale) writer can never deadlock the workspace.
	maxContentionCycles = 200
)

// acquireLock creates lockDir atomically, blocking behind any existing
// holder until it is released, goes stale, or contention is force-broken.
func acquireLock(lockDir string) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.StoreLockWaitSeconds)

	cycles := 0
	for {
		err := os.Mkdir(lockDir, 0o755)
		if err == nil {
			return nil
		}
		if !os.IsExist(err) {
			return err
		}

		if info, statErr := os.Stat(lockDir); statErr == nil {
			if time.Since(info.ModTime()) > staleAfter {
				metrics.StoreLockContentionTotal.Inc()
				_ = os.RemoveAll(lockDir)
				continue
			}
		} else if os.IsNotExist(statErr) {
			// Released between our Mkdir and Stat; retry immediately.
			continue
		}

		cycles++
		if cycles >= maxContentionCycles {
			metrics.StoreLockContentionTotal.Inc()
			_ = os.RemoveAll(lockDir)
			continue
		}
		time.Sleep(pollInterval)
	}
}

// releaseLock removes lockDir, making it available to the next writer.
func releaseLock(lockDir string) error {
	return os.RemoveAll(lockDir)
}
