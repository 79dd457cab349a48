//go:build unix

package main

import (
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"docsort/internal/sorter"
)

// notifyPauseToggle flips the session's pause state on SIGUSR1. The returned
// stop function releases the signal handler.
func notifyPauseToggle(session *sorter.Session, logger *slog.Logger) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, unix.SIGUSR1)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-signals:
				if session.TogglePause() {
					logger.Info("run paused, send SIGUSR1 again to resume")
				} else {
					logger.Info("run resumed")
				}
			}
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}
