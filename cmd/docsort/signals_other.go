//go:build !unix

package main

import (
	"log/slog"

	"docsort/internal/sorter"
)

func notifyPauseToggle(*sorter.Session, *slog.Logger) func() {
	return func() {}
}
