package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
)

// setupLogging configures the diagnostic logger. Progress lines are not
// logged; they go to the command output.
func setupLogging(level string, w io.Writer) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetOutput(w)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	return nil
}
