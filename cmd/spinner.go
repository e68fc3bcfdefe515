package cmd

import (
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
)

// withSpinner shows a progress spinner around a remote call when stdout is a
// terminal; in pipes and tests it just runs the function
func withSpinner(message string, fn func() error) error {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return fn()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()

	defer s.Stop()

	return fn()
}
