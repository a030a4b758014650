// Package cmdutil holds the small helpers cmd/viewfsd's Cobra commands share,
// grounded in the teacher's top-level cmd package: a way to wrap an
// error-returning entry point as a standard Cobra Run function, and
// consistent error/fatal printing to standard error.
package cmdutil

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message to standard error and terminates the
// process with a non-zero exit code.
func Fatal(err error) {
	Error(err)
	os.Exit(1)
}

// Mainify wraps a Cobra entry point that returns an error (so it can rely on
// defer-based cleanup) into the signature cobra.Command.Run expects.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}
