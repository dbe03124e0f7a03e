package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var version = "0.1.0-dev"

// ExitError carries the process exit code for a failed command
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes
const (
	exitFailures = 1 // some invocation or artifact failed
	exitUsage    = 2 // bad flags, arguments or configuration
)

func usageError(err error) error {
	return &ExitError{Code: exitUsage, Message: err.Error()}
}

func main() {
	// SIGINT/SIGTERM cancel the root context; running optimizers are killed
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Message != "" {
				fmt.Fprintln(os.Stderr, exitErr.Message)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailures)
	}
}

// run executes the command line and maps every error to an ExitError
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		// cobra flag and argument errors
		return usageError(err)
	}
	return nil
}
