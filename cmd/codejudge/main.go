package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess   = 0 // Job completed
	ExitJobFailed = 1 // Job ran but finished in the failed state
	ExitError     = 2 // Configuration or runtime error
)

// JobFailureError indicates that the job executed but ended failed, for
// example after cancellation or an unreadable source.
type JobFailureError struct {
	Message string
}

func (e *JobFailureError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var jobErr *JobFailureError
		if errors.As(err, &jobErr) {
			os.Exit(ExitJobFailed)
		}

		os.Exit(ExitError)
	}
}
