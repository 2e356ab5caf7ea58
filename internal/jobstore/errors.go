package jobstore

import "errors"

// ErrDuplicateJob is returned by Create when the job id already exists.
var ErrDuplicateJob = errors.New("job already exists")

// ErrJobNotFound is returned by mutating operations when the job id does
// not exist. Get reports absence as a nil job instead.
var ErrJobNotFound = errors.New("job not found")

// ErrJobTerminal is returned by RequestCancel when the job has already
// reached a terminal state.
var ErrJobTerminal = errors.New("job already finished")
