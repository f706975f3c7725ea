package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

// ErrEmptyBuffer is reported when sampling from a buffer that has never
// had a transition added to it.
var ErrEmptyBuffer = errors.New("buffer empty")

// ErrFeatureSize is reported when a transition does not match the
// feature size the buffer was created with.
var ErrFeatureSize = errors.New("invalid feature size")

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, ErrEmptyBuffer)
}
