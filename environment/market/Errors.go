package market

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is reported when an action outside of the action
// space is passed to Step
var ErrInvalidAction = errors.New("invalid action")

// ErrEpisodeOver is reported when Step is called after the last day of
// the price history has been reached without calling Reset
var ErrEpisodeOver = errors.New("episode over, call Reset")

// ActionError reports an action that could not be taken
type ActionError struct {
	Op         string
	Action     int
	NumActions int
	Err        error
}

// Error satisfies the error interface
func (a *ActionError) Error() string {
	return fmt.Sprintf("%v: %v \n\twant([0, %v))\n\thave(%v)", a.Op,
		a.Err, a.NumActions, a.Action)
}

// Unwrap returns the underlying error
func (a *ActionError) Unwrap() error {
	return a.Err
}
