package domain

import (
	"errors"
	"fmt"
)

// InsufficientCreditsError is returned by the ledger when a debit would take
// a balance below zero. It carries the amounts the client needs to open the
// purchase flow with the right package preselected.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// AsInsufficientCredits unwraps err into an InsufficientCreditsError if possible.
func AsInsufficientCredits(err error) (*InsufficientCreditsError, bool) {
	var ice *InsufficientCreditsError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}
