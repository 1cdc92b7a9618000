package cases

import (
	"errors"
	"fmt"

	"crimetrack/core/store"
)

// NotFoundError reports that an incident, case, person or user id did not
// resolve to an existing record.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// InvalidTransitionError carries the rejected from -> to pair.
type InvalidTransitionError struct {
	From store.CaseStatus
	To   store.CaseStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal transition %s -> %s", e.From, e.To)
}

func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}
