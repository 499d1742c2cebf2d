package kpi

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested period has no record in the dataset.
var ErrNotFound = errors.New("kpi: period not found")

// NotFoundError carries the period that could not be resolved.
type NotFoundError struct {
	PeriodID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("kpi: period %q not found", e.PeriodID)
}

// Is lets errors.Is match ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
