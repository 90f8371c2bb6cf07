package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEventNotFound    = errors.New("event not found")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrRunNotFound      = errors.New("scheduler run not found")
	ErrRunNotCompleted  = errors.New("scheduler run is not completed")

	ErrAssignmentNotFound  = errors.New("pending assignment not found")
	ErrAssignmentNotPlaced = errors.New("pending assignment carries no placement")
)
