package service

import "errors"

// Validation errors are rejected before any store access; precondition
// errors come back from pre-reads or conditional writes and indicate a
// legitimate race rather than a caller mistake.
var (
	ErrInvalidAmount         = errors.New("amount must be a positive value")
	ErrInsufficientAmount    = errors.New("amount must be at least the bill amount")
	ErrBillNotPending        = errors.New("bill is not pending")
	ErrNegativeTuitionFee    = errors.New("tuition fee must not be negative")
	ErrEnrollmentNotApproved = errors.New("enrollment is not approved")
	ErrScheduleExists        = errors.New("enrollment already has a billing schedule")
)
