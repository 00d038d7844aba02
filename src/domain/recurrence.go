package domain

import (
	"errors"
	"time"
)

// RepeatType represents how often a repeatable task recurs
type RepeatType string

const (
	RepeatDaily   RepeatType = "daily"
	RepeatWeekly  RepeatType = "weekly"
	RepeatMonthly RepeatType = "monthly"
	RepeatYearly  RepeatType = "yearly"
)

// IsValid validates if the repeat type is valid
func (r RepeatType) IsValid() bool {
	switch r {
	case RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return true
	default:
		return false
	}
}

// String returns string representation of RepeatType
func (r RepeatType) String() string {
	return string(r)
}

var (
	ErrRepeatTypeInvalid     = errors.New("repeat_type must be daily, weekly, monthly, or yearly")
	ErrRepeatIntervalInvalid = errors.New("repeat_interval must be 1 or greater")
	ErrRepeatEndBeforeDue    = errors.New("repeat_end_date must not be earlier than due_date")
)

// ValidateRecurrence checks the recurrence configuration of a task.
// The configuration only matters when the task is repeatable; a
// non-repeatable task always passes. repeat_end_date is bounded by the
// due date, or by "now" when no due date is set.
func ValidateRecurrence(isRepeatable bool, repeatType RepeatType, interval int, dueDate, endDate *time.Time, now time.Time) error {
	if !isRepeatable {
		return nil
	}

	if !repeatType.IsValid() {
		return ErrRepeatTypeInvalid
	}
	if interval < 1 {
		return ErrRepeatIntervalInvalid
	}

	if endDate != nil {
		bound := now
		if dueDate != nil {
			bound = *dueDate
		}
		if endDate.Before(bound) {
			return ErrRepeatEndBeforeDue
		}
	}

	return nil
}

// NextDueDate computes the due date of the next occurrence. Months and
// years use calendar arithmetic, not a fixed number of days.
func NextDueDate(due time.Time, repeatType RepeatType, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}

	switch repeatType {
	case RepeatDaily:
		return due.AddDate(0, 0, interval)
	case RepeatWeekly:
		return due.AddDate(0, 0, 7*interval)
	case RepeatMonthly:
		return due.AddDate(0, interval, 0)
	case RepeatYearly:
		return due.AddDate(interval, 0, 0)
	default:
		return due
	}
}
