package domain

import (
	"time"
)

// DefaultDueSoonWindow is how far ahead of "now" a due date still
// counts as due-soon.
const DefaultDueSoonWindow = 24 * time.Hour

// Urgency holds the derived urgency flags of a task relative to a
// reference time.
type Urgency struct {
	IsOverdue bool
	IsDueSoon bool
}

// ClassifyUrgency computes the urgency flags for a task at the given
// reference time. Completed tasks and tasks without a due date are
// never urgent. The two flags are mutually exclusive: a task past its
// due date is overdue, a task due within the window but not yet past
// due is due-soon.
func ClassifyUrgency(t *Task, now time.Time, window time.Duration) Urgency {
	if t.Completed || t.DueDate == nil {
		return Urgency{}
	}

	due := *t.DueDate
	if due.Before(now) {
		return Urgency{IsOverdue: true}
	}
	if !due.After(now.Add(window)) {
		return Urgency{IsDueSoon: true}
	}
	return Urgency{}
}

// Annotate recomputes and sets the derived urgency flags on the task.
func (t *Task) Annotate(now time.Time, window time.Duration) {
	u := ClassifyUrgency(t, now, window)
	t.IsOverdue = u.IsOverdue
	t.IsDueSoon = u.IsDueSoon
}
