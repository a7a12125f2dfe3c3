package usecase

import (
	"time"

	"github.com/naka-gawa/jira-stats/internal/domain"
)

// ResolveWorkSpan finds the date an issue first moved to labels.Started and
// the date of the first move to labels.Done after that. Scanning stops at the
// first complete pair, so a reopened issue reports its first completion only.
// If either move is missing, both dates are nil.
func ResolveWorkSpan(history []domain.ChangeLogEntry, labels domain.StatusLabels) domain.WorkSpan {
	var start *time.Time
	for _, entry := range history {
		for _, item := range entry.Items {
			if item.Field != statusField || item.To == nil {
				continue
			}
			switch {
			case start == nil && *item.To == labels.Started:
				d := dateIn(entry.Created)
				start = &d
			case start != nil && *item.To == labels.Done:
				end := dateIn(entry.Created)
				return domain.WorkSpan{Start: start, End: &end}
			}
		}
	}
	return domain.WorkSpan{}
}

// dateIn truncates t to midnight in its own location, keeping the date Jira reported.
func dateIn(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
