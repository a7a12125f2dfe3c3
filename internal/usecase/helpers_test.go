package usecase

import (
	"time"

	"github.com/naka-gawa/jira-stats/internal/domain"
)

// change builds a status change entry for test histories.
func change(at time.Time, from, to string) domain.ChangeLogEntry {
	return domain.ChangeLogEntry{
		Created: at,
		Items:   []domain.FieldChange{{Field: "status", From: &from, To: &to}},
	}
}

func fieldChange(at time.Time, field, from, to string) domain.ChangeLogEntry {
	return domain.ChangeLogEntry{
		Created: at,
		Items:   []domain.FieldChange{{Field: field, From: &from, To: &to}},
	}
}

func stamp(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}
