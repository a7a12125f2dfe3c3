package domain

import "time"

// StatusLabels names the workflow statuses that anchor a work span.
type StatusLabels struct {
	Started string
	Done    string
}

// DefaultStatusLabels returns the labels used by our Jira workflow.
func DefaultStatusLabels() StatusLabels {
	return StatusLabels{Started: "Dev In Progress", Done: "Done"}
}

// Issue is a tracked work item matched by the filter.
type Issue struct {
	Key         string `json:"key"`
	StoryPoints int    `json:"story_points"`
}

// FieldChange is a single field edit inside a changelog entry.
// From and To are nil when Jira reports no value.
type FieldChange struct {
	Field string
	From  *string
	To    *string
}

// FromValue returns the previous value or "" when absent.
func (c FieldChange) FromValue() string {
	if c.From == nil {
		return ""
	}
	return *c.From
}

// ToValue returns the new value or "" when absent.
func (c FieldChange) ToValue() string {
	if c.To == nil {
		return ""
	}
	return *c.To
}

// ChangeLogEntry is one timestamped edit event on an issue.
type ChangeLogEntry struct {
	Created time.Time
	Items   []FieldChange
}

// WorkSpan holds the dates an issue entered development and was completed.
// Both are nil unless a complete pair was found.
type WorkSpan struct {
	Start *time.Time
	End   *time.Time
}

// Complete reports whether both anchors were found.
func (s WorkSpan) Complete() bool {
	return s.Start != nil && s.End != nil
}

// IssueResult is the per-issue outcome of an aggregation run.
type IssueResult struct {
	Issue     Issue
	Span      WorkSpan
	Workdays  int
	Durations map[Transition]TransitionStat
	// FetchErr is set when the changelog could not be retrieved in full.
	FetchErr error
}
