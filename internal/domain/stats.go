// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Transition identifies a directed status move observed in a changelog.
// It is comparable and used as a map key across all issues.
type Transition struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TransitionStat accumulates the time spent on one Transition.
type TransitionStat struct {
	Total time.Duration `json:"total"`
	Count int           `json:"count"`
	// Samples holds each recorded duration so that medians can be derived later.
	Samples []time.Duration `json:"-"`
}

// Add records one measured duration.
func (s *TransitionStat) Add(d time.Duration) {
	s.Total += d
	s.Count++
	s.Samples = append(s.Samples, d)
}

// Merge folds another accumulator into s.
func (s *TransitionStat) Merge(o TransitionStat) {
	s.Total += o.Total
	s.Count += o.Count
	s.Samples = append(s.Samples, o.Samples...)
}

// StoryPointBucket holds the workdays spent on issues sharing one story-point value.
type StoryPointBucket struct {
	TotalDays int `json:"total_days"`
	Count     int `json:"count"`
}

// Report is the outcome of one aggregation run.
type Report struct {
	Issues           []IssueResult                 `json:"issues"`
	TotalStoryPoints int                           `json:"total_story_points"`
	TotalWorkdays    int                           `json:"total_workdays"`
	Transitions      map[Transition]TransitionStat `json:"-"`
	Buckets          map[int]StoryPointBucket      `json:"-"`
}
