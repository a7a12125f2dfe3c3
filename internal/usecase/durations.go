package usecase

import (
	"time"

	"github.com/naka-gawa/jira-stats/internal/domain"
)

const statusField = "status"

// durationTracker measures time spent between status changes of one issue.
// Tracking is a one-way latch: it arms on the first move into the started
// status (or immediately when a forced start is given) and never disarms.
type durationTracker struct {
	started string
	armed   bool
	forced  *time.Time
	clocks  map[string]time.Time
	stats   map[domain.Transition]domain.TransitionStat
}

func newDurationTracker(started string, forcedStart *time.Time) *durationTracker {
	return &durationTracker{
		started: started,
		forced:  forcedStart,
		clocks:  make(map[string]time.Time),
		stats:   make(map[domain.Transition]domain.TransitionStat),
	}
}

func (t *durationTracker) observe(at time.Time, from, to string) {
	if !t.armed && (t.forced != nil || to == t.started) {
		t.armed = true
	}
	if !t.armed {
		return
	}

	// The forced start stands in for the first tracked move and is used once.
	if t.forced != nil {
		t.clocks[to] = *t.forced
		t.forced = nil
		return
	}

	if since, ok := t.clocks[from]; ok {
		tr := domain.Transition{From: from, To: to}
		stat := t.stats[tr]
		stat.Add(at.Sub(since))
		t.stats[tr] = stat
	}
	t.clocks[from] = at
	t.clocks[to] = at
}

// AccumulateDurations walks history in order and sums, per (from, to) status
// pair, the time the issue spent in the status it left. The first tracked
// move only starts the clock. A non-nil forcedStart arms tracking at once and
// is recorded as the arrival time of the first tracked move's target status.
func AccumulateDurations(history []domain.ChangeLogEntry, labels domain.StatusLabels, forcedStart *time.Time) map[domain.Transition]domain.TransitionStat {
	tracker := newDurationTracker(labels.Started, forcedStart)
	for _, entry := range history {
		for _, item := range entry.Items {
			if item.Field != statusField {
				continue
			}
			tracker.observe(entry.Created, item.FromValue(), item.ToValue())
		}
	}
	return tracker.stats
}
