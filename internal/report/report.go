// Package report renders an aggregation run as plain text.
package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/jira-stats/internal/domain"
)

const noData = "no data"

// Average is a derived statistic that may be undefined for empty input.
type Average struct {
	Value float64
	OK    bool
}

func (a Average) format(suffix string) string {
	if !a.OK {
		return noData
	}
	return fmt.Sprintf("%.2f%s", a.Value, suffix)
}

// TransitionSummary is the average and median time spent on one transition.
type TransitionSummary struct {
	Transition domain.Transition
	Count      int
	Mean       time.Duration
	Median     time.Duration
	OK         bool
}

// BucketSummary is the average workdays for one story-point value.
type BucketSummary struct {
	StoryPoints int
	AverageDays Average
}

// Summary holds every figure printed after the per-issue lines.
type Summary struct {
	TotalStoryPoints  int
	DaysPerStoryPoint Average
	PointsPerStory    Average
	DaysPerStory      Average
	Transitions       []TransitionSummary
	Buckets           []BucketSummary
}

// Summarize derives the report averages. A zero denominator marks only that
// statistic as undefined.
func Summarize(r *domain.Report) Summary {
	s := Summary{TotalStoryPoints: r.TotalStoryPoints}

	if r.TotalStoryPoints != 0 {
		s.DaysPerStoryPoint = Average{Value: float64(r.TotalWorkdays) / float64(r.TotalStoryPoints), OK: true}
	}

	points := make(stats.Float64Data, 0, len(r.Issues))
	days := make(stats.Float64Data, 0, len(r.Issues))
	for _, res := range r.Issues {
		points = append(points, float64(res.Issue.StoryPoints))
		days = append(days, float64(res.Workdays))
	}
	s.PointsPerStory = mean(points)
	s.DaysPerStory = mean(days)

	for tr, stat := range r.Transitions {
		ts := TransitionSummary{Transition: tr, Count: stat.Count}
		if stat.Count > 0 {
			ts.OK = true
			ts.Mean = stat.Total / time.Duration(stat.Count)
			ts.Median = median(stat.Samples)
		}
		s.Transitions = append(s.Transitions, ts)
	}
	sort.Slice(s.Transitions, func(i, j int) bool {
		a, b := s.Transitions[i].Transition, s.Transitions[j].Transition
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})

	for sp, bucket := range r.Buckets {
		bs := BucketSummary{StoryPoints: sp}
		if bucket.Count > 0 {
			bs.AverageDays = Average{Value: float64(bucket.TotalDays) / float64(bucket.Count), OK: true}
		}
		s.Buckets = append(s.Buckets, bs)
	}
	sort.Slice(s.Buckets, func(i, j int) bool {
		return s.Buckets[i].StoryPoints < s.Buckets[j].StoryPoints
	})
	return s
}

func mean(data stats.Float64Data) Average {
	m, err := stats.Mean(data)
	if err != nil {
		return Average{}
	}
	return Average{Value: m, OK: true}
}

func median(samples []time.Duration) time.Duration {
	data := make(stats.Float64Data, len(samples))
	for i, d := range samples {
		data[i] = float64(d)
	}
	m, err := stats.Median(data)
	if err != nil {
		return 0
	}
	return time.Duration(m)
}

// Render writes the per-issue lines followed by the summary.
func Render(w io.Writer, r *domain.Report) error {
	bw := bufio.NewWriter(w)
	for _, res := range r.Issues {
		writeIssue(bw, res)
	}

	s := Summarize(r)
	fmt.Fprintln(bw)
	fmt.Fprintf(bw, "Total Story Points: %d\n", s.TotalStoryPoints)
	fmt.Fprintf(bw, "Average Time per Story Point: %s\n", s.DaysPerStoryPoint.format(" workdays"))
	fmt.Fprintf(bw, "Average Points per Story: %s\n", s.PointsPerStory.format(""))
	fmt.Fprintf(bw, "Average Days per Story: %s\n", s.DaysPerStory.format(""))

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Average time spent in each transition:")
	for _, ts := range s.Transitions {
		if !ts.OK {
			fmt.Fprintf(bw, "%s -> %s: %s\n", ts.Transition.From, ts.Transition.To, noData)
			continue
		}
		fmt.Fprintf(bw, "%s -> %s: %s (median %s, %d transitions)\n",
			ts.Transition.From, ts.Transition.To, formatDuration(ts.Mean), formatDuration(ts.Median), ts.Count)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Average Days taken for each Story Point value:")
	for _, bs := range s.Buckets {
		fmt.Fprintf(bw, "%d Story Points: %s\n", bs.StoryPoints, bs.AverageDays.format(" days"))
	}
	return bw.Flush()
}

func writeIssue(w io.Writer, res domain.IssueResult) {
	if res.FetchErr != nil {
		fmt.Fprintf(w, "Issue %s: changelog unavailable: %v\n", res.Issue.Key, res.FetchErr)
	}
	if res.Span.Complete() {
		fmt.Fprintf(w, "Issue %s took %d workdays to complete and has %d Story Points.\n",
			res.Issue.Key, res.Workdays, res.Issue.StoryPoints)
		return
	}
	fmt.Fprintf(w, "Issue %s does not have the required transitions and has %d Story Points.\n",
		res.Issue.Key, res.Issue.StoryPoints)
}

// formatDuration prints d rounded to whole seconds.
func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
