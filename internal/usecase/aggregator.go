// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"time"

	"github.com/naka-gawa/jira-stats/internal/domain"
	"github.com/naka-gawa/jira-stats/internal/gateway"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options tunes how the Aggregator processes issues.
type Options struct {
	Labels domain.StatusLabels
	// ForcedStart, when set, anchors duration tracking for every issue.
	ForcedStart *time.Time
	// Concurrency bounds parallel changelog fetches. Values below 1 mean sequential.
	Concurrency int
}

// Aggregator is the use case for aggregating Jira workflow stats.
// It orchestrates the fetching and combining of data and is the sole owner
// of the report accumulators.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  zerolog.Logger
	opts    Options
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger zerolog.Logger, opts Options) *Aggregator {
	if opts.Labels == (domain.StatusLabels{}) {
		opts.Labels = domain.DefaultStatusLabels()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
	}
}

// Aggregate fetches the issues matched by filterID and builds the report.
// Only a failed issue search aborts the run; a changelog that cannot be
// fetched is recorded on that issue and treated as an empty history.
func (a *Aggregator) Aggregate(ctx context.Context, filterID string) (*domain.Report, error) {
	a.logger.Debug().Msg("usecase: starting data aggregation")

	issues, err := a.fetcher.FetchIssues(ctx, filterID)
	if err != nil {
		return nil, err
	}

	// Each worker writes only its own slot; merging happens after Wait.
	results := make([]domain.IssueResult, len(issues))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Concurrency)
	for i, issue := range issues {
		eg.Go(func() error {
			results[i] = a.processIssue(egCtx, issue)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	a.logger.Debug().Int("issues", len(issues)).Msg("usecase: all changelogs processed")

	report := &domain.Report{
		Issues:      results,
		Transitions: make(map[domain.Transition]domain.TransitionStat),
		Buckets:     make(map[int]domain.StoryPointBucket),
	}
	for _, res := range results {
		points := res.Issue.StoryPoints
		bucket := report.Buckets[points]
		bucket.TotalDays += res.Workdays
		bucket.Count++
		report.Buckets[points] = bucket

		report.TotalStoryPoints += points
		report.TotalWorkdays += res.Workdays

		for tr, stat := range res.Durations {
			acc := report.Transitions[tr]
			acc.Merge(stat)
			report.Transitions[tr] = acc
		}
	}

	a.logger.Debug().Msg("usecase: aggregation complete")
	return report, nil
}

func (a *Aggregator) processIssue(ctx context.Context, issue domain.Issue) domain.IssueResult {
	res := domain.IssueResult{Issue: issue}

	history, err := a.fetcher.FetchChangelog(ctx, issue.Key)
	if err != nil {
		a.logger.Warn().Err(err).Str("issue", issue.Key).Msg("changelog unavailable, treating history as empty")
		res.FetchErr = err
		history = nil
	}

	res.Span = ResolveWorkSpan(history, a.opts.Labels)
	if res.Span.Complete() {
		res.Workdays = WorkdaysBetween(*res.Span.Start, *res.Span.End)
	}
	res.Durations = AccumulateDurations(history, a.opts.Labels, a.opts.ForcedStart)
	return res
}
