package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/naka-gawa/jira-stats/internal/domain"
	"github.com/naka-gawa/jira-stats/internal/gateway"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the behavior of the Jira gateway without making real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchIssues(ctx context.Context, filterID string) ([]domain.Issue, error) {
	args := m.Called(ctx, filterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Issue), args.Error(1)
}

func (m *mockFetcher) FetchChangelog(ctx context.Context, issueKey string) ([]domain.ChangeLogEntry, error) {
	args := m.Called(ctx, issueKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChangeLogEntry), args.Error(1)
}

// completedHistory moves through development from Monday 2024-01-01 to the given day.
func completedHistory(doneDay int) []domain.ChangeLogEntry {
	return []domain.ChangeLogEntry{
		change(stamp(2024, 1, 1, 9), "Backlog", "Dev In Progress"),
		change(stamp(2024, 1, doneDay, 9), "Dev In Progress", "Done"),
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	transportErr := &gateway.TransportError{IssueKey: "PRJ-3", StatusCode: 500, Body: "boom"}

	testCases := []struct {
		name               string
		issues             []domain.Issue
		histories          map[string][]domain.ChangeLogEntry
		fetchErrs          map[string]error
		concurrency        int
		expectedWorkdays   []int
		expectedTotalSP    int
		expectedTotalDays  int
		expectedBuckets    map[int]domain.StoryPointBucket
		expectedTransition map[domain.Transition]expectedStat
	}{
		{
			name:              "no issues",
			issues:            []domain.Issue{},
			expectedWorkdays:  []int{},
			expectedBuckets:   map[int]domain.StoryPointBucket{},
			expectedTotalSP:   0,
			expectedTotalDays: 0,
		},
		{
			name: "happy path - mixed issues",
			issues: []domain.Issue{
				{Key: "PRJ-1", StoryPoints: 3},
				{Key: "PRJ-2", StoryPoints: 5},
				{Key: "PRJ-3", StoryPoints: 3},
			},
			histories: map[string][]domain.ChangeLogEntry{
				"PRJ-1": completedHistory(3), // Mon..Wed
				"PRJ-2": completedHistory(8), // Mon..next Mon
				"PRJ-3": completedHistory(5), // Mon..Fri
			},
			expectedWorkdays:  []int{3, 6, 5},
			expectedTotalSP:   11,
			expectedTotalDays: 14,
			expectedBuckets: map[int]domain.StoryPointBucket{
				3: {TotalDays: 8, Count: 2},
				5: {TotalDays: 6, Count: 1},
			},
			expectedTransition: map[domain.Transition]expectedStat{
				{From: "Dev In Progress", To: "Done"}: {total: (48 + 168 + 96) * time.Hour, count: 3},
			},
		},
		{
			name: "missing transitions contribute zero workdays",
			issues: []domain.Issue{
				{Key: "PRJ-1", StoryPoints: 2},
				{Key: "PRJ-2", StoryPoints: 0},
			},
			histories: map[string][]domain.ChangeLogEntry{
				"PRJ-1": completedHistory(2),
				"PRJ-2": {change(stamp(2024, 1, 1, 9), "Backlog", "Dev In Progress")},
			},
			expectedWorkdays:  []int{2, 0},
			expectedTotalSP:   2,
			expectedTotalDays: 2,
			expectedBuckets: map[int]domain.StoryPointBucket{
				0: {TotalDays: 0, Count: 1},
				2: {TotalDays: 2, Count: 1},
			},
			expectedTransition: map[domain.Transition]expectedStat{
				{From: "Dev In Progress", To: "Done"}: {total: 24 * time.Hour, count: 1},
			},
		},
		{
			name: "transport failure is isolated to its issue",
			issues: []domain.Issue{
				{Key: "PRJ-1", StoryPoints: 1},
				{Key: "PRJ-3", StoryPoints: 8},
			},
			histories: map[string][]domain.ChangeLogEntry{
				"PRJ-1": completedHistory(1),
			},
			fetchErrs:         map[string]error{"PRJ-3": transportErr},
			expectedWorkdays:  []int{1, 0},
			expectedTotalSP:   9,
			expectedTotalDays: 1,
			expectedBuckets: map[int]domain.StoryPointBucket{
				1: {TotalDays: 1, Count: 1},
				8: {TotalDays: 0, Count: 1},
			},
			expectedTransition: map[domain.Transition]expectedStat{
				{From: "Dev In Progress", To: "Done"}: {total: 0, count: 1},
			},
		},
		{
			name:        "concurrent fetches keep issue order",
			concurrency: 4,
			issues: []domain.Issue{
				{Key: "PRJ-1", StoryPoints: 1},
				{Key: "PRJ-2", StoryPoints: 2},
				{Key: "PRJ-3", StoryPoints: 3},
				{Key: "PRJ-4", StoryPoints: 5},
			},
			histories: map[string][]domain.ChangeLogEntry{
				"PRJ-1": completedHistory(1),
				"PRJ-2": completedHistory(2),
				"PRJ-3": completedHistory(3),
				"PRJ-4": completedHistory(4),
			},
			expectedWorkdays:  []int{1, 2, 3, 4},
			expectedTotalSP:   11,
			expectedTotalDays: 10,
			expectedBuckets: map[int]domain.StoryPointBucket{
				1: {TotalDays: 1, Count: 1},
				2: {TotalDays: 2, Count: 1},
				3: {TotalDays: 3, Count: 1},
				5: {TotalDays: 4, Count: 1},
			},
			expectedTransition: map[domain.Transition]expectedStat{
				{From: "Dev In Progress", To: "Done"}: {total: (0 + 24 + 48 + 72) * time.Hour, count: 4},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			fetcher := new(mockFetcher)
			fetcher.On("FetchIssues", mock.Anything, "10001").Return(tc.issues, nil)
			for _, issue := range tc.issues {
				if err, ok := tc.fetchErrs[issue.Key]; ok {
					fetcher.On("FetchChangelog", mock.Anything, issue.Key).Return(nil, err)
					continue
				}
				fetcher.On("FetchChangelog", mock.Anything, issue.Key).Return(tc.histories[issue.Key], nil)
			}
			aggregator := NewAggregator(fetcher, zerolog.Nop(), Options{Concurrency: tc.concurrency})

			// --- Act ---
			report, err := aggregator.Aggregate(context.Background(), "10001")

			// --- Assert ---
			require.NoError(t, err)
			require.Len(t, report.Issues, len(tc.issues))
			workdays := make([]int, 0, len(report.Issues))
			sum := 0
			for i, res := range report.Issues {
				assert.Equal(t, tc.issues[i], res.Issue)
				workdays = append(workdays, res.Workdays)
				sum += res.Workdays
				if _, failed := tc.fetchErrs[res.Issue.Key]; failed {
					assert.ErrorAs(t, res.FetchErr, new(*gateway.TransportError))
				} else {
					assert.NoError(t, res.FetchErr)
				}
			}
			assert.Equal(t, tc.expectedWorkdays, workdays)
			assert.Equal(t, tc.expectedTotalSP, report.TotalStoryPoints)
			assert.Equal(t, tc.expectedTotalDays, report.TotalWorkdays)
			assert.Equal(t, sum, report.TotalWorkdays)
			assert.Equal(t, tc.expectedBuckets, report.Buckets)
			if tc.expectedTransition == nil {
				tc.expectedTransition = map[domain.Transition]expectedStat{}
			}
			assertStats(t, tc.expectedTransition, report.Transitions)

			fetcher.AssertExpectations(t)
		})
	}
}

func TestAggregator_Aggregate_SearchFailure(t *testing.T) {
	fetcher := new(mockFetcher)
	fetcher.On("FetchIssues", mock.Anything, "10001").Return(nil, errors.New("jira api error"))

	aggregator := NewAggregator(fetcher, zerolog.Nop(), Options{})
	report, err := aggregator.Aggregate(context.Background(), "10001")

	assert.Error(t, err)
	assert.Nil(t, report)
	fetcher.AssertNotCalled(t, "FetchChangelog", mock.Anything, mock.Anything)
}

func TestAggregator_Aggregate_ForcedStartAndLabels(t *testing.T) {
	forced := day(2024, 1, 1)
	history := []domain.ChangeLogEntry{
		change(stamp(2024, 1, 2, 0), "To Do", "Doing"),
		change(stamp(2024, 1, 3, 0), "Doing", "Shipped"),
	}
	fetcher := new(mockFetcher)
	fetcher.On("FetchIssues", mock.Anything, "42").Return([]domain.Issue{{Key: "PRJ-9", StoryPoints: 1}}, nil)
	fetcher.On("FetchChangelog", mock.Anything, "PRJ-9").Return(history, nil)

	aggregator := NewAggregator(fetcher, zerolog.Nop(), Options{
		Labels:      domain.StatusLabels{Started: "Doing", Done: "Shipped"},
		ForcedStart: &forced,
	})
	report, err := aggregator.Aggregate(context.Background(), "42")

	require.NoError(t, err)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, 2, report.Issues[0].Workdays) // Tue..Wed
	assertStats(t, map[domain.Transition]expectedStat{
		{From: "Doing", To: "Shipped"}: {total: 48 * time.Hour, count: 1},
	}, report.Transitions)
}
