package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/naka-gawa/jira-stats/internal/config"
	"github.com/naka-gawa/jira-stats/internal/domain"
	"github.com/naka-gawa/jira-stats/internal/gateway"
	"github.com/naka-gawa/jira-stats/internal/logger"
	"github.com/naka-gawa/jira-stats/internal/report"
	"github.com/naka-gawa/jira-stats/internal/usecase"
	"github.com/spf13/cobra"
)

const forcedStartLayout = "2006-01-02"

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Prints workday and transition statistics for a saved filter",
	Long: `Fetches every issue of the saved filter named by FILTER_ID and prints
per-issue workdays followed by averages per story point and per status
transition. Connection settings are read from BASE_URL, USERNAME, API_TOKEN
and FILTER_ID, optionally provided through a .env file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		log := logger.New(cmd.ErrOrStderr(), verbose, uuid.NewString())

		envFile, _ := cmd.Flags().GetString("env-file")
		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			cfg.Timeout = timeout
		}

		opts := usecase.Options{Labels: domain.DefaultStatusLabels()}
		opts.Labels.Started, _ = cmd.Flags().GetString("started-status")
		opts.Labels.Done, _ = cmd.Flags().GetString("done-status")
		opts.Concurrency, _ = cmd.Flags().GetInt("concurrency")
		if s, _ := cmd.Flags().GetString("forced-start"); s != "" {
			forced, err := time.Parse(forcedStartLayout, s)
			if err != nil {
				return fmt.Errorf("invalid --forced-start date format, please use YYYY-MM-DD: %w", err)
			}
			opts.ForcedStart = &forced
		}
		pointsField, _ := cmd.Flags().GetString("points-field")

		// Inject dependencies and run the main business logic.
		jiraGateway, err := gateway.NewJiraGateway(cfg, pointsField, log)
		if err != nil {
			return fmt.Errorf("failed to create Jira gateway: %w", err)
		}
		aggregator := usecase.NewAggregator(jiraGateway, log, opts)

		result, err := aggregator.Aggregate(ctx, cfg.FilterID)
		if err != nil {
			return fmt.Errorf("failed to aggregate stats: %w", err)
		}

		return report.Render(cmd.OutOrStdout(), result)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	defaults := domain.DefaultStatusLabels()
	reportCmd.Flags().String("started-status", defaults.Started, "Status that marks the start of development")
	reportCmd.Flags().String("done-status", defaults.Done, "Status that marks completion")
	reportCmd.Flags().String("points-field", gateway.DefaultStoryPointsField, "Issue field holding story points")
	reportCmd.Flags().String("forced-start", "", "Anchor transition tracking at this date (YYYY-MM-DD)")
	reportCmd.Flags().Int("concurrency", 1, "Number of issue changelogs fetched in parallel")
	reportCmd.Flags().String("env-file", ".env", "Optional dotenv file with connection settings")
	reportCmd.Flags().Duration("timeout", config.DefaultTimeout, "Timeout for each Jira request")
}
