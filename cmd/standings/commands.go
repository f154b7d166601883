package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"mlb_standings/ingestion/internal/cache"
	"mlb_standings/ingestion/internal/client"
	"mlb_standings/ingestion/internal/config"
	"mlb_standings/ingestion/internal/repository"
	"mlb_standings/ingestion/internal/season"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type fetchFlags struct {
	update  bool
	refresh bool
}

func newRootCommand() *cobra.Command {
	var flags fetchFlags

	root := &cobra.Command{
		Use:   "standings [year]",
		Short: "Build day-by-day MLB division standings for a season",
		Long: `standings fetches the MLB division standings for every day of a season,
repairs provider glitches and writes the season timeline to the configured store.

With no subcommand it behaves like "fetch". The year defaults to the current year.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), args, flags)
		},
	}
	addFetchFlags(root, &flags)

	root.AddCommand(newFetchCommand(), newValidateCommand(), newServeCommand())
	return root
}

func addFetchFlags(cmd *cobra.Command, flags *fetchFlags) {
	cmd.Flags().BoolVarP(&flags.update, "update", "u", false, "resume from the stored season instead of rebuilding it")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "refetch days already held in the timeline")
}

func newFetchCommand() *cobra.Command {
	var flags fetchFlags
	cmd := &cobra.Command{
		Use:   "fetch [year]",
		Short: "Build or update a season timeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), args, flags)
		},
	}
	addFetchFlags(cmd, &flags)
	return cmd
}

func newValidateCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "validate [year]",
		Short: "Check a stored season timeline without fetching",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := parseYear(args, time.Now())
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			runner, cleanup, err := buildRunner(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := runner.Validate(cmd.Context(), year, write)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			if !report.Validation.OK {
				return fmt.Errorf("season %d failed validation: %s", year, report.Validation.Detail)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write back the repaired timeline")
	return cmd
}

func runFetch(ctx context.Context, args []string, flags fetchFlags) error {
	year, err := parseYear(args, time.Now())
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runner, cleanup, err := buildRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	log.Info().
		Int("year", year).
		Bool("update", flags.update).
		Bool("refresh", flags.refresh).
		Msg("Fetching standings")

	_, err = runner.Run(ctx, season.RunOptions{Year: year, Update: flags.update, Refresh: flags.refresh})
	return err
}

// parseYear returns the season named in args, or the current year
func parseYear(args []string, now time.Time) (int, error) {
	if len(args) == 0 {
		return now.Year(), nil
	}
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", args[0])
	}
	if year < 1876 || year > now.Year() {
		return 0, fmt.Errorf("year %d out of range", year)
	}
	return year, nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.AppEnv, cfg.LogLevel)
	return cfg, nil
}

// buildRunner wires the provider client, optional cache and the configured store
func buildRunner(ctx context.Context, cfg *config.Config) (*season.Runner, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var fetcher season.Fetcher = client.NewClient(
		cfg.StatsAPIBaseURL,
		cfg.FetchTimeout,
		client.WithLeagueIDs(cfg.StatsAPILeagueIDs),
		client.WithThrottle(cfg.FetchThrottle),
		client.WithRetries(cfg.FetchMaxRetries, time.Second),
	)

	if cfg.RedisEnabled {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host:     cfg.RedisHost,
			Port:     strconv.Itoa(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to connect to Redis - continuing without cache")
		} else {
			closers = append(closers, func() { redisCache.Close() })
			fetcher = cache.NewCachedFetcher(fetcher, redisCache, cfg.CacheTTLStandings, cfg.StatsAPILeagueIDs)
		}
	}

	var store season.Store
	switch cfg.SnapshotBackend {
	case config.BackendPostgres:
		db, err := repository.NewDatabase(ctx, repository.Config{
			Host:     cfg.DatabaseHost,
			Port:     strconv.Itoa(cfg.DatabasePort),
			User:     cfg.DatabaseUser,
			Password: cfg.DatabasePassword,
			Database: cfg.DatabaseName,
			SSLMode:  cfg.DatabaseSSLMode,
		})
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		store = db.Seasons
	default:
		store = repository.NewFileStore(cfg.DataDir)
	}

	return season.NewRunner(fetcher, store, season.OptionsFromConfig(cfg)), cleanup, nil
}

func printReport(cmd *cobra.Command, report *season.RunReport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "season %d: %s to %s (%d days)\n",
		report.Year, report.OpeningDay, report.LastDay, report.Days)
	if report.Validation.OK {
		fmt.Fprintf(out, "valid, %d repairs\n", report.Validation.RepairCount())
		return
	}
	fmt.Fprintf(out, "INVALID: %s: %s\n", report.Validation.Failure, report.Validation.Detail)
}
