package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"EGPScanner/internal/app"
	"EGPScanner/internal/config"
	"EGPScanner/internal/domain"
	"EGPScanner/internal/logging"
)

func main() {
	// A missing .env is fine; real deployments use environment variables.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	root := &cobra.Command{
		Use:           "egpscanner",
		Short:         "Thai e-GP procurement feed scanner",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var (
		deptSubID    string
		methodID     string
		announceType string
		announceDate string
		countByDay   bool
	)

	readfeed := &cobra.Command{
		Use:   "readfeed [dept_id]",
		Short: "Read the e-GP RSS feed and store announcements",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			filter := domain.FeedFilter{
				DeptSubID:    deptSubID,
				MethodID:     methodID,
				AnnounceType: announceType,
				AnnounceDate: announceDate,
				CountByDay:   countByDay,
			}
			if len(args) > 0 {
				filter.DeptID = args[0]
			}

			count, err := application.Ingestor().Ingest(cmd.Context(), filter)
			if err != nil {
				return err
			}
			fmt.Printf("Feed processing completed. New entries: %d\n", count)
			return nil
		},
	}
	readfeed.Flags().StringVar(&deptSubID, "dept-sub-id", "", "10-digit sub-department code")
	readfeed.Flags().StringVar(&methodID, "method-id", "", "2-digit procurement method code (e.g., 16 for e-bidding)")
	readfeed.Flags().StringVar(&announceType, "announce-type", "", "2-character announcement type (e.g., P0 for procurement plan)")
	readfeed.Flags().StringVar(&announceDate, "date", "", "announcement date in YYYYMMDD format")
	readfeed.Flags().BoolVar(&countByDay, "count", false, "include count of announcements per day")

	find := &cobra.Command{
		Use:   "find [dept_id] [limit]",
		Short: "Show recent announcements",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			deptID, limit, err := findArgs(args)
			if err != nil {
				return err
			}

			announcements, total, err := application.Repository().ListRecentAnnouncements(cmd.Context(), deptID, limit)
			if err != nil {
				return err
			}
			if len(announcements) == 0 {
				fmt.Println("No announcements found in database.")
				return nil
			}

			fmt.Printf("Found %d of %d recent announcements:\n", len(announcements), total)
			for i, ann := range announcements {
				fmt.Printf("\n%d. Title: %s\n", i+1, ann.Title)
				fmt.Printf("   Published: %s\n", valueOr(ann.PublishedDate, "N/A"))
				fmt.Printf("   Project ID: %s\n", valueOr(ann.ProjectID, "N/A"))
				fmt.Printf("   Stored: %s\n", ann.CreatedAt.Format("2006-01-02 15:04:05"))
				fmt.Printf("   Link: %s\n", ann.Link)
			}
			return nil
		},
	}

	extractCmd := &cobra.Command{
		Use:   "extract [dept_id] [limit]",
		Short: "Download documents for recent announcements and extract procurement details",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			deptID, limit, err := findArgs(args)
			if err != nil {
				return err
			}

			count, err := application.Pipeline().ExtractRecent(cmd.Context(), deptID, limit)
			if err != nil {
				return err
			}
			fmt.Printf("Successfully processed %d announcement(s)\n", count)
			return nil
		},
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "Fetch and extract documents for announcements without download attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			count, err := application.Pipeline().DownloadPending(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Successfully processed %d pending announcement(s)\n", count)
			return nil
		},
	}

	debug := &cobra.Command{
		Use:   "debug",
		Short: "Dump stored announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			announcements, total, err := application.Repository().ListRecentAnnouncements(cmd.Context(), "", 1000)
			if err != nil {
				return err
			}

			fmt.Printf("Found %d total announcements in database:\n", total)
			for i, ann := range announcements {
				fmt.Printf("\n%d. Title: %s\n", i+1, truncate(ann.Title, 150))
				fmt.Printf("   Description: %s\n", truncate(ann.Description, 150))
				fmt.Printf("   Link: %s\n", truncate(ann.Link, 150))
			}
			return nil
		},
	}

	initdb := &cobra.Command{
		Use:   "initdb",
		Short: "Drop and recreate the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Repository().Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Database schema initialized successfully")
			return nil
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Periodically ingest the feed for every configured department",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			return application.Watch(cmd.Context())
		},
	}

	root.AddCommand(readfeed, find, extractCmd, pending, debug, initdb, watch)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// findArgs reads the optional [dept_id] [limit] positional pair shared by
// the find and extract commands.
func findArgs(args []string) (string, int, error) {
	deptID := ""
	limit := 10
	if len(args) > 0 {
		deptID = args[0]
	}
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed <= 0 {
			return "", 0, fmt.Errorf("invalid limit %q", args[1])
		}
		limit = parsed
	}
	return deptID, limit, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max]) + "..."
}
