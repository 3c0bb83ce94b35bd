package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/target/newsletter-api/internal/data"
	"github.com/target/newsletter-api/internal/domain/model"
)

func parseIssuesFlags(args []string) (model.IssueListOptions, error) {
	fs := flag.NewFlagSet("issues", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := model.IssueListOptions{}
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum issues to print")
	fs.IntVar(&opts.Offset, "offset", 0, "Issues to skip")

	if err := fs.Parse(args); err != nil {
		return model.IssueListOptions{}, err
	}
	if opts.Limit <= 0 || opts.Offset < 0 {
		return model.IssueListOptions{}, errors.New("--limit must be positive and --offset non-negative")
	}
	return opts, nil
}

func runIssues(cmdCtx *commandContext, args []string) error {
	opts, err := parseIssuesFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, listTimeout, func(ctx context.Context, db *sql.DB) error {
		issues, err := data.NewIssueRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}).List(ctx, opts)
		if err != nil {
			return err
		}
		return renderIssues(os.Stdout, issues)
	})
}

func renderIssues(w io.Writer, issues []*model.NewsletterIssue) error {
	if len(issues) == 0 {
		return writeln(w, "  (no issues published)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tPUBLISHED AT\tTITLE"); err != nil {
		return err
	}
	for _, is := range issues {
		if err := writef(tw, "%s\t%s\t%s\n", is.ID, is.PublishedAt.UTC().Format(time.RFC3339), is.Title); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runQueueStats(cmdCtx *commandContext, _ []string) error {
	return withDatabase(cmdCtx, listTimeout, func(ctx context.Context, db *sql.DB) error {
		stats, err := data.NewDeliveryQueueRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}).Stats(ctx)
		if err != nil {
			return err
		}
		return renderQueueStats(os.Stdout, stats)
	})
}

func renderQueueStats(w io.Writer, stats []model.QueueStats) error {
	if len(stats) == 0 {
		return writeln(w, "Delivery queue is empty.")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ISSUE\tPENDING\tTITLE"); err != nil {
		return err
	}
	var total int64
	for _, s := range stats {
		total += s.Pending
		if err := writef(tw, "%s\t%d\t%s\n", s.IssueID, s.Pending, s.Title); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writef(w, "Total pending deliveries: %d\n", total)
}
