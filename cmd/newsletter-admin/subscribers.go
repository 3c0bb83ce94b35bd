package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/target/newsletter-api/internal/domain/model"
	"github.com/target/newsletter-api/internal/service"
)

const listTimeout = 2 * time.Minute

type subscriberAddOptions struct {
	Name      string
	Email     string
	Confirmed bool
}

func parseSubscriberAddFlags(args []string) (subscriberAddOptions, error) {
	fs := flag.NewFlagSet("subscriber-add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := subscriberAddOptions{}
	fs.StringVar(&opts.Name, "name", "", "Subscriber display name")
	fs.StringVar(&opts.Email, "email", "", "Subscriber email address")
	fs.BoolVar(&opts.Confirmed, "confirmed", false, "Store the subscription as confirmed")

	if err := fs.Parse(args); err != nil {
		return subscriberAddOptions{}, err
	}
	if opts.Email == "" || opts.Name == "" {
		return subscriberAddOptions{}, errors.New("--name and --email are required")
	}
	return opts, nil
}

func statusFor(confirmed bool) model.SubscriptionStatus {
	if confirmed {
		return model.SubscriptionStatusConfirmed
	}
	return model.SubscriptionStatusPending
}

func runSubscriberAdd(cmdCtx *commandContext, args []string) error {
	opts, err := parseSubscriberAddFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, listTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, err := newSubscriptionService(cmdCtx, db)
		if err != nil {
			return err
		}
		sub, token, err := svc.AddSubscriber(ctx, service.AddSubscriberParams{
			Name:   opts.Name,
			Email:  opts.Email,
			Status: statusFor(opts.Confirmed),
		})
		if err != nil {
			return err
		}
		if err := writef(os.Stdout, "Added subscription %s (%s, %s)\n", sub.ID, sub.Email, sub.Status); err != nil {
			return err
		}
		if token != "" {
			return writef(os.Stdout, "Confirmation link: %s\n", svc.ConfirmationLink(token))
		}
		return nil
	})
}

func runSubscriberConfirm(cmdCtx *commandContext, args []string) error {
	fs := flag.NewFlagSet("subscriber-confirm", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	token := fs.String("token", "", "Subscription token from the confirmation link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *token == "" {
		return errors.New("--token is required")
	}

	return withDatabase(cmdCtx, listTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, err := newSubscriptionService(cmdCtx, db)
		if err != nil {
			return err
		}
		sub, err := svc.Confirm(ctx, *token)
		if err != nil {
			return err
		}
		return writef(os.Stdout, "Confirmed subscription %s (%s)\n", sub.ID, sub.Email)
	})
}

type subscribersOptions struct {
	Status *model.SubscriptionStatus
	Limit  int
	Offset int
}

func parseSubscribersFlags(args []string) (subscribersOptions, error) {
	fs := flag.NewFlagSet("subscribers", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var status string
	opts := subscribersOptions{}
	fs.StringVar(&status, "status", "", "Filter by status (pending_confirmation or confirmed)")
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum rows to print")
	fs.IntVar(&opts.Offset, "offset", 0, "Rows to skip")

	if err := fs.Parse(args); err != nil {
		return subscribersOptions{}, err
	}
	if status != "" {
		s, ok := model.ParseSubscriptionStatus(status)
		if !ok {
			return subscribersOptions{}, fmt.Errorf("unknown --status %q", status)
		}
		opts.Status = &s
	}
	if opts.Limit <= 0 || opts.Offset < 0 {
		return subscribersOptions{}, errors.New("--limit must be positive and --offset non-negative")
	}
	return opts, nil
}

func runSubscribers(cmdCtx *commandContext, args []string) error {
	opts, err := parseSubscribersFlags(args)
	if err != nil {
		return err
	}

	return withDatabase(cmdCtx, listTimeout, func(ctx context.Context, db *sql.DB) error {
		svc, err := newSubscriptionService(cmdCtx, db)
		if err != nil {
			return err
		}
		subs, err := svc.List(ctx, model.SubscriptionListOptions{
			Status: opts.Status,
			Limit:  opts.Limit,
			Offset: opts.Offset,
		})
		if err != nil {
			return err
		}
		return renderSubscribers(os.Stdout, subs)
	})
}

func renderSubscribers(w io.Writer, subs []*model.Subscription) error {
	if len(subs) == 0 {
		return writeln(w, "  (no subscribers)")
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "ID\tEMAIL\tNAME\tSTATUS\tSUBSCRIBED AT"); err != nil {
		return err
	}
	for _, s := range subs {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.Email, s.Name, s.Status, s.SubscribedAt.UTC().Format(time.RFC3339),
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

type importOptions struct {
	File    string
	Timeout time.Duration
}

func parseImportFlags(args []string) (importOptions, error) {
	fs := flag.NewFlagSet("subscriber-import", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := importOptions{}
	fs.StringVar(&opts.File, "file", "", "CSV file with name,email rows (- for stdin)")
	fs.DurationVar(&opts.Timeout, "timeout", defaultCommandTimeout, "Maximum duration for the import")

	if err := fs.Parse(args); err != nil {
		return importOptions{}, err
	}
	if opts.File == "" {
		return importOptions{}, errors.New("--file is required")
	}
	if opts.Timeout <= 0 {
		return importOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func runSubscriberImport(cmdCtx *commandContext, args []string) error {
	opts, err := parseImportFlags(args)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if opts.File != "-" {
		f, openErr := os.Open(opts.File)
		if openErr != nil {
			return fmt.Errorf("open import file: %w", openErr)
		}
		defer f.Close()
		in = f
	}

	return withDatabase(cmdCtx, opts.Timeout, func(ctx context.Context, db *sql.DB) error {
		svc, err := newSubscriptionService(cmdCtx, db)
		if err != nil {
			return err
		}
		res, err := svc.ImportCSV(ctx, in)
		if err != nil {
			return err
		}
		return printImportResult(os.Stdout, res)
	})
}

func printImportResult(w io.Writer, res *service.ImportResult) error {
	if err := writef(w, "Read %d row(s); inserted %d; rejected %d.\n", res.Rows, res.Inserted, len(res.Rejected)); err != nil {
		return err
	}
	for _, r := range res.Rejected {
		if err := writef(w, "  line %d: %s\n", r.Line, r.Reason); err != nil {
			return err
		}
	}
	return nil
}
