package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/target/newsletter-api/internal/bootstrap"
	"github.com/target/newsletter-api/internal/data"
	"github.com/target/newsletter-api/internal/service"
)

const defaultCommandTimeout = 5 * time.Minute

// withDatabase connects, runs f under timeout and closes the pool.
func withDatabase(
	cmdCtx *commandContext,
	timeout time.Duration,
	f func(context.Context, *sql.DB) error,
) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	return f(ctx, db)
}

// newSubscriptionService wires the subscription service without an email client;
// admin commands never send confirmation mail.
func newSubscriptionService(cmdCtx *commandContext, db *sql.DB) (*service.SubscriptionService, error) {
	return service.NewSubscriptionService(service.SubscriptionServiceOptions{
		Tx:      data.NewTxManager(db),
		Repo:    data.NewSubscriptionRepo(db, data.RepoConfig{Logger: cmdCtx.Logger}),
		BaseURL: cmdCtx.Config.HTTP.BaseURL,
		Logger:  cmdCtx.Logger,
	})
}

func guardRemoteHost(cmdCtx *commandContext, allow bool, action string) error {
	host := cmdCtx.Config.Postgres.Host
	if !isLikelyRemoteHost(host) {
		return nil
	}
	if !allow {
		return fmt.Errorf(
			"refusing to run against potentially remote database host %q; re-run with --allow-remote if this is intentional",
			host,
		)
	}
	return requireTypedConfirmation(os.Stdin, os.Stderr, action, host)
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" || h == "localhost" || strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

var errAborted = errors.New("aborted by user")

// requireTypedConfirmation makes the operator type want before a destructive action.
func requireTypedConfirmation(in io.Reader, out io.Writer, action, want string) error {
	if err := writef(out, "\nWARNING: this operation will %s.\nType %q to continue or press enter to abort: ", action, want); err != nil {
		return fmt.Errorf("print confirmation prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: read confirmation: %w", errAborted, err)
	}
	if strings.TrimSpace(resp) != want {
		return errAborted
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
